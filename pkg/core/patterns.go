package core

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v2"
)

// FieldPattern is an explicit schema-reference pattern: a schema line
// matching Regex implies an edge of Type to Target. Each pattern carries
// its own field path and reason; confidence for this pass is fixed at
// explicitMatchConfidence unless a custom pattern overrides it.
type FieldPattern struct {
	Regex      *regexp.Regexp
	Field      string
	Target     ResourceReference
	Type       DependencyType
	Reason     string
	Confidence float64
}

const (
	explicitMatchConfidence = 0.9
	providerInferConfidence = 0.8
)

var fieldPatterns = []FieldPattern{
	{
		Regex:  regexp.MustCompile(`^\s*resourceGroupName\s+<string>`),
		Field:  "spec.resourceGroupName",
		Target: ResourceReference{Kind: "ResourceGroup", Group: "azure.upbound.io"},
		Type:   DependencyRequired,
		Reason: "Azure resources must be created inside a resource group",
	},
	{
		Regex:  regexp.MustCompile(`^\s*projectID\s+<string>`),
		Field:  "spec.projectID",
		Target: ResourceReference{Kind: "Project", Group: "gcp.upbound.io"},
		Type:   DependencyRequired,
		Reason: "GCP resources must be created inside a project",
	},
	{
		Regex:  regexp.MustCompile(`^\s*secretRef\s+<Object>`),
		Field:  "spec.secretRef",
		Target: ResourceReference{Kind: "Secret", Group: ""},
		Type:   DependencyRequired,
		Reason: "References a Secret for credentials or connection details",
	},
	{
		Regex:  regexp.MustCompile(`^\s*configMapRef\s+<Object>`),
		Field:  "spec.configMapRef",
		Target: ResourceReference{Kind: "ConfigMap", Group: ""},
		Type:   DependencyOptional,
		Reason: "References a ConfigMap for configuration data",
	},
	{
		Regex:  regexp.MustCompile(`^\s*serviceAccountName\s+<string>`),
		Field:  "spec.serviceAccountName",
		Target: ResourceReference{Kind: "ServiceAccount", Group: ""},
		Type:   DependencyOptional,
		Reason: "Runs under a dedicated ServiceAccount identity",
	},
	{
		Regex:  regexp.MustCompile(`^\s*storageClassName\s+<string>`),
		Field:  "spec.storageClassName",
		Target: ResourceReference{Kind: "StorageClass", Group: "storage.k8s.io"},
		Type:   DependencyOptional,
		Reason: "Provisions storage through a named StorageClass",
	},
}

// ProviderPattern infers a foundation dependency from the resource's API
// group alone. The inference is skipped when the resource is itself the
// foundation kind, to avoid self-loops.
type ProviderPattern struct {
	Marker     string
	Foundation ResourceReference
	Reason     string
}

var providerPatterns = []ProviderPattern{
	{
		Marker:     "azure",
		Foundation: ResourceReference{Kind: "ResourceGroup", Group: "azure.upbound.io"},
		Reason:     "Azure managed resources are scoped to a ResourceGroup",
	},
	{
		Marker:     "gcp",
		Foundation: ResourceReference{Kind: "Project", Group: "gcp.upbound.io"},
		Reason:     "GCP managed resources are scoped to a Project",
	},
}

// OperationalPattern pairs a class of resources, recognized by keyword,
// with a companion resource that commonly accompanies it. These are the
// lowest-confidence edges. A companion with an empty Group resolves to the
// dependent resource's own group (e.g. a database's firewall rule lives in
// the same provider group as the database itself).
type OperationalPattern struct {
	Class        string
	KindTokens   []string
	SchemaTokens []string
	Companion    ResourceReference
	SameGroup    bool
	Type         DependencyType
	Reason       string
	Confidence   float64
}

var operationalPatterns = []OperationalPattern{
	{
		Class:      "database",
		KindTokens: []string{"Server", "Database", "Instance", "Cluster"},
		SchemaTokens: []string{
			"administratorLogin", "databaseVersion", "postgres", "mysql", "sqlserver",
		},
		Companion:  ResourceReference{Kind: "FirewallRule"},
		SameGroup:  true,
		Type:       DependencyOptional,
		Reason:     "Database servers typically need firewall rules to allow client access",
		Confidence: 0.7,
	},
	{
		Class:      "storage",
		KindTokens: []string{"PersistentVolume", "Bucket", "Disk", "Volume"},
		SchemaTokens: []string{
			"persistentVolumeReclaimPolicy", "storageCapacity", "accessModes",
		},
		Companion:  ResourceReference{Kind: "StorageClass", Group: "storage.k8s.io"},
		Type:       DependencyEnhances,
		Reason:     "Storage resources benefit from an explicit StorageClass for provisioning policy",
		Confidence: 0.6,
	},
}

// customPattern is the YAML shape of a user-defined field pattern in
// ~/.kindgraph/patterns.yaml.
type customPattern struct {
	Match      string  `yaml:"match"`
	Field      string  `yaml:"field"`
	Kind       string  `yaml:"kind"`
	Group      string  `yaml:"group"`
	Type       string  `yaml:"type"`
	Reason     string  `yaml:"reason"`
	Confidence float64 `yaml:"confidence"`
}

// AddFieldPattern registers an additional explicit pattern. Used by the
// custom-pattern loader and available to embedding programs.
func AddFieldPattern(p FieldPattern) {
	fieldPatterns = append(fieldPatterns, p)
}

// GetFieldPatterns returns the currently registered explicit patterns.
func GetFieldPatterns() []FieldPattern {
	return fieldPatterns
}

// LoadCustomPatterns reads user-defined field patterns from
// ~/.kindgraph/patterns.yaml and registers them. A missing file is not an
// error; a malformed file or entry is.
func LoadCustomPatterns() (int, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return 0, fmt.Errorf("error getting home directory: %v", err)
	}
	return loadCustomPatternsFrom(filepath.Join(home, ".kindgraph", "patterns.yaml"))
}

func loadCustomPatternsFrom(path string) (int, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("error reading patterns file: %v", err)
	}

	type customPatterns struct {
		Patterns []customPattern `yaml:"patterns"`
	}

	var custom customPatterns
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return 0, fmt.Errorf("error parsing patterns file: %v", err)
	}

	counter := 0
	for _, p := range custom.Patterns {
		if p.Match == "" || p.Field == "" || p.Kind == "" {
			return 0, fmt.Errorf("invalid pattern: match, field and kind are required: %+v", p)
		}
		depType := DependencyType(p.Type)
		switch depType {
		case DependencyRequired, DependencyOptional, DependencyEnhances:
		default:
			return 0, fmt.Errorf("invalid pattern type: must be required, optional or enhances: %q", p.Type)
		}
		re, err := regexp.Compile(p.Match)
		if err != nil {
			return 0, fmt.Errorf("invalid pattern regex %q: %v", p.Match, err)
		}
		confidence := p.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = explicitMatchConfidence
		}
		AddFieldPattern(FieldPattern{
			Regex:      re,
			Field:      p.Field,
			Target:     ResourceReference{Kind: p.Kind, Group: p.Group},
			Type:       depType,
			Reason:     p.Reason,
			Confidence: confidence,
		})
		counter++
	}

	return counter, nil
}
