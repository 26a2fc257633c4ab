package core

import (
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// ResourceReference identifies a Kubernetes resource kind, not a live
// instance. Identity for graph purposes is (Kind, Group); APIVersion is
// carried for downstream schema fetching but does not participate in
// deduplication.
type ResourceReference struct {
	Kind       string `json:"kind" yaml:"kind"`
	Group      string `json:"group" yaml:"group"`
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
}

// Key returns the canonical identity of the reference, used as the node
// key in the dependency graph.
func (r ResourceReference) Key() string {
	return strings.ToLower(r.Group) + "/" + strings.ToLower(r.Kind)
}

func (r ResourceReference) String() string {
	if r.Group == "" {
		return r.Kind
	}
	return fmt.Sprintf("%s.%s", r.Kind, r.Group)
}

// GVK converts the reference to an apimachinery GroupVersionKind for use
// with discovery and OpenAPI clients.
func (r ResourceReference) GVK() schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: r.Group, Version: r.APIVersion, Kind: r.Kind}
}

// FromGVK builds a ResourceReference from an apimachinery GroupVersionKind.
func FromGVK(gvk schema.GroupVersionKind) ResourceReference {
	return ResourceReference{Kind: gvk.Kind, Group: gvk.Group, APIVersion: gvk.Version}
}

// DependencyType classifies an edge between two resource kinds.
type DependencyType string

const (
	// DependencyRequired edges participate in deploy ordering.
	DependencyRequired DependencyType = "required"
	// DependencyOptional edges are included in solutions but do not
	// constrain ordering.
	DependencyOptional DependencyType = "optional"
	// DependencyEnhances edges are purely additive pairings.
	DependencyEnhances DependencyType = "enhances"
)

// ResourceDependency is a directed, typed edge between two resource kinds.
// The edge points dependent -> dependency: the dependent requires or
// benefits from the dependency.
type ResourceDependency struct {
	Dependent  ResourceReference `json:"dependent"`
	Dependency ResourceReference `json:"dependency"`
	Type       DependencyType    `json:"type"`
	// Field is the schema field that implied the relationship
	// (e.g. spec.resourceGroupName). Traceability only, never logic.
	Field string `json:"field"`
	// Pattern is the raw matched schema fragment, kept for audit.
	Pattern string `json:"pattern,omitempty"`
	// Reason is surfaced to end users in the solution rationale.
	Reason string `json:"reason"`
	// Confidence is advisory metadata in [0,1]; it is stored per edge but
	// not used to filter or rank.
	Confidence   float64   `json:"confidence"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// MergeKey is the idempotent-upsert identity of an edge. Re-discovering
// the same (dependent, dependency, type, field) updates rather than
// duplicates.
func (d ResourceDependency) MergeKey() string {
	return strings.Join([]string{
		d.Dependent.Key(),
		d.Dependency.Key(),
		string(d.Type),
		d.Field,
	}, "|")
}

// CompleteSolution is the assembler's output: the primary resource plus
// everything needed or recommended to make it deployable, with a valid
// creation order. Solutions are computed fresh per request and never
// persisted.
type CompleteSolution struct {
	Primary      ResourceReference    `json:"primary"`
	Required     []ResourceReference  `json:"required"`
	Optional     []ResourceReference  `json:"optional"`
	Dependencies []ResourceDependency `json:"dependencies"`
	// Order is a deploy sequence satisfying all required edges; optional
	// resources are appended after the ordered required set.
	Order     []ResourceReference `json:"order"`
	Rationale string              `json:"rationale"`
	// Warnings carries non-fatal conditions such as a detected
	// dependency cycle; the solution remains usable.
	Warnings []string `json:"warnings,omitempty"`
}
