package apiserver

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	openapi_v3 "github.com/google/gnostic-models/openapiv3"
	"google.golang.org/protobuf/proto"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth/oidc"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Provider implements provider.SchemaProvider against a live apiserver:
// resource kinds come from discovery, schema text is rendered from the
// cluster's OpenAPI v3 documents in the kubectl explain --recursive form.
type Provider struct {
	clientset kubernetes.Interface

	schemasOnce sync.Once
	schemasErr  error
	schemas     map[string]*openapi_v3.Schema
}

// NewProvider builds a Provider from in-cluster config, falling back to
// the local kubeconfig.
func NewProvider() (*Provider, error) {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		configOverrides := &clientcmd.ConfigOverrides{}
		kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)
		restConfig, err = kubeConfig.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create config: %v", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %v", err)
	}
	return NewProviderWithClientset(clientset), nil
}

// NewProviderWithClientset wraps an existing clientset; used by tests and
// embedders that manage their own client configuration.
func NewProviderWithClientset(clientset kubernetes.Interface) *Provider {
	return &Provider{clientset: clientset}
}

// NewProviderWithSchemas builds a Provider over a fixed component-schema
// table, bypassing the apiserver. Only GetSchema works on such a
// provider; kind listing needs a clientset.
func NewProviderWithSchemas(schemas map[string]*openapi_v3.Schema) *Provider {
	return &Provider{schemas: schemas}
}

// ListResourceKinds enumerates the cluster's preferred resource kinds.
// Subresources (anything with a slash in the name) are skipped. The
// result is sorted by group then kind so scan passes are reproducible.
func (p *Provider) ListResourceKinds() ([]schema.GroupVersionKind, error) {
	resources, err := p.clientset.Discovery().ServerPreferredResources()
	if err != nil {
		return nil, fmt.Errorf("error getting server resources: %w", err)
	}

	seen := make(map[string]bool)
	var kinds []schema.GroupVersionKind
	for _, list := range resources {
		gv, err := schema.ParseGroupVersion(list.GroupVersion)
		if err != nil {
			continue
		}
		for _, r := range list.APIResources {
			if strings.Contains(r.Name, "/") {
				continue
			}
			gvk := schema.GroupVersionKind{Group: gv.Group, Version: gv.Version, Kind: r.Kind}
			key := gvk.Group + "/" + gvk.Kind
			if seen[key] {
				continue
			}
			seen[key] = true
			kinds = append(kinds, gvk)
		}
	}

	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Group != kinds[j].Group {
			return kinds[i].Group < kinds[j].Group
		}
		return kinds[i].Kind < kinds[j].Kind
	})
	return kinds, nil
}

// GetSchema renders the recursive field listing for one kind from the
// cluster's OpenAPI v3 components.
func (p *Provider) GetSchema(gvk schema.GroupVersionKind) (string, error) {
	if err := p.loadSchemas(); err != nil {
		return "", err
	}

	_, s := p.findSchema(gvk)
	if s == nil {
		return "", fmt.Errorf("no OpenAPI schema found for %s", gvk)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "KIND:     %s\nGROUP:    %s\nVERSION:  %s\n\nFIELDS:\n", gvk.Kind, gvk.Group, gvk.Version)
	visited := map[*openapi_v3.Schema]bool{}
	p.renderSchema(&b, s, 1, visited)
	return b.String(), nil
}

// GroupVersion is the slice of the discovery OpenAPI client we consume.
type GroupVersion interface {
	Schema(contentType string) ([]byte, error)
}

// loadSchemas fetches every OpenAPI v3 group-version document once,
// decoding the protobuf form in a worker pool, and merges the component
// schemas into one lookup table.
func (p *Provider) loadSchemas() error {
	p.schemasOnce.Do(func() {
		if p.schemas != nil {
			// Pre-seeded schema table; nothing to fetch.
			return
		}
		paths, err := p.clientset.Discovery().OpenAPIV3().Paths()
		if err != nil {
			p.schemasErr = fmt.Errorf("failed to retrieve OpenAPI paths: %v", err)
			return
		}

		pathSlice := make([]GroupVersion, 0, len(paths))
		for _, path := range paths {
			pathSlice = append(pathSlice, path)
		}

		numWorkers := runtime.NumCPU()
		workChan := make(chan GroupVersion, len(pathSlice))
		for _, path := range pathSlice {
			workChan <- path
		}
		close(workChan)

		resultChan := make(chan *openapi_v3.Document, len(pathSlice))
		var wg sync.WaitGroup
		for i := 0; i < numWorkers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for path := range workChan {
					// Small delay between requests to keep the burst
					// gentle on the apiserver.
					time.Sleep(10 * time.Millisecond)
					schemaBytes, err := path.Schema("application/com.github.proto-openapi.spec.v3@v1.0+protobuf")
					if err != nil {
						continue
					}
					doc := &openapi_v3.Document{}
					if err := proto.Unmarshal(schemaBytes, doc); err != nil {
						continue
					}
					resultChan <- doc
				}
			}()
		}

		go func() {
			wg.Wait()
			close(resultChan)
		}()

		p.schemas = make(map[string]*openapi_v3.Schema)
		for doc := range resultChan {
			if doc.Components == nil || doc.Components.Schemas == nil {
				continue
			}
			for _, entry := range doc.Components.Schemas.AdditionalProperties {
				if s := entry.Value.GetSchema(); s != nil {
					p.schemas[entry.Name] = s
				}
			}
		}
	})
	return p.schemasErr
}

// findSchema locates the component schema for a kind. Component names
// are reverse-DNS, e.g. io.k8s.api.apps.v1.Deployment or
// io.upbound.azure.dbforpostgresql.v1beta1.Server, so the exact name is
// tried first and suffix matches are the fallback.
func (p *Provider) findSchema(gvk schema.GroupVersionKind) (string, *openapi_v3.Schema) {
	exact := schemaNameFor(gvk)
	if s, ok := p.schemas[exact]; ok {
		return exact, s
	}

	versionedSuffix := "." + gvk.Version + "." + gvk.Kind
	kindSuffix := "." + gvk.Kind

	var names []string
	for name := range p.schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.HasSuffix(name, versionedSuffix) {
			return name, p.schemas[name]
		}
	}
	for _, name := range names {
		if strings.HasSuffix(name, kindSuffix) {
			return name, p.schemas[name]
		}
	}
	return "", nil
}

// schemaNameFor builds the reverse-DNS component name for a kind:
// group segments reversed, then version, then kind. The legacy core
// group maps to io.k8s.api.core.
func schemaNameFor(gvk schema.GroupVersionKind) string {
	if gvk.Group == "" {
		return "io.k8s.api.core." + gvk.Version + "." + gvk.Kind
	}
	segments := strings.Split(gvk.Group, ".")
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".") + "." + gvk.Version + "." + gvk.Kind
}

const maxRenderDepth = 8

// renderSchema walks object properties recursively and writes one
// explain-style line per field: two spaces of indent per level, the
// field name, then its type in angle brackets.
func (p *Provider) renderSchema(b *strings.Builder, s *openapi_v3.Schema, depth int, visited map[*openapi_v3.Schema]bool) {
	if s == nil || depth > maxRenderDepth || visited[s] {
		return
	}
	visited[s] = true
	defer delete(visited, s)

	for _, sub := range s.AllOf {
		p.renderSchema(b, p.deref(sub), depth, visited)
	}

	if s.Properties == nil {
		return
	}
	for _, prop := range s.Properties.AdditionalProperties {
		propSchema := p.deref(prop.Value)
		fmt.Fprintf(b, "%s%s\t<%s>\n", strings.Repeat("  ", depth), prop.Name, typeLabel(propSchema))
		if propSchema == nil {
			continue
		}
		switch propSchema.Type {
		case "array":
			if item := p.itemSchema(propSchema); item != nil {
				p.renderSchema(b, item, depth+1, visited)
			}
		default:
			p.renderSchema(b, propSchema, depth+1, visited)
		}
	}
}

func (p *Provider) deref(sr *openapi_v3.SchemaOrReference) *openapi_v3.Schema {
	if sr == nil {
		return nil
	}
	if ref := sr.GetReference(); ref != nil && ref.XRef != "" {
		return p.resolveReference(ref.XRef)
	}
	return sr.GetSchema()
}

func (p *Provider) itemSchema(s *openapi_v3.Schema) *openapi_v3.Schema {
	if s.Items == nil || len(s.Items.SchemaOrReference) == 0 {
		return nil
	}
	return p.deref(s.Items.SchemaOrReference[0])
}

func (p *Provider) resolveReference(ref string) *openapi_v3.Schema {
	ref = strings.TrimPrefix(ref, "#/components/schemas/")
	return p.schemas[ref]
}

// typeLabel maps an OpenAPI type to the explain-style label. Objects and
// references render as Object, arrays as []<item label>.
func typeLabel(s *openapi_v3.Schema) string {
	if s == nil {
		return "Object"
	}
	switch s.Type {
	case "string":
		return "string"
	case "integer":
		return "integer"
	case "number":
		return "number"
	case "boolean":
		return "boolean"
	case "array":
		if s.Items != nil && len(s.Items.SchemaOrReference) > 0 {
			if item := s.Items.SchemaOrReference[0].GetSchema(); item != nil {
				return "[]" + typeLabel(item)
			}
		}
		return "[]Object"
	default:
		return "Object"
	}
}
