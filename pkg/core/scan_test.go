package core

import (
	"fmt"
	"testing"
)

func TestScanAndStore(t *testing.T) {
	g := NewMemoryGraph()
	assembler := NewAssembler(g)

	widget := ResourceReference{Kind: "Widget", Group: "example.com"}
	broken := ResourceReference{Kind: "Broken", Group: "example.com"}
	resources := []ResourceReference{azureServer, widget, broken}

	schemaFn := func(ref ResourceReference) (string, error) {
		switch ref.Kind {
		case "Server":
			return azureServerSchema, nil
		case "Broken":
			return "", fmt.Errorf("apiserver timeout")
		default:
			return "  spec\t<Object>\n    size\t<integer>\n", nil
		}
	}

	count, err := assembler.ScanAndStore(resources, schemaFn)
	if err != nil {
		t.Fatal(err)
	}

	// Server yields the explicit, provider and operational edges; the
	// widget and the broken kind yield none. The failed schema fetch
	// must not abort the scan.
	if count != 3 {
		t.Errorf("expected 3 edge upserts, got %d", count)
	}

	// Every scanned kind is a node even without edges, plus the two
	// discovered dependency targets.
	if got := len(g.Nodes()); got != 5 {
		t.Errorf("expected 5 nodes, got %d", got)
	}
	if got := len(g.DirectDependencies(broken)); got != 0 {
		t.Errorf("expected no edges for the failed kind, got %d", got)
	}
}

func TestScanAndStoreEmpty(t *testing.T) {
	assembler := NewAssembler(NewMemoryGraph())
	count, err := assembler.ScanAndStore(nil, func(ResourceReference) (string, error) {
		return "", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected 0 edges, got %d", count)
	}
}

func TestScanAndStoreNilSchemaFn(t *testing.T) {
	assembler := NewAssembler(NewMemoryGraph())
	if _, err := assembler.ScanAndStore([]ResourceReference{azureServer}, nil); err == nil {
		t.Error("expected hard error without a schema provider")
	}
}

func TestScanAndStoreConcurrentOverlap(t *testing.T) {
	g := NewMemoryGraph()
	assembler := NewAssembler(g)

	// Many Azure kinds all imply the same ResourceGroup foundation node;
	// concurrent workers must converge on one node and one edge per
	// dependent without external locking.
	var resources []ResourceReference
	for i := 0; i < 40; i++ {
		resources = append(resources, ResourceReference{
			Kind:  fmt.Sprintf("Thing%d", i),
			Group: "things.azure.upbound.io",
		})
	}

	schemaFn := func(ref ResourceReference) (string, error) {
		return "  spec\t<Object>\n    location\t<string>\n", nil
	}

	count, err := assembler.ScanAndStore(resources, schemaFn)
	if err != nil {
		t.Fatal(err)
	}
	if count != 40 {
		t.Errorf("expected one provider edge per kind, got %d", count)
	}
	// 40 dependents plus the shared ResourceGroup node.
	if got := len(g.Nodes()); got != 41 {
		t.Errorf("expected 41 nodes, got %d", got)
	}
	if g.EdgeCount() != 40 {
		t.Errorf("expected 40 distinct edges, got %d", g.EdgeCount())
	}
}
