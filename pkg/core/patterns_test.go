package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCustomPatterns(t *testing.T) {
	tests := []struct {
		name          string
		yamlContent   string
		expectedCount int
		expectedError bool
		errorContains string
	}{
		{
			name: "valid custom pattern",
			yamlContent: `
patterns:
  - match: '^\s*vaultRef\s+<Object>'
    field: spec.vaultRef
    kind: Vault
    group: keyvault.azure.upbound.io
    type: required
    reason: References a key vault for secret material
    confidence: 0.85
`,
			expectedCount: 1,
		},
		{
			name: "missing kind is rejected",
			yamlContent: `
patterns:
  - match: '^\s*busRef\s+<Object>'
    field: spec.busRef
    type: required
`,
			expectedError: true,
			errorContains: "match, field and kind are required",
		},
		{
			name: "invalid type is rejected",
			yamlContent: `
patterns:
  - match: '^\s*busRef\s+<Object>'
    field: spec.busRef
    kind: ServiceBus
    type: mandatory
`,
			expectedError: true,
			errorContains: "invalid pattern type",
		},
		{
			name: "invalid regex is rejected",
			yamlContent: `
patterns:
  - match: '^\s*busRef\s+<Object)'
    field: spec.busRef
    kind: ServiceBus
    type: required
`,
			expectedError: true,
			errorContains: "invalid pattern regex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			yamlPath := filepath.Join(dir, "patterns.yaml")
			if err := os.WriteFile(yamlPath, []byte(tt.yamlContent), 0644); err != nil {
				t.Fatal(err)
			}

			originalPatterns := fieldPatterns
			defer func() {
				fieldPatterns = originalPatterns
			}()

			count, err := loadCustomPatternsFrom(yamlPath)

			if tt.expectedError {
				if err == nil {
					t.Error("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q but got %q", tt.errorContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if count != tt.expectedCount {
				t.Errorf("Expected %d patterns loaded, got %d", tt.expectedCount, count)
			}
		})
	}
}

func TestLoadCustomPatternsMissingFile(t *testing.T) {
	count, err := loadCustomPatternsFrom(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 patterns, got %d", count)
	}
}

func TestCustomPatternFeedsDiscovery(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "patterns.yaml")
	yamlContent := `
patterns:
  - match: '^\s*vaultRef\s+<Object>'
    field: spec.vaultRef
    kind: Vault
    group: keyvault.azure.upbound.io
    type: required
    reason: References a key vault for secret material
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	originalPatterns := fieldPatterns
	defer func() {
		fieldPatterns = originalPatterns
	}()

	if _, err := loadCustomPatternsFrom(yamlPath); err != nil {
		t.Fatal(err)
	}

	resource := ResourceReference{Kind: "Widget", Group: "example.com"}
	edges := DiscoverDependencies(resource, "  spec\t<Object>\n    vaultRef\t<Object>\n")
	vault := findEdges(edges, DependencyRequired, "Vault")
	if len(vault) != 1 {
		t.Fatalf("expected one Vault edge from the custom pattern, got %+v", edges)
	}
	if vault[0].Confidence != explicitMatchConfidence {
		t.Errorf("expected default confidence %v, got %v", explicitMatchConfidence, vault[0].Confidence)
	}
	if vault[0].Field != "spec.vaultRef" {
		t.Errorf("unexpected field %q", vault[0].Field)
	}
}
