package main

import (
	"strings"
	"testing"

	"github.com/kindgraph/kindgraph/pkg/core"
)

func TestResolveKind(t *testing.T) {
	nodes := []core.ResourceReference{
		{Kind: "Server", Group: "dbforpostgresql.azure.upbound.io"},
		{Kind: "Server", Group: "dbformysql.azure.upbound.io"},
		{Kind: "ResourceGroup", Group: "azure.upbound.io"},
	}

	t.Run("unique bare kind", func(t *testing.T) {
		ref, err := resolveKind(nodes, "ResourceGroup")
		if err != nil {
			t.Fatal(err)
		}
		if ref.Group != "azure.upbound.io" {
			t.Errorf("unexpected group %q", ref.Group)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		ref, err := resolveKind(nodes, "resourcegroup")
		if err != nil {
			t.Fatal(err)
		}
		if ref.Kind != "ResourceGroup" {
			t.Errorf("unexpected kind %q", ref.Kind)
		}
	})

	t.Run("qualified kind pins the group", func(t *testing.T) {
		ref, err := resolveKind(nodes, "Server.dbformysql.azure.upbound.io")
		if err != nil {
			t.Fatal(err)
		}
		if ref.Group != "dbformysql.azure.upbound.io" {
			t.Errorf("unexpected group %q", ref.Group)
		}
	})

	t.Run("ambiguous bare kind", func(t *testing.T) {
		_, err := resolveKind(nodes, "Server")
		if err == nil {
			t.Fatal("expected ambiguity error")
		}
		if !strings.Contains(err.Error(), "Server.dbformysql.azure.upbound.io") {
			t.Errorf("ambiguity error should list qualified options, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := resolveKind(nodes, "Database"); err == nil {
			t.Error("expected not-found error")
		}
	})
}
