package provider

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// SchemaProvider supplies raw per-resource-kind schema text on demand,
// equivalent to kubectl explain --recursive. Implementations back onto
// the apiserver's OpenAPI documents, fixture files, or anything else that
// can describe a kind's fields.
type SchemaProvider interface {
	// ListResourceKinds enumerates the resource kinds known to the
	// cluster (or fixture set), one GroupVersionKind per preferred
	// version.
	ListResourceKinds() ([]schema.GroupVersionKind, error)

	// GetSchema returns the recursive field listing for one kind. An
	// error here is recoverable for callers scanning many kinds: the
	// kind contributes no edges and the scan continues.
	GetSchema(gvk schema.GroupVersionKind) (string, error)
}

// CapabilitySearch is the embeddings-backed primary-resource search this
// engine consumes but does not implement. Results are ranked by semantic
// relevance to the intent and treated as opaque input downstream.
type CapabilitySearch interface {
	SearchPrimaryCandidates(intent string, limit int) ([]schema.GroupVersionKind, error)
}
