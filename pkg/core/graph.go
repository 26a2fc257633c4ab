package core

import "sync"

// Default traversal bounds. The depth limits exist to guarantee
// termination even when the stored graph contains an undetected cycle.
const (
	DefaultMaxDepth    = 5
	CycleCheckMaxDepth = 10
)

// GraphStore is the persistent typed multigraph of resource-kind nodes
// and dependency edges. It is an injectable dependency so tests and
// embedders can substitute their own backing store; any implementation
// honoring these semantics suffices (in-memory, property graph, KV
// adjacency table).
//
// Upserts must be safe under concurrent callers without external locking;
// reads may run concurrently with writes and may observe a partially
// completed scan.
type GraphStore interface {
	// UpsertNode idempotently creates the node for ref. Re-upserting an
	// existing (kind, group) identity is a no-op.
	UpsertNode(ref ResourceReference)

	// UpsertEdge idempotently creates or updates an edge, merge-keyed on
	// (dependent, dependency, type, field). Both endpoints are upserted
	// as nodes.
	UpsertEdge(dep ResourceDependency)

	// Nodes returns all known resource kinds in insertion order.
	Nodes() []ResourceReference

	// EdgeCount returns the number of distinct edges stored.
	EdgeCount() int

	// DirectDependencies returns all outgoing edges from ref, any type,
	// in insertion order.
	DirectDependencies(ref ResourceReference) []ResourceDependency

	// TransitiveRequired returns the deduplicated closure reachable from
	// ref over required edges only, bounded by maxDepth hops (maxDepth
	// <= 0 selects DefaultMaxDepth). The root itself is not included.
	TransitiveRequired(ref ResourceReference, maxDepth int) []ResourceReference

	// HasCycle reports whether a required-edge path leads from ref back
	// to itself within CycleCheckMaxDepth hops. Diagnostic only; a
	// cyclic graph still yields best-effort answers elsewhere.
	HasCycle(ref ResourceReference) bool
}

// MemoryGraph is the in-memory GraphStore used by the CLI and tests.
// Nodes and edges keep explicit insertion order so traversals and
// tie-breaks are reproducible across runs.
type MemoryGraph struct {
	mu        sync.RWMutex
	nodes     map[string]ResourceReference
	nodeOrder []string
	edges     map[string]ResourceDependency
	edgeOrder []string
	adjacency map[string][]string // node key -> edge merge keys, insertion order
}

func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		nodes:     make(map[string]ResourceReference),
		edges:     make(map[string]ResourceDependency),
		adjacency: make(map[string][]string),
	}
}

func (g *MemoryGraph) UpsertNode(ref ResourceReference) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertNodeLocked(ref)
}

func (g *MemoryGraph) upsertNodeLocked(ref ResourceReference) {
	key := ref.Key()
	if existing, ok := g.nodes[key]; ok {
		// Backfill the apiVersion attribute if a later discovery pass
		// supplies it; identity is unchanged.
		if existing.APIVersion == "" && ref.APIVersion != "" {
			existing.APIVersion = ref.APIVersion
			g.nodes[key] = existing
		}
		return
	}
	g.nodes[key] = ref
	g.nodeOrder = append(g.nodeOrder, key)
}

func (g *MemoryGraph) UpsertEdge(dep ResourceDependency) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.upsertNodeLocked(dep.Dependent)
	g.upsertNodeLocked(dep.Dependency)

	key := dep.MergeKey()
	if _, ok := g.edges[key]; ok {
		// Merge: refresh mutable metadata, keep graph position.
		g.edges[key] = dep
		return
	}
	g.edges[key] = dep
	g.edgeOrder = append(g.edgeOrder, key)
	from := dep.Dependent.Key()
	g.adjacency[from] = append(g.adjacency[from], key)
}

func (g *MemoryGraph) Nodes() []ResourceReference {
	g.mu.RLock()
	defer g.mu.RUnlock()
	refs := make([]ResourceReference, 0, len(g.nodeOrder))
	for _, key := range g.nodeOrder {
		refs = append(refs, g.nodes[key])
	}
	return refs
}

func (g *MemoryGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edgeOrder)
}

// Edges returns every stored edge in insertion order.
func (g *MemoryGraph) Edges() []ResourceDependency {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps := make([]ResourceDependency, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		deps = append(deps, g.edges[key])
	}
	return deps
}

func (g *MemoryGraph) DirectDependencies(ref ResourceReference) []ResourceDependency {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.directDependenciesLocked(ref.Key())
}

func (g *MemoryGraph) directDependenciesLocked(nodeKey string) []ResourceDependency {
	edgeKeys := g.adjacency[nodeKey]
	deps := make([]ResourceDependency, 0, len(edgeKeys))
	for _, key := range edgeKeys {
		deps = append(deps, g.edges[key])
	}
	return deps
}

// TransitiveRequired walks required edges breadth-first from ref. The
// depth bound guarantees termination if a cycle slipped into the graph;
// hitting the bound with unexplored nodes is logged as a soft signal and
// the partial closure is returned.
func (g *MemoryGraph) TransitiveRequired(ref ResourceReference, maxDepth int) []ResourceReference {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	rootKey := ref.Key()
	seen := map[string]bool{rootKey: true}
	var closure []ResourceReference

	frontier := []string{rootKey}
	depth := 0
	for len(frontier) > 0 {
		if depth >= maxDepth {
			warnLog("transitive closure for %s hit depth limit %d with %d nodes unexplored, returning partial result",
				ref, maxDepth, len(frontier))
			break
		}
		var next []string
		for _, nodeKey := range frontier {
			for _, edge := range g.directDependenciesLocked(nodeKey) {
				if edge.Type != DependencyRequired {
					continue
				}
				depKey := edge.Dependency.Key()
				if seen[depKey] {
					continue
				}
				seen[depKey] = true
				closure = append(closure, g.nodes[depKey])
				next = append(next, depKey)
			}
		}
		frontier = next
		depth++
	}
	return closure
}

// HasCycle reports whether ref can reach itself over required edges
// within CycleCheckMaxDepth hops.
func (g *MemoryGraph) HasCycle(ref ResourceReference) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rootKey := ref.Key()
	visited := map[string]bool{}

	frontier := []string{rootKey}
	for depth := 0; depth < CycleCheckMaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, nodeKey := range frontier {
			for _, edge := range g.directDependenciesLocked(nodeKey) {
				if edge.Type != DependencyRequired {
					continue
				}
				depKey := edge.Dependency.Key()
				if depKey == rootKey {
					return true
				}
				if visited[depKey] {
					continue
				}
				visited[depKey] = true
				next = append(next, depKey)
			}
		}
		frontier = next
	}
	return false
}
