package core

import (
	"fmt"
	"strings"

	"github.com/kindgraph/kindgraph/pkg/provider"
)

// Assembler turns a single primary resource candidate into a complete,
// deployable solution by querying the dependency graph. It never ranks
// across candidates; callers assembling for several candidates invoke
// AssembleSolution once per candidate and rank externally.
type Assembler struct {
	store GraphStore
}

func NewAssembler(store GraphStore) *Assembler {
	return &Assembler{store: store}
}

// AssembleSolution builds the CompleteSolution for primary: its
// transitive required closure, its direct optional/enhances pairings, a
// deploy order over the required set, and a human-readable rationale.
//
// Incomplete dependency data never fails assembly: a primary with no
// stored edges yields a valid single-resource solution. Only an unusable
// store is a hard error.
func (a *Assembler) AssembleSolution(primary ResourceReference) (CompleteSolution, error) {
	if a.store == nil {
		return CompleteSolution{}, fmt.Errorf("graph store unavailable")
	}

	required := a.store.TransitiveRequired(primary, DefaultMaxDepth)

	requiredSet := map[string]bool{primary.Key(): true}
	for _, ref := range required {
		requiredSet[ref.Key()] = true
	}

	// All edges touched: the primary's direct edges plus required edges
	// between members of the closure. Collected for the rationale and
	// for ordering; deduplicated by merge key.
	edgeSeen := map[string]bool{}
	var edges []ResourceDependency
	collect := func(deps []ResourceDependency, requiredOnly bool) {
		for _, dep := range deps {
			if requiredOnly && dep.Type != DependencyRequired {
				continue
			}
			if dep.Type == DependencyRequired && !requiredSet[dep.Dependency.Key()] {
				// Required edge leading past the depth bound; the
				// target is not part of this solution.
				continue
			}
			key := dep.MergeKey()
			if edgeSeen[key] {
				continue
			}
			edgeSeen[key] = true
			edges = append(edges, dep)
		}
	}

	collect(a.store.DirectDependencies(primary), false)
	for _, ref := range required {
		collect(a.store.DirectDependencies(ref), true)
	}

	// Direct optional/enhances pairings of the primary only; transitive
	// optional chains are deliberately not followed.
	var optional []ResourceReference
	optionalSeen := map[string]bool{}
	for _, dep := range a.store.DirectDependencies(primary) {
		if dep.Type == DependencyRequired {
			continue
		}
		key := dep.Dependency.Key()
		if requiredSet[key] || optionalSeen[key] {
			continue
		}
		optionalSeen[key] = true
		optional = append(optional, dep.Dependency)
	}

	order, cyclic := TopologicalOrder(primary, edges)

	solution := CompleteSolution{
		Primary:      primary,
		Required:     required,
		Optional:     optional,
		Dependencies: edges,
		Order:        append(order, optional...),
		Rationale:    buildRationale(primary, edges),
	}
	if cyclic {
		solution.Warnings = append(solution.Warnings,
			"dependency cycle detected, deployment order may need manual review")
	}
	return solution, nil
}

// AssembleForIntent fans a natural-language intent through the external
// capability search and assembles one solution per primary candidate.
// Candidates are treated as opaque, pre-ranked input; this layer neither
// re-ranks nor validates them.
func (a *Assembler) AssembleForIntent(search provider.CapabilitySearch, intent string, limit int) ([]CompleteSolution, error) {
	if search == nil {
		return nil, fmt.Errorf("capability search unavailable")
	}
	candidates, err := search.SearchPrimaryCandidates(intent, limit)
	if err != nil {
		return nil, fmt.Errorf("error searching primary candidates: %w", err)
	}

	solutions := make([]CompleteSolution, 0, len(candidates))
	for _, gvk := range candidates {
		solution, err := a.AssembleSolution(FromGVK(gvk))
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, solution)
	}
	return solutions, nil
}

// buildRationale renders one line per touched edge, e.g.
// "Server -> REQUIRED -> ResourceGroup: Azure resources must be created
// inside a resource group", prefixed with the primary's kind.
func buildRationale(primary ResourceReference, edges []ResourceDependency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Solution for %s:", primary.Kind)
	for _, dep := range edges {
		fmt.Fprintf(&b, "\n%s -> %s -> %s: %s",
			dep.Dependent.Kind,
			strings.ToUpper(string(dep.Type)),
			dep.Dependency.Kind,
			dep.Reason)
	}
	return b.String()
}
