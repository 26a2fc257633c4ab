package core

// TopologicalOrder produces a deploy order for primary and the resources
// reachable through the given edges, using Kahn's algorithm restricted to
// required edges. Optional and enhances edges never constrain ordering.
//
// Nodes with no incoming required edges (i.e. kinds that depend on
// nothing) deploy first. Ties between multiple ready nodes are broken by
// insertion order: primary first, then endpoints in the order the edges
// were supplied. The tie-break is deliberate and tested; reordering the
// input edges is the only way to change it.
//
// The returned bool reports whether a required-edge cycle was detected
// mid-sort. In that case the remaining nodes are appended in insertion
// order so the caller still receives a usable, deterministic best-effort
// sequence; the sort never hangs and never fails hard.
func TopologicalOrder(primary ResourceReference, edges []ResourceDependency) ([]ResourceReference, bool) {
	nodes := map[string]ResourceReference{}
	var order []string
	addNode := func(ref ResourceReference) {
		key := ref.Key()
		if _, ok := nodes[key]; !ok {
			nodes[key] = ref
			order = append(order, key)
		}
	}

	addNode(primary)

	// indegree counts, per deploy precedence: an edge dependent ->
	// dependency means the dependency deploys first, so the dependent
	// gains an indegree.
	indegree := map[string]int{primary.Key(): 0}
	dependents := map[string][]string{} // dependency key -> dependent keys

	for _, edge := range edges {
		if edge.Type != DependencyRequired {
			continue
		}
		addNode(edge.Dependent)
		addNode(edge.Dependency)
		from := edge.Dependency.Key()
		to := edge.Dependent.Key()
		if from == to {
			continue
		}
		alreadyCounted := false
		for _, existing := range dependents[from] {
			if existing == to {
				alreadyCounted = true
				break
			}
		}
		if alreadyCounted {
			continue
		}
		dependents[from] = append(dependents[from], to)
		indegree[to]++
	}

	var sorted []ResourceReference
	done := map[string]bool{}

	for len(sorted) < len(order) {
		picked := ""
		for _, key := range order {
			if !done[key] && indegree[key] == 0 {
				picked = key
				break
			}
		}
		if picked == "" {
			break
		}
		done[picked] = true
		sorted = append(sorted, nodes[picked])
		for _, dependent := range dependents[picked] {
			indegree[dependent]--
		}
	}

	if len(sorted) == len(order) {
		return sorted, false
	}

	// Cycle: some nodes never reached indegree zero. Append them in
	// insertion order rather than failing; a best-effort order is more
	// useful downstream than no order at all.
	warnLog("dependency cycle detected while ordering %s, appending %d cyclic nodes in discovery order",
		primary, len(order)-len(sorted))
	for _, key := range order {
		if !done[key] {
			sorted = append(sorted, nodes[key])
		}
	}
	return sorted, true
}
