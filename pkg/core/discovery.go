package core

import (
	"bufio"
	"strings"
	"time"
)

// DiscoverDependencies extracts candidate dependency edges for a single
// resource kind from its schema text (the kubectl explain --recursive
// form). It is pure computation: no I/O, no shared state, safe to call
// concurrently for different resource kinds.
//
// Three passes run independently and their results are concatenated:
// explicit field-reference matching, cloud-provider foundation inference,
// and operational-pattern inference. Duplicate edges across passes are
// left for the graph store's upsert merge to collapse.
//
// Malformed or empty schema text yields an empty slice and a warning; a
// single unparsable schema must never abort a full cluster scan.
func DiscoverDependencies(resource ResourceReference, schemaText string) []ResourceDependency {
	if strings.TrimSpace(schemaText) == "" {
		warnLog("empty schema text for %s, skipping dependency discovery", resource)
		return nil
	}

	now := time.Now().UTC()
	var edges []ResourceDependency
	edges = append(edges, matchFieldPatterns(resource, schemaText, now)...)
	edges = append(edges, inferProviderFoundation(resource, now)...)
	edges = append(edges, inferOperational(resource, schemaText, now)...)

	debugLog("discovered %d candidate edges for %s", len(edges), resource)
	return edges
}

// matchFieldPatterns scans the schema line by line against the explicit
// pattern table. Patterns and lines are walked in fixed order so repeated
// calls over the same text produce the same edge sequence.
func matchFieldPatterns(resource ResourceReference, schemaText string, now time.Time) []ResourceDependency {
	var edges []ResourceDependency

	scanner := bufio.NewScanner(strings.NewReader(schemaText))
	for scanner.Scan() {
		line := scanner.Text()
		for _, p := range fieldPatterns {
			if !p.Regex.MatchString(line) {
				continue
			}
			if p.Target.Key() == resource.Key() {
				continue
			}
			confidence := p.Confidence
			if confidence == 0 {
				confidence = explicitMatchConfidence
			}
			edges = append(edges, ResourceDependency{
				Dependent:    resource,
				Dependency:   p.Target,
				Type:         p.Type,
				Field:        p.Field,
				Pattern:      strings.TrimSpace(line),
				Reason:       p.Reason,
				Confidence:   confidence,
				DiscoveredAt: now,
			})
		}
	}
	return edges
}

// inferProviderFoundation synthesizes a required edge to a cloud
// provider's foundation resource when the resource's group carries the
// provider marker. It is a pure function of the group string, gated on
// the resource not already being the foundation kind.
func inferProviderFoundation(resource ResourceReference, now time.Time) []ResourceDependency {
	group := strings.ToLower(resource.Group)
	var edges []ResourceDependency

	for _, p := range providerPatterns {
		if !strings.Contains(group, p.Marker) {
			continue
		}
		if strings.Contains(resource.Kind, p.Foundation.Kind) {
			continue
		}
		edges = append(edges, ResourceDependency{
			Dependent:    resource,
			Dependency:   p.Foundation,
			Type:         DependencyRequired,
			Field:        "group",
			Pattern:      resource.Group,
			Reason:       p.Reason,
			Confidence:   providerInferConfidence,
			DiscoveredAt: now,
		})
	}
	return edges
}

// inferOperational classifies the resource against the operational
// pattern table and emits the class companions. These are heuristic,
// lowest-confidence edges.
func inferOperational(resource ResourceReference, schemaText string, now time.Time) []ResourceDependency {
	var edges []ResourceDependency

	for _, p := range operationalPatterns {
		if !matchesOperationalClass(resource, schemaText, p) {
			continue
		}
		companion := p.Companion
		if p.SameGroup {
			companion.Group = resource.Group
		}
		if companion.Key() == resource.Key() || strings.Contains(resource.Kind, companion.Kind) {
			continue
		}
		edges = append(edges, ResourceDependency{
			Dependent:    resource,
			Dependency:   companion,
			Type:         p.Type,
			Field:        "heuristic." + p.Class,
			Pattern:      p.Class,
			Reason:       p.Reason,
			Confidence:   p.Confidence,
			DiscoveredAt: now,
		})
	}
	return edges
}

func matchesOperationalClass(resource ResourceReference, schemaText string, p OperationalPattern) bool {
	for _, token := range p.KindTokens {
		if strings.Contains(resource.Kind, token) {
			return true
		}
	}
	lower := strings.ToLower(schemaText)
	for _, token := range p.SchemaTokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}
