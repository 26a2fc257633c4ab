package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kindgraph/kindgraph/pkg/core"
	"github.com/oliveagle/jsonpath"
	"github.com/spf13/cobra"
)

var (
	rawOutput      bool
	jsonPathFilter string
	solveGroup     string
)

var solveCmd = &cobra.Command{
	Use:   "solve [kind]",
	Short: "Assemble a complete deployment solution for a resource kind",
	Long: `Solve scans the cluster, then expands the given resource kind into a
complete solution: its required dependencies, optional pairings, a valid
deployment order, and the rationale for each edge.

The kind may be given bare (Server) or qualified (Server.dbforpostgresql.azure.upbound.io).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		graph, _, err := scanCluster(solveGroup)
		if err != nil {
			fmt.Println("Error scanning cluster: ", err)
			return
		}

		primary, err := resolveKind(graph.Nodes(), args[0])
		if err != nil {
			fmt.Println("Error resolving kind: ", err)
			return
		}

		assembler := core.NewAssembler(graph)
		solution, err := assembler.AssembleSolution(primary)
		if err != nil {
			fmt.Println("Error assembling solution: ", err)
			return
		}

		if jsonPathFilter != "" {
			printJsonPath(solution, jsonPathFilter)
			return
		}

		if rawOutput {
			out, err := json.MarshalIndent(solution, "", "  ")
			if err != nil {
				fmt.Println("Error marshalling solution: ", err)
				return
			}
			fmt.Println(string(out))
			return
		}
		fmt.Println(formatJson(solution))
	},
}

// resolveKind matches a user-supplied kind name against the scanned
// nodes. Bare kinds must be unambiguous; qualified kind.group names pin
// the group. Ambiguity errors list the qualified options.
func resolveKind(nodes []core.ResourceReference, name string) (core.ResourceReference, error) {
	kind := name
	group := ""
	if idx := strings.Index(name, "."); idx > 0 {
		kind = name[:idx]
		group = name[idx+1:]
	}

	var matches []core.ResourceReference
	for _, ref := range nodes {
		if !strings.EqualFold(ref.Kind, kind) {
			continue
		}
		if group != "" && !strings.EqualFold(ref.Group, group) {
			continue
		}
		matches = append(matches, ref)
	}

	switch len(matches) {
	case 0:
		return core.ResourceReference{}, fmt.Errorf("no resource kind %q found in scanned graph", name)
	case 1:
		return matches[0], nil
	default:
		var options []string
		for _, ref := range matches {
			options = append(options, ref.String())
		}
		sort.Strings(options)
		return core.ResourceReference{}, fmt.Errorf("ambiguous kind %q, use one of:\n%s", name, strings.Join(options, "\n"))
	}
}

// printJsonPath applies a JSONPath expression to the solution document,
// e.g. --jsonpath "$.order[0].kind".
func printJsonPath(solution core.CompleteSolution, expr string) {
	raw, err := json.Marshal(solution)
	if err != nil {
		fmt.Println("Error marshalling solution: ", err)
		return
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		fmt.Println("Error marshalling solution: ", err)
		return
	}
	res, err := jsonpath.JsonPathLookup(doc, expr)
	if err != nil {
		fmt.Println("Error evaluating jsonpath: ", err)
		return
	}
	fmt.Println(formatJson(res))
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().BoolVarP(&rawOutput, "raw-output", "r", false, "Disable colorized JSON output")
	solveCmd.Flags().StringVar(&jsonPathFilter, "jsonpath", "", "Apply a JSONPath expression to the solution output")
	solveCmd.Flags().StringVarP(&solveGroup, "include-group", "g", "", "Only scan kinds whose API group contains this substring")
}
