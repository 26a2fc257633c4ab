package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kindgraph/kindgraph/pkg/core"
	"github.com/spf13/cobra"
)

var shellGroup string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Explore the dependency graph interactively",
	Long: `Shell scans the cluster once, then opens an interactive prompt for
exploring the resulting dependency graph.`,
	Run: func(cmd *cobra.Command, args []string) {
		graph, _, err := scanCluster(shellGroup)
		if err != nil {
			fmt.Println("Error scanning cluster: ", err)
			return
		}
		runShell(graph)
	},
}

const shellHelp = `Commands:
  kinds [substring]   List scanned resource kinds
  deps <kind>         Show direct dependency edges of a kind
  required <kind>     Show the transitive required closure of a kind
  order <kind>        Show the deployment order for a kind's solution
  solve <kind>        Show the complete solution for a kind
  cycle <kind>        Check whether a kind sits on a required-edge cycle
  help                Show this help
  exit                Leave the shell`

func runShell(graph *core.MemoryGraph) {
	historyFile := os.Getenv("HOME") + "/.kindgraph/history"
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "kindgraph» ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	fmt.Println("")
	fmt.Printf("Graph loaded: %d kinds, %d edges\n", len(graph.Nodes()), graph.EdgeCount())
	fmt.Println("Type 'help' for available commands, 'exit' or Ctrl-D to leave")
	fmt.Println("")

	assembler := core.NewAssembler(graph)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					fmt.Println("Exiting...")
					return
				}
				continue
			} else if err == io.EOF {
				return
			}
			fmt.Println("Error reading input:", err)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		command := strings.ToLower(fields[0])
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch command {
		case "exit", "quit":
			return
		case "help":
			fmt.Println(shellHelp)
		case "kinds":
			for _, ref := range graph.Nodes() {
				if arg != "" && !strings.Contains(strings.ToLower(ref.String()), strings.ToLower(arg)) {
					continue
				}
				fmt.Println(ref.String())
			}
		case "deps", "required", "order", "solve", "cycle":
			if arg == "" {
				fmt.Printf("Usage: %s <kind>\n", command)
				continue
			}
			ref, err := resolveKind(graph.Nodes(), arg)
			if err != nil {
				fmt.Println("Error >>", err)
				continue
			}
			runShellQuery(assembler, graph, command, ref)
		default:
			fmt.Printf("Unknown command %q, type 'help' for available commands\n", command)
		}
	}
}

func runShellQuery(assembler *core.Assembler, graph *core.MemoryGraph, command string, ref core.ResourceReference) {
	switch command {
	case "deps":
		deps := graph.DirectDependencies(ref)
		if len(deps) == 0 {
			fmt.Printf("%s has no outgoing edges\n", ref)
			return
		}
		for _, dep := range deps {
			fmt.Printf("%s -> %s -> %s (%.1f, %s)\n",
				dep.Dependent.Kind, strings.ToUpper(string(dep.Type)), dep.Dependency.Kind,
				dep.Confidence, dep.Field)
		}
	case "required":
		for _, r := range graph.TransitiveRequired(ref, core.DefaultMaxDepth) {
			fmt.Println(r.String())
		}
	case "cycle":
		fmt.Println(graph.HasCycle(ref))
	case "order", "solve":
		solution, err := assembler.AssembleSolution(ref)
		if err != nil {
			fmt.Println("Error >>", err)
			return
		}
		if command == "order" {
			for i, r := range solution.Order {
				fmt.Printf("%d. %s\n", i+1, r.String())
			}
			return
		}
		fmt.Println(formatJson(solution))
	}
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringVarP(&shellGroup, "include-group", "g", "", "Only scan kinds whose API group contains this substring")
}
