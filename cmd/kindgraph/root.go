package main

import (
	"encoding/json"
	"fmt"
	"os"

	colorjson "github.com/TylerBrock/colorjson"
	"github.com/kindgraph/kindgraph/pkg/core"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	NoColor = false
)

func getVersionInfo() string {
	return fmt.Sprintf(
		"Kindgraph %s\n"+
			"License: Apache 2.0\n"+
			"Source: https://github.com/kindgraph/kindgraph\n",
		Version,
	)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kindgraph",
	Short: "Kindgraph resolves dependencies between Kubernetes resource kinds",
	Long: `Kindgraph scans a cluster's resource schemas, builds a typed dependency
graph between resource kinds, and assembles complete, ordered deployment
solutions for a chosen primary resource.`,
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Print(getVersionInfo())
			os.Exit(0)
		}
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// formatJson renders obj as indented JSON, colorized unless --no-color.
func formatJson(obj interface{}) string {
	if NoColor {
		s, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			fmt.Println("Error marshalling json: ", err)
			return ""
		}
		return string(s)
	}

	// colorjson operates on generic maps, so round-trip through JSON.
	raw, err := json.Marshal(obj)
	if err != nil {
		fmt.Println("Error marshalling json: ", err)
		return ""
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		fmt.Println("Error marshalling json: ", err)
		return ""
	}

	f := colorjson.NewFormatter()
	f.Indent = 2
	s, err := f.Marshal(generic)
	if err != nil {
		fmt.Println("Error marshalling colorized json: ", err)
		return string(raw)
	}
	return string(s)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&core.LogLevel, "loglevel", "l", "info", "The log level to use (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().BoolVar(&NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(getVersionInfo())
		},
	})
}
