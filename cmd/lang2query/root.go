package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lang2query",
	Short: "lang2query turns natural language into validated structured queries",
	Long: `lang2query runs a staged workflow that classifies a natural language
question, identifies the relevant databases, tables, and columns, and plans,
generates, and validates a structured query against a schema catalog.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("catalog", "catalog.yaml", "Path to the schema catalog YAML")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
}
