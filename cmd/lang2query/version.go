package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nithiin7/lang2query"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lang2query",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lang2query version %s\n", strings.TrimSpace(lang2query.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
