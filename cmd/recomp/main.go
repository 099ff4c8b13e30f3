// Package main provides the entry point for the recomp dataset
// reconciliation tool.
package main

import (
	"fmt"
	"os"

	"github.com/recomp/recomp/version"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recomp",
		Short: "recomp reconciles two tabular datasets",
		Long: `recomp compares two tabular datasets row by row and column by column.
It matches records on key columns (or row position), applies numeric
tolerances, and reports exactly where and how the datasets differ.
Datasets can be loaded from CSV, Parquet, Arrow IPC files or any
database reachable through an ADBC driver.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of recomp",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("recomp v%s (built %s)\n", version.Version, version.BuildDate)
		},
	})

	rootCmd.AddCommand(newCompareCommand())
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
