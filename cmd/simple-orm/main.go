package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simple-orm",
	Short: "Database-agnostic query engine",
	Long: `simple-orm compiles fluent queries into dialect-specific SQL and
executes them against PostgreSQL, MySQL, or SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
