package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/evo/internal/cli"
	"github.com/example/evo/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "evo",
		Short:   "evo - autonomous experimentation and safe rollout engine",
		Version: version.String(),
		Long: `evo schedules improvement experiments across registered subsystems,
analyzes their results, and rolls winning variants out behind canary gates.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.AreaCmd())
	rootCmd.AddCommand(cli.ExperimentCmd())
	rootCmd.AddCommand(cli.IdentifyCmd())
	rootCmd.AddCommand(cli.DesignCmd())
	rootCmd.AddCommand(cli.AnalyzeCmd())
	rootCmd.AddCommand(cli.RolloutCmd())
	rootCmd.AddCommand(cli.ReportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
