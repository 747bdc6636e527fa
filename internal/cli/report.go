package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/evo/internal/wire"
)

var reportCmd = &cobra.Command{
	Use:   "report [area]",
	Short: "Report evolution progress for one area, or all areas",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if len(args) == 1 {
			return printAreaReport(ctx, args[0])
		}
		return printSummary(ctx)
	},
}

func printAreaReport(ctx context.Context, area string) error {
	report, err := wire.SchedulerService().Report(ctx, area)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	fmt.Printf("Area: %s (priority %d)\n", report.Area, report.Priority)
	fmt.Printf("Current version: %s (%d versions)\n", report.CurrentVersion, report.VersionCount)
	fmt.Printf("Experiments: %d total, %d successful (%.0f%%)\n",
		report.TotalExperiments, report.SuccessfulExperiments, report.SuccessRate*100)
	fmt.Printf("Cumulative improvement: %+.2f%%\n", report.TotalImprovement*100)
	return nil
}

func printSummary(ctx context.Context) error {
	summary, err := wire.SchedulerService().Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to build summary: %w", err)
	}

	fmt.Printf("Evolution summary: %d area(s)\n", summary.TotalAreas)
	fmt.Printf("Experiments: %d total, %d successful (%.0f%%)\n",
		summary.TotalExperiments, summary.SuccessfulExperiments, summary.OverallSuccessRate*100)
	fmt.Printf("Cumulative improvement: %+.2f%%\n\n", summary.TotalImprovement*100)

	for _, area := range summary.Areas {
		fmt.Printf("  %-20s v%-10s %d experiments, %.0f%% success, %+.2f%% improvement\n",
			area.Area, area.CurrentVersion, area.TotalExperiments,
			area.SuccessRate*100, area.TotalImprovement*100)
	}
	return nil
}

// ReportCmd returns the report command
func ReportCmd() *cobra.Command {
	return reportCmd
}
