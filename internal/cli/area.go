package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/evo/internal/ports/primary"
	"github.com/example/evo/internal/wire"
)

var areaCmd = &cobra.Command{
	Use:   "area",
	Short: "Manage evolution areas (subsystems under experimentation)",
	Long:  "Register, list, show, upgrade, and roll back areas tracked by the evolution scheduler",
}

var areaRegisterCmd = &cobra.Command{
	Use:   "register [name]",
	Short: "Register a subsystem for evolution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		name := args[0]
		version, _ := cmd.Flags().GetString("version")
		metrics, _ := cmd.Flags().GetStringSlice("metric")
		priority, _ := cmd.Flags().GetInt("priority")

		area, err := wire.SchedulerService().RegisterArea(ctx, primary.RegisterAreaRequest{
			Name:           name,
			CurrentVersion: version,
			MetricNames:    metrics,
			Priority:       priority,
		})
		if err != nil {
			return fmt.Errorf("failed to register area: %w", err)
		}

		fmt.Printf("✓ Registered area %s at version %s (priority %d)\n", area.Name, area.CurrentVersion, area.Priority)
		return nil
	},
}

var areaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered areas",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		areas, err := wire.SchedulerService().ListAreas(ctx)
		if err != nil {
			return fmt.Errorf("failed to list areas: %w", err)
		}

		if len(areas) == 0 {
			fmt.Println("No areas registered")
			return nil
		}

		fmt.Printf("Found %d area(s):\n\n", len(areas))
		for _, area := range areas {
			fmt.Printf("%-20s v%-10s priority %-3d experiments %-4d success %.0f%%\n",
				area.Name, area.CurrentVersion, area.Priority, area.TotalExperiments, area.SuccessRate*100)
		}
		return nil
	},
}

var areaShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show area details and version history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		areas, err := wire.SchedulerService().ListAreas(ctx)
		if err != nil {
			return fmt.Errorf("failed to load areas: %w", err)
		}

		for _, area := range areas {
			if area.Name != args[0] {
				continue
			}
			fmt.Printf("Area: %s\n", area.Name)
			fmt.Printf("Current version: %s\n", area.CurrentVersion)
			fmt.Printf("Priority: %d\n", area.Priority)
			fmt.Printf("Metrics: %v\n", area.MetricNames)
			fmt.Printf("Experiments: %d active, %d total, %.0f%% success\n",
				area.ActiveExperiments, area.TotalExperiments, area.SuccessRate*100)
			fmt.Println()
			fmt.Printf("Version history (%d):\n", len(area.VersionHistory))
			for _, v := range area.VersionHistory {
				fmt.Printf("  %-12s %s  improvement %+.2f%%\n",
					v.Version, v.Timestamp.Format("2006-01-02 15:04"), v.Improvement*100)
			}
			return nil
		}
		return fmt.Errorf("area %s not found", args[0])
	},
}

var areaUpgradeCmd = &cobra.Command{
	Use:   "upgrade [name] [version]",
	Short: "Move an area to a new version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		improvement, _ := cmd.Flags().GetFloat64("improvement")

		area, err := wire.SchedulerService().UpgradeVersion(ctx, args[0], args[1], improvement)
		if err != nil {
			return fmt.Errorf("failed to upgrade area: %w", err)
		}

		fmt.Printf("✓ Area %s upgraded to %s\n", area.Name, area.CurrentVersion)
		return nil
	},
}

var areaRollbackCmd = &cobra.Command{
	Use:   "rollback [name] [version]",
	Short: "Point an area back at an earlier version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		area, err := wire.SchedulerService().RollbackToVersion(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to roll back area: %w", err)
		}

		fmt.Printf("✓ Area %s rolled back to %s\n", area.Name, area.CurrentVersion)
		return nil
	},
}

func init() {
	areaRegisterCmd.Flags().StringP("version", "v", "1.0.0", "Current version of the subsystem")
	areaRegisterCmd.Flags().StringSliceP("metric", "m", nil, "Metric names tracked for this area (repeatable)")
	areaRegisterCmd.Flags().IntP("priority", "p", 0, "Scheduling priority (lower = more urgent)")

	areaUpgradeCmd.Flags().Float64("improvement", 0, "Relative improvement carried by the new version")

	areaCmd.AddCommand(areaRegisterCmd)
	areaCmd.AddCommand(areaListCmd)
	areaCmd.AddCommand(areaShowCmd)
	areaCmd.AddCommand(areaUpgradeCmd)
	areaCmd.AddCommand(areaRollbackCmd)
}

// AreaCmd returns the area command
func AreaCmd() *cobra.Command {
	return areaCmd
}
