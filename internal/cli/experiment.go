package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/evo/internal/ports/primary"
	"github.com/example/evo/internal/wire"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Manage scheduled experiments",
	Long:  "Start, complete, list, pause, and resume experiments under the scheduler's limits",
}

var experimentNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the most urgent area eligible for an experiment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		area, err := wire.SchedulerService().NextExperiment(ctx)
		if err != nil {
			return fmt.Errorf("failed to pick next experiment: %w", err)
		}

		if area == nil {
			fmt.Println("No area is eligible right now (all cooling down)")
			return nil
		}

		fmt.Printf("Next: %s (priority %d, version %s)\n", area.Name, area.Priority, area.CurrentVersion)
		return nil
	},
}

var experimentStartCmd = &cobra.Command{
	Use:   "start [area]",
	Short: "Start an experiment in an area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		hypothesis, _ := cmd.Flags().GetString("hypothesis")
		treatmentJSON, _ := cmd.Flags().GetString("treatment")

		var treatment map[string]any
		if treatmentJSON != "" {
			if err := json.Unmarshal([]byte(treatmentJSON), &treatment); err != nil {
				return fmt.Errorf("invalid treatment JSON: %w", err)
			}
		}

		experiment, err := wire.SchedulerService().StartExperiment(ctx, primary.StartExperimentRequest{
			Area:       args[0],
			Hypothesis: hypothesis,
			Treatment:  treatment,
		})
		if err != nil {
			return fmt.Errorf("failed to start experiment: %w", err)
		}

		fmt.Printf("✓ Started %s in area %s\n", experiment.ID, experiment.Area)
		if experiment.Hypothesis != "" {
			fmt.Printf("  Hypothesis: %s\n", experiment.Hypothesis)
		}
		return nil
	},
}

var experimentCompleteCmd = &cobra.Command{
	Use:   "complete [area]",
	Short: "Complete the area's active experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		success, _ := cmd.Flags().GetBool("success")
		improvement, _ := cmd.Flags().GetFloat64("improvement")
		newVersion, _ := cmd.Flags().GetString("new-version")

		area, err := wire.SchedulerService().CompleteExperiment(ctx, primary.CompleteExperimentRequest{
			Area:        args[0],
			Success:     success,
			Improvement: improvement,
			NewVersion:  newVersion,
		})
		if err != nil {
			return fmt.Errorf("failed to complete experiment: %w", err)
		}

		outcome := "failure"
		if success {
			outcome = "success"
		}
		fmt.Printf("✓ Completed experiment in %s (%s)\n", area.Name, outcome)
		fmt.Printf("  Version: %s, success rate: %.0f%% over %d experiments\n",
			area.CurrentVersion, area.SuccessRate*100, area.TotalExperiments)
		return nil
	},
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active experiments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		experiments, err := wire.SchedulerService().ListActiveExperiments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		if len(experiments) == 0 {
			fmt.Println("No active experiments")
			return nil
		}

		fmt.Printf("Found %d active experiment(s):\n\n", len(experiments))
		for _, e := range experiments {
			pausedMark := ""
			if e.Paused {
				pausedMark = " [paused]"
			}
			fmt.Printf("%-10s %-20s started %s%s\n",
				e.ID, e.Area, e.StartedAt.Format("2006-01-02 15:04"), pausedMark)
		}
		return nil
	},
}

var experimentPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause all experiments (frees concurrency slots)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.SchedulerService().PauseAll(context.Background()); err != nil {
			return fmt.Errorf("failed to pause experiments: %w", err)
		}
		fmt.Println("✓ All experiments paused")
		return nil
	},
}

var experimentResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume all experiments",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.SchedulerService().ResumeAll(context.Background()); err != nil {
			return fmt.Errorf("failed to resume experiments: %w", err)
		}
		fmt.Println("✓ All experiments resumed")
		return nil
	},
}

func init() {
	experimentStartCmd.Flags().String("hypothesis", "", "What this experiment tests")
	experimentStartCmd.Flags().String("treatment", "", "Treatment configuration as JSON")

	experimentCompleteCmd.Flags().Bool("success", false, "Whether the experiment succeeded")
	experimentCompleteCmd.Flags().Float64("improvement", 0, "Measured relative improvement")
	experimentCompleteCmd.Flags().String("new-version", "", "Version to upgrade to on success")

	experimentCmd.AddCommand(experimentNextCmd)
	experimentCmd.AddCommand(experimentStartCmd)
	experimentCmd.AddCommand(experimentCompleteCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentPauseCmd)
	experimentCmd.AddCommand(experimentResumeCmd)
}

// ExperimentCmd returns the experiment command
func ExperimentCmd() *cobra.Command {
	return experimentCmd
}
