package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/wire"
)

var rolloutCmd = &cobra.Command{
	Use:   "rollout",
	Short: "Manage canary deployments",
	Long:  "Deploy winning variants behind a canary gate, widen exposure, check health, and roll back",
}

var rolloutDeployCmd = &cobra.Command{
	Use:   "deploy [variant-id]",
	Short: "Deploy a variant behind a canary gate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		configJSON, _ := cmd.Flags().GetString("config")
		threshold, _ := cmd.Flags().GetFloat64("rollback-threshold")
		percent, _ := cmd.Flags().GetFloat64("canary")

		var variant map[string]any
		if configJSON != "" {
			if err := json.Unmarshal([]byte(configJSON), &variant); err != nil {
				return fmt.Errorf("invalid config JSON: %w", err)
			}
		}

		deployment, err := wire.RolloutService().Deploy(ctx, models.DeploymentConfig{
			VariantID:         args[0],
			Variant:           variant,
			RollbackThreshold: threshold,
			CanaryPercent:     percent,
		})
		if err != nil {
			return fmt.Errorf("failed to deploy: %w", err)
		}

		fmt.Printf("✓ Deployed %s as %s at %.0f%% canary\n", deployment.VariantID, deployment.ID, deployment.CanaryPercent)
		return nil
	},
}

var rolloutWidenCmd = &cobra.Command{
	Use:   "widen [deployment-id]",
	Short: "Widen the canary exposure (next ladder stage by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		percent, _ := cmd.Flags().GetFloat64("percent")

		deployment, err := wire.RolloutService().IncreaseCanary(ctx, args[0], percent)
		if err != nil {
			return fmt.Errorf("failed to widen canary: %w", err)
		}

		if deployment.CanaryActive {
			fmt.Printf("✓ Canary widened to %.0f%%\n", deployment.CanaryPercent)
		} else {
			fmt.Println("✓ Canary complete: variant serving 100% of traffic")
		}
		return nil
	},
}

var rolloutHealthCmd = &cobra.Command{
	Use:   "health [deployment-id]",
	Short: "Check a deployment's health against its rollback threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		health, err := wire.RolloutService().CheckHealth(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to check health: %w", err)
		}

		state := color.New(color.FgHiGreen).Sprint("healthy")
		if !health.Healthy {
			state = color.New(color.FgRed).Sprint("UNHEALTHY")
		}
		fmt.Printf("%s: error rate %.3f against threshold %.3f\n", state, health.ErrorRate, health.Threshold)
		if !health.Healthy {
			fmt.Printf("Consider: evo rollout rollback %s --reason \"error rate %.3f exceeded threshold\"\n",
				args[0], health.ErrorRate)
		}
		return nil
	},
}

var rolloutReportCmd = &cobra.Command{
	Use:   "report-error-rate [deployment-id] [rate]",
	Short: "Record the observed error rate for a deployment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var rate float64
		if _, err := fmt.Sscanf(args[1], "%f", &rate); err != nil {
			return fmt.Errorf("invalid error rate %q: %w", args[1], err)
		}

		deployment, err := wire.RolloutService().ReportErrorRate(ctx, args[0], rate)
		if err != nil {
			return fmt.Errorf("failed to report error rate: %w", err)
		}

		fmt.Printf("✓ Recorded error rate %.3f for %s\n", deployment.ErrorRate, deployment.ID)
		return nil
	},
}

var rolloutRollbackCmd = &cobra.Command{
	Use:   "rollback [deployment-id]",
	Short: "Roll back a deployment using its stored rollback plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		reason, _ := cmd.Flags().GetString("reason")

		deployment, err := wire.RolloutService().Rollback(ctx, args[0], reason)
		if err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}

		fmt.Printf("✓ Rolled back %s\n", deployment.ID)
		if deployment.RollbackReason != "" {
			fmt.Printf("  Reason: %s\n", deployment.RollbackReason)
		}
		return nil
	},
}

var rolloutHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List all deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		deployments, err := wire.RolloutService().History(ctx)
		if err != nil {
			return fmt.Errorf("failed to list deployments: %w", err)
		}

		if len(deployments) == 0 {
			fmt.Println("No deployments")
			return nil
		}

		fmt.Printf("Found %d deployment(s):\n\n", len(deployments))
		for _, d := range deployments {
			canaryMark := ""
			if d.CanaryActive {
				canaryMark = fmt.Sprintf(" [canary %.0f%%]", d.CanaryPercent)
			}
			fmt.Printf("%-42s %-12s %s%s\n", d.ID, d.Status, d.DeployedAt.Format("2006-01-02 15:04"), canaryMark)
			if d.RollbackReason != "" {
				fmt.Printf("  rolled back: %s\n", d.RollbackReason)
			}
		}
		return nil
	},
}

func init() {
	rolloutDeployCmd.Flags().String("config", "", "Variant configuration as JSON")
	rolloutDeployCmd.Flags().Float64("rollback-threshold", 0, "Error rate that triggers rollback (0 = default 0.10)")
	rolloutDeployCmd.Flags().Float64("canary", 1, "Initial canary traffic percentage")

	rolloutWidenCmd.Flags().Float64("percent", 0, "Target canary percentage (0 = next ladder stage)")

	rolloutRollbackCmd.Flags().String("reason", "", "Why the deployment is being rolled back")

	rolloutCmd.AddCommand(rolloutDeployCmd)
	rolloutCmd.AddCommand(rolloutWidenCmd)
	rolloutCmd.AddCommand(rolloutHealthCmd)
	rolloutCmd.AddCommand(rolloutReportCmd)
	rolloutCmd.AddCommand(rolloutRollbackCmd)
	rolloutCmd.AddCommand(rolloutHistoryCmd)
}

// RolloutCmd returns the rollout command
func RolloutCmd() *cobra.Command {
	return rolloutCmd
}
