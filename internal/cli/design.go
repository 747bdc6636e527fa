package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/wire"
)

var designCmd = &cobra.Command{
	Use:   "design [area] [metric]",
	Short: "Generate an experiment design from an opportunity",
	Long:  "Turn a quantified improvement opportunity into a control/treatment experiment with success criteria, safety bounds, and a sampling plan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := cmd.Flags().GetFloat64("current")
		target, _ := cmd.Flags().GetFloat64("target")
		confidence, _ := cmd.Flags().GetFloat64("confidence")
		impact, _ := cmd.Flags().GetString("impact")
		asJSON, _ := cmd.Flags().GetBool("json")

		design := wire.Designer().Generate(models.Opportunity{
			Area:         args[0],
			Metric:       args[1],
			CurrentValue: current,
			TargetValue:  target,
			Confidence:   confidence,
			Impact:       impact,
		})

		if asJSON {
			data, err := json.MarshalIndent(design, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode design: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Design %s: %s\n", design.ID, design.Name)
		fmt.Printf("Hypothesis: %s\n", design.Hypothesis)
		fmt.Println()
		for _, v := range design.Variants {
			role := "treatment"
			if v.IsControl {
				role = "control"
			}
			fmt.Printf("%-10s %s\n", role+":", v.Description)
			for key, value := range v.Config {
				fmt.Printf("             %s = %v\n", key, value)
			}
		}
		fmt.Println()
		fmt.Printf("Success: improvement ≥ %.4f at significance %.2f, n ≥ %d\n",
			design.SuccessCriteria.MinImprovement, design.SuccessCriteria.SignificanceLevel, design.SuccessCriteria.MinSampleSize)
		fmt.Printf("Safety:  max regression %.0f%%, rollback at %.0f%% error rate\n",
			design.SafetyBounds.MaxRegression*100, design.SafetyBounds.RollbackThreshold*100)
		fmt.Printf("Sampling: %d samples, max %s, checkpoints every %s\n",
			design.SampleConfig.MinSampleSize, design.SampleConfig.MaxDuration, design.SampleConfig.CheckpointInterval)
		return nil
	},
}

func init() {
	designCmd.Flags().Float64("current", 0, "Current value of the metric")
	designCmd.Flags().Float64("target", 0, "Target value of the metric")
	designCmd.Flags().Float64("confidence", 0.5, "Detector confidence in the opportunity (0-1)")
	designCmd.Flags().String("impact", models.ImpactMedium, "Impact level: critical, high, medium, low")
	designCmd.Flags().Bool("json", false, "Emit the design as JSON")
}

// DesignCmd returns the design command
func DesignCmd() *cobra.Command {
	return designCmd
}
