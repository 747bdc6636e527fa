package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/evo/internal/core/stats"
	"github.com/example/evo/internal/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare control and treatment sample summaries",
	Long:  "Run a two-sample significance test on control vs treatment summaries and print the verdict with a recommendation",
	RunE: func(cmd *cobra.Command, args []string) error {
		control := models.SampleSummary{}
		treatment := models.SampleSummary{}
		control.Mean, _ = cmd.Flags().GetFloat64("control-mean")
		control.StdDev, _ = cmd.Flags().GetFloat64("control-stddev")
		control.N, _ = cmd.Flags().GetInt("control-n")
		treatment.Mean, _ = cmd.Flags().GetFloat64("treatment-mean")
		treatment.StdDev, _ = cmd.Flags().GetFloat64("treatment-stddev")
		treatment.N, _ = cmd.Flags().GetInt("treatment-n")

		verdict := stats.Analyze(control, treatment)

		fmt.Printf("Improvement: %+.2f%% (treatment %.4f vs control %.4f)\n",
			verdict.Improvement*100, treatment.Mean, control.Mean)
		fmt.Printf("p-value: %.4f, effect size: %.3f\n", verdict.PValue, verdict.EffectSize)
		fmt.Printf("95%% CI: [%.4f, %.4f]\n", verdict.ConfidenceInterval.Lower, verdict.ConfidenceInterval.Upper)
		if verdict.Significant {
			fmt.Println("Result is statistically significant")
		} else {
			fmt.Println("Result is NOT statistically significant")
		}

		fmt.Printf("Recommendation: %s (confidence %.2f)\n",
			recommendationColor(verdict.Recommendation), verdict.Confidence)
		for _, warning := range verdict.Warnings {
			fmt.Printf("  warning: %s\n", warning)
		}
		return nil
	},
}

func recommendationColor(recommendation string) string {
	switch recommendation {
	case models.RecommendDeploy:
		return color.New(color.FgHiGreen).Sprint(recommendation)
	case models.RecommendRollback:
		return color.New(color.FgRed).Sprint(recommendation)
	case models.RecommendContinue:
		return color.New(color.FgYellow).Sprint(recommendation)
	default:
		return recommendation
	}
}

func init() {
	analyzeCmd.Flags().Float64("control-mean", 0, "Control sample mean")
	analyzeCmd.Flags().Float64("control-stddev", 0, "Control sample standard deviation")
	analyzeCmd.Flags().Int("control-n", 0, "Control sample size")
	analyzeCmd.Flags().Float64("treatment-mean", 0, "Treatment sample mean")
	analyzeCmd.Flags().Float64("treatment-stddev", 0, "Treatment sample standard deviation")
	analyzeCmd.Flags().Int("treatment-n", 0, "Treatment sample size")
}

// AnalyzeCmd returns the analyze command
func AnalyzeCmd() *cobra.Command {
	return analyzeCmd
}
