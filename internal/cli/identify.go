package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/evo/internal/core/identify"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [candidates-file]",
	Short: "Rank improvement candidates by return on investment",
	Long:  "Read a JSON array of candidates (area, metric, description, impact 1-10, effort 1-10) and print them best-first by impact/effort",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read candidates: %w", err)
		}

		var candidates []identify.Candidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			return fmt.Errorf("failed to parse candidates: %w", err)
		}

		if len(candidates) == 0 {
			fmt.Println("No candidates")
			return nil
		}

		ranked := identify.Rank(candidates)
		fmt.Printf("Ranked %d candidate(s):\n\n", len(ranked))
		for i, c := range ranked {
			fmt.Printf("%2d. [ROI %.2f] %s/%s", i+1, identify.ROI(c), c.Area, c.Metric)
			if c.Description != "" {
				fmt.Printf(" - %s", c.Description)
			}
			fmt.Println()
		}
		return nil
	},
}

// IdentifyCmd returns the identify command
func IdentifyCmd() *cobra.Command {
	return identifyCmd
}
