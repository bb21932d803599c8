package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent installer activity",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	historySkill string
	historyLimit int
)

func init() {
	historyCmd.Flags().StringVarP(&historySkill, "skill", "s", "", "only show events for this skill")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of events")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if err := requireSkills(); err != nil {
		return err
	}

	events, err := skillService.History(cmd.Context(), historySkill, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(events) == 0 {
		cmd.Println("No history recorded.")
		return nil
	}

	for _, e := range events {
		target := e.SkillID
		if e.Provider != "" {
			target += "@" + e.Provider
		}
		line := fmt.Sprintf("%s  %s %s %s",
			mutedStyle.Render(e.CreatedAt.Local().Format(time.DateTime)),
			padRight(string(e.Action), 10),
			padRight(target, 24),
			renderOutcome(e.Success))
		if e.Message != "" {
			line += "  " + e.Message
		}
		cmd.Println(line)
	}
	return nil
}
