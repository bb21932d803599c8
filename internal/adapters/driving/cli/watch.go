package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/agent-skills/internal/adapters/driving/watch"
	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Redeploy skills as their sources change",
	Long: `Watches the skills directory and, when a skill's files change,
redeploys it to every provider whose copy is outdated. Providers that do
not have the skill installed are left alone.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchDebounce int

func init() {
	watchCmd.Flags().IntVar(&watchDebounce, "debounce", int(watch.DefaultDebounce.Milliseconds()), "quiet period in milliseconds")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	if settings == nil {
		return errors.New("settings not loaded")
	}

	w := watch.New(skillService, settings.SkillsDir,
		watch.WithDebounce(msDuration(watchDebounce)),
		watch.WithOnRefresh(func(id string, results []domain.DeployResult, err error) {
			if err != nil {
				cmd.PrintErrf("%s: %v\n", id, err)
				return
			}
			for _, r := range results {
				cmd.Printf("%s -> %s %s\n", id, padRight(r.Provider, 10), renderOutcome(r.Success))
			}
		}),
	)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", settings.SkillsDir)
	return w.Run(cmd.Context())
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
