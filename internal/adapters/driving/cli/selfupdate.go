package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Pull the latest skills",
	Long: `Pulls the skills repository from its remote. With --check, only
reports whether updates are available.`,
	Args: cobra.NoArgs,
	RunE: runSelfUpdate,
}

var selfUpdateCheck bool

func init() {
	selfUpdateCmd.Flags().BoolVar(&selfUpdateCheck, "check", false, "only check for updates")
	rootCmd.AddCommand(selfUpdateCmd)
}

func runSelfUpdate(cmd *cobra.Command, _ []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if selfUpdateCheck {
		check, err := skillService.CheckForUpdates(ctx)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		switch {
		case check.Error != "":
			return errors.New(check.Error)
		case check.HasUpdates:
			cmd.Println(warningStyle.Render("Updates available.") + " Run 'agent-skills self-update' to pull them.")
		default:
			cmd.Println("Skills are up to date.")
		}
		return nil
	}

	msg, err := skillService.SelfUpdate(ctx)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	cmd.Println(msg)
	return nil
}
