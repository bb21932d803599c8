package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage installation targets",
	Long: `List, enable, disable, add, remove and select the assistant
directories skills are deployed into.

The selected provider is the primary one: skill tests run from its copy.`,
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers",
	Args:  cobra.NoArgs,
	RunE:  runProvidersList,
}

var providersEnableCmd = &cobra.Command{
	Use:   "enable [provider-id]",
	Short: "Enable a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersEnable,
}

var providersDisableCmd = &cobra.Command{
	Use:   "disable [provider-id]",
	Short: "Disable a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersDisable,
}

var providersAddCmd = &cobra.Command{
	Use:   "add [provider-id] [name] [path]",
	Short: "Add a custom provider",
	Args:  cobra.ExactArgs(3),
	RunE:  runProvidersAdd,
}

var providersRemoveCmd = &cobra.Command{
	Use:   "remove [provider-id]",
	Short: "Remove a custom provider",
	Long:  `Removes a custom provider. Built-in providers can only be disabled.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersRemove,
}

var providersSelectCmd = &cobra.Command{
	Use:   "select [provider-id]",
	Short: "Select the primary provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersSelect,
}

var (
	providerPath string
	providerName string
)

func init() {
	providersEnableCmd.Flags().StringVar(&providerPath, "path", "", "override the provider's skill directory")
	providersEnableCmd.Flags().StringVar(&providerName, "name", "", "override the provider's display name")

	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersEnableCmd)
	providersCmd.AddCommand(providersDisableCmd)
	providersCmd.AddCommand(providersAddCmd)
	providersCmd.AddCommand(providersRemoveCmd)
	providersCmd.AddCommand(providersSelectCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProvidersList(cmd *cobra.Command, _ []string) error {
	if err := requireProviders(); err != nil {
		return err
	}

	providers, err := providerRegistry.List()
	if err != nil {
		return fmt.Errorf("failed to list providers: %w", err)
	}

	cmd.Println(titleStyle.Render("Providers"))
	cmd.Println()
	for i := range providers {
		p := &providers[i]

		marker := "  "
		if p.Selected {
			marker = successStyle.Render("* ")
		}
		state := mutedStyle.Render("disabled")
		if p.Enabled {
			state = successStyle.Render("enabled")
		}
		name := p.Name
		if p.Custom {
			name += mutedStyle.Render(" (custom)")
		}

		cmd.Printf("%s%s %s %s\n", marker, padRight(p.ID, 10), padRight(state, 9), name)
		cmd.Printf("    %s\n", mutedStyle.Render(p.Path))
	}
	return nil
}

func runProvidersEnable(cmd *cobra.Command, args []string) error {
	if err := requireProviders(); err != nil {
		return err
	}

	var override driving.ProviderOverride
	if cmd.Flags().Changed("path") {
		override.Path = &providerPath
	}
	if cmd.Flags().Changed("name") {
		override.Name = &providerName
	}

	if err := providerRegistry.SetEnabled(args[0], true, override); err != nil {
		return fmt.Errorf("failed to enable provider: %w", err)
	}
	cmd.Printf("Provider %s enabled.\n", args[0])
	return nil
}

func runProvidersDisable(cmd *cobra.Command, args []string) error {
	if err := requireProviders(); err != nil {
		return err
	}
	if err := providerRegistry.SetEnabled(args[0], false, driving.ProviderOverride{}); err != nil {
		return fmt.Errorf("failed to disable provider: %w", err)
	}
	cmd.Printf("Provider %s disabled.\n", args[0])
	return nil
}

func runProvidersAdd(cmd *cobra.Command, args []string) error {
	if err := requireProviders(); err != nil {
		return err
	}
	p, err := providerRegistry.AddCustom(args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("failed to add provider: %w", err)
	}
	cmd.Printf("Provider %s added (%s).\n", p.ID, p.Path)
	return nil
}

func runProvidersRemove(cmd *cobra.Command, args []string) error {
	if err := requireProviders(); err != nil {
		return err
	}
	if err := providerRegistry.Remove(args[0]); err != nil {
		return fmt.Errorf("failed to remove provider: %w", err)
	}
	cmd.Printf("Provider %s removed.\n", args[0])
	return nil
}

func runProvidersSelect(cmd *cobra.Command, args []string) error {
	if err := requireProviders(); err != nil {
		return err
	}
	if err := providerRegistry.Select(args[0]); err != nil {
		return fmt.Errorf("failed to select provider: %w", err)
	}
	cmd.Printf("Provider %s selected.\n", args[0])
	return nil
}
