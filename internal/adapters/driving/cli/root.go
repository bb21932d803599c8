// Package cli provides the agent-skills command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodia-labs/agent-skills/internal/config"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services holds the ports the commands operate on.
type Services struct {
	Skills    driving.SkillService
	Providers driving.ProviderRegistry
	Settings  *config.Settings

	// Browser opens the web UI for serve --open. Optional.
	Browser driven.BrowserOpener

	// Close releases resources such as the history database. Optional.
	Close func() error
}

// Bootstrap builds the services once flags and settings are resolved.
type Bootstrap func(settings *config.Settings) (*Services, error)

var (
	skillService     driving.SkillService
	providerRegistry driving.ProviderRegistry
	settings         *config.Settings
	browser          driven.BrowserOpener
	closeFn          func() error

	bootstrap Bootstrap
	cfg       = config.New()
)

// skipServices marks commands that run without services.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "agent-skills",
	Short: "Install agent skills into AI coding assistants",
	Long: `agent-skills deploys skill bundles into the skill directories of
AI coding assistants (Claude Code, Codex CLI, Gemini CLI and custom
providers) and manages their configuration and OAuth credentials from a
single central store.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initServices,
	PersistentPostRunE: closeServices,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "enable verbose logging")
	flags.String("config-dir", "", "configuration directory (default ~/.agent-skills)")
	flags.String("skills-dir", "", "directory containing skill declarations")

	bindFlag(cfg, config.KeyVerbose, "verbose")
	bindFlag(cfg, config.KeyConfigDir, "config-dir")
	bindFlag(cfg, config.KeySkillsDir, "skills-dir")
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion overrides the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap registers the function that builds services before a
// command runs.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetServices injects services directly, bypassing Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		skillService, providerRegistry, settings, browser, closeFn = nil, nil, nil, nil, nil
		return
	}
	skillService = s.Skills
	providerRegistry = s.Providers
	settings = s.Settings
	browser = s.Browser
	closeFn = s.Close
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(cfg.GetBool(config.KeyVerbose))

	if cmd.Annotations[skipServices] == "true" || skillService != nil || bootstrap == nil {
		return nil
	}

	resolved, err := config.Load(cfg)
	if err != nil {
		return err
	}
	logger.Debug("config dir: %s, skills dir: %s", resolved.ConfigDir, resolved.SkillsDir)

	services, err := bootstrap(resolved)
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

func closeServices(_ *cobra.Command, _ []string) error {
	if closeFn == nil {
		return nil
	}
	err := closeFn()
	closeFn = nil
	return err
}

var errNotConfigured = errors.New("skill service not configured")

func requireSkills() error {
	if skillService == nil {
		return errNotConfigured
	}
	return nil
}

func requireProviders() error {
	if providerRegistry == nil {
		return errors.New("provider registry not configured")
	}
	return nil
}
