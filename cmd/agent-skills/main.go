package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"

	configfile "github.com/custodia-labs/agent-skills/internal/adapters/driven/config/file"
	"github.com/custodia-labs/agent-skills/internal/adapters/driven/exec"
	"github.com/custodia-labs/agent-skills/internal/adapters/driven/oauth"
	skillsfile "github.com/custodia-labs/agent-skills/internal/adapters/driven/skills/file"
	"github.com/custodia-labs/agent-skills/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/agent-skills/internal/adapters/driving/cli"
	"github.com/custodia-labs/agent-skills/internal/config"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/core/services"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// bootstrap builds the adapters and services for one command run.
func bootstrap(settings *config.Settings) (*cli.Services, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	skillsDir, err := filepath.Abs(settings.SkillsDir)
	if err != nil {
		return nil, fmt.Errorf("resolving skills directory: %w", err)
	}

	fs := afero.NewOsFs()

	store, err := configfile.NewProviderStore(settings.ConfigDir)
	if err != nil {
		return nil, err
	}
	providers := services.NewProviderRegistry(store, home)
	if err := providers.EnsureInitialized(); err != nil {
		return nil, fmt.Errorf("initializing providers: %w", err)
	}

	credentials := services.NewCredentialService(fs, settings.ConfigDir, providers)

	browser := oauth.SystemBrowser{}
	flow := services.NewOAuthFlowController(
		oauth.NewClient(settings.TokenTimeout),
		oauth.NewCallbackListener,
		browser,
		os.Stderr,
		settings.OAuthPort,
		settings.OAuthTimeout,
	)

	// History is best effort: the installer works without it.
	var history driven.HistoryStore
	closeFn := func() error { return nil }
	if db, err := sqlite.NewStore(settings.DataDir()); err != nil {
		logger.Warn("history disabled: %v", err)
	} else {
		history = db
		closeFn = db.Close
	}

	skills := services.NewSkillService(services.SkillServiceDeps{
		FS:            fs,
		Skills:        skillsfile.NewRepository(fs, skillsDir),
		Providers:     providers,
		Credentials:   credentials,
		OAuth:         flow,
		Runner:        exec.NewRunner(),
		SourceControl: exec.NewGit(skillsDir),
		History:       history,
	})

	return &cli.Services{
		Skills:    skills,
		Providers: providers,
		Settings:  settings,
		Browser:   browser,
		Close:     closeFn,
	}, nil
}
