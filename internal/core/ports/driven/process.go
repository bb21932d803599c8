package driven

import (
	"context"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// CommandRunner executes skill commands on the host.
type CommandRunner interface {
	// Run executes "<executable> <args>" through the shell in dir and
	// returns the combined output with terminal colour codes stripped.
	// A non-zero exit is reported in the result, not as an error.
	Run(ctx context.Context, dir, executable, args string) (domain.TestResult, error)

	// LookPath reports where a dependency is installed.
	LookPath(name string) (string, error)
}

// SourceControl updates the skills repository from its remote.
type SourceControl interface {
	CheckForUpdates(ctx context.Context) domain.UpdateCheck
	Pull(ctx context.Context) (string, error)
}
