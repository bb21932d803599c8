package exec

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"
	"strings"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure Git implements the interface.
var _ driven.SourceControl = (*Git)(nil)

// Messages returned by Pull.
const (
	MsgUpToDate = "Already up to date"
	MsgUpdated  = "Skills updated"
)

// Git updates the repository that holds the skills directory.
type Git struct {
	binary string
	dir    string
}

// NewGit creates a Git updater for the repository at dir.
func NewGit(dir string) *Git {
	return &Git{binary: "git", dir: dir}
}

// CheckForUpdates fetches the remote and reports whether the current
// branch is behind it.
func (g *Git) CheckForUpdates(ctx context.Context) domain.UpdateCheck {
	if _, stderr, err := g.run(ctx, "fetch"); err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		return domain.UpdateCheck{Error: msg}
	}

	stdout, _, err := g.run(ctx, "status", "-uno")
	if err != nil {
		return domain.UpdateCheck{Error: err.Error()}
	}
	return domain.UpdateCheck{HasUpdates: strings.Contains(stdout, "Your branch is behind")}
}

// Pull fast-forwards the repository.
func (g *Git) Pull(ctx context.Context) (string, error) {
	stdout, stderr, err := g.run(ctx, "pull")
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = strings.TrimSpace(stdout)
		}
		if msg == "" {
			msg = "git pull failed"
		}
		return "", fmt.Errorf("%w: %s", domain.ErrExternalProcess, msg)
	}
	if strings.Contains(stdout, MsgUpToDate) {
		return MsgUpToDate, nil
	}
	return MsgUpdated, nil
}

func (g *Git) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := osexec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = g.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("git %s in %s", strings.Join(args, " "), g.dir)
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
