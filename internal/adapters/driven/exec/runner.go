// Package exec runs skill commands and the skills repository's git
// commands on the host.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure Runner implements the interface.
var _ driven.CommandRunner = (*Runner)(nil)

// NoOutput is reported when a command printed nothing.
const NoOutput = "(no output)"

// Runner executes commands through the POSIX shell.
type Runner struct {
	shell string
}

// NewRunner creates a runner using /bin/sh.
func NewRunner() *Runner {
	return &Runner{shell: "sh"}
}

// Run executes "<executable> <args>" in dir with stdout and stderr combined.
// Colour codes are stripped from the output. A non-zero exit is reported
// as an unsuccessful result; only a failure to start is an error.
func (r *Runner) Run(ctx context.Context, dir, executable, args string) (domain.TestResult, error) {
	line := executable
	if args != "" {
		line += " " + args
	}

	cmd := osexec.CommandContext(ctx, r.shell, "-c", line)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("running %q in %s", line, dir)
	err := cmd.Run()

	output := strings.TrimSpace(ansi.Strip(out.String()))
	if output == "" {
		output = NoOutput
	}

	if err != nil {
		var exitErr *osexec.ExitError
		if !errors.As(err, &exitErr) {
			return domain.TestResult{}, fmt.Errorf("%w: %s: %v", domain.ErrExternalProcess, line, err)
		}
		logger.Debug("%q exited with %d", line, exitErr.ExitCode())
		return domain.TestResult{Success: false, Output: output}, nil
	}
	return domain.TestResult{Success: true, Output: output}, nil
}

// LookPath reports where name is installed.
func (r *Runner) LookPath(name string) (string, error) {
	return osexec.LookPath(name)
}
