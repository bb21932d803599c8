package exec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// writeScript writes an executable shell script into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunner_Success(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "tool", `echo "ran with $1"`+"\n")

	result, err := NewRunner().Run(context.Background(), dir, exe, "test")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ran with test", result.Output)
}

func TestRunner_CombinesStderrAndStripsColour(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "tool", `printf '\033[31mred\033[0m\n'; echo oops >&2`+"\n")

	result, err := NewRunner().Run(context.Background(), dir, exe, "")

	require.NoError(t, err)
	assert.Contains(t, result.Output, "red")
	assert.Contains(t, result.Output, "oops")
	assert.NotContains(t, result.Output, "\033")
}

func TestRunner_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "tool", "echo failing\nexit 3\n")

	result, err := NewRunner().Run(context.Background(), dir, exe, "test")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "failing", result.Output)
}

func TestRunner_NoOutput(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "tool", "exit 0\n")

	result, err := NewRunner().Run(context.Background(), dir, exe, "test")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, NoOutput, result.Output)
}

func TestRunner_MissingDir(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), filepath.Join(t.TempDir(), "missing"), "true", "")

	assert.ErrorIs(t, err, domain.ErrExternalProcess)
}

func TestRunner_LookPath(t *testing.T) {
	r := NewRunner()

	path, err := r.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = r.LookPath("definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}

// fakeGit builds a Git whose binary answers each subcommand from a script.
func fakeGit(t *testing.T, script string) *Git {
	t.Helper()
	dir := t.TempDir()
	g := NewGit(dir)
	g.binary = writeScript(t, dir, "git", script)
	return g
}

func TestGit_CheckForUpdatesBehind(t *testing.T) {
	g := fakeGit(t, `case "$1" in
fetch) exit 0 ;;
status) echo "Your branch is behind 'origin/main' by 2 commits" ;;
esac
`)

	check := g.CheckForUpdates(context.Background())

	assert.True(t, check.HasUpdates)
	assert.Empty(t, check.Error)
}

func TestGit_CheckForUpdatesCurrent(t *testing.T) {
	g := fakeGit(t, `case "$1" in
status) echo "Your branch is up to date with 'origin/main'." ;;
esac
`)

	check := g.CheckForUpdates(context.Background())

	assert.False(t, check.HasUpdates)
	assert.Empty(t, check.Error)
}

func TestGit_CheckForUpdatesFetchFails(t *testing.T) {
	g := fakeGit(t, `echo "fatal: no remote" >&2; exit 128
`)

	check := g.CheckForUpdates(context.Background())

	assert.False(t, check.HasUpdates)
	assert.Equal(t, "fatal: no remote", check.Error)
}

func TestGit_Pull(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    string
		wantErr string
	}{
		{"up to date", "echo 'Already up to date.'\n", MsgUpToDate, ""},
		{"updated", "echo 'Fast-forward'\n", MsgUpdated, ""},
		{"stderr failure", "echo 'conflict' >&2; exit 1\n", "", "conflict"},
		{"stdout failure", "echo 'diverged'; exit 1\n", "", "diverged"},
		{"silent failure", "exit 1\n", "", "git pull failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := fakeGit(t, tt.script)

			msg, err := g.Pull(context.Background())

			if tt.wantErr != "" {
				require.ErrorIs(t, err, domain.ErrExternalProcess)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}
