package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

func TestProvidersCmd_HasSubcommands(t *testing.T) {
	commands := providersCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "enable", "disable", "add", "remove", "select"}, names)
}

func TestProvidersListCmd(t *testing.T) {
	providers := &mockProviderRegistry{providers: []domain.Provider{
		{ID: "claude", Name: "Claude Code", Path: "/home/u/.claude/skills", Enabled: true, Selected: true},
		{ID: "codex", Name: "Codex CLI", Path: "/home/u/.codex/skills"},
		{ID: "work", Name: "Work", Path: "/srv/skills", Enabled: true, Custom: true},
	}}
	cleanup := setupTestServices(&mockSkillService{}, providers)
	defer cleanup()

	out, err := execute(t, "", "providers", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "* claude")
	assert.Contains(t, out, "enabled")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "Work (custom)")
	assert.Contains(t, out, "/home/u/.codex/skills")
}

func TestProvidersEnableCmd(t *testing.T) {
	t.Run("without overrides", func(t *testing.T) {
		providers := &mockProviderRegistry{}
		cleanup := setupTestServices(&mockSkillService{}, providers)
		defer cleanup()

		out, err := execute(t, "", "providers", "enable", "gemini")

		require.NoError(t, err)
		assert.Contains(t, out, "Provider gemini enabled.")
		assert.Equal(t, []string{"enable:gemini"}, providers.calls)
		assert.Nil(t, providers.override.Path)
		assert.Nil(t, providers.override.Name)
	})

	t.Run("with path override", func(t *testing.T) {
		providers := &mockProviderRegistry{}
		cleanup := setupTestServices(&mockSkillService{}, providers)
		defer cleanup()

		_, err := execute(t, "", "providers", "enable", "codex", "--path", "/opt/codex/skills")

		require.NoError(t, err)
		require.NotNil(t, providers.override.Path)
		assert.Equal(t, "/opt/codex/skills", *providers.override.Path)
		assert.Nil(t, providers.override.Name)
	})

	t.Run("unknown provider", func(t *testing.T) {
		providers := &mockProviderRegistry{err: domain.ErrProviderNotFound}
		cleanup := setupTestServices(&mockSkillService{}, providers)
		defer cleanup()

		_, err := execute(t, "", "providers", "enable", "nope")

		assert.ErrorIs(t, err, domain.ErrProviderNotFound)
	})
}

func TestProvidersDisableCmd(t *testing.T) {
	providers := &mockProviderRegistry{}
	cleanup := setupTestServices(&mockSkillService{}, providers)
	defer cleanup()

	out, err := execute(t, "", "providers", "disable", "codex")

	require.NoError(t, err)
	assert.Contains(t, out, "Provider codex disabled.")
	assert.Equal(t, []string{"disable:codex"}, providers.calls)
}

func TestProvidersAddCmd(t *testing.T) {
	t.Run("adds", func(t *testing.T) {
		providers := &mockProviderRegistry{}
		cleanup := setupTestServices(&mockSkillService{}, providers)
		defer cleanup()

		out, err := execute(t, "", "providers", "add", "work", "Work", "/srv/skills")

		require.NoError(t, err)
		assert.Contains(t, out, "Provider work added (/srv/skills).")
	})

	t.Run("requires three args", func(t *testing.T) {
		cleanup := setupTestServices(&mockSkillService{}, &mockProviderRegistry{})
		defer cleanup()

		_, err := execute(t, "", "providers", "add", "work")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 3 arg(s)")
	})

	t.Run("duplicate", func(t *testing.T) {
		providers := &mockProviderRegistry{err: domain.ErrProviderExists}
		cleanup := setupTestServices(&mockSkillService{}, providers)
		defer cleanup()

		_, err := execute(t, "", "providers", "add", "claude", "Claude", "/x")

		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestProvidersRemoveCmd(t *testing.T) {
	t.Run("custom", func(t *testing.T) {
		providers := &mockProviderRegistry{}
		cleanup := setupTestServices(&mockSkillService{}, providers)
		defer cleanup()

		out, err := execute(t, "", "providers", "remove", "work")

		require.NoError(t, err)
		assert.Contains(t, out, "Provider work removed.")
	})

	t.Run("built-in", func(t *testing.T) {
		providers := &mockProviderRegistry{err: domain.ErrBuiltinProvider}
		cleanup := setupTestServices(&mockSkillService{}, providers)
		defer cleanup()

		_, err := execute(t, "", "providers", "remove", "claude")

		assert.ErrorIs(t, err, domain.ErrBuiltinProvider)
	})
}

func TestProvidersSelectCmd(t *testing.T) {
	providers := &mockProviderRegistry{}
	cleanup := setupTestServices(&mockSkillService{}, providers)
	defer cleanup()

	out, err := execute(t, "", "providers", "select", "codex")

	require.NoError(t, err)
	assert.Contains(t, out, "Provider codex selected.")
	assert.Equal(t, []string{"select:codex"}, providers.calls)
}

func TestProvidersCmd_WithoutRegistry(t *testing.T) {
	SetServices(&Services{Skills: &mockSkillService{}})
	defer SetServices(nil)

	_, err := execute(t, "", "providers", "list")

	assert.ErrorContains(t, err, "provider registry not configured")
}
