package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

func newToolServer(t *testing.T, skills *mockSkillService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Skills: skills})
	require.NoError(t, err)
	return server
}

func TestServer_handleListSkills(t *testing.T) {
	ctx := context.Background()
	skills := &mockSkillService{
		skills: []domain.SkillStatus{
			{
				Skill:          domain.Skill{ID: "gmail", Name: "Gmail", OAuth: &domain.OAuthDescriptor{}},
				Status:         domain.StatusConfigured,
				ProviderStatus: map[string]domain.Status{"claude": domain.StatusInstalled},
			},
			{
				Skill:  domain.Skill{ID: "notes", Name: "Notes"},
				Status: domain.StatusNotInstalled,
			},
		},
	}

	t.Run("returns every skill", func(t *testing.T) {
		_, output, err := newToolServer(t, skills).handleListSkills(ctx, nil, ListSkillsInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "gmail", output.Skills[0].ID)
		assert.True(t, output.Skills[0].HasOAuth)
		assert.Equal(t, "installed", output.Skills[0].ProviderStatus["claude"])
		assert.Nil(t, output.Skills[1].ProviderStatus)
	})

	t.Run("filters by status", func(t *testing.T) {
		_, output, err := newToolServer(t, skills).handleListSkills(ctx, nil, ListSkillsInput{Status: "not_installed"})

		require.NoError(t, err)
		require.Equal(t, 1, output.Count)
		assert.Equal(t, "notes", output.Skills[0].ID)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		_, _, err := newToolServer(t, &mockSkillService{err: errors.New("boom")}).
			handleListSkills(ctx, nil, ListSkillsInput{})

		assert.EqualError(t, err, "boom")
	})
}

func TestServer_handleSkillStatus(t *testing.T) {
	ctx := context.Background()
	skills := &mockSkillService{
		detail: &driving.SkillDetail{
			SkillStatus: domain.SkillStatus{
				Skill:  domain.Skill{ID: "sentry", Fields: []domain.Field{&domain.ScalarField{Name: "k"}}},
				Status: domain.StatusOutdated,
			},
			Dependencies: []domain.Dependency{{Name: "python3", Available: true}, {Name: "jq"}},
		},
	}

	_, output, err := newToolServer(t, skills).handleSkillStatus(ctx, nil, SkillInput{Skill: "sentry"})

	require.NoError(t, err)
	assert.Equal(t, "outdated", output.Status)
	assert.True(t, output.NeedsConfig)
	assert.Equal(t, []DependencyOutput{{Name: "python3", Available: true}, {Name: "jq"}}, output.Dependencies)

	_, _, err = newToolServer(t, skills).handleSkillStatus(ctx, nil, SkillInput{})
	assert.ErrorIs(t, err, errSkillRequired)
}

func TestServer_handleInstallSkill(t *testing.T) {
	ctx := context.Background()

	t.Run("all providers", func(t *testing.T) {
		skills := &mockSkillService{results: []domain.DeployResult{
			{Provider: "claude", Success: true},
			{Provider: "codex", Success: false, Error: "permission denied"},
		}}

		_, output, err := newToolServer(t, skills).handleInstallSkill(ctx, nil, SkillInput{Skill: "sentry"})

		require.NoError(t, err)
		assert.True(t, output.Changed)
		require.Len(t, output.Results, 2)
		assert.Equal(t, "permission denied", output.Results[1].Error)
		assert.Equal(t, []string{"install:sentry"}, skills.calls)
	})

	t.Run("one provider", func(t *testing.T) {
		skills := &mockSkillService{}

		_, output, err := newToolServer(t, skills).handleInstallSkill(ctx, nil, SkillInput{Skill: "sentry", Provider: "gemini"})

		require.NoError(t, err)
		assert.True(t, output.Changed)
		assert.Equal(t, []string{"install:sentry@gemini"}, skills.calls)
	})

	t.Run("propagates precondition failures", func(t *testing.T) {
		skills := &mockSkillService{err: domain.ErrNoProviders}

		_, _, err := newToolServer(t, skills).handleInstallSkill(ctx, nil, SkillInput{Skill: "sentry"})

		assert.ErrorIs(t, err, domain.ErrNoProviders)
	})

	t.Run("requires a skill", func(t *testing.T) {
		_, _, err := newToolServer(t, &mockSkillService{}).handleInstallSkill(ctx, nil, SkillInput{})

		assert.ErrorIs(t, err, errSkillRequired)
	})
}

func TestServer_handleUninstallSkill(t *testing.T) {
	ctx := context.Background()

	t.Run("all providers", func(t *testing.T) {
		skills := &mockSkillService{removed: true}

		_, output, err := newToolServer(t, skills).handleUninstallSkill(ctx, nil, SkillInput{Skill: "sentry"})

		require.NoError(t, err)
		assert.True(t, output.Changed)
		assert.Equal(t, []string{"uninstall:sentry"}, skills.calls)
	})

	t.Run("one provider, nothing removed", func(t *testing.T) {
		skills := &mockSkillService{}

		_, output, err := newToolServer(t, skills).handleUninstallSkill(ctx, nil, SkillInput{Skill: "sentry", Provider: "codex"})

		require.NoError(t, err)
		assert.False(t, output.Changed)
		assert.Equal(t, []string{"uninstall:sentry@codex"}, skills.calls)
	})
}
