package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

func TestExtractSkillID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid skill URI",
			uri:      "agent-skills://skills/sentry",
			expected: "sentry",
		},
		{
			name:     "invalid prefix",
			uri:      "file://skills/sentry",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "agent-skills://skills/sentry/files",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractSkillID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleProvidersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil provider registry returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Skills: &mockSkillService{}})
		require.NoError(t, err)

		result, err := server.handleProvidersResource(ctx, makeReadResourceRequest("agent-skills://providers"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns providers", func(t *testing.T) {
		providers := &mockProviderRegistry{providers: []domain.Provider{
			{ID: "claude", Name: "Claude", Path: "/home/u/.claude/skills", Enabled: true, Selected: true},
			{ID: "codex", Name: "Codex", Path: "/home/u/.codex/skills"},
		}}
		server, err := NewServer(&Ports{Skills: &mockSkillService{}, Providers: providers})
		require.NoError(t, err)

		result, err := server.handleProvidersResource(ctx, makeReadResourceRequest("agent-skills://providers"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "claude", decoded[0]["id"])
		assert.Equal(t, true, decoded[0]["selected"])
		assert.Equal(t, false, decoded[1]["enabled"])
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		providers := &mockProviderRegistry{err: errors.New("corrupt state")}
		server, err := NewServer(&Ports{Skills: &mockSkillService{}, Providers: providers})
		require.NoError(t, err)

		_, err = server.handleProvidersResource(ctx, makeReadResourceRequest("agent-skills://providers"))

		assert.ErrorContains(t, err, "corrupt state")
	})
}

func TestServer_handleSkillResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns skill status", func(t *testing.T) {
		skills := &mockSkillService{detail: &driving.SkillDetail{
			SkillStatus: domain.SkillStatus{
				Skill:  domain.Skill{ID: "sentry", Name: "Sentry"},
				Status: domain.StatusInstalled,
			},
		}}
		server, err := NewServer(&Ports{Skills: skills})
		require.NoError(t, err)

		result, err := server.handleSkillResource(ctx, makeReadResourceRequest("agent-skills://skills/sentry"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"status": "installed"`)
		assert.Equal(t, []string{"get:sentry"}, skills.calls)
	})

	t.Run("unknown skill is not found", func(t *testing.T) {
		skills := &mockSkillService{err: domain.ErrSkillNotFound}
		server, err := NewServer(&Ports{Skills: skills})
		require.NoError(t, err)

		_, err = server.handleSkillResource(ctx, makeReadResourceRequest("agent-skills://skills/nope"))

		assert.Error(t, err)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		skills := &mockSkillService{}
		server, err := NewServer(&Ports{Skills: skills})
		require.NoError(t, err)

		_, err = server.handleSkillResource(ctx, makeReadResourceRequest("agent-skills://skills/"))

		assert.Error(t, err)
		assert.Empty(t, skills.calls)
	})
}
