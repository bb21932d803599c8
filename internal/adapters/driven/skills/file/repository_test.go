package file

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

const sentryJSON = `{
  "name": "Sentry",
  "description": "Query Sentry issues",
  "files": ["sentry.py:sentry", "SKILL.md"],
  "test_command": "test",
  "dependencies": ["python3"],
  "fields": [
    {"name": "api_key", "label": "API key", "env_var": "SENTRY_API_KEY", "secret": true},
    {
      "name": "orgs",
      "type": "list",
      "env_key": "org",
      "item_fields": [
        {"name": "slug", "required": true},
        {"name": "token", "required": true, "secret": true},
        {"name": "region", "default": "us"}
      ]
    }
  ]
}`

const sytexYAML = `name: Sytex
files:
  - sytex.py:sytex
fields:
  - name: orgs
    type: list
    item_fields:
      - name: slug
      - name: client_id
    item_oauth:
      auth_url: https://sytex.example.com/o/authorize
      token_url: https://sytex.example.com/o/token
      no_grant_type: true
      extra_token_params:
        audience: api
      token_mapping:
        refresh_token: rt
        access_token: at
oauth:
  auth_url: https://sytex.example.com/o/authorize
  token_url: https://sytex.example.com/o/token
  scopes: [read, write]
`

func newTestRepo(t *testing.T, files map[string]string) *Repository {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/skills/"+path, []byte(content), 0o644))
	}
	return NewRepository(fs, "/skills")
}

func TestRepository_GetJSON(t *testing.T) {
	repo := newTestRepo(t, map[string]string{"sentry/skill.json": sentryJSON})

	skill, err := repo.Get(context.Background(), "sentry")

	require.NoError(t, err)
	assert.Equal(t, "sentry", skill.ID)
	assert.Equal(t, "Sentry", skill.Name)
	assert.Equal(t, "/skills/sentry", skill.SourceDir)
	assert.Equal(t, []domain.FileMapping{
		{Source: "sentry.py", Destination: "sentry"},
		{Source: "SKILL.md", Destination: "SKILL.md"},
	}, skill.Files)
	assert.Equal(t, "test", skill.TestCommand)
	assert.Equal(t, []string{"python3"}, skill.Dependencies)
	assert.Nil(t, skill.OAuth)

	require.Len(t, skill.Fields, 2)
	scalar, ok := skill.Fields[0].(*domain.ScalarField)
	require.True(t, ok)
	assert.Equal(t, "SENTRY_API_KEY", scalar.EnvVar)
	assert.True(t, scalar.Secret)

	list, ok := skill.ListField("orgs")
	require.True(t, ok)
	assert.Equal(t, "ORG", list.EnvKey)
	assert.Equal(t, "token", list.Marker)
	require.Len(t, list.ItemFields, 3)
	assert.True(t, list.ItemFields[2].HasDefault)
	assert.Equal(t, "us", list.ItemFields[2].Default)
	assert.False(t, list.ItemFields[1].HasDefault)
}

func TestRepository_GetYAMLWithItemOAuth(t *testing.T) {
	repo := newTestRepo(t, map[string]string{"sytex/skill.yaml": sytexYAML})

	skill, err := repo.Get(context.Background(), "sytex")

	require.NoError(t, err)
	require.NotNil(t, skill.OAuth)
	assert.Equal(t, []string{"read", "write"}, skill.OAuth.Scopes)

	list, ok := skill.ListField("orgs")
	require.True(t, ok)
	assert.Equal(t, "ORGS", list.EnvKey)
	assert.Equal(t, "refresh_token", list.Marker)
	assert.Equal(t, "RT", list.MarkerSuffix())
	require.NotNil(t, list.ItemOAuth)
	assert.True(t, list.ItemOAuth.NoGrantType)
	assert.Equal(t, map[string]string{"audience": "api"}, list.ItemOAuth.ExtraTokenParams)
}

func TestRepository_MarkerResolution(t *testing.T) {
	tests := []struct {
		name   string
		decl   string
		marker string
		valid  bool
	}{
		{
			name:   "explicit marker",
			decl:   `{"fields":[{"name":"o","type":"list","marker":"key","item_fields":[{"name":"slug"},{"name":"key"}]}]}`,
			marker: "key",
			valid:  true,
		},
		{
			name:   "first required attribute",
			decl:   `{"fields":[{"name":"o","type":"list","item_fields":[{"name":"slug","required":true},{"name":"a"},{"name":"b","required":true}]}]}`,
			marker: "b",
			valid:  true,
		},
		{
			name: "no required attribute",
			decl: `{"fields":[{"name":"o","type":"list","item_fields":[{"name":"slug"},{"name":"a"}]}]}`,
		},
		{
			name: "marker names the slug",
			decl: `{"fields":[{"name":"o","type":"list","marker":"slug","item_fields":[{"name":"slug"},{"name":"a"}]}]}`,
		},
		{
			name:   "item oauth with default token mapping",
			decl:   `{"fields":[{"name":"o","type":"list","item_fields":[{"name":"slug"}],"item_oauth":{"auth_url":"https://a","token_url":"https://t"}}]}`,
			marker: "refresh_token",
			valid:  true,
		},
		{
			name: "item oauth mapping without refresh token",
			decl: `{"fields":[{"name":"o","type":"list","item_fields":[{"name":"slug"}],"item_oauth":{"auth_url":"https://a","token_url":"https://t","token_mapping":{"access_token":"AT"}}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t, map[string]string{"x/skill.json": tt.decl})

			skill, err := repo.Get(context.Background(), "x")

			if !tt.valid {
				assert.ErrorIs(t, err, domain.ErrInvalidSkill)
				return
			}
			require.NoError(t, err)
			lf, ok := skill.ListField("o")
			require.True(t, ok)
			assert.Equal(t, tt.marker, lf.Marker)
		})
	}
}

func TestRepository_GetJSONEscapes(t *testing.T) {
	decl := "{\n\t\"name\": \"A\\/B \\u00e9\",\n\t\"description\": \"line\\none\\ttab\",\n\t\"files\": [\"run.sh\"]\n}"
	repo := newTestRepo(t, map[string]string{"esc/skill.json": decl})

	skill, err := repo.Get(context.Background(), "esc")

	require.NoError(t, err)
	assert.Equal(t, "A/B é", skill.Name)
	assert.Equal(t, "line\none\ttab", skill.Description)
}

func TestRepository_JSONIsStrictJSON(t *testing.T) {
	repo := newTestRepo(t, map[string]string{"y/skill.json": "name: looks like yaml\n"})

	_, err := repo.Get(context.Background(), "y")

	assert.ErrorIs(t, err, domain.ErrInvalidSkill)
	assert.ErrorContains(t, err, "skill.json")
}

func TestRepository_ScalarEnvVarDefaultsToSkillPrefix(t *testing.T) {
	repo := newTestRepo(t, map[string]string{"my-tool/skill.json": `{"fields":[{"name":"api-key"}]}`})

	skill, err := repo.Get(context.Background(), "my-tool")

	require.NoError(t, err)
	f := skill.Fields[0].(*domain.ScalarField)
	assert.Equal(t, "MY_TOOL_API_KEY", f.EnvVar)
}

func TestRepository_ListSkipsInvalidAndUndeclared(t *testing.T) {
	repo := newTestRepo(t, map[string]string{
		"sentry/skill.json":  sentryJSON,
		"sytex/skill.yaml":   sytexYAML,
		"broken/skill.json":  `{"fields": [{"type": "list"}]}`,
		"notes/README.md":    "no declaration",
		"loose-file.json":    "{}",
		"garbage/skill.json": "{not json",
	})

	skills, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "sentry", skills[0].ID)
	assert.Equal(t, "sytex", skills[1].ID)
}

func TestRepository_ReReadsOnEveryCall(t *testing.T) {
	fs := afero.NewMemMapFs()
	repo := NewRepository(fs, "/skills")
	require.NoError(t, afero.WriteFile(fs, "/skills/a/skill.json", []byte(`{"name":"A"}`), 0o644))

	first, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/skills/a/skill.json", []byte(`{"name":"A2"}`), 0o644))
	second, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, "A", first.Name)
	assert.Equal(t, "A2", second.Name)
}

func TestRepository_GetUnknown(t *testing.T) {
	repo := newTestRepo(t, map[string]string{"sentry/skill.json": sentryJSON})

	for _, id := range []string{"ghost", "", "..", "../etc", "sentry/../sentry"} {
		_, err := repo.Get(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrSkillNotFound, id)
	}
}

func TestRepository_ListMissingRoot(t *testing.T) {
	repo := NewRepository(afero.NewMemMapFs(), "/nowhere")

	skills, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, skills)
	assert.Equal(t, "/nowhere", repo.Root())
}
