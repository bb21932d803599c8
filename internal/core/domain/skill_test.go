package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileMapping(t *testing.T) {
	tests := []struct {
		entry string
		want  FileMapping
	}{
		{"sentry", FileMapping{Source: "sentry", Destination: "sentry"}},
		{"bin/sentry", FileMapping{Source: "bin/sentry", Destination: "sentry"}},
		{"bin/sentry.py:sentry", FileMapping{Source: "bin/sentry.py", Destination: "sentry"}},
		{"SKILL.md:docs/SKILL.md", FileMapping{Source: "SKILL.md", Destination: "docs/SKILL.md"}},
		{"lib/x.py:", FileMapping{Source: "lib/x.py", Destination: "x.py"}},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFileMapping(tt.entry))
		})
	}
}

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "acme"},
		{"Acme", "acme"},
		{"ACME_EU", "acme-eu"},
		{"acme eu", "acme-eu"},
		{"  acme--eu ", "acme-eu"},
		{"acme.eu", "acme-eu"},
		{"-acme-", "acme"},
		{"a/b", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSlug(tt.in))
		})
	}
}

func TestSlug_RoundTripThroughEnvName(t *testing.T) {
	for _, slug := range []string{"acme", "acme-eu", "Sytex_EU", "team 42", "x"} {
		normalized := NormalizeSlug(slug)
		assert.Equal(t, normalized, SlugFromEnv(EnvName(normalized)), slug)
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "GOOGLE_CALENDAR", EnvName("google-calendar"))
	assert.Equal(t, "API_KEY", EnvName("api_key"))
}

func TestSkill_SortedSourcesIgnoresDeclarationOrder(t *testing.T) {
	a := Skill{Files: []FileMapping{ParseFileMapping("b.py"), ParseFileMapping("a.py:z")}}
	b := Skill{Files: []FileMapping{ParseFileMapping("a.py"), ParseFileMapping("b.py")}}

	assert.Equal(t, []string{"a.py", "b.py"}, a.SortedSources())
	assert.Equal(t, a.SortedSources(), b.SortedSources())
}

func TestSkill_FieldLookup(t *testing.T) {
	skill := Skill{
		ID: "sentry",
		Fields: []Field{
			&ScalarField{Name: "api_key", EnvVar: "SENTRY_API_KEY"},
			&ListField{Name: "orgs", EnvKey: "ORG", Marker: "token"},
		},
	}

	f, ok := skill.Field("api_key")
	require.True(t, ok)
	assert.IsType(t, &ScalarField{}, f)

	lf, ok := skill.ListField("orgs")
	require.True(t, ok)
	assert.Equal(t, "ORG", lf.EnvKey)

	_, ok = skill.ListField("api_key")
	assert.False(t, ok)

	_, ok = skill.Field("missing")
	assert.False(t, ok)
	assert.True(t, skill.NeedsConfig())
}

func TestListField_Namespaces(t *testing.T) {
	skill := &Skill{ID: "sentry-cli"}
	field := &ListField{Name: "orgs", EnvKey: "ORG"}

	assert.Equal(t, "SENTRY_CLI_ORG_", field.ItemPrefix(skill))
	assert.Equal(t, "SENTRY_CLI_ORG_ACME_EU_", field.SlugPrefix(skill, "Acme-EU"))
	assert.Equal(t, "SENTRY_CLI_DEFAULT_ORG", field.DefaultVar(skill))
}

func TestListField_MarkerSuffix(t *testing.T) {
	plain := &ListField{Marker: "auth-token"}
	assert.Equal(t, "AUTH_TOKEN", plain.MarkerSuffix())

	oauth := &ListField{Marker: "refresh_token", ItemOAuth: &OAuthDescriptor{}}
	assert.Equal(t, "REFRESH_TOKEN", oauth.MarkerSuffix())

	custom := &ListField{
		Marker:    "refresh_token",
		ItemOAuth: &OAuthDescriptor{TokenMapping: map[string]string{"refresh_token": "RT"}},
	}
	assert.Equal(t, "RT", custom.MarkerSuffix())
}

func TestListField_SuffixesSkipSlugAndIncludeTokens(t *testing.T) {
	field := &ListField{
		ItemFields: []ItemField{{Name: "slug"}, {Name: "name"}, {Name: "access_token"}},
		ItemOAuth:  &OAuthDescriptor{},
	}

	assert.Equal(t, []string{"NAME", "ACCESS_TOKEN", "TOKEN_EXPIRES_IN", "REFRESH_TOKEN"}, field.Suffixes())
}

func TestOAuthDescriptor_Tokens(t *testing.T) {
	var d OAuthDescriptor
	assert.False(t, d.Complete())

	tokens := d.Tokens()
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenMap{Key: "access_token", EnvSuffix: "ACCESS_TOKEN"}, tokens[0])
	assert.Equal(t, TokenMap{Key: "expires_in", EnvSuffix: "TOKEN_EXPIRES_IN"}, tokens[1])
	assert.Equal(t, TokenMap{Key: "refresh_token", EnvSuffix: "REFRESH_TOKEN"}, tokens[2])

	d.AuthURL = "https://example.com/auth"
	d.TokenURL = "https://example.com/token"
	assert.True(t, d.Complete())
}

func TestProvider_SkillDirBasic(t *testing.T) {
	p := Provider{Path: "/home/u/.claude/skills"}
	assert.Equal(t, "/home/u/.claude/skills/sentry", p.SkillDir("sentry"))

	empty := Provider{}
	assert.Empty(t, empty.SkillDir("sentry"))
}
