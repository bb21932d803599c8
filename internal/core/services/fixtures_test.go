package services

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/agent-skills/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

const (
	testHome      = "/home/u"
	testConfigDir = "/home/u/.agent-skills"
	testSkillsDir = "/repo/skills"
)

// env bundles the collaborators most service tests need.
type env struct {
	fs          afero.Fs
	providers   *ProviderRegistry
	credentials *CredentialService
	status      *StatusService
	deployer    *Deployer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := afero.NewMemMapFs()
	providers := NewProviderRegistry(memory.NewProviderStore(), testHome)
	require.NoError(t, providers.EnsureInitialized())
	credentials := NewCredentialService(fs, testConfigDir, providers)
	return &env{
		fs:          fs,
		providers:   providers,
		credentials: credentials,
		status:      NewStatusService(fs, providers),
		deployer:    NewDeployer(fs, providers, credentials),
	}
}

func (e *env) provider(t *testing.T, id string) domain.Provider {
	t.Helper()
	p, err := e.providers.Get(id)
	require.NoError(t, err)
	return *p
}

// sentrySkill has a scalar field and a plain list field.
func sentrySkill(t *testing.T, fs afero.Fs) *domain.Skill {
	t.Helper()
	dir := testSkillsDir + "/sentry"
	writeFile(t, fs, dir+"/sentry.py", "#!/usr/bin/env python3\nprint('sentry')\n")
	writeFile(t, fs, dir+"/SKILL.md", "# Sentry\n")
	return &domain.Skill{
		ID:        "sentry",
		Name:      "Sentry",
		SourceDir: dir,
		Files: []domain.FileMapping{
			domain.ParseFileMapping("sentry.py:sentry"),
			domain.ParseFileMapping("SKILL.md"),
		},
		Fields: []domain.Field{
			&domain.ScalarField{Name: "api_key", EnvVar: "SENTRY_API_KEY", Secret: true},
			&domain.ListField{
				Name:   "orgs",
				EnvKey: "ORG",
				Marker: "token",
				ItemFields: []domain.ItemField{
					{Name: "slug", Required: true},
					{Name: "token", Required: true, Secret: true},
					{Name: "region", Default: "us", HasDefault: true},
				},
			},
		},
		TestCommand: "test",
	}
}

// plainSkill declares no fields.
func plainSkill(t *testing.T, fs afero.Fs) *domain.Skill {
	t.Helper()
	dir := testSkillsDir + "/notes"
	writeFile(t, fs, dir+"/notes.sh", "echo notes\n")
	return &domain.Skill{
		ID:        "notes",
		SourceDir: dir,
		Files:     []domain.FileMapping{domain.ParseFileMapping("notes.sh:notes")},
	}
}

// gmailSkill authorizes the whole skill with OAuth.
func gmailSkill(t *testing.T, fs afero.Fs) *domain.Skill {
	t.Helper()
	dir := testSkillsDir + "/gmail"
	writeFile(t, fs, dir+"/gmail.py", "print('gmail')\n")
	return &domain.Skill{
		ID:        "gmail",
		SourceDir: dir,
		Files:     []domain.FileMapping{domain.ParseFileMapping("gmail.py:gmail")},
		Fields: []domain.Field{
			&domain.ScalarField{Name: "client_id", EnvVar: "GMAIL_CLIENT_ID"},
			&domain.ScalarField{Name: "client_secret", EnvVar: "GMAIL_CLIENT_SECRET", Secret: true},
		},
		OAuth: &domain.OAuthDescriptor{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: "https://accounts.example.com/token",
			Scopes:   []string{"mail.read"},
		},
	}
}

// sytexSkill authorizes each list item separately.
func sytexSkill(t *testing.T, fs afero.Fs) *domain.Skill {
	t.Helper()
	dir := testSkillsDir + "/sytex"
	writeFile(t, fs, dir+"/sytex.py", "print('sytex')\n")
	return &domain.Skill{
		ID:        "sytex",
		SourceDir: dir,
		Files:     []domain.FileMapping{domain.ParseFileMapping("sytex.py:sytex")},
		Fields: []domain.Field{
			&domain.ListField{
				Name:   "orgs",
				EnvKey: "ORG",
				Marker: "refresh_token",
				ItemFields: []domain.ItemField{
					{Name: "slug", Required: true},
					{Name: "name"},
					{Name: "client_id"},
					{Name: "client_secret", Secret: true},
				},
				ItemOAuth: &domain.OAuthDescriptor{
					AuthURL:          "https://sytex.example.com/o/authorize",
					TokenURL:         "https://sytex.example.com/o/token",
					ExtraTokenParams: map[string]string{"audience": "api"},
				},
			},
		},
	}
}

func readEnv(t *testing.T, fs afero.Fs, path string) domain.EnvFile {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return domain.ParseEnvFile(data)
}
