package domain

import "path/filepath"

// Provider is a host application into whose directory skills are deployed.
type Provider struct {
	ID          string
	Name        string
	Path        string
	DefaultPath string
	Enabled     bool
	Custom      bool
	Selected    bool
}

// SkillDir returns the directory the skill is deployed to for this provider.
func (p Provider) SkillDir(skillID string) string {
	if p.Path == "" {
		return ""
	}
	return filepath.Join(p.Path, skillID)
}

// BuiltinProvider is one entry of the static default provider list.
type BuiltinProvider struct {
	ID   string
	Name string
	// RelPath is relative to the user's home directory.
	RelPath string
}

// BuiltinProviders is the static list of known host applications, in
// display and fallback-selection order.
var BuiltinProviders = []BuiltinProvider{
	{ID: "claude", Name: "Claude Code", RelPath: filepath.Join(".claude", "skills")},
	{ID: "codex", Name: "Codex CLI", RelPath: filepath.Join(".codex", "skills")},
	{ID: "gemini", Name: "Gemini CLI", RelPath: filepath.Join(".gemini", "skills")},
}

// DefaultSelectedProvider is selected when the registry is first created.
const DefaultSelectedProvider = "claude"

// ProviderSettings is the persisted override state of one provider.
type ProviderSettings struct {
	Enabled bool
	Path    string
	Name    string
	Custom  bool
}

// RegistryState is the persisted provider registry.
type RegistryState struct {
	Selected  string
	Providers map[string]ProviderSettings
}
