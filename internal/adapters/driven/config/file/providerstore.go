package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
)

// Ensure ProviderStore implements the interface.
var _ driven.ProviderStore = (*ProviderStore)(nil)

// ConfigFileName is the provider registry file inside the config directory.
const ConfigFileName = "config.toml"

// ProviderStore is a file-based implementation of driven.ProviderStore using TOML.
// The registry is stored in config.toml within the agent-skills config directory:
//
//	selected_provider = "claude"
//
//	[providers.claude]
//	enabled = true
//	path = "/home/me/.claude/skills"
type ProviderStore struct {
	mu       sync.Mutex
	filePath string
}

type registryFile struct {
	SelectedProvider string                   `toml:"selected_provider"`
	Providers        map[string]providerEntry `toml:"providers"`
}

type providerEntry struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
	Name    string `toml:"name,omitempty"`
	Custom  bool   `toml:"custom,omitempty"`
}

// NewProviderStore creates a new TOML-based provider store.
// If configDir is empty, defaults to ~/.agent-skills/config.toml.
func NewProviderStore(configDir string) (*ProviderStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".agent-skills")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ProviderStore{
		filePath: filepath.Join(configDir, ConfigFileName),
	}, nil
}

// Load reads the registry from the TOML file.
func (s *ProviderStore) Load() (domain.RegistryState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RegistryState{}, false, nil
		}
		return domain.RegistryState{}, false, err
	}

	var loaded registryFile
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return domain.RegistryState{}, false, err
	}

	state := domain.RegistryState{
		Selected:  loaded.SelectedProvider,
		Providers: make(map[string]domain.ProviderSettings, len(loaded.Providers)),
	}
	for id, p := range loaded.Providers {
		state.Providers[id] = domain.ProviderSettings{
			Enabled: p.Enabled,
			Path:    p.Path,
			Name:    p.Name,
			Custom:  p.Custom,
		}
	}
	return state, true, nil
}

// Save replaces the TOML file.
func (s *ProviderStore) Save(state domain.RegistryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := registryFile{
		SelectedProvider: state.Selected,
		Providers:        make(map[string]providerEntry, len(state.Providers)),
	}
	for id, p := range state.Providers {
		out.Providers[id] = providerEntry{
			Enabled: p.Enabled,
			Path:    p.Path,
			Name:    p.Name,
			Custom:  p.Custom,
		}
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return err
	}

	// Write to a sibling file then rename over the original
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Path returns the configuration file path.
func (s *ProviderStore) Path() string {
	return s.filePath
}
