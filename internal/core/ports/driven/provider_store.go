package driven

import "github.com/custodia-labs/agent-skills/internal/core/domain"

// ProviderStore persists the provider registry state.
// Implementations handle the file format (e.g., TOML).
type ProviderStore interface {
	// Load reads the registry state. The boolean is false when nothing
	// has been persisted yet.
	Load() (domain.RegistryState, bool, error)

	// Save replaces the persisted registry state.
	Save(state domain.RegistryState) error

	// Path returns the location of the persisted state.
	Path() string
}
