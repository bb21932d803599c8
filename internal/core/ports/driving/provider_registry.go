package driving

import "github.com/custodia-labs/agent-skills/internal/core/domain"

// ProviderRegistry manages the set of installation targets.
type ProviderRegistry interface {
	// EnsureInitialized persists the default registry if none exists yet.
	EnsureInitialized() error

	// List returns built-in and custom providers with live enabled and
	// selected state.
	List() ([]domain.Provider, error)

	// Get returns one provider. Returns domain.ErrProviderNotFound if unknown.
	Get(id string) (*domain.Provider, error)

	// Enabled returns the enabled providers in fallback order.
	Enabled() ([]domain.Provider, error)

	// Selected returns the provider used for status display, or nil when
	// no provider is enabled.
	Selected() (*domain.Provider, error)

	// SetEnabled enables or disables a provider, optionally overriding its
	// path and display name.
	SetEnabled(id string, enabled bool, override ProviderOverride) error

	// AddCustom registers a user-defined provider. Returns
	// domain.ErrProviderExists if the id is already known.
	AddCustom(id, name, path string) (*domain.Provider, error)

	// Remove deletes a custom provider. Returns domain.ErrBuiltinProvider
	// for built-in ids.
	Remove(id string) error

	// Select chooses the provider used for status display. Unknown or
	// disabled providers are rejected.
	Select(id string) error
}

// ProviderOverride carries optional replacements for provider metadata.
// Nil fields keep the current value.
type ProviderOverride struct {
	Path *string
	Name *string
}
