package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// ProviderRegistry merges the built-in provider list with persisted
// overrides and custom providers. State is re-read from the store on
// every call.
type ProviderRegistry struct {
	mu    sync.Mutex
	store driven.ProviderStore
	home  string
}

// Ensure ProviderRegistry implements the interface.
var _ driving.ProviderRegistry = (*ProviderRegistry)(nil)

// NewProviderRegistry creates a registry. Built-in provider paths are
// resolved relative to home.
func NewProviderRegistry(store driven.ProviderStore, home string) *ProviderRegistry {
	return &ProviderRegistry{store: store, home: home}
}

// DefaultState returns the registry written on first run: every built-in
// provider enabled at its default path.
func (r *ProviderRegistry) DefaultState() domain.RegistryState {
	state := domain.RegistryState{
		Selected:  domain.DefaultSelectedProvider,
		Providers: make(map[string]domain.ProviderSettings, len(domain.BuiltinProviders)),
	}
	for _, b := range domain.BuiltinProviders {
		state.Providers[b.ID] = domain.ProviderSettings{
			Enabled: true,
			Path:    r.builtinPath(b),
		}
	}
	return state
}

// EnsureInitialized writes the default registry if none was persisted.
func (r *ProviderRegistry) EnsureInitialized() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("loading provider registry: %w", err)
	}
	if exists {
		return nil
	}
	logger.Info("initializing provider registry at %s", r.store.Path())
	return r.store.Save(r.DefaultState())
}

// List returns every known provider.
func (r *ProviderRegistry) List() ([]domain.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.load()
	if err != nil {
		return nil, err
	}
	return r.resolve(state), nil
}

// Get returns one provider.
func (r *ProviderRegistry) Get(id string) (*domain.Provider, error) {
	id = domain.NormalizeSlug(id)
	providers, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range providers {
		if providers[i].ID == id {
			return &providers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrProviderNotFound, id)
}

// Enabled returns the enabled providers in fallback order.
func (r *ProviderRegistry) Enabled() ([]domain.Provider, error) {
	providers, err := r.List()
	if err != nil {
		return nil, err
	}
	enabled := make([]domain.Provider, 0, len(providers))
	for _, p := range providers {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	return enabled, nil
}

// Selected returns the selected provider, falling back to the first enabled
// provider when the stored selection is unavailable.
func (r *ProviderRegistry) Selected() (*domain.Provider, error) {
	providers, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range providers {
		if providers[i].Selected {
			return &providers[i], nil
		}
	}
	return nil, nil
}

// SetEnabled enables or disables a provider.
func (r *ProviderRegistry) SetEnabled(id string, enabled bool, override driving.ProviderOverride) error {
	id = domain.NormalizeSlug(id)
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.load()
	if err != nil {
		return err
	}
	settings, known := r.settingsFor(state, id)
	if !known {
		return fmt.Errorf("%w: %q", domain.ErrProviderNotFound, id)
	}

	settings.Enabled = enabled
	if override.Path != nil {
		settings.Path = expandHome(*override.Path, r.home)
	}
	if override.Name != nil {
		settings.Name = *override.Name
	}
	state.Providers[id] = settings
	logger.Debug("provider %s enabled=%t path=%s", id, enabled, settings.Path)
	return r.store.Save(state)
}

// AddCustom registers a user-defined provider, enabled. Every method that
// takes a provider id normalizes it the same way.
func (r *ProviderRegistry) AddCustom(id, name, path string) (*domain.Provider, error) {
	id = domain.NormalizeSlug(id)
	if id == "" || path == "" {
		return nil, fmt.Errorf("%w: provider id and path are required", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.load()
	if err != nil {
		return nil, err
	}
	if _, known := r.settingsFor(state, id); known {
		return nil, fmt.Errorf("%w: %q", domain.ErrProviderExists, id)
	}
	if name == "" {
		name = id
	}

	state.Providers[id] = domain.ProviderSettings{
		Enabled: true,
		Path:    expandHome(path, r.home),
		Name:    name,
		Custom:  true,
	}
	if err := r.store.Save(state); err != nil {
		return nil, err
	}

	for _, p := range r.resolve(state) {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrProviderNotFound, id)
}

// Remove deletes a custom provider.
func (r *ProviderRegistry) Remove(id string) error {
	id = domain.NormalizeSlug(id)
	if isBuiltin(id) {
		return fmt.Errorf("%w: %q", domain.ErrBuiltinProvider, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.load()
	if err != nil {
		return err
	}
	settings, ok := state.Providers[id]
	if !ok || !settings.Custom {
		return fmt.Errorf("%w: %q", domain.ErrProviderNotFound, id)
	}
	delete(state.Providers, id)
	if state.Selected == id {
		state.Selected = ""
	}
	return r.store.Save(state)
}

// Select chooses the provider used for status display.
func (r *ProviderRegistry) Select(id string) error {
	id = domain.NormalizeSlug(id)
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.load()
	if err != nil {
		return err
	}
	settings, known := r.settingsFor(state, id)
	if !known {
		return fmt.Errorf("%w: %q", domain.ErrProviderNotFound, id)
	}
	if !settings.Enabled {
		return fmt.Errorf("%w: %q", domain.ErrProviderDisabled, id)
	}
	state.Selected = id
	return r.store.Save(state)
}

// load reads the persisted state, substituting defaults when nothing has
// been persisted (caller must hold lock).
func (r *ProviderRegistry) load() (domain.RegistryState, error) {
	state, exists, err := r.store.Load()
	if err != nil {
		return domain.RegistryState{}, fmt.Errorf("loading provider registry: %w", err)
	}
	if !exists {
		return r.DefaultState(), nil
	}
	if state.Providers == nil {
		state.Providers = make(map[string]domain.ProviderSettings)
	}
	return state, nil
}

// settingsFor returns the effective settings of a known provider. Built-in
// providers missing from the state are known but disabled.
func (r *ProviderRegistry) settingsFor(state domain.RegistryState, id string) (domain.ProviderSettings, bool) {
	if s, ok := state.Providers[id]; ok {
		return s, true
	}
	for _, b := range domain.BuiltinProviders {
		if b.ID == id {
			return domain.ProviderSettings{Path: r.builtinPath(b)}, true
		}
	}
	return domain.ProviderSettings{}, false
}

// resolve merges built-in metadata with the state and marks the selection.
func (r *ProviderRegistry) resolve(state domain.RegistryState) []domain.Provider {
	providers := make([]domain.Provider, 0, len(domain.BuiltinProviders)+len(state.Providers))
	for _, b := range domain.BuiltinProviders {
		s := state.Providers[b.ID]
		p := domain.Provider{
			ID:          b.ID,
			Name:        b.Name,
			DefaultPath: r.builtinPath(b),
			Path:        s.Path,
			Enabled:     s.Enabled,
		}
		if s.Name != "" {
			p.Name = s.Name
		}
		if p.Path == "" {
			p.Path = p.DefaultPath
		}
		providers = append(providers, p)
	}

	var custom []string
	for id, s := range state.Providers {
		if s.Custom && !isBuiltin(id) {
			custom = append(custom, id)
		}
	}
	sort.Strings(custom)
	for _, id := range custom {
		s := state.Providers[id]
		providers = append(providers, domain.Provider{
			ID:          id,
			Name:        s.Name,
			Path:        s.Path,
			DefaultPath: s.Path,
			Enabled:     s.Enabled,
			Custom:      true,
		})
	}

	selected := -1
	for i := range providers {
		if providers[i].ID == state.Selected && providers[i].Enabled {
			selected = i
			break
		}
	}
	if selected < 0 {
		for i := range providers {
			if providers[i].Enabled {
				selected = i
				break
			}
		}
	}
	if selected >= 0 {
		providers[selected].Selected = true
	}
	return providers
}

func (r *ProviderRegistry) builtinPath(b domain.BuiltinProvider) string {
	return filepath.Join(r.home, b.RelPath)
}

func isBuiltin(id string) bool {
	for _, b := range domain.BuiltinProviders {
		if b.ID == id {
			return true
		}
	}
	return false
}

// expandHome replaces a leading "~" with the home directory.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(home, path[2:])
	}
	return path
}
