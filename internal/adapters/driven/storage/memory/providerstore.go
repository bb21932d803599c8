package memory

import (
	"errors"
	"sync"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
)

// Ensure ProviderStore implements the interface.
var _ driven.ProviderStore = (*ProviderStore)(nil)

// errSaveFailed is returned by Save when FailSaves is set.
var errSaveFailed = errors.New("save failed")

// ProviderStore is an in-memory implementation of driven.ProviderStore for testing.
type ProviderStore struct {
	mu     sync.RWMutex
	state  domain.RegistryState
	exists bool
	saves  int

	// FailSaves makes every Save return an error.
	FailSaves bool
}

// NewProviderStore creates an empty in-memory provider store.
func NewProviderStore() *ProviderStore {
	return &ProviderStore{}
}

// Load returns a copy of the stored state.
func (s *ProviderStore) Load() (domain.RegistryState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return domain.RegistryState{}, false, nil
	}
	return copyState(s.state), true, nil
}

// Save replaces the stored state.
func (s *ProviderStore) Save(state domain.RegistryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errSaveFailed
	}
	s.state = copyState(state)
	s.exists = true
	s.saves++
	return nil
}

// Path returns a placeholder path.
func (s *ProviderStore) Path() string {
	return ":memory:"
}

// Saves returns how many times Save succeeded.
func (s *ProviderStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func copyState(state domain.RegistryState) domain.RegistryState {
	out := domain.RegistryState{
		Selected:  state.Selected,
		Providers: make(map[string]domain.ProviderSettings, len(state.Providers)),
	}
	for k, v := range state.Providers {
		out.Providers[k] = v
	}
	return out
}
