package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
)

// Ensure SkillRepository implements the interface.
var _ driven.SkillRepository = (*SkillRepository)(nil)

// SkillRepository is an in-memory implementation of driven.SkillRepository.
type SkillRepository struct {
	mu     sync.RWMutex
	root   string
	skills map[string]domain.Skill
}

// NewSkillRepository creates a repository holding the given skills.
func NewSkillRepository(root string, skills ...*domain.Skill) *SkillRepository {
	r := &SkillRepository{root: root, skills: make(map[string]domain.Skill)}
	for _, s := range skills {
		r.Put(s)
	}
	return r
}

// Put adds or replaces a skill.
func (r *SkillRepository) Put(skill *domain.Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[skill.ID] = *skill
}

// List returns every skill ordered by id.
func (r *SkillRepository) List(_ context.Context) ([]domain.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Skill, 0, len(r.skills))
	for _, s := range r.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns one skill.
func (r *SkillRepository) Get(_ context.Context, id string) (*domain.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.skills[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrSkillNotFound, id)
	}
	return &s, nil
}

// Root returns the configured root.
func (r *SkillRepository) Root() string {
	return r.root
}
