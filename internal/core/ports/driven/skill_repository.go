package driven

import (
	"context"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// SkillRepository reads skill declarations. Implementations must re-read
// the declarations on every call; skills are never cached.
type SkillRepository interface {
	// List returns every valid skill ordered by id.
	List(ctx context.Context) ([]domain.Skill, error)

	// Get returns one skill by id. Returns domain.ErrSkillNotFound if unknown.
	Get(ctx context.Context, id string) (*domain.Skill, error)

	// Root returns the skills directory.
	Root() string
}
