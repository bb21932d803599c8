package driving

import (
	"context"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// CredentialService owns the canonical per-skill credential artifact and
// its copies in provider directories.
type CredentialService interface {
	// Write regenerates the canonical artifact from values and syncs it.
	Write(skill *domain.Skill, values domain.FieldValues) error

	// Read reconstructs field values from the canonical artifact.
	Read(skill *domain.Skill) (domain.FieldValues, error)

	// Sync copies the canonical artifact into every enabled provider that
	// has the skill deployed. Returns the provider ids written to.
	Sync(skill *domain.Skill) ([]string, error)

	// UpdateItem replaces one list item's lines, keeping all others, and syncs.
	UpdateItem(skill *domain.Skill, field string, item domain.ListItem) error

	// SaveTokens stores a whole-skill OAuth result and syncs.
	SaveTokens(skill *domain.Skill, tokens map[string]any, clientID, clientSecret string) error

	// Exists reports whether a canonical artifact exists for the skill.
	Exists(skillID string) bool

	// Path returns the canonical artifact path for the skill.
	Path(skillID string) string

	// Clear removes the canonical artifact and every provider copy.
	Clear(skill *domain.Skill) (bool, error)
}

// OAuthFlow runs one authorization-code exchange.
type OAuthFlow interface {
	// Run authorizes with the descriptor and returns the raw token payload.
	Run(ctx context.Context, desc *domain.OAuthDescriptor, clientID, clientSecret string) (map[string]any, error)
}
