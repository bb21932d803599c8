package driving

import (
	"context"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// SkillDetail is a skill with its status, resolved configuration and
// dependency availability.
type SkillDetail struct {
	domain.SkillStatus
	Config       domain.FieldValues
	Dependencies []domain.Dependency
}

// ItemAuthRequest identifies one account of a list field to authorize.
// Attributes overlay the item's stored attributes before tokens are saved.
type ItemAuthRequest struct {
	Field        string
	Slug         string
	ClientID     string
	ClientSecret string
	Attributes   map[string]string
}

// SkillService is the entry point for every skill operation.
type SkillService interface {
	// List returns every skill with its computed status.
	List(ctx context.Context) ([]domain.SkillStatus, error)

	// Get returns one skill with its current configuration.
	Get(ctx context.Context, id string) (*SkillDetail, error)

	// Install deploys to every enabled provider, reporting each outcome.
	Install(ctx context.Context, id string) ([]domain.DeployResult, error)

	// InstallTo deploys to one provider.
	InstallTo(ctx context.Context, id, providerID string) error

	// Update redeploys to every enabled provider.
	Update(ctx context.Context, id string) ([]domain.DeployResult, error)

	// RefreshOutdated redeploys only to providers whose copy is outdated.
	RefreshOutdated(ctx context.Context, id string) ([]domain.DeployResult, error)

	// Uninstall removes the skill from every enabled provider.
	Uninstall(ctx context.Context, id string) (bool, error)

	// UninstallFrom removes the skill from one provider.
	UninstallFrom(ctx context.Context, id, providerID string) (bool, error)

	// Configure replaces the skill's configuration wholesale.
	Configure(ctx context.Context, id string, values domain.FieldValues) error

	// Test runs the skill's self-test command.
	Test(ctx context.Context, id string) (domain.TestResult, error)

	// ClearCredentials removes the canonical credentials and every copy.
	ClearCredentials(ctx context.Context, id string) (bool, error)

	// Authorize runs the OAuth flow for the skill and stores the tokens.
	Authorize(ctx context.Context, id, clientID, clientSecret string) error

	// AuthorizeItem runs the OAuth flow for one list item and stores the
	// tokens under that item's namespace only.
	AuthorizeItem(ctx context.Context, id string, req ItemAuthRequest) error

	// History returns recent installer events.
	History(ctx context.Context, skillID string, limit int) ([]domain.Event, error)

	// CheckForUpdates reports whether the skills repository is behind.
	CheckForUpdates(ctx context.Context) (domain.UpdateCheck, error)

	// SelfUpdate pulls the skills repository.
	SelfUpdate(ctx context.Context) (string, error)
}
