package driven

import (
	"context"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// HistoryStore records installer events.
type HistoryStore interface {
	// Record appends an event.
	Record(ctx context.Context, event domain.Event) error

	// List returns the most recent events, newest first. An empty skillID
	// lists events for all skills.
	List(ctx context.Context, skillID string, limit int) ([]domain.Event, error)
}
