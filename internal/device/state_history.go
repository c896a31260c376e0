package device

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// StateHistoryEntry is one recorded light state notification.
//
// The history is an audit trail. It is never read back into controller
// state; after a restart each light starts from its defaults.
type StateHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// Light is the light's name.
	Light string `json:"light"`

	// Source is what caused the change (command or device).
	Source light.ChangeSource `json:"source"`

	On         bool       `json:"on"`
	Brightness *int       `json:"brightness,omitempty"`
	Color      *light.RGB `json:"color,omitempty"`
	Optimistic bool       `json:"optimistic"`

	// RecordedAt is when the controller observed the change (UTC).
	RecordedAt time.Time `json:"recorded_at"`
}

// StateHistoryRepository stores and retrieves light state history.
//
// Implementations must be thread-safe and use UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange records one state notification.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - state: Snapshot delivered to the controller's change callback
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordStateChange(ctx context.Context, state light.State) error

	// GetHistory returns recent entries for a light, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - name: Light name
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	GetHistory(ctx context.Context, name string, limit int) ([]StateHistoryEntry, error)

	// PruneHistory deletes entries older than olderThan and returns how
	// many were removed.
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}
