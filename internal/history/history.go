package history

import (
	"context"
	"time"
)

// History source values.
const (
	// SourceStatestream marks raw entity records observed from the host.
	SourceStatestream = "statestream"

	// SourceRepublish marks unified climate snapshots the bridge published.
	SourceRepublish = "republish"

	// SourceCommand marks snapshots recorded when a service call was forwarded.
	SourceCommand = "command"
)

// Snapshot is the JSON document stored for one history entry.
//
// For statestream entries it holds the entity's state and attributes;
// for republish entries it holds the unified climate snapshot; for
// command entries it holds the forwarded service data.
type Snapshot map[string]any

// Entry represents a single recorded state change.
//
// Each entry stores a full snapshot at the time the change was
// observed. This provides a local audit trail even when the
// time-series database is unavailable.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// EntityID is the host entity or proxy the snapshot belongs to.
	EntityID string `json:"entity_id"`

	// State is the JSON snapshot at the time of the change.
	State Snapshot `json:"state"`

	// Source identifies how the change was recorded
	// (statestream, republish, command).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves state change history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// RecordStateChange records a state change.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - entityID: Host entity or proxy identifier
	//   - state: Snapshot to persist
	//   - source: Origin of the change (statestream, republish, command)
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordStateChange(ctx context.Context, entityID string, state Snapshot, source string) error

	// GetHistory returns recent state change history for an entity.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - entityID: Host entity or proxy identifier
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []Entry: Ordered newest-first history entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetHistory(ctx context.Context, entityID string, limit int) ([]Entry, error)
}
