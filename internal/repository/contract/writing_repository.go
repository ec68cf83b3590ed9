package contract

import (
	"context"

	"ideawalker-core/pkg/writing"
)

// EventStore keeps one append-only stream of writing events per trajectory.
type EventStore interface {
	Append(ctx context.Context, trajectoryID string, events []writing.Event) error
	Load(ctx context.Context, trajectoryID string) ([]writing.Event, error)
	ListStreams(ctx context.Context) ([]string, error)
}

// TrajectoryRepository persists aggregates through the event store.
type TrajectoryRepository interface {
	// Save appends the uncommitted events and clears them on success.
	Save(ctx context.Context, t *writing.Trajectory) error
	FindByID(ctx context.Context, id string) (*writing.Trajectory, error)
	FindAll(ctx context.Context) ([]*writing.Trajectory, error)
}
