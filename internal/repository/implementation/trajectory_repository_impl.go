package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/writing"
)

type TrajectoryRepositoryImpl struct {
	store  contract.EventStore
	logger logger.ILogger
	now    func() time.Time
}

type TrajectoryRepositoryOption func(*TrajectoryRepositoryImpl)

// WithTrajectoryClock sets the clock handed to rehydrated aggregates.
func WithTrajectoryClock(now func() time.Time) TrajectoryRepositoryOption {
	return func(r *TrajectoryRepositoryImpl) { r.now = now }
}

func NewTrajectoryRepository(store contract.EventStore, log logger.ILogger, opts ...TrajectoryRepositoryOption) contract.TrajectoryRepository {
	r := &TrajectoryRepositoryImpl{store: store, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TrajectoryRepositoryImpl) Save(ctx context.Context, t *writing.Trajectory) error {
	pending := t.Uncommitted()
	if len(pending) == 0 {
		return nil
	}
	if err := r.store.Append(ctx, t.ID(), pending); err != nil {
		return fmt.Errorf("save trajectory %s: %w", t.ID(), err)
	}
	t.ClearUncommitted()
	return nil
}

func (r *TrajectoryRepositoryImpl) FindByID(ctx context.Context, id string) (*writing.Trajectory, error) {
	events, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	t, skipped, err := writing.Rehydrate(id, events, writing.WithClock(r.now))
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		r.logger.Warn("TrajectoryRepository", "Skipped event on replay", map[string]interface{}{
			"trajectory_id": id,
			"error":         s.Error(),
		})
	}
	return t, nil
}

// FindAll loads every stream. Streams that cannot be replayed are logged and left out.
func (r *TrajectoryRepositoryImpl) FindAll(ctx context.Context) ([]*writing.Trajectory, error) {
	ids, err := r.store.ListStreams(ctx)
	if err != nil {
		return nil, err
	}
	trajectories := make([]*writing.Trajectory, 0, len(ids))
	for _, id := range ids {
		t, err := r.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			r.logger.Warn("TrajectoryRepository", "Unreadable trajectory", map[string]interface{}{
				"trajectory_id": id,
				"error":         err.Error(),
			})
			continue
		}
		trajectories = append(trajectories, t)
	}
	return trajectories, nil
}
