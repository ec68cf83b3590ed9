package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/events"
	"ideawalker-core/pkg/writing"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type IWritingService interface {
	Create(ctx context.Context, req *dto.CreateTrajectoryRequest) (*writing.State, error)
	Get(ctx context.Context, id string) (*writing.State, error)
	List(ctx context.Context) ([]dto.TrajectorySummary, error)

	AddSegment(ctx context.Context, id string, req *dto.AddSegmentRequest) (*dto.AddSegmentResponse, error)
	ReviseSegment(ctx context.Context, id, segmentId string, req *dto.ReviseSegmentRequest) (*dto.ReviseSegmentResponse, error)
	AdvanceStage(ctx context.Context, id string, req *dto.AdvanceStageRequest) (*writing.State, error)
	AddDefenseCard(ctx context.Context, id string, req *dto.AddDefenseCardRequest) (*dto.AddDefenseCardResponse, error)
	UpdateDefenseStatus(ctx context.Context, id, cardId string, req *dto.UpdateDefenseStatusRequest) (*writing.State, error)
	AttachEvidence(ctx context.Context, id, segmentId string, req *dto.AttachEvidenceRequest) (*writing.State, error)

	Coherence(ctx context.Context, id string) ([]writing.Inconsistency, error)
	SuggestDefenseCards(ctx context.Context, id string) ([]writing.DefenseCard, error)
}

// writingService runs every command on a copy of the aggregate. Only after
// the new events are on disk does the copy replace the cached one and the
// events go out on the bus, so a failed command leaves no trace.
type writingService struct {
	repo      contract.TrajectoryRepository
	publisher IPublisherService
	cache     *cache.Cache
	logger    logger.ILogger
	now       func() time.Time

	mu sync.Mutex
}

func NewWritingService(repo contract.TrajectoryRepository, publisher IPublisherService, log logger.ILogger) IWritingService {
	if publisher == nil {
		publisher = NewNopPublisher()
	}
	return &writingService{
		repo:      repo,
		publisher: publisher,
		cache:     cache.New(30*time.Minute, time.Hour),
		logger:    log,
		now:       time.Now,
	}
}

func (s *writingService) Create(ctx context.Context, req *dto.CreateTrajectoryRequest) (*writing.State, error) {
	intent, err := writing.NewIntent(req.Purpose, req.Audience, req.CoreClaim, req.Constraints)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(req.Id)
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %s", writing.ErrTrajectoryExists, id)
	} else if !errors.Is(err, writing.ErrTrajectoryNotFound) {
		return nil, err
	}

	t, err := writing.New(id, intent, writing.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}
	state := t.Snapshot()
	return &state, nil
}

func (s *writingService) Get(ctx context.Context, id string) (*writing.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	state := t.Snapshot()
	return &state, nil
}

func (s *writingService) List(ctx context.Context) ([]dto.TrajectorySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.TrajectorySummary, 0, len(all))
	for _, t := range all {
		summaries = append(summaries, dto.TrajectorySummary{
			Id:           t.ID(),
			Stage:        t.Stage(),
			CoreClaim:    t.Intent().CoreClaim,
			SegmentCount: t.SegmentCount(),
			Version:      t.Version(),
		})
	}
	return summaries, nil
}

func (s *writingService) AddSegment(ctx context.Context, id string, req *dto.AddSegmentRequest) (*dto.AddSegmentResponse, error) {
	source, err := writing.ParseSourceTag(req.Source)
	if err != nil {
		return nil, err
	}
	var segmentId string
	err = s.execute(ctx, id, func(t *writing.Trajectory) error {
		segmentId, err = t.AddSegment(req.Title, req.Content, source)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.AddSegmentResponse{SegmentId: segmentId}, nil
}

func (s *writingService) ReviseSegment(ctx context.Context, id, segmentId string, req *dto.ReviseSegmentRequest) (*dto.ReviseSegmentResponse, error) {
	op, err := writing.ParseOperation(req.Operation)
	if err != nil {
		return nil, err
	}
	source, err := writing.ParseSourceTag(req.Source)
	if err != nil {
		return nil, err
	}

	res := &dto.ReviseSegmentResponse{}
	err = s.execute(ctx, id, func(t *writing.Trajectory) error {
		seg, ok := t.Segment(segmentId)
		if !ok {
			return fmt.Errorf("%w: %s", writing.ErrSegmentNotFound, segmentId)
		}
		decision, err := t.ReviseSegment(segmentId, req.Content, op, req.Rationale, source, req.Alternatives...)
		if err != nil {
			return err
		}
		res.Decision = decision
		res.Quality = writing.RevisionQuality(seg.Content, req.Content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Quality.Passed {
		s.logger.Info("WritingService", "Revision quality warnings", map[string]interface{}{
			"trajectory_id": id,
			"segment_id":    segmentId,
			"warnings":      res.Quality.Warnings,
		})
	}
	return res, nil
}

func (s *writingService) AdvanceStage(ctx context.Context, id string, req *dto.AdvanceStageRequest) (*writing.State, error) {
	return s.executeState(ctx, id, func(t *writing.Trajectory) error {
		return t.AdvanceStage(writing.Stage(strings.TrimSpace(req.Stage)))
	})
}

func (s *writingService) AddDefenseCard(ctx context.Context, id string, req *dto.AddDefenseCardRequest) (*dto.AddDefenseCardResponse, error) {
	var cardId string
	err := s.execute(ctx, id, func(t *writing.Trajectory) (err error) {
		cardId, err = t.AddDefenseCard(req.CardId, req.SegmentId, req.Prompt, req.ExpectedPoints)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.AddDefenseCardResponse{CardId: cardId}, nil
}

func (s *writingService) UpdateDefenseStatus(ctx context.Context, id, cardId string, req *dto.UpdateDefenseStatusRequest) (*writing.State, error) {
	status, err := writing.ParseDefenseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.executeState(ctx, id, func(t *writing.Trajectory) error {
		return t.UpdateDefenseStatus(cardId, status, req.Response)
	})
}

func (s *writingService) AttachEvidence(ctx context.Context, id, segmentId string, req *dto.AttachEvidenceRequest) (*writing.State, error) {
	link := writing.EvidenceLink{
		Type:        writing.RefType(strings.ToLower(strings.TrimSpace(req.Type))),
		RefID:       req.RefId,
		ClaimAnchor: req.ClaimAnchor,
		Confidence:  req.Confidence,
	}
	return s.executeState(ctx, id, func(t *writing.Trajectory) error {
		return t.AttachEvidence(segmentId, link)
	})
}

func (s *writingService) Coherence(ctx context.Context, id string) ([]writing.Inconsistency, error) {
	state, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return writing.CoherenceLens(*state), nil
}

// SuggestDefenseCards proposes cards that the trajectory does not hold yet.
func (s *writingService) SuggestDefenseCards(ctx context.Context, id string) ([]writing.DefenseCard, error) {
	state, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(state.DefenseCards))
	for _, c := range state.DefenseCards {
		existing[c.CardID] = true
	}
	suggestions := []writing.DefenseCard{}
	for _, c := range writing.DefensePrompts(*state) {
		if !existing[c.CardID] {
			suggestions = append(suggestions, c)
		}
	}
	return suggestions, nil
}

func (s *writingService) executeState(ctx context.Context, id string, command func(*writing.Trajectory) error) (*writing.State, error) {
	var state writing.State
	err := s.execute(ctx, id, func(t *writing.Trajectory) error {
		if err := command(t); err != nil {
			return err
		}
		state = t.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *writingService) execute(ctx context.Context, id string, command func(*writing.Trajectory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	working := current.Clone()
	if err := command(working); err != nil {
		return err
	}
	return s.commit(ctx, working)
}

// commit persists the pending events, then swaps the cached aggregate and
// announces the events. Publishing is best effort.
func (s *writingService) commit(ctx context.Context, t *writing.Trajectory) error {
	pending := t.Uncommitted()
	if err := s.repo.Save(ctx, t); err != nil {
		s.logger.Error("WritingService", "Failed to persist trajectory", map[string]interface{}{
			"trajectory_id": t.ID(),
			"error":         err.Error(),
		})
		return err
	}
	s.cache.Set(t.ID(), t, cache.DefaultExpiration)

	base := t.Version() - len(pending)
	for i, e := range pending {
		payload := map[string]interface{}{
			"trajectoryId": e.Trajectory(),
			"version":      base + i + 1,
		}
		if err := s.publisher.Publish(ctx, events.TopicWriting, events.NewEvent(e.EventType(), payload, e.OccurredAt())); err != nil {
			s.logger.Warn("WritingService", "Failed to publish writing event", map[string]interface{}{
				"trajectory_id": t.ID(),
				"type":          e.EventType(),
				"error":         err.Error(),
			})
		}
	}
	return nil
}

// load must be called with s.mu held.
func (s *writingService) load(ctx context.Context, id string) (*writing.Trajectory, error) {
	if x, found := s.cache.Get(id); found {
		return x.(*writing.Trajectory), nil
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, t, cache.DefaultExpiration)
	return t, nil
}
