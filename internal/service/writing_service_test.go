package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/internal/repository/implementation"
	"ideawalker-core/pkg/events"
	"ideawalker-core/pkg/writing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepo fails Save while broken is set.
type flakyRepo struct {
	contract.TrajectoryRepository
	broken bool
}

func (r *flakyRepo) Save(ctx context.Context, t *writing.Trajectory) error {
	if r.broken {
		return errors.New("disk full")
	}
	return r.TrajectoryRepository.Save(ctx, t)
}

type writingFixture struct {
	dir  string
	repo *flakyRepo
	pub  *recordingPublisher
	svc  IWritingService
}

func newWritingFixture(t *testing.T) writingFixture {
	t.Helper()
	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC) }
	store := implementation.NewEventStore(dir, logger.NewNopLogger())
	repo := &flakyRepo{TrajectoryRepository: implementation.NewTrajectoryRepository(store, logger.NewNopLogger(),
		implementation.WithTrajectoryClock(clock))}
	pub := &recordingPublisher{}
	svc := NewWritingService(repo, pub, logger.NewNopLogger())
	svc.(*writingService).now = clock
	return writingFixture{dir: dir, repo: repo, pub: pub, svc: svc}
}

func createThesis(t *testing.T, svc IWritingService) *writing.State {
	t.Helper()
	state, err := svc.Create(context.Background(), &dto.CreateTrajectoryRequest{
		Id:        "tese",
		Purpose:   "Argumentar",
		Audience:  "Banca",
		CoreClaim: "Resiliência depende da diversidade funcional",
	})
	require.NoError(t, err)
	return state
}

func TestWritingServiceCommandFlow(t *testing.T) {
	f := newWritingFixture(t)
	ctx := context.Background()

	created := createThesis(t, f.svc)
	assert.Equal(t, writing.StageIntent, created.Stage)
	assert.Equal(t, 1, created.Version)

	seg, err := f.svc.AddSegment(ctx, "tese", &dto.AddSegmentRequest{Title: "Intro", Content: "Segundo Holling, a resiliência varia.", Source: "AiAssisted"})
	require.NoError(t, err)
	assert.Equal(t, "tese-seg-1", seg.SegmentId)

	rev, err := f.svc.ReviseSegment(ctx, "tese", seg.SegmentId, &dto.ReviseSegmentRequest{
		Content:   "A resiliência varia.",
		Operation: "compress",
		Rationale: "enxugar",
	})
	require.NoError(t, err)
	assert.Equal(t, "tese-dec-1", rev.Decision.DecisionID)
	assert.False(t, rev.Quality.Passed)
	assert.Contains(t, rev.Quality.Warnings[0], "Holling")

	_, err = f.svc.AdvanceStage(ctx, "tese", &dto.AdvanceStageRequest{Stage: "Outline"})
	require.NoError(t, err)

	card, err := f.svc.AddDefenseCard(ctx, "tese", &dto.AddDefenseCardRequest{Prompt: "Defenda a tese"})
	require.NoError(t, err)
	_, err = f.svc.UpdateDefenseStatus(ctx, "tese", card.CardId, &dto.UpdateDefenseStatusRequest{Status: "rehearsed", Response: "ok"})
	require.NoError(t, err)

	state, err := f.svc.AttachEvidence(ctx, "tese", seg.SegmentId, &dto.AttachEvidenceRequest{Type: "DOI", RefId: "10.1/x", Confidence: 0.8})
	require.NoError(t, err)
	assert.Equal(t, 7, state.Version)
	require.Len(t, state.Segments, 1)
	assert.Equal(t, writing.SourceHuman, state.Segments[0].Source)
	assert.Equal(t, writing.RefDoi, state.Segments[0].EvidenceLinks[0].Type)

	// every committed event went out on the writing topic, in order
	require.Len(t, f.pub.events, 7)
	for _, topic := range f.pub.topics {
		assert.Equal(t, events.TopicWriting, topic)
	}
	assert.Equal(t, writing.TypeTrajectoryCreated, f.pub.events[0].EventType())
	assert.Equal(t, writing.TypeEvidenceAttached, f.pub.events[6].EventType())
	assert.Equal(t, 7, f.pub.events[6].Payload()["version"])

	// a fresh service replays the same state from disk
	fresh := NewWritingService(f.repo, nil, logger.NewNopLogger())
	replayed, err := fresh.Get(ctx, "tese")
	require.NoError(t, err)
	if diff := cmp.Diff(*state, *replayed); diff != "" {
		t.Errorf("replayed state differs (-live +replayed):\n%s", diff)
	}

	list, err := fresh.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []dto.TrajectorySummary{{
		Id:           "tese",
		Stage:        writing.StageOutline,
		CoreClaim:    "Resiliência depende da diversidade funcional",
		SegmentCount: 1,
		Version:      7,
	}}, list)
}

func TestWritingServiceRejectedCommandsChangeNothing(t *testing.T) {
	f := newWritingFixture(t)
	ctx := context.Background()
	createThesis(t, f.svc)
	seg, err := f.svc.AddSegment(ctx, "tese", &dto.AddSegmentRequest{Title: "Intro", Content: "texto"})
	require.NoError(t, err)
	before, err := f.svc.Get(ctx, "tese")
	require.NoError(t, err)
	published := len(f.pub.events)

	_, err = f.svc.ReviseSegment(ctx, "tese", seg.SegmentId, &dto.ReviseSegmentRequest{Content: "novo", Operation: "clarify", Rationale: "  "})
	assert.ErrorIs(t, err, writing.ErrEmptyRationale)

	_, err = f.svc.ReviseSegment(ctx, "tese", "nope", &dto.ReviseSegmentRequest{Content: "novo", Operation: "clarify", Rationale: "r"})
	assert.ErrorIs(t, err, writing.ErrSegmentNotFound)

	_, err = f.svc.ReviseSegment(ctx, "tese", seg.SegmentId, &dto.ReviseSegmentRequest{Content: "novo", Operation: "polish", Rationale: "r"})
	assert.ErrorIs(t, err, writing.ErrInvalidOperation)

	_, err = f.svc.AdvanceStage(ctx, "tese", &dto.AdvanceStageRequest{Stage: "Final"})
	assert.ErrorIs(t, err, writing.ErrInvalidStageTransition)

	f.repo.broken = true
	_, err = f.svc.AddSegment(ctx, "tese", &dto.AddSegmentRequest{Title: "Outro", Content: "x"})
	assert.Error(t, err)
	f.repo.broken = false

	after, err := f.svc.Get(ctx, "tese")
	require.NoError(t, err)
	if diff := cmp.Diff(*before, *after); diff != "" {
		t.Errorf("state changed after rejected commands:\n%s", diff)
	}
	assert.Len(t, f.pub.events, published)

	_, err = f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, writing.ErrTrajectoryNotFound)
}

func TestWritingServiceCreate(t *testing.T) {
	f := newWritingFixture(t)
	ctx := context.Background()
	createThesis(t, f.svc)

	_, err := f.svc.Create(ctx, &dto.CreateTrajectoryRequest{Id: "tese", Purpose: "p", Audience: "a"})
	assert.ErrorIs(t, err, writing.ErrTrajectoryExists)

	_, err = f.svc.Create(ctx, &dto.CreateTrajectoryRequest{Purpose: "p"})
	assert.ErrorIs(t, err, writing.ErrInvalidIntent)

	generated, err := f.svc.Create(ctx, &dto.CreateTrajectoryRequest{Purpose: "p", Audience: "a"})
	require.NoError(t, err)
	assert.Len(t, generated.ID, 36)
}

func TestWritingServiceAnalysis(t *testing.T) {
	f := newWritingFixture(t)
	ctx := context.Background()
	createThesis(t, f.svc)
	seg, err := f.svc.AddSegment(ctx, "tese", &dto.AddSegmentRequest{Title: "Clima", Content: "Sobre o clima local."})
	require.NoError(t, err)

	issues, err := f.svc.Coherence(ctx, "tese")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, writing.InconsistencySemantic, issues[0].Type)

	suggested, err := f.svc.SuggestDefenseCards(ctx, "tese")
	require.NoError(t, err)
	require.Len(t, suggested, 2)
	assert.Equal(t, "gen-len-"+seg.SegmentId, suggested[1].CardID)

	_, err = f.svc.AddDefenseCard(ctx, "tese", &dto.AddDefenseCardRequest{
		CardId:    suggested[0].CardID,
		SegmentId: suggested[0].SegmentID,
		Prompt:    suggested[0].Prompt,
	})
	require.NoError(t, err)

	suggested, err = f.svc.SuggestDefenseCards(ctx, "tese")
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, "gen-len-"+seg.SegmentId, suggested[0].CardID)
}
