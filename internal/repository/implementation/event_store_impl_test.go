package implementation

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/pkg/writing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type warnRecorder struct {
	logger.ILogger
	mu    sync.Mutex
	warns []string
}

func newWarnRecorder() *warnRecorder {
	return &warnRecorder{ILogger: logger.NewNopLogger()}
}

func (w *warnRecorder) Warn(module, message string, _ map[string]interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warns = append(w.warns, module+": "+message)
}

func stepClock() func() time.Time {
	at := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		at = at.Add(1500 * time.Microsecond)
		return at
	}
}

func newTrajectory(t *testing.T, id string) *writing.Trajectory {
	t.Helper()
	intent, err := writing.NewIntent("Argumentar", "Banca", "Tese X", "")
	require.NoError(t, err)
	tr, err := writing.New(id, intent, writing.WithClock(stepClock()))
	require.NoError(t, err)
	return tr
}

func TestTrajectoryRepositoryReplaysThroughStore(t *testing.T) {
	dir := t.TempDir()
	log := newWarnRecorder()
	repo := NewTrajectoryRepository(NewEventStore(dir, log), log)
	ctx := context.Background()

	tr := newTrajectory(t, "traj-1")
	segID, err := tr.AddSegment("Intro", "texto", writing.SourceHuman)
	require.NoError(t, err)
	_, err = tr.ReviseSegment(segID, "texto revisado", writing.OpClarify, "clarificar tese", writing.SourceAiAssisted)
	require.NoError(t, err)
	require.NoError(t, tr.AdvanceStage(writing.StageOutline))
	_, err = tr.AddDefenseCard("c1", segID, "Defenda X", []string{"Ponto A", "Ponto B"})
	require.NoError(t, err)
	require.NoError(t, tr.UpdateDefenseStatus("c1", writing.DefenseRehearsed, "Resposta"))

	require.NoError(t, repo.Save(ctx, tr))
	assert.Empty(t, tr.Uncommitted())

	loaded, err := repo.FindByID(ctx, "traj-1")
	require.NoError(t, err)
	if diff := cmp.Diff(tr.Snapshot(), loaded.Snapshot()); diff != "" {
		t.Errorf("replayed state differs (-live +replayed):\n%s", diff)
	}
	assert.Equal(t, 6, loaded.Version())
	assert.Empty(t, log.warns)

	// a second save appends only what is new
	require.NoError(t, tr.AdvanceStage(writing.StageDrafting))
	require.NoError(t, repo.Save(ctx, tr))
	loaded, err = repo.FindByID(ctx, "traj-1")
	require.NoError(t, err)
	assert.Equal(t, writing.StageDrafting, loaded.Stage())
	assert.Equal(t, 7, loaded.Version())
}

func TestRejectedRevisionLeavesStreamUntouched(t *testing.T) {
	dir := t.TempDir()
	repo := NewTrajectoryRepository(NewEventStore(dir, logger.NewNopLogger()), logger.NewNopLogger())
	ctx := context.Background()

	tr := newTrajectory(t, "traj-2")
	segID, err := tr.AddSegment("Intro", "texto", writing.SourceHuman)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tr))

	path := filepath.Join(dir, "traj-2", "events.ndjson")
	before, err := os.Stat(path)
	require.NoError(t, err)

	_, err = tr.ReviseSegment(segID, "novo", writing.OpClarify, "   ", writing.SourceHuman)
	require.ErrorIs(t, err, writing.ErrEmptyRationale)
	require.NoError(t, repo.Save(ctx, tr))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Size(), after.Size())
}

func TestEventStoreSkipsUnreadableLines(t *testing.T) {
	dir := t.TempDir()
	log := newWarnRecorder()
	store := NewEventStore(dir, log)
	ctx := context.Background()

	tr := newTrajectory(t, "traj-3")
	_, err := tr.AddSegment("Intro", "texto", writing.SourceHuman)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "traj-3", tr.Uncommitted()))

	path := filepath.Join(dir, "traj-3", "events.ndjson")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n" +
		`{"schemaVersion":2,"type":"SegmentAdded","data":{},"ts":0}` + "\n" +
		`{"schemaVersion":1,"type":"Renamed","data":{},"ts":0}` + "\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	events, err := store.Load(ctx, "traj-3")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, writing.TypeTrajectoryCreated, events[0].EventType())
	assert.Equal(t, writing.TypeSegmentAdded, events[1].EventType())
	assert.Equal(t, []string{"EventStore: Skipped unreadable events"}, log.warns)
}

func TestEventStoreStreams(t *testing.T) {
	dir := t.TempDir()
	store := NewEventStore(dir, logger.NewNopLogger())
	ctx := context.Background()

	ids, err := store.ListStreams(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"b-traj", "a-traj"} {
		require.NoError(t, store.Append(ctx, id, newTrajectory(t, id).Uncommitted()))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stray"), 0o755))

	ids, err = store.ListStreams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-traj", "b-traj"}, ids)

	events, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, events)

	for _, bad := range []string{"", "../x", "a/b", ".."} {
		_, err := store.Load(ctx, bad)
		assert.Error(t, err, bad)
	}

	err = store.Append(ctx, "a-traj", newTrajectory(t, "b-traj").Uncommitted())
	assert.Error(t, err)
}

func TestTrajectoryRepositoryFindAll(t *testing.T) {
	dir := t.TempDir()
	store := NewEventStore(dir, logger.NewNopLogger())
	repo := NewTrajectoryRepository(store, logger.NewNopLogger())
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "none")
	assert.ErrorIs(t, err, writing.ErrTrajectoryNotFound)

	require.NoError(t, repo.Save(ctx, newTrajectory(t, "t1")))
	require.NoError(t, repo.Save(ctx, newTrajectory(t, "t2")))

	// a stream that does not start with creation is left out
	orphan := newTrajectory(t, "t3")
	require.NoError(t, orphan.AdvanceStage(writing.StageOutline))
	require.NoError(t, store.Append(ctx, "t3", orphan.Uncommitted()[1:]))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t1", all[0].ID())
	assert.Equal(t, "t2", all[1].ID())
}
