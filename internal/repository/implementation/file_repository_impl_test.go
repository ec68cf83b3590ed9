package implementation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ideawalker-core/internal/entity"
	"ideawalker-core/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	inbox string
	calls int
	err   error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	out := filepath.Join(f.inbox, "memo_transcricao.txt")
	return out, os.WriteFile(out, []byte("transcrição"), 0o644)
}

type repoFixture struct {
	root string
	repo *FileRepositoryImpl
}

func newRepoFixture(t *testing.T, opts ...FileRepositoryOption) repoFixture {
	t.Helper()
	root := t.TempDir()
	repo, err := NewFileRepository(
		filepath.Join(root, "inbox"),
		filepath.Join(root, "notas"),
		filepath.Join(root, ".history"),
		filepath.Join(root, "observations"),
		logger.NewNopLogger(),
		opts...,
	)
	require.NoError(t, err)
	return repoFixture{root: root, repo: repo}
}

func (f repoFixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFetchInboxFiltersExtensions(t *testing.T) {
	f := newRepoFixture(t)
	f.write(t, "inbox/a.txt", "alpha")
	f.write(t, "inbox/b.md", "beta")
	f.write(t, "inbox/c.docx", "ignored")
	f.write(t, "inbox/scientific/paper.txt", "nested is not an inbox thought")

	thoughts, err := f.repo.FetchInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, thoughts, 2)
	assert.Equal(t, "a.txt", thoughts[0].Filename)
	assert.Equal(t, "alpha", thoughts[0].Content)
	assert.False(t, thoughts[0].ModTime.IsZero())
}

func TestFetchInboxTranscribesAudioOnce(t *testing.T) {
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	tr := &fakeTranscriber{inbox: inbox}
	repo, err := NewFileRepository(inbox, filepath.Join(root, "notas"), filepath.Join(root, ".history"),
		filepath.Join(root, "observations"), logger.NewNopLogger(), WithTranscriber(tr))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "memo.wav"), []byte("RIFF"), 0o644))

	first, err := repo.FetchInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "memo_transcricao.txt", first[0].Filename)
	assert.Equal(t, "transcrição", first[0].Content)

	second, err := repo.FetchInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1, "transcript is read as text, audio is not re-transcribed")
	assert.Equal(t, 1, tr.calls)
}

func TestFetchInboxSkipsFailedTranscription(t *testing.T) {
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	repo, err := NewFileRepository(inbox, filepath.Join(root, "notas"), filepath.Join(root, ".history"),
		filepath.Join(root, "observations"), logger.NewNopLogger(),
		WithTranscriber(&fakeTranscriber{inbox: inbox, err: errors.New("whisper missing")}))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "memo.ogg"), []byte("OggS"), 0o644))

	thoughts, err := repo.FetchInbox(context.Background())
	require.NoError(t, err)
	assert.Empty(t, thoughts)
}

func TestShouldProcess(t *testing.T) {
	f := newRepoFixture(t)
	inboxPath := f.write(t, "inbox/idea.txt", "x")
	thought := entity.RawThought{Filename: "idea.txt"}

	assert.True(t, f.repo.ShouldProcess(thought, "idea"), "note absent")

	notePath := f.write(t, "notas/Nota_idea.md", "# Título: Idea")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(inboxPath, past, past))
	assert.False(t, f.repo.ShouldProcess(thought, "idea"), "note newer than inbox")

	require.NoError(t, os.Chtimes(notePath, past.Add(-time.Hour), past.Add(-time.Hour)))
	assert.True(t, f.repo.ShouldProcess(thought, "idea"), "inbox newer than note")
}

func TestUpdateNoteVersioning(t *testing.T) {
	tick := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	f := newRepoFixture(t, WithClock(func() time.Time { return tick }))
	ctx := context.Background()

	const n = 4
	for i := 0; i < n; i++ {
		require.NoError(t, f.repo.UpdateNote(ctx, "Nota_x.md", "v"+string(rune('0'+i))))
	}

	versions, err := f.repo.GetVersions(ctx, "Nota_x")
	require.NoError(t, err)
	assert.Len(t, versions, n-1, "same-second saves still produce distinct backups")

	current, err := f.repo.GetNoteContent(ctx, "Nota_x.md")
	require.NoError(t, err)
	assert.Equal(t, "v3", current)

	seen := map[string]bool{}
	for _, v := range versions {
		content, err := f.repo.GetVersionContent(ctx, v)
		require.NoError(t, err)
		seen[content] = true
	}
	assert.Equal(t, map[string]bool{"v0": true, "v1": true, "v2": true}, seen)
}

func TestUpdateNoteSameContentIsNoop(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.UpdateNote(ctx, "Nota_y.md", "same"))
	require.NoError(t, f.repo.UpdateNote(ctx, "Nota_y.md", "same"))

	versions, err := f.repo.GetVersions(ctx, "Nota_y.md")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestGetVersionsDoesNotMatchLongerIds(t *testing.T) {
	f := newRepoFixture(t)
	f.write(t, ".history/Nota_1_20240101_120000.md", "a")
	f.write(t, ".history/Nota_12_20240101_120000.md", "b")

	versions, err := f.repo.GetVersions(context.Background(), "Nota_1.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nota_1_20240101_120000.md"}, versions)
}

func TestSaveInsightAndToggle(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()
	insight := &entity.Insight{
		Metadata: entity.InsightMetadata{Id: "abc"},
		Content:  "# Título: T\n- [ ] tarefa\n",
	}
	require.NoError(t, f.repo.SaveInsight(ctx, insight))
	require.NoError(t, f.repo.ToggleActionable(ctx, "Nota_abc.md", 0))

	content, err := f.repo.GetNoteContent(ctx, "Nota_abc.md")
	require.NoError(t, err)
	assert.Equal(t, "# Título: T\n- [/] tarefa\n", content)

	assert.Error(t, f.repo.ToggleActionable(ctx, "Nota_abc.md", 5))
	assert.Error(t, f.repo.SaveInsight(ctx, &entity.Insight{}))
}

func TestFetchHistoryAndBacklinks(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()
	f.write(t, "notas/Nota_a.md", "# Título: Resiliência\ncorpo")
	f.write(t, "notas/Nota_b.md", "ver [[Nota_a]]")
	f.write(t, "notas/Nota_c.md", "ver [[Nota_a.md]]")
	f.write(t, "notas/Nota_d.md", "ver [[Resiliência]]")
	f.write(t, "notas/Nota_e.md", "sem links")

	history, err := f.repo.FetchHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, "Resiliência", history[0].Metadata.Title)

	links, err := f.repo.GetBacklinks(ctx, "Nota_a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nota_b.md", "Nota_c.md", "Nota_d.md"}, links)
}

func TestActivityHistoryMergesCounterAndScan(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.RecordActivity(ctx, "2024-01-02"))
	require.NoError(t, f.repo.RecordActivity(ctx, "2024-01-02"))
	assert.Error(t, f.repo.RecordActivity(ctx, "yesterday"))

	f.write(t, "notas/Nota_z.md", "x")

	history, err := f.repo.GetActivityHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, history["2024-01-02"])
	assert.GreaterOrEqual(t, history[time.Now().Format("2006-01-02")], 1)
}
