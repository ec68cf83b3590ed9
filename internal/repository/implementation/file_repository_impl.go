package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ideawalker-core/internal/entity"
	"ideawalker-core/internal/pkg/fsutil"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/extract"
	"ideawalker-core/pkg/notelink"
	"ideawalker-core/pkg/transcription"
)

const (
	notePrefix        = "Nota_"
	versionTimeLayout = "20060102_150405"
	activityDayLayout = "2006-01-02"
)

var inboxTextExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
	".tex": true,
}

var versionSuffix = regexp.MustCompile(`^_\d{8}_\d{6}(_\d+)?\.md$`)

type FileRepositoryImpl struct {
	inboxPath        string
	notesPath        string
	historyPath      string
	observationsPath string
	activityLogPath  string

	extractor   extract.Extractor
	transcriber transcription.Transcriber
	logger      logger.ILogger
	now         func() time.Time

	mu sync.Mutex
}

type FileRepositoryOption func(*FileRepositoryImpl)

func WithExtractor(e extract.Extractor) FileRepositoryOption {
	return func(r *FileRepositoryImpl) { r.extractor = e }
}

func WithTranscriber(t transcription.Transcriber) FileRepositoryOption {
	return func(r *FileRepositoryImpl) { r.transcriber = t }
}

func WithActivityLog(path string) FileRepositoryOption {
	return func(r *FileRepositoryImpl) { r.activityLogPath = path }
}

func WithClock(now func() time.Time) FileRepositoryOption {
	return func(r *FileRepositoryImpl) { r.now = now }
}

// NewFileRepository builds the four-path store (inbox, notes, history, observations).
// Missing directories are created.
func NewFileRepository(inboxPath, notesPath, historyPath, observationsPath string, log logger.ILogger, opts ...FileRepositoryOption) (*FileRepositoryImpl, error) {
	r := &FileRepositoryImpl{
		inboxPath:        inboxPath,
		notesPath:        notesPath,
		historyPath:      historyPath,
		observationsPath: observationsPath,
		activityLogPath:  filepath.Join(filepath.Dir(notesPath), ".activity_log.json"),
		logger:           log,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, dir := range []string{inboxPath, notesPath, historyPath, observationsPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return r, nil
}

var _ contract.ThoughtRepository = (*FileRepositoryImpl)(nil)

func NoteFilename(insightId string) string {
	return notePrefix + insightId + ".md"
}

func (r *FileRepositoryImpl) FetchInbox(ctx context.Context) ([]entity.RawThought, error) {
	entries, err := os.ReadDir(r.inboxPath)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.Name()] = true
	}

	var thoughts []entity.RawThought
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		path := filepath.Join(r.inboxPath, name)
		ext := strings.ToLower(filepath.Ext(name))

		if transcription.IsAudio(name) {
			thought, ok := r.transcribe(ctx, path, present)
			if ok {
				thoughts = append(thoughts, thought)
			}
			continue
		}
		if !inboxTextExtensions[ext] {
			continue
		}

		content, err := r.read(ctx, path)
		if err != nil {
			r.logger.Warn("KnowledgeStore", "Inbox file skipped", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		info, _ := e.Info()
		thought := entity.RawThought{Filename: name, Content: content}
		if info != nil {
			thought.ModTime = info.ModTime()
		}
		thoughts = append(thoughts, thought)
	}
	return thoughts, nil
}

func (r *FileRepositoryImpl) read(ctx context.Context, path string) (string, error) {
	if r.extractor == nil {
		data, err := os.ReadFile(path)
		return string(data), err
	}
	res := r.extractor.Extract(ctx, path)
	if !res.Success {
		return "", fmt.Errorf("extraction failed (%s)", res.Method)
	}
	return res.Content, nil
}

// transcribe handles an audio drop once: if its transcript is already in the
// inbox the audio is ignored and the transcript is picked up as text.
func (r *FileRepositoryImpl) transcribe(ctx context.Context, audioPath string, present map[string]bool) (entity.RawThought, bool) {
	name := transcription.TranscriptName(audioPath)
	if r.transcriber == nil || present[name] {
		return entity.RawThought{}, false
	}
	out, err := r.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		r.logger.Warn("KnowledgeStore", "Transcription failed", map[string]interface{}{
			"file":  filepath.Base(audioPath),
			"error": err.Error(),
		})
		return entity.RawThought{}, false
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return entity.RawThought{}, false
	}
	present[name] = true
	return entity.RawThought{Filename: filepath.Base(out), Content: string(data), ModTime: r.now()}, true
}

// ShouldProcess is true when the note is absent or the inbox file is newer.
func (r *FileRepositoryImpl) ShouldProcess(thought entity.RawThought, insightId string) bool {
	noteInfo, err := os.Stat(filepath.Join(r.notesPath, NoteFilename(insightId)))
	if err != nil {
		return true
	}
	modTime := thought.ModTime
	if modTime.IsZero() {
		inboxInfo, err := os.Stat(filepath.Join(r.inboxPath, thought.Filename))
		if err != nil {
			return true
		}
		modTime = inboxInfo.ModTime()
	}
	return modTime.After(noteInfo.ModTime())
}

func (r *FileRepositoryImpl) SaveInsight(ctx context.Context, insight *entity.Insight) error {
	if insight.Metadata.Id == "" {
		return errors.New("insight without id")
	}
	return r.UpdateNote(ctx, NoteFilename(insight.Metadata.Id), insight.Content)
}

// UpdateNote writes content, first copying any prior version into history.
func (r *FileRepositoryImpl) UpdateNote(ctx context.Context, filename, content string) error {
	filename = filepath.Base(filename)
	target := filepath.Join(r.notesPath, filename)

	r.mu.Lock()
	defer r.mu.Unlock()

	prior, err := os.ReadFile(target)
	switch {
	case err == nil:
		if string(prior) == content {
			return nil
		}
		backup, err := r.backup(filename, prior)
		if err != nil {
			return err
		}
		r.logger.Debug("KnowledgeStore", "Note version archived", map[string]interface{}{
			"note":    filename,
			"version": backup,
		})
	case !os.IsNotExist(err):
		return fmt.Errorf("read note %s: %w", filename, err)
	}

	if err := fsutil.WriteFileAtomic(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write note %s: %w", filename, err)
	}
	return nil
}

// backup never overwrites: same-second collisions get a numeric suffix.
func (r *FileRepositoryImpl) backup(filename string, data []byte) (string, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	base := stem + "_" + r.now().Format(versionTimeLayout)
	name := base + ".md"
	for n := 2; fsutil.Exists(filepath.Join(r.historyPath, name)); n++ {
		name = base + "_" + strconv.Itoa(n) + ".md"
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(r.historyPath, name), data, 0o644); err != nil {
		return "", fmt.Errorf("archive %s: %w", filename, err)
	}
	return name, nil
}

func (r *FileRepositoryImpl) ToggleActionable(ctx context.Context, filename string, index int) error {
	content, err := r.GetNoteContent(ctx, filename)
	if err != nil {
		return err
	}
	updated, err := entity.ToggleActionableInContent(content, index)
	if err != nil {
		return err
	}
	return r.UpdateNote(ctx, filename, updated)
}

func (r *FileRepositoryImpl) FetchHistory(ctx context.Context) ([]*entity.Insight, error) {
	entries, err := os.ReadDir(r.notesPath)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}

	var insights []*entity.Insight
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.notesPath, e.Name()))
		if err != nil {
			continue
		}
		meta := entity.InsightMetadata{
			Id:    e.Name(),
			Title: entity.ExtractTitle(string(data)),
		}
		if info, err := e.Info(); err == nil {
			meta.Date = info.ModTime().Format("2006-01-02 15:04:05")
		}
		insights = append(insights, &entity.Insight{Metadata: meta, Content: string(data)})
	}
	return insights, nil
}

func (r *FileRepositoryImpl) GetNoteContent(ctx context.Context, filename string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.notesPath, filepath.Base(filename)))
	if err != nil {
		return "", fmt.Errorf("read note %s: %w", filename, err)
	}
	return string(data), nil
}

// GetVersions lists archived versions of a note, newest first.
func (r *FileRepositoryImpl) GetVersions(ctx context.Context, noteId string) ([]string, error) {
	stem := strings.TrimSuffix(filepath.Base(noteId), ".md")
	entries, err := os.ReadDir(r.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	versions := []string{}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, stem) && versionSuffix.MatchString(strings.TrimPrefix(name, stem)) {
			versions = append(versions, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

func (r *FileRepositoryImpl) GetVersionContent(ctx context.Context, versionFilename string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.historyPath, filepath.Base(versionFilename)))
	if err != nil {
		return "", fmt.Errorf("read version %s: %w", versionFilename, err)
	}
	return string(data), nil
}

// GetBacklinks returns notes linking to filename as [[id]], [[id.ext]] or [[title]].
func (r *FileRepositoryImpl) GetBacklinks(ctx context.Context, filename string) ([]string, error) {
	filename = filepath.Base(filename)
	title := ""
	if content, err := r.GetNoteContent(ctx, filename); err == nil {
		if t := entity.ExtractTitle(content); t != entity.DefaultInsightTitle {
			title = t
		}
	}
	aliases := notelink.Aliases(filename, title)

	notes, err := r.FetchHistory(ctx)
	if err != nil {
		return nil, err
	}

	links := []string{}
	for _, n := range notes {
		if n.Metadata.Id == filename {
			continue
		}
		if notelink.References(n.Content, aliases) {
			links = append(links, n.Metadata.Id)
		}
	}
	sort.Strings(links)
	return links, nil
}

// GetActivityHistory merges the persisted counter with a scan of note and
// version modification dates; the larger count wins per day.
func (r *FileRepositoryImpl) GetActivityHistory(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	persisted, err := r.loadActivity()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	scanned := make(map[string]int)
	for _, dir := range []string{r.notesPath, r.historyPath} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if info, err := e.Info(); err == nil && info.Mode().IsRegular() {
				scanned[info.ModTime().Format(activityDayLayout)]++
			}
		}
	}

	for day, n := range scanned {
		if n > persisted[day] {
			persisted[day] = n
		}
	}
	return persisted, nil
}

func (r *FileRepositoryImpl) RecordActivity(ctx context.Context, date string) error {
	if _, err := time.Parse(activityDayLayout, date); err != nil {
		return fmt.Errorf("invalid activity date %q: %w", date, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	counts, err := r.loadActivity()
	if err != nil {
		return err
	}
	counts[date]++
	return fsutil.WriteJSON(r.activityLogPath, counts)
}

func (r *FileRepositoryImpl) loadActivity() (map[string]int, error) {
	counts := make(map[string]int)
	data, err := os.ReadFile(r.activityLogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return counts, nil
		}
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	if err := json.Unmarshal(data, &counts); err != nil {
		r.logger.Warn("KnowledgeStore", "Activity log unreadable, starting fresh", map[string]interface{}{
			"error": err.Error(),
		})
		return make(map[string]int), nil
	}
	return counts, nil
}
