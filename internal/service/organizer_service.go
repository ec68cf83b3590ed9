package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ideawalker-core/internal/constant"
	"ideawalker-core/internal/entity"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/ai/pipeline"
	"ideawalker-core/pkg/events"
	"ideawalker-core/pkg/llm"
	"ideawalker-core/pkg/scientific"
)

// TagScientificObserver routes an insight into scientific ingestion instead of the notes folder.
const TagScientificObserver = "#ScientificObserver"

// ProgressFunc reports batch progress; done counts items handled so far.
type ProgressFunc func(done, total int)

type BatchResult struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

type IOrganizerService interface {
	ProcessInbox(ctx context.Context, fastMode, force bool, progress ProgressFunc) (*BatchResult, error)
	ProcessItem(ctx context.Context, filename string, fastMode, force bool) (*BatchResult, error)
	ConsolidateTasks(ctx context.Context) error
}

type organizerService struct {
	thoughts     contract.ThoughtRepository
	observations contract.ObservationRepository
	orchestrator *pipeline.Orchestrator
	client       llm.Client
	prompts      *constant.PromptCatalog
	scientific   IScientificService
	publisher    IPublisherService
	logger       logger.ILogger
	now          func() time.Time
}

func NewOrganizerService(
	thoughts contract.ThoughtRepository,
	observations contract.ObservationRepository,
	client llm.Client,
	prompts *constant.PromptCatalog,
	scientific IScientificService,
	publisher IPublisherService,
	log logger.ILogger,
) IOrganizerService {
	if publisher == nil {
		publisher = NewNopPublisher()
	}
	return &organizerService{
		thoughts:     thoughts,
		observations: observations,
		orchestrator: pipeline.NewOrchestrator(client, prompts, log),
		client:       client,
		prompts:      prompts,
		scientific:   scientific,
		publisher:    publisher,
		logger:       log,
		now:          time.Now,
	}
}

// NormalizeToId turns an inbox filename into a note id: extension dropped,
// anything outside [A-Za-z0-9_-] replaced by an underscore.
func NormalizeToId(filename string) string {
	base := filename
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		base = base[:dot]
	}
	var b strings.Builder
	for i := 0; i < len(base); i++ {
		c := base[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "note"
	}
	return b.String()
}

// FilterTaskLines keeps only lines that start with a checkbox.
func FilterTaskLines(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "- [") {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *organizerService) ProcessInbox(ctx context.Context, fastMode, force bool, progress ProgressFunc) (*BatchResult, error) {
	thoughts, err := s.thoughts.FetchInbox(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch inbox: %w", err)
	}

	result := &BatchResult{}
	for i, thought := range thoughts {
		s.processThought(ctx, thought, fastMode, force, result)
		if progress != nil {
			progress(i+1, len(thoughts))
		}
	}

	s.logger.Info("Organizer", "Inbox batch finished", map[string]interface{}{
		"total":     len(thoughts),
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})

	if err := s.ConsolidateTasks(ctx); err != nil {
		s.logger.Warn("Organizer", "Task consolidation failed", map[string]interface{}{"error": err.Error()})
	}
	return result, nil
}

func (s *organizerService) ProcessItem(ctx context.Context, filename string, fastMode, force bool) (*BatchResult, error) {
	thoughts, err := s.thoughts.FetchInbox(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch inbox: %w", err)
	}
	result := &BatchResult{}
	found := false
	for _, thought := range thoughts {
		if thought.Filename == filename {
			found = true
			s.processThought(ctx, thought, fastMode, force, result)
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("inbox item %s not found", filename)
	}
	if err := s.ConsolidateTasks(ctx); err != nil {
		s.logger.Warn("Organizer", "Task consolidation failed", map[string]interface{}{"error": err.Error()})
	}
	return result, nil
}

// processThought never returns an error: a failing thought is counted and the batch moves on.
func (s *organizerService) processThought(ctx context.Context, thought entity.RawThought, fastMode, force bool, result *BatchResult) {
	insightId := NormalizeToId(thought.Filename)
	if !force && !s.thoughts.ShouldProcess(thought, insightId) {
		result.Skipped++
		return
	}

	fail := func(err error) {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", thought.Filename, err))
		s.logger.Error("Organizer", "Thought processing failed", map[string]interface{}{
			"file":  thought.Filename,
			"error": err.Error(),
		})
	}

	input := s.withObservationContext(ctx, thought)
	res, err := s.orchestrator.Process(ctx, input, fastMode, func(status string) {
		s.logger.Debug("Organizer", status, map[string]interface{}{"file": thought.Filename})
	})
	if err != nil {
		fail(err)
		return
	}

	insight := res.Insight
	if insight.HasTag(TagScientificObserver) && s.scientific != nil {
		if _, err := s.scientific.IngestBundle(ctx, insight.Content, insightId, thought.Content); err != nil && !errors.Is(err, scientific.ErrExportNotAllowed) {
			fail(err)
			return
		}
		result.Processed++
		return
	}

	insight.Metadata.Id = insightId
	if err := s.thoughts.SaveInsight(ctx, insight); err != nil {
		fail(err)
		return
	}
	result.Processed++

	evt := events.NewEvent(events.NoteSaved, map[string]interface{}{
		"id":       insightId,
		"filename": thought.Filename,
		"title":    insight.Metadata.Title,
	}, s.now())
	if err := s.publisher.Publish(ctx, events.TopicNotes, evt); err != nil {
		s.logger.Warn("Organizer", "Failed to publish note event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *organizerService) withObservationContext(ctx context.Context, thought entity.RawThought) string {
	if s.observations == nil {
		return thought.Content
	}
	record, err := s.observations.FindBySource(ctx, thought.Filename)
	if err != nil || record == nil || record.Content == "" {
		return thought.Content
	}
	s.logger.Debug("Organizer", "Injecting observation context", map[string]interface{}{
		"file":  thought.Filename,
		"bytes": len(record.Content),
	})
	return thought.Content + constant.ObservationContextOpen + record.Content + constant.ObservationContextClose
}

func (s *organizerService) ConsolidateTasks(ctx context.Context) error {
	insights, err := s.thoughts.FetchHistory(ctx)
	if err != nil {
		return err
	}

	var list strings.Builder
	for _, insight := range insights {
		if insight.Metadata.Id == constant.ConsolidatedTasksFilename {
			continue
		}
		for _, a := range insight.Actionables() {
			fmt.Fprintf(&list, "- [%s] %s (origem: %s)\n", a.State.Marker(), a.Description, insight.Metadata.Id)
		}
	}

	if list.Len() == 0 {
		return s.thoughts.UpdateNote(ctx, constant.ConsolidatedTasksFilename, constant.ConsolidatedTasksHeader)
	}

	out, ok := s.client.Generate(ctx, s.prompts.Consolidation(), list.String(), false)
	if !ok {
		return fmt.Errorf("consolidate tasks: %w", pipeline.ErrNoResponse)
	}
	filtered := FilterTaskLines(out)
	if filtered == "" {
		return nil
	}
	return s.thoughts.UpdateNote(ctx, constant.ConsolidatedTasksFilename, constant.ConsolidatedTasksHeader+filtered)
}
