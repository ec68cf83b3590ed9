package contract

import (
	"context"

	"ideawalker-core/internal/entity"
)

// ThoughtRepository is the knowledge store: inbox reads, versioned notes,
// backlinks and the activity counter.
type ThoughtRepository interface {
	FetchInbox(ctx context.Context) ([]entity.RawThought, error)
	ShouldProcess(thought entity.RawThought, insightId string) bool
	SaveInsight(ctx context.Context, insight *entity.Insight) error
	UpdateNote(ctx context.Context, filename, content string) error
	ToggleActionable(ctx context.Context, filename string, index int) error
	FetchHistory(ctx context.Context) ([]*entity.Insight, error)
	GetNoteContent(ctx context.Context, filename string) (string, error)
	GetVersions(ctx context.Context, noteId string) ([]string, error)
	GetVersionContent(ctx context.Context, versionFilename string) (string, error)
	GetBacklinks(ctx context.Context, filename string) ([]string, error)
	GetActivityHistory(ctx context.Context) (map[string]int, error)
	RecordActivity(ctx context.Context, date string) error
}

type ObservationRepository interface {
	Save(ctx context.Context, record *entity.ObservationRecord) error
	FindAll(ctx context.Context) ([]*entity.ObservationRecord, error)
	// FindBySource returns the newest observation whose source filename matches.
	FindBySource(ctx context.Context, filename string) (*entity.ObservationRecord, error)
}

type ArtifactScanner interface {
	Scan(ctx context.Context) ([]entity.SourceArtifact, error)
}
