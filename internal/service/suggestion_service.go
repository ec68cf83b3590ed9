package service

import (
	"context"
	"sync"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/embedding"
)

type ISuggestionService interface {
	// IndexProject embeds every note whose content changed since it was last cached.
	IndexProject(ctx context.Context) (int, error)
	Suggest(ctx context.Context, noteID, content string) ([]embedding.Suggestion, error)
	Shutdown() error
}

type suggestionService struct {
	thoughts contract.ThoughtRepository
	embedder embedding.Embedder
	cache    *embedding.Cache
	logger   logger.ILogger

	loadOnce sync.Once
	loadErr  error
}

func NewSuggestionService(thoughts contract.ThoughtRepository, embedder embedding.Embedder, cache *embedding.Cache, log logger.ILogger) ISuggestionService {
	return &suggestionService{
		thoughts: thoughts,
		embedder: embedder,
		cache:    cache,
		logger:   log,
	}
}

func (s *suggestionService) load() error {
	s.loadOnce.Do(func() { s.loadErr = s.cache.Load() })
	return s.loadErr
}

func (s *suggestionService) IndexProject(ctx context.Context) (int, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	notes, err := s.thoughts.FetchHistory(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, note := range notes {
		if note.Content == "" {
			continue
		}
		hash := embedding.ContentHash(note.Content)
		if _, ok := s.cache.Get(note.Metadata.Id, hash); ok {
			continue
		}
		vec := s.embedder.Embed(ctx, note.Content)
		if len(vec) == 0 {
			s.logger.Warn("Suggestion", "Embedding failed", map[string]interface{}{"note": note.Metadata.Id})
			continue
		}
		s.cache.Update(note.Metadata.Id, hash, vec)
		indexed++
	}
	if indexed > 0 {
		if err := s.cache.Persist(); err != nil {
			return indexed, err
		}
	}
	s.logger.Info("Suggestion", "Project indexed", map[string]interface{}{"notes": len(notes), "embedded": indexed})
	return indexed, nil
}

// Suggest ranks cached notes against content. An embedding failure yields no suggestions.
func (s *suggestionService) Suggest(ctx context.Context, noteID, content string) ([]embedding.Suggestion, error) {
	if content == "" {
		return nil, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	hash := embedding.ContentHash(content)
	active, ok := s.cache.Get(noteID, hash)
	if !ok {
		active = s.embedder.Embed(ctx, content)
		if len(active) == 0 {
			return nil, nil
		}
		s.cache.Update(noteID, hash, active)
		if err := s.cache.Persist(); err != nil {
			return nil, err
		}
	}
	return embedding.Rank(noteID, active, s.cache.All()), nil
}

func (s *suggestionService) Shutdown() error {
	return s.cache.Persist()
}
