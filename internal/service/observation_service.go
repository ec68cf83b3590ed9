package service

import (
	"context"
	"fmt"
	"time"

	"ideawalker-core/internal/constant"
	"ideawalker-core/internal/entity"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/extract"
	"ideawalker-core/pkg/llm"
)

const observationIdLayout = "20060102_150405"

// pdfFallbackContent stands in for a PDF whose text could not be extracted.
const pdfFallbackContent = "[CONTEÚDO BINÁRIO: Extração de texto para PDF falhou ou pdftotext não encontrado. Processe metadados do arquivo se possível.]"

type ObservationResult struct {
	ArtifactsDetected     int      `json:"artifactsDetected"`
	ObservationsGenerated int      `json:"observationsGenerated"`
	Errors                []string `json:"errors,omitempty"`
}

type IObservationService interface {
	IngestPending(ctx context.Context, progress ProgressFunc) (*ObservationResult, error)
	List(ctx context.Context) ([]*entity.ObservationRecord, error)
}

type observationService struct {
	scanner   contract.ArtifactScanner
	extractor extract.Extractor
	repo      contract.ObservationRepository
	client    llm.Client
	logger    logger.ILogger
	now       func() time.Time
}

func NewObservationService(
	scanner contract.ArtifactScanner,
	extractor extract.Extractor,
	repo contract.ObservationRepository,
	client llm.Client,
	log logger.ILogger,
) IObservationService {
	return &observationService{
		scanner:   scanner,
		extractor: extractor,
		repo:      repo,
		client:    client,
		logger:    log,
		now:       time.Now,
	}
}

func (s *observationService) IngestPending(ctx context.Context, progress ProgressFunc) (*ObservationResult, error) {
	artifacts, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan inbox: %w", err)
	}
	result := &ObservationResult{ArtifactsDetected: len(artifacts)}

	for i, artifact := range artifacts {
		if err := s.observe(ctx, artifact); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", artifact.Filename, err))
			s.logger.Warn("Observation", "Observation failed", map[string]interface{}{
				"file":  artifact.Filename,
				"error": err.Error(),
			})
		} else {
			result.ObservationsGenerated++
		}
		if progress != nil {
			progress(i+1, len(artifacts))
		}
	}
	return result, nil
}

func (s *observationService) observe(ctx context.Context, artifact entity.SourceArtifact) error {
	text := s.extractor.Extract(ctx, artifact.Path)
	content := text.Content
	if !text.Success || content == "" {
		if artifact.Type != entity.SourcePDF {
			return fmt.Errorf("extraction failed (%s)", text.Method)
		}
		content = pdfFallbackContent
	}

	prompt := fmt.Sprintf(constant.ObservationPrompt, artifact.Filename, string(artifact.Type), content)
	response, ok := s.client.Chat(ctx, []llm.Message{{Role: "system", Content: prompt}}, false)
	if !ok {
		return ErrNoModelOutput
	}

	createdAt := s.now()
	record := &entity.ObservationRecord{
		Id:         createdAt.Format(observationIdLayout) + "_" + artifact.Filename,
		SourcePath: artifact.Path,
		SourceHash: artifact.ContentHash,
		Content:    response,
		CreatedAt:  createdAt,
	}
	return s.repo.Save(ctx, record)
}

func (s *observationService) List(ctx context.Context) ([]*entity.ObservationRecord, error) {
	return s.repo.FindAll(ctx)
}
