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
	"ideawalker-core/pkg/extract"
	"ideawalker-core/pkg/llm"
	"ideawalker-core/pkg/scientific"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	extractionConcurrency = 4
	ingestedAtLayout      = "2006-01-02T15:04:05Z"
	bundleExtraction      = "insight-bundle"
)

var (
	ErrNoModelOutput = errors.New("modelo não retornou resposta")
	ErrSchemaInvalid = errors.New("bundle fora do esquema")
)

type IngestionResult struct {
	ArtifactsDetected int                `json:"artifactsDetected"`
	BundlesGenerated  int                `json:"bundlesGenerated"`
	Purged            []string           `json:"purged,omitempty"`
	Outcomes          []*ArtifactOutcome `json:"outcomes,omitempty"`
	Errors            []string           `json:"errors,omitempty"`
}

// ArtifactOutcome is what happened to one artifact once it reached validation.
type ArtifactOutcome struct {
	ArtifactID string                   `json:"artifactId"`
	Report     scientific.Report        `json:"report"`
	Seal       scientific.Seal          `json:"seal"`
	Exported   bool                     `json:"exported"`
	Files      []string                 `json:"files,omitempty"`
	Anchoring  []scientific.AnchorCount `json:"anchoring,omitempty"`
}

type IScientificService interface {
	IngestPending(ctx context.Context, purge bool, progress ProgressFunc) (*IngestionResult, error)
	// IngestBundle runs an already generated bundle through the persist and export tail.
	// sourceText, when given, is what evidence snippets are anchored against.
	IngestBundle(ctx context.Context, jsonContent, artifactID, sourceText string) (*ArtifactOutcome, error)
	LatestValidationSummary() (*scientific.ValidationSummary, error)
	BundlesCount() int
}

type scientificService struct {
	scanner   contract.ArtifactScanner
	extractor extract.Extractor
	client    llm.Client
	layout    scientific.Layout
	logger    logger.ILogger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewScientificService(
	scanner contract.ArtifactScanner,
	extractor extract.Extractor,
	client llm.Client,
	layout scientific.Layout,
	log logger.ILogger,
) IScientificService {
	return &scientificService{
		scanner:   scanner,
		extractor: extractor,
		client:    client,
		layout:    layout,
		logger:    log,
		tracer:    otel.Tracer("ideawalker/scientific"),
		now:       time.Now,
	}
}

// phase describes one of the two extraction calls.
type phase struct {
	name   string
	suffix string
	system string
	schema string
}

var (
	narrativePhase = phase{
		name:   "narrative",
		suffix: scientific.SuffixNarrative,
		system: constant.ScientificNarrativeSystemPrompt,
		schema: constant.ScientificNarrativeSchema,
	}
	discursivePhase = phase{
		name:   "discursive",
		suffix: scientific.SuffixDiscursive,
		system: constant.ScientificDiscursiveSystemPrompt,
		schema: constant.ScientificDiscursiveSchema,
	}
)

func (s *scientificService) IngestPending(ctx context.Context, purge bool, progress ProgressFunc) (*IngestionResult, error) {
	ctx, span := s.tracer.Start(ctx, "scientific.IngestPending", trace.WithAttributes(attribute.Bool("purge", purge)))
	defer span.End()

	artifacts, err := s.scanner.Scan(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("scan scientific inbox: %w", err)
	}
	result := &IngestionResult{ArtifactsDetected: len(artifacts)}
	if len(artifacts) == 0 {
		return result, nil
	}

	if purge {
		for _, a := range artifacts {
			removed, err := s.layout.Purge(a.Filename)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("purge %s: %v", a.Filename, err))
			}
			result.Purged = append(result.Purged, removed...)
		}
	}

	texts := s.extractAll(ctx, artifacts)

	for i, artifact := range artifacts {
		outcome, err := s.ingestArtifact(ctx, artifact, texts[i])
		if outcome != nil {
			result.Outcomes = append(result.Outcomes, outcome)
			if outcome.Exported {
				result.BundlesGenerated++
			}
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", artifact.Filename, err))
		}
		if progress != nil {
			progress(i+1, len(artifacts))
		}
	}

	if _, err := s.layout.WriteProjectManifest(s.now()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("project manifest: %v", err))
	}

	s.logger.Info("ScientificIngestion", "Batch finished", map[string]interface{}{
		"detected":  result.ArtifactsDetected,
		"generated": result.BundlesGenerated,
		"errors":    len(result.Errors),
	})
	return result, nil
}

// extractAll pulls text out of every artifact concurrently. Results keep
// artifact order; an extraction failure is carried in its Result, never as a group error.
func (s *scientificService) extractAll(ctx context.Context, artifacts []entity.SourceArtifact) []extract.Result {
	texts := make([]extract.Result, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractionConcurrency)
	for i, a := range artifacts {
		g.Go(func() error {
			texts[i] = s.extractor.Extract(gctx, a.Path)
			return nil
		})
	}
	_ = g.Wait()
	return texts
}

func (s *scientificService) ingestArtifact(ctx context.Context, artifact entity.SourceArtifact, text extract.Result) (*ArtifactOutcome, error) {
	artifactID := scientific.ArtifactID(s.now(), artifact.Filename)
	ctx, span := s.tracer.Start(ctx, "scientific.ingestArtifact", trace.WithAttributes(attribute.String("artifact_id", artifactID)))
	defer span.End()

	content := text.Content
	if !text.Success || strings.TrimSpace(content) == "" {
		errs := append([]string{"extração sem conteúdo (" + text.Method + ")"}, text.Warnings...)
		s.saveError(artifactID, scientific.SuffixExtract, "extract", "", errs)
		span.SetStatus(codes.Error, "empty extraction")
		return nil, fmt.Errorf("extração vazia")
	}

	narrative, err := s.runPhase(ctx, narrativePhase, artifact, content, artifactID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	merged := narrative
	discursive, err := s.runPhase(ctx, discursivePhase, artifact, content, artifactID)
	if err != nil {
		s.logger.Warn("ScientificIngestion", "Discursive phase failed; continuing with narrative only", map[string]interface{}{
			"artifact": artifactID,
			"error":    err.Error(),
		})
	} else {
		merged = scientific.Merge(narrative, discursive)
	}

	source := map[string]interface{}{
		"artifactId":       artifactID,
		"path":             artifact.Path,
		"filename":         artifact.Filename,
		"contentHash":      artifact.ContentHash,
		"sizeBytes":        artifact.SizeBytes,
		"extractionMethod": text.Method,
	}
	return s.finish(ctx, merged, artifactID, content, source)
}

// runPhase asks for one bundle half. When nothing it returned anchors in the
// source, the call is repeated once over the Abstract/Introduction slice.
func (s *scientificService) runPhase(ctx context.Context, p phase, artifact entity.SourceArtifact, content, artifactID string) (scientific.Bundle, error) {
	ctx, span := s.tracer.Start(ctx, "scientific.phase."+p.name)
	defer span.End()

	user := fmt.Sprintf(constant.ScientificUserPrompt, artifact.Filename, string(artifact.Type), content, p.schema)
	response, ok := s.client.Generate(ctx, p.system, user, true)
	if !ok {
		span.SetStatus(codes.Error, "no response")
		return nil, fmt.Errorf("fase %s: %w", p.name, ErrNoModelOutput)
	}
	bundle, err := scientific.ParseBundle(response)
	if err != nil {
		s.saveError(artifactID, p.suffix, p.name, response, []string{err.Error()})
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fase %s: %w", p.name, err)
	}

	if scientific.ProbeAnchored(bundle, content) > 0 {
		return bundle, nil
	}
	focus := scientific.FocusSlice(content)
	if strings.TrimSpace(focus) == "" {
		return bundle, nil
	}

	s.logger.Info("ScientificIngestion", "Nothing anchored; retrying over focused slice", map[string]interface{}{
		"artifact": artifactID,
		"phase":    p.name,
		"bytes":    len(focus),
	})
	span.AddEvent("focus_retry")
	user = fmt.Sprintf(constant.ScientificUserPrompt, artifact.Filename, string(artifact.Type), focus, p.schema) + constant.ScientificFocusInstruction
	retry, ok := s.client.Generate(ctx, p.system, user, true)
	if !ok {
		return bundle, nil
	}
	if focused, err := scientific.ParseBundle(retry); err == nil {
		return focused, nil
	}
	return bundle, nil
}

func (s *scientificService) IngestBundle(ctx context.Context, jsonContent, artifactID, sourceText string) (*ArtifactOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "scientific.IngestBundle", trace.WithAttributes(attribute.String("artifact_id", artifactID)))
	defer span.End()

	bundle, err := scientific.ParseBundle(jsonContent)
	if err != nil {
		s.saveError(artifactID, scientific.SuffixNarrative, "bundle", jsonContent, []string{err.Error()})
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	source := map[string]interface{}{
		"artifactId":       artifactID,
		"filename":         artifactID,
		"extractionMethod": bundleExtraction,
		"sizeBytes":        len(sourceText),
	}
	return s.finish(ctx, bundle, artifactID, sourceText, source)
}

// finish is the tail shared by both entry points: normalise, anchor, check
// the schema, persist, validate and export when sealed.
func (s *scientificService) finish(ctx context.Context, b scientific.Bundle, artifactID, sourceText string, source map[string]interface{}) (*ArtifactOutcome, error) {
	_, span := s.tracer.Start(ctx, "scientific.finish")
	defer span.End()

	scientific.NormalizeEnums(b)

	outcome := &ArtifactOutcome{ArtifactID: artifactID}
	if sourceText != "" {
		outcome.Anchoring = scientific.Anchor(b, sourceText)
		for _, c := range outcome.Anchoring {
			s.logger.Info("Anchoring", "Evidence anchoring", map[string]interface{}{
				"artifact": artifactID,
				"array":    c.Array,
				"before":   c.Before,
				"after":    c.After,
			})
		}
	} else {
		s.logger.Warn("Anchoring", "No source text; anchoring skipped", map[string]interface{}{"artifact": artifactID})
	}

	source["ingestedAt"] = s.now().UTC().Format(ingestedAtLayout)
	source["model"] = s.client.CurrentModel()
	b["source"] = source

	if errs := scientific.ValidateSchema(b); len(errs) > 0 {
		raw, _ := b.Marshal()
		s.saveError(artifactID, scientific.SuffixSchema, "schema", string(raw), errs)
		span.SetStatus(codes.Error, "schema")
		return nil, fmt.Errorf("%w: %s", ErrSchemaInvalid, strings.Join(errs, "; "))
	}

	if err := s.layout.SaveBundle(artifactID, b); err != nil {
		return nil, fmt.Errorf("save bundle: %w", err)
	}

	report, seal := scientific.Validate(b)
	outcome.Report, outcome.Seal = report, seal
	if err := s.layout.SaveValidation(artifactID, report, seal, s.now()); err != nil {
		return outcome, fmt.Errorf("save validation: %w", err)
	}
	if !seal.ExportAllowed {
		s.logger.Warn("ScientificIngestion", "Export blocked by epistemic validator", map[string]interface{}{
			"artifact": artifactID,
			"errors":   report.Errors,
		})
		return outcome, scientific.ErrExportNotAllowed
	}

	files, err := scientific.Export(s.layout.ConsumablesDir, artifactID, b, report, seal)
	if err != nil {
		s.saveError(artifactID, scientific.SuffixExport, "export", "", []string{err.Error()})
		return outcome, fmt.Errorf("export: %w", err)
	}
	outcome.Exported = true
	outcome.Files = files
	s.logger.Info("ScientificIngestion", "Consumables exported", map[string]interface{}{
		"artifact": artifactID,
		"status":   string(report.Status),
		"files":    len(files),
	})
	return outcome, nil
}

func (s *scientificService) saveError(artifactID, suffix, stage, payload string, errs []string) {
	path, err := s.layout.SaveError(artifactID, suffix, stage, payload, errs, s.now())
	if err != nil {
		s.logger.Error("ScientificIngestion", "Failed to write error payload", map[string]interface{}{
			"artifact": artifactID,
			"error":    err.Error(),
		})
		return
	}
	s.logger.Warn("ScientificIngestion", "Error payload written", map[string]interface{}{
		"artifact": artifactID,
		"stage":    stage,
		"path":     path,
	})
}

func (s *scientificService) LatestValidationSummary() (*scientific.ValidationSummary, error) {
	return s.layout.LatestValidation()
}

func (s *scientificService) BundlesCount() int {
	return s.layout.BundlesCount()
}
