package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ideawalker-core/internal/entity"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	TagAutoGenerated = "#AutoGenerated"
	TagOrchestrated  = "#Orchestrated"
)

var ErrNoResponse = errors.New("llm returned no response")

// PromptSource resolves a persona's system prompt.
type PromptSource interface {
	SystemPrompt(persona string) string
}

// StatusFunc receives a human-readable line per pipeline step.
type StatusFunc func(status string)

// CognitiveSnapshot records one persona step.
type CognitiveSnapshot struct {
	Persona   Persona        `json:"persona"`
	State     CognitiveState `json:"state"`
	Input     string         `json:"textInput"`
	Output    string         `json:"textOutput"`
	Reasoning string         `json:"reasoning,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Result struct {
	Insight   *entity.Insight
	Diagnosis *Diagnosis // nil in fast mode
	Snapshots []CognitiveSnapshot
}

// Orchestrator turns a raw thought into an Insight through a persona chain.
type Orchestrator struct {
	client  llm.Client
	prompts PromptSource
	logger  logger.ILogger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewOrchestrator(client llm.Client, prompts PromptSource, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		prompts: prompts,
		logger:  log,
		tracer:  otel.Tracer("ideawalker/pipeline"),
		now:     time.Now,
	}
}

// Process runs diagnose, chain and finalize. Any empty model response aborts
// with ErrNoResponse; nothing is retried.
func (o *Orchestrator) Process(ctx context.Context, raw string, fastMode bool, status StatusFunc) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.Process",
		trace.WithAttributes(
			attribute.Bool("fast_mode", fastMode),
			attribute.Int("input_bytes", len(raw)),
		))
	defer span.End()

	notify := func(s string) {
		if status != nil {
			status(s)
		}
	}

	result := &Result{}
	sequence := []Persona{DefaultPersona}
	state := StateUnknown

	if !fastMode {
		notify("Diagnosticando estado cognitivo...")
		diagnosis, err := o.diagnose(ctx, raw)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		result.Diagnosis = diagnosis
		sequence = diagnosis.Sequence
		state = StateFromTag(diagnosis.PrimaryTag)
	}

	current := raw
	for i, persona := range sequence {
		notify(fmt.Sprintf("Aplicando %s (%d/%d)...", persona, i+1, len(sequence)))
		out, err := o.runPersona(ctx, persona, current)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			o.logger.Warn("Orchestrator", "Persona step aborted the pipeline", map[string]interface{}{
				"persona": string(persona),
				"step":    i + 1,
			})
			return nil, err
		}
		result.Snapshots = append(result.Snapshots, CognitiveSnapshot{
			Persona:   persona,
			State:     state,
			Input:     current,
			Output:    out,
			Timestamp: o.now(),
		})
		current = out
	}

	result.Insight = o.finalize(current, result.Diagnosis)
	span.SetAttributes(attribute.String("insight_id", result.Insight.Metadata.Id))
	o.logger.Info("Orchestrator", "Insight generated", map[string]interface{}{
		"id":    result.Insight.Metadata.Id,
		"title": result.Insight.Metadata.Title,
		"steps": len(sequence),
	})
	return result, nil
}

func (o *Orchestrator) diagnose(ctx context.Context, raw string) (*Diagnosis, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.diagnose")
	defer span.End()

	out, ok := o.client.Generate(ctx, o.prompts.SystemPrompt(string(Orquestrador)), raw, true)
	if !ok || strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("diagnose: %w", ErrNoResponse)
	}
	d := ParseDiagnosis(out)
	span.SetAttributes(attribute.String("primary_tag", d.PrimaryTag), attribute.Int("sequence_len", len(d.Sequence)))
	return &d, nil
}

func (o *Orchestrator) runPersona(ctx context.Context, persona Persona, input string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.persona",
		trace.WithAttributes(attribute.String("persona", string(persona))))
	defer span.End()

	out, ok := o.client.Generate(ctx, o.prompts.SystemPrompt(string(persona)), input, false)
	if !ok || strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("persona %s: %w", persona, ErrNoResponse)
	}
	return out, nil
}

func (o *Orchestrator) finalize(content string, diagnosis *Diagnosis) *entity.Insight {
	now := o.now()
	tags := []string{TagAutoGenerated}
	if diagnosis != nil {
		tags = append(tags, TagOrchestrated)
		if tag := diagnosis.PrimaryTag; tag != "" && tag != TagAutoGenerated && tag != TagOrchestrated {
			tags = append(tags, tag)
		}
	}
	return &entity.Insight{
		Metadata: entity.InsightMetadata{
			Id:    strconv.FormatInt(now.Unix(), 10),
			Title: entity.ExtractTitle(content),
			Date:  now.Format("2006-01-02 15:04:05"),
			Tags:  tags,
		},
		Content: content,
	}
}
