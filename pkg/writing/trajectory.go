package writing

import (
	"fmt"
	"strings"
	"time"
)

// Trajectory is the aggregate root of a writing project. Commands validate,
// then record an event; recording applies it and keeps it as uncommitted
// until the caller saves and clears. Replay applies events without recording.
type Trajectory struct {
	id     string
	intent Intent
	stage  Stage

	segments     map[string]*DraftSegment
	segmentOrder []string
	history      []RevisionDecision
	cards        map[string]*DefenseCard
	cardOrder    []string
	applied      int

	uncommitted []Event
	now         func() time.Time
}

// State is a detached copy of everything observable on a trajectory.
type State struct {
	ID           string             `json:"id"`
	Intent       Intent             `json:"intent"`
	Stage        Stage              `json:"stage"`
	Segments     []DraftSegment     `json:"segments"`
	History      []RevisionDecision `json:"history"`
	DefenseCards []DefenseCard      `json:"defenseCards"`
	Version      int                `json:"version"`
}

type Option func(*Trajectory)

// WithClock replaces time.Now for command timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Trajectory) { t.now = now }
}

func empty(id string, opts ...Option) *Trajectory {
	t := &Trajectory{
		id:       id,
		stage:    StageIntent,
		segments: map[string]*DraftSegment{},
		cards:    map[string]*DefenseCard{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New starts a trajectory at the Intent stage.
func New(id string, intent Intent, opts ...Option) (*Trajectory, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("trajectory id cannot be empty")
	}
	if !intent.Valid() {
		return nil, ErrInvalidIntent
	}
	t := empty(id, opts...)
	if err := t.record(TrajectoryCreated{Header: t.header(), Intent: intent}); err != nil {
		return nil, err
	}
	return t, nil
}

// Rehydrate rebuilds a trajectory from its stored events. The first event must
// be TrajectoryCreated. Events that no longer apply are returned in skipped
// rather than failing the whole replay.
func Rehydrate(id string, events []Event, opts ...Option) (t *Trajectory, skipped []error, err error) {
	if len(events) == 0 {
		return nil, nil, ErrTrajectoryNotFound
	}
	if _, ok := events[0].(TrajectoryCreated); !ok {
		return nil, nil, ErrStreamStart
	}
	t = empty(id, opts...)
	for i, e := range events {
		if err := t.Apply(e); err != nil {
			skipped = append(skipped, fmt.Errorf("event %d (%s): %w", i+1, e.EventType(), err))
		}
	}
	return t, skipped, nil
}

// header stamps events at millisecond precision, the resolution of the store.
func (t *Trajectory) header() Header {
	return Header{TrajectoryID: t.id, At: time.UnixMilli(t.now().UnixMilli())}
}

func (t *Trajectory) record(e Event) error {
	if err := t.Apply(e); err != nil {
		return err
	}
	t.uncommitted = append(t.uncommitted, e)
	return nil
}

func (t *Trajectory) ID() string { return t.id }
func (t *Trajectory) Intent() Intent { return t.intent }
func (t *Trajectory) Stage() Stage { return t.stage }
func (t *Trajectory) Version() int { return t.applied }
func (t *Trajectory) SegmentCount() int { return len(t.segmentOrder) }

// Uncommitted returns the events recorded since the last ClearUncommitted.
func (t *Trajectory) Uncommitted() []Event {
	return append([]Event(nil), t.uncommitted...)
}

func (t *Trajectory) ClearUncommitted() { t.uncommitted = nil }

func (t *Trajectory) Segment(id string) (DraftSegment, bool) {
	s, ok := t.segments[id]
	if !ok {
		return DraftSegment{}, false
	}
	return s.clone(), true
}

func (t *Trajectory) Segments() []DraftSegment {
	out := make([]DraftSegment, 0, len(t.segmentOrder))
	for _, id := range t.segmentOrder {
		out = append(out, t.segments[id].clone())
	}
	return out
}

func (t *Trajectory) History() []RevisionDecision {
	out := make([]RevisionDecision, 0, len(t.history))
	for _, d := range t.history {
		out = append(out, d.clone())
	}
	return out
}

func (t *Trajectory) DefenseCard(id string) (DefenseCard, bool) {
	c, ok := t.cards[id]
	if !ok {
		return DefenseCard{}, false
	}
	return c.clone(), true
}

func (t *Trajectory) DefenseCards() []DefenseCard {
	out := make([]DefenseCard, 0, len(t.cardOrder))
	for _, id := range t.cardOrder {
		out = append(out, t.cards[id].clone())
	}
	return out
}

func (t *Trajectory) Snapshot() State {
	return State{
		ID:           t.id,
		Intent:       t.intent,
		Stage:        t.stage,
		Segments:     t.Segments(),
		History:      t.History(),
		DefenseCards: t.DefenseCards(),
		Version:      t.applied,
	}
}

// Clone deep-copies the aggregate, uncommitted events included.
func (t *Trajectory) Clone() *Trajectory {
	c := &Trajectory{
		id:           t.id,
		intent:       t.intent,
		stage:        t.stage,
		segments:     make(map[string]*DraftSegment, len(t.segments)),
		segmentOrder: append([]string(nil), t.segmentOrder...),
		history:      t.History(),
		cards:        make(map[string]*DefenseCard, len(t.cards)),
		cardOrder:    append([]string(nil), t.cardOrder...),
		applied:      t.applied,
		uncommitted:  t.Uncommitted(),
		now:          t.now,
	}
	for id, s := range t.segments {
		cp := s.clone()
		c.segments[id] = &cp
	}
	for id, card := range t.cards {
		cp := card.clone()
		c.cards[id] = &cp
	}
	return c
}

// AddSegment appends a segment and returns its id.
func (t *Trajectory) AddSegment(title, content string, source SourceTag) (string, error) {
	if !source.Valid() {
		return "", ErrInvalidSourceTag
	}
	id := fmt.Sprintf("%s-seg-%d", t.id, len(t.segmentOrder)+1)
	if err := t.record(SegmentAdded{Header: t.header(), SegmentID: id, Title: title, Content: content, Source: source}); err != nil {
		return "", err
	}
	return id, nil
}

// ReviseSegment replaces a segment's content and records why.
func (t *Trajectory) ReviseSegment(segmentID, newContent string, op Operation, rationale string, source SourceTag, alternatives ...string) (RevisionDecision, error) {
	if strings.TrimSpace(rationale) == "" {
		return RevisionDecision{}, ErrEmptyRationale
	}
	if !op.Valid() {
		return RevisionDecision{}, ErrInvalidOperation
	}
	if !source.Valid() {
		return RevisionDecision{}, ErrInvalidSourceTag
	}
	seg, ok := t.segments[segmentID]
	if !ok {
		return RevisionDecision{}, fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
	}

	decisionID := fmt.Sprintf("%s-dec-%d", t.id, len(t.history)+1)
	err := t.record(SegmentRevised{
		Header:       t.header(),
		SegmentID:    segmentID,
		OldContent:   seg.Content,
		NewContent:   newContent,
		OldSource:    seg.Source,
		Source:       source,
		DecisionID:   decisionID,
		Operation:    op,
		Rationale:    rationale,
		Alternatives: append([]string(nil), alternatives...),
	})
	if err != nil {
		return RevisionDecision{}, err
	}
	return t.history[len(t.history)-1].clone(), nil
}

// AdvanceStage moves to the immediately following stage.
func (t *Trajectory) AdvanceStage(target Stage) error {
	if !target.Valid() {
		return ErrInvalidStage
	}
	if t.stage == StageFinal {
		return ErrFinalStage
	}
	if target != t.stage.Next() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStageTransition, t.stage, target)
	}
	if t.stage == StageIntent && !t.intent.Valid() {
		return ErrInvalidIntent
	}
	return t.record(StageAdvanced{Header: t.header(), OldStage: t.stage, NewStage: target})
}

// AddDefenseCard registers a challenge. An empty cardID gets a generated one;
// an empty segmentID means the card is global.
func (t *Trajectory) AddDefenseCard(cardID, segmentID, prompt string, expectedPoints []string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if cardID == "" {
		cardID = fmt.Sprintf("%s-card-%d", t.id, len(t.cardOrder)+1)
	}
	if _, exists := t.cards[cardID]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateCard, cardID)
	}
	if segmentID == "" {
		segmentID = GlobalSegment
	}
	if segmentID != GlobalSegment {
		if _, ok := t.segments[segmentID]; !ok {
			return "", fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
		}
	}
	err := t.record(DefenseCardAdded{
		Header:         t.header(),
		CardID:         cardID,
		SegmentID:      segmentID,
		Prompt:         prompt,
		ExpectedPoints: append([]string{}, expectedPoints...),
	})
	if err != nil {
		return "", err
	}
	return cardID, nil
}

// UpdateDefenseStatus records a rehearsal or a pass. Status never moves back;
// repeating the current status only replaces the response.
func (t *Trajectory) UpdateDefenseStatus(cardID string, status DefenseStatus, response string) error {
	if status.Rank() < 0 {
		return ErrInvalidDefenseStatus
	}
	card, ok := t.cards[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if status.Rank() < card.Status.Rank() {
		return fmt.Errorf("%w: %s -> %s", ErrDefenseRegression, card.Status, status)
	}
	return t.record(DefenseStatusUpdated{
		Header:    t.header(),
		CardID:    cardID,
		OldStatus: card.Status,
		NewStatus: status,
		Response:  response,
	})
}

func (t *Trajectory) AttachEvidence(segmentID string, link EvidenceLink) error {
	if !link.Type.Valid() || strings.TrimSpace(link.RefID) == "" {
		return ErrInvalidEvidence
	}
	if link.Confidence < 0 || link.Confidence > 1 {
		return ErrInvalidEvidence
	}
	if _, ok := t.segments[segmentID]; !ok {
		return fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
	}
	return t.record(EvidenceAttached{Header: t.header(), SegmentID: segmentID, Link: link})
}

// Apply folds one event into the state.
func (t *Trajectory) Apply(e Event) error {
	switch ev := e.(type) {
	case TrajectoryCreated:
		if t.applied > 0 {
			return fmt.Errorf("trajectory already created")
		}
		t.id = ev.TrajectoryID
		t.intent = ev.Intent
		t.stage = StageIntent

	case SegmentAdded:
		if _, exists := t.segments[ev.SegmentID]; exists {
			return fmt.Errorf("segment %s already exists", ev.SegmentID)
		}
		t.segments[ev.SegmentID] = &DraftSegment{
			SegmentID:     ev.SegmentID,
			Title:         ev.Title,
			Content:       ev.Content,
			Source:        ev.Source,
			Version:       1,
			LastModified:  ev.At,
			EvidenceLinks: []EvidenceLink{},
		}
		t.segmentOrder = append(t.segmentOrder, ev.SegmentID)

	case SegmentRevised:
		seg, ok := t.segments[ev.SegmentID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrSegmentNotFound, ev.SegmentID)
		}
		if strings.TrimSpace(ev.Rationale) == "" {
			return ErrEmptyRationale
		}
		seg.Content = ev.NewContent
		seg.Source = ev.Source
		seg.Version++
		seg.LastModified = ev.At
		t.history = append(t.history, RevisionDecision{
			DecisionID:             ev.DecisionID,
			TargetSegmentID:        ev.SegmentID,
			Operation:              ev.Operation,
			Rationale:              ev.Rationale,
			AlternativesConsidered: append([]string{}, ev.Alternatives...),
			Timestamp:              ev.At,
		})

	case StageAdvanced:
		if ev.OldStage != t.stage || ev.NewStage != t.stage.Next() || t.stage == StageFinal {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStageTransition, ev.OldStage, ev.NewStage)
		}
		t.stage = ev.NewStage

	case DefenseCardAdded:
		if _, exists := t.cards[ev.CardID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, ev.CardID)
		}
		t.cards[ev.CardID] = &DefenseCard{
			CardID:                ev.CardID,
			SegmentID:             ev.SegmentID,
			Prompt:                ev.Prompt,
			ExpectedDefensePoints: append([]string{}, ev.ExpectedPoints...),
			Status:                DefensePending,
		}
		t.cardOrder = append(t.cardOrder, ev.CardID)

	case DefenseStatusUpdated:
		card, ok := t.cards[ev.CardID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrCardNotFound, ev.CardID)
		}
		if ev.NewStatus.Rank() < card.Status.Rank() {
			return ErrDefenseRegression
		}
		card.Status = ev.NewStatus
		card.UserResponse = ev.Response

	case EvidenceAttached:
		seg, ok := t.segments[ev.SegmentID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrSegmentNotFound, ev.SegmentID)
		}
		seg.EvidenceLinks = append(seg.EvidenceLinks, ev.Link)

	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, e)
	}
	t.applied++
	return nil
}
