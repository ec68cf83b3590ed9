package writing

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeTrajectoryCreated    = "TrajectoryCreated"
	TypeSegmentAdded         = "SegmentAdded"
	TypeSegmentRevised       = "SegmentRevised"
	TypeStageAdvanced        = "StageAdvanced"
	TypeDefenseCardAdded     = "DefenseCardAdded"
	TypeDefenseStatusUpdated = "DefenseStatusUpdated"
	TypeEvidenceAttached     = "EvidenceAttached"
)

// Event is one fact about a trajectory. The set of implementations is closed;
// DecodeEvent knows every one of them.
type Event interface {
	EventType() string
	Trajectory() string
	OccurredAt() time.Time
}

// Header is shared by every event. The timestamp travels outside the payload.
type Header struct {
	TrajectoryID string    `json:"trajectoryId"`
	At           time.Time `json:"-"`
}

func (h Header) Trajectory() string { return h.TrajectoryID }
func (h Header) OccurredAt() time.Time { return h.At }

type TrajectoryCreated struct {
	Header
	Intent Intent `json:"intent"`
}

type SegmentAdded struct {
	Header
	SegmentID string    `json:"segmentId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    SourceTag `json:"sourceTag"`
}

// SegmentRevised keeps the replaced content and source so the change can be read back.
type SegmentRevised struct {
	Header
	SegmentID    string    `json:"segmentId"`
	OldContent   string    `json:"oldContent"`
	NewContent   string    `json:"newContent"`
	OldSource    SourceTag `json:"oldSourceTag"`
	Source       SourceTag `json:"sourceTag"`
	DecisionID   string    `json:"decisionId"`
	Operation    Operation `json:"operation"`
	Rationale    string    `json:"rationale"`
	Alternatives []string  `json:"alternatives,omitempty"`
}

type StageAdvanced struct {
	Header
	OldStage Stage `json:"oldStage"`
	NewStage Stage `json:"newStage"`
}

type DefenseCardAdded struct {
	Header
	CardID         string   `json:"cardId"`
	SegmentID      string   `json:"segmentId"`
	Prompt         string   `json:"prompt"`
	ExpectedPoints []string `json:"expectedPoints"`
}

type DefenseStatusUpdated struct {
	Header
	CardID    string        `json:"cardId"`
	OldStatus DefenseStatus `json:"oldStatus"`
	NewStatus DefenseStatus `json:"newStatus"`
	Response  string        `json:"response"`
}

type EvidenceAttached struct {
	Header
	SegmentID string       `json:"segmentId"`
	Link      EvidenceLink `json:"link"`
}

func (TrajectoryCreated) EventType() string { return TypeTrajectoryCreated }
func (SegmentAdded) EventType() string { return TypeSegmentAdded }
func (SegmentRevised) EventType() string { return TypeSegmentRevised }
func (StageAdvanced) EventType() string { return TypeStageAdvanced }
func (DefenseCardAdded) EventType() string { return TypeDefenseCardAdded }
func (DefenseStatusUpdated) EventType() string { return TypeDefenseStatusUpdated }
func (EvidenceAttached) EventType() string { return TypeEvidenceAttached }

// DecodeEvent rebuilds an event from its stored type tag, payload and timestamp.
func DecodeEvent(eventType string, data []byte, at time.Time) (Event, error) {
	switch eventType {
	case TypeTrajectoryCreated:
		return decode[TrajectoryCreated](eventType, data, at)
	case TypeSegmentAdded:
		return decode[SegmentAdded](eventType, data, at)
	case TypeSegmentRevised:
		return decode[SegmentRevised](eventType, data, at)
	case TypeStageAdvanced:
		return decode[StageAdvanced](eventType, data, at)
	case TypeDefenseCardAdded:
		return decode[DefenseCardAdded](eventType, data, at)
	case TypeDefenseStatusUpdated:
		return decode[DefenseStatusUpdated](eventType, data, at)
	case TypeEvidenceAttached:
		return decode[EvidenceAttached](eventType, data, at)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
}

func (h *Header) stamp(at time.Time) { h.At = at }

func decode[T Event, P interface {
	*T
	stamp(time.Time)
}](eventType string, data []byte, at time.Time) (Event, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	P(&e).stamp(at)
	return e, nil
}

// EncodeEvent returns the JSON payload stored for e. The timestamp is not part of it.
func EncodeEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
