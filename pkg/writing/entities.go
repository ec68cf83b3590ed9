package writing

import "time"

// EvidenceLink ties a segment to a source that supports it.
type EvidenceLink struct {
	Type        RefType `json:"type"`
	RefID       string  `json:"refId"`
	ClaimAnchor string  `json:"claimAnchor,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// DraftSegment is a versioned unit of text. Version starts at 1 and grows
// with every content update.
type DraftSegment struct {
	SegmentID     string         `json:"segmentId"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Source        SourceTag      `json:"source"`
	Version       int            `json:"version"`
	LastModified  time.Time      `json:"lastModified"`
	EvidenceLinks []EvidenceLink `json:"evidenceLinks"`
}

func (s DraftSegment) clone() DraftSegment {
	s.EvidenceLinks = append([]EvidenceLink{}, s.EvidenceLinks...)
	return s
}

// RevisionDecision is the recorded reason behind a text change.
type RevisionDecision struct {
	DecisionID             string    `json:"decisionId"`
	TargetSegmentID        string    `json:"targetSegmentId"`
	Operation              Operation `json:"operation"`
	Rationale              string    `json:"rationale"`
	AlternativesConsidered []string  `json:"alternativesConsidered"`
	Timestamp              time.Time `json:"timestamp"`
}

func (d RevisionDecision) clone() RevisionDecision {
	d.AlternativesConsidered = append([]string{}, d.AlternativesConsidered...)
	return d
}

// GlobalSegment marks a defense card that is not tied to one segment.
const GlobalSegment = "global"

type DefenseCard struct {
	CardID                string        `json:"cardId"`
	SegmentID             string        `json:"segmentId"`
	Prompt                string        `json:"prompt"`
	ExpectedDefensePoints []string      `json:"expectedDefensePoints"`
	Status                DefenseStatus `json:"status"`
	UserResponse          string        `json:"userResponse"`
}

func (c DefenseCard) clone() DefenseCard {
	c.ExpectedDefensePoints = append([]string{}, c.ExpectedDefensePoints...)
	return c
}
