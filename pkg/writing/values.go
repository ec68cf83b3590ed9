package writing

import (
	"strings"
)

// Stage is the maturity of a trajectory. Stages only move forward, one at a time.
type Stage string

const (
	StageIntent          Stage = "Intent"
	StageOutline         Stage = "Outline"
	StageDrafting        Stage = "Drafting"
	StageRevising        Stage = "Revising"
	StageConsolidating   Stage = "Consolidating"
	StageReadyForDefense Stage = "ReadyForDefense"
	StageFinal           Stage = "Final"
)

var stageOrder = []Stage{
	StageIntent,
	StageOutline,
	StageDrafting,
	StageRevising,
	StageConsolidating,
	StageReadyForDefense,
	StageFinal,
}

// Stages lists every stage in order.
func Stages() []Stage {
	return append([]Stage(nil), stageOrder...)
}

// Rank is the position of s in the stage order, or -1 when s is not a stage.
func (s Stage) Rank() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.Rank() >= 0 }

// Next returns the following stage. Final is its own successor.
func (s Stage) Next() Stage {
	r := s.Rank()
	if r < 0 || r == len(stageOrder)-1 {
		return StageFinal
	}
	return stageOrder[r+1]
}

// Intent states the why and the who of the text.
type Intent struct {
	Purpose     string `json:"purpose"`
	Audience    string `json:"audience"`
	CoreClaim   string `json:"coreClaim"`
	Constraints string `json:"constraints"`
}

func NewIntent(purpose, audience, coreClaim, constraints string) (Intent, error) {
	i := Intent{Purpose: purpose, Audience: audience, CoreClaim: coreClaim, Constraints: constraints}
	if !i.Valid() {
		return Intent{}, ErrInvalidIntent
	}
	return i, nil
}

// Valid requires a purpose and an audience.
func (i Intent) Valid() bool {
	return strings.TrimSpace(i.Purpose) != "" && strings.TrimSpace(i.Audience) != ""
}

// SourceTag records who wrote a piece of content.
type SourceTag string

const (
	SourceHuman         SourceTag = "human"
	SourceAiAssisted    SourceTag = "ai_assisted"
	SourceAiGenerated   SourceTag = "ai_generated"
	SourceHumanReviewed SourceTag = "human_reviewed"
)

func (t SourceTag) Valid() bool {
	switch t {
	case SourceHuman, SourceAiAssisted, SourceAiGenerated, SourceHumanReviewed:
		return true
	}
	return false
}

// ParseSourceTag accepts both the wire form ("ai_assisted") and the
// display form ("AiAssisted"). Empty input means human.
func ParseSourceTag(s string) (SourceTag, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "", "human":
		return SourceHuman, nil
	case "aiassisted":
		return SourceAiAssisted, nil
	case "aigenerated":
		return SourceAiGenerated, nil
	case "humanreviewed":
		return SourceHumanReviewed, nil
	}
	return "", ErrInvalidSourceTag
}

// Operation is the kind of change a revision makes.
type Operation string

const (
	OpClarify    Operation = "clarify"
	OpCompress   Operation = "compress"
	OpExpand     Operation = "expand"
	OpReorganize Operation = "reorganize"
	OpCite       Operation = "cite"
	OpRemove     Operation = "remove"
	OpReframe    Operation = "reframe"
	OpCorrection Operation = "correction"
)

var operations = []Operation{OpClarify, OpCompress, OpExpand, OpReorganize, OpCite, OpRemove, OpReframe, OpCorrection}

func (o Operation) Valid() bool {
	for _, op := range operations {
		if op == o {
			return true
		}
	}
	return false
}

// ParseOperation is case-insensitive.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", ErrInvalidOperation
	}
	return op, nil
}

// DefenseStatus advances Pending -> Rehearsed -> Passed and never back.
type DefenseStatus string

const (
	DefensePending   DefenseStatus = "Pending"
	DefenseRehearsed DefenseStatus = "Rehearsed"
	DefensePassed    DefenseStatus = "Passed"
)

func (s DefenseStatus) Rank() int {
	switch s {
	case DefensePending:
		return 0
	case DefenseRehearsed:
		return 1
	case DefensePassed:
		return 2
	}
	return -1
}

func ParseDefenseStatus(s string) (DefenseStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return DefensePending, nil
	case "rehearsed":
		return DefenseRehearsed, nil
	case "passed":
		return DefensePassed, nil
	}
	return "", ErrInvalidDefenseStatus
}

// RefType says what an evidence link points at.
type RefType string

const (
	RefNote      RefType = "note"
	RefPdf       RefType = "pdf"
	RefDoi       RefType = "doi"
	RefUrl       RefType = "url"
	RefInterview RefType = "interview"
	RefDataset   RefType = "dataset"
	RefOther     RefType = "other"
)

func (r RefType) Valid() bool {
	switch r {
	case RefNote, RefPdf, RefDoi, RefUrl, RefInterview, RefDataset, RefOther:
		return true
	}
	return false
}
