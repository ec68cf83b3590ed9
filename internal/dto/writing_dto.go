package dto

import "ideawalker-core/pkg/writing"

type CreateTrajectoryRequest struct {
	// Id is optional; a uuid is generated when empty.
	Id          string `json:"id" validate:"omitempty,max=64,excludesall=/."`
	Purpose     string `json:"purpose" validate:"required"`
	Audience    string `json:"audience" validate:"required"`
	CoreClaim   string `json:"coreClaim"`
	Constraints string `json:"constraints"`
}

type AddSegmentRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

type AddSegmentResponse struct {
	SegmentId string `json:"segmentId"`
}

type ReviseSegmentRequest struct {
	Content      string   `json:"content"`
	Operation    string   `json:"operation" validate:"required"`
	Rationale    string   `json:"rationale" validate:"required"`
	Source       string   `json:"source"`
	Alternatives []string `json:"alternatives"`
}

// ReviseSegmentResponse carries the recorded decision and an advisory quality report.
type ReviseSegmentResponse struct {
	Decision writing.RevisionDecision `json:"decision"`
	Quality  writing.QualityReport    `json:"quality"`
}

type AdvanceStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type AddDefenseCardRequest struct {
	CardId         string   `json:"cardId"`
	SegmentId      string   `json:"segmentId"`
	Prompt         string   `json:"prompt" validate:"required"`
	ExpectedPoints []string `json:"expectedPoints"`
}

type AddDefenseCardResponse struct {
	CardId string `json:"cardId"`
}

type UpdateDefenseStatusRequest struct {
	Status   string `json:"status" validate:"required"`
	Response string `json:"response"`
}

type AttachEvidenceRequest struct {
	Type        string  `json:"type" validate:"required"`
	RefId       string  `json:"refId" validate:"required"`
	ClaimAnchor string  `json:"claimAnchor"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=1"`
}

type TrajectorySummary struct {
	Id           string        `json:"id"`
	Stage        writing.Stage `json:"stage"`
	CoreClaim    string        `json:"coreClaim"`
	SegmentCount int           `json:"segmentCount"`
	Version      int           `json:"version"`
}
