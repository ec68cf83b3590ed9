package embedding

import (
	"fmt"
	"math"
	"sort"
)

const (
	SimilarityThreshold = 0.80
	MaxSuggestions      = 5
	ReasonSemantic      = "Similaridade Semântica"
)

type Reason struct {
	Kind     string `json:"kind"`
	Evidence string `json:"evidence"`
}

// Suggestion links the active note to a semantically close one.
type Suggestion struct {
	ID       string   `json:"id"`
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Score    float64  `json:"score"`
	Reasons  []Reason `json:"reasons"`
}

// Cosine returns 0 for mismatched or zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank keeps candidates above SimilarityThreshold, best first, at most
// MaxSuggestions. Ties break on target id.
func Rank(activeID string, active []float32, candidates map[string][]float32) []Suggestion {
	var out []Suggestion
	for id, vec := range candidates {
		if id == activeID {
			continue
		}
		score := Cosine(active, vec)
		if score <= SimilarityThreshold {
			continue
		}
		out = append(out, Suggestion{
			ID:       activeID + "_" + id,
			SourceID: activeID,
			TargetID: id,
			Score:    score,
			Reasons:  []Reason{{Kind: ReasonSemantic, Evidence: fmt.Sprintf("%d%%", int(score*100))}},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TargetID < out[j].TargetID
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
