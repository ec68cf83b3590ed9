package writing

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Inconsistency is one finding of the coherence lens.
type Inconsistency struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

const (
	InconsistencyStructural = "Structural"
	InconsistencySemantic   = "Semantic"

	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// claimKeywordMinLen skips short function words when matching the claim.
const claimKeywordMinLen = 5

// CoherenceLens checks that the segments still talk about the core claim.
func CoherenceLens(s State) []Inconsistency {
	issues := []Inconsistency{}
	claim := strings.TrimSpace(s.Intent.CoreClaim)
	if claim == "" {
		return append(issues, Inconsistency{
			Type:        InconsistencyStructural,
			Description: "Core Claim is undefined. The trajectory lacks a central thesis.",
			Severity:    SeverityHigh,
		})
	}
	if len(s.Segments) == 0 {
		return issues
	}

	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(claim)) {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if utf8.RuneCountInString(w) >= claimKeywordMinLen {
			keywords = append(keywords, w)
		}
	}
	for _, seg := range s.Segments {
		content := strings.ToLower(seg.Content)
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				return issues
			}
		}
	}
	return append(issues, Inconsistency{
		Type:        InconsistencySemantic,
		Description: "None of the segments appear to reference key terms from the Core Claim.",
		Severity:    SeverityMedium,
	})
}

// briefSegmentRunes is the length under which a segment gets a depth challenge.
const briefSegmentRunes = 100

// DefensePrompts proposes the cards a trajectory should answer before Final:
// one global card on the core claim and one per brief segment. Ids are
// deterministic, so proposing twice yields the same cards.
func DefensePrompts(s State) []DefenseCard {
	cards := []DefenseCard{{
		CardID:    "gen-intent-" + s.ID,
		SegmentID: GlobalSegment,
		Prompt:    fmt.Sprintf("How does this work effectively address the core claim: '%s'?", s.Intent.CoreClaim),
		ExpectedDefensePoints: []string{
			"Direct evidence links",
			"Logical flow from claim to conclusion",
		},
		Status: DefensePending,
	}}
	for _, seg := range s.Segments {
		if utf8.RuneCountInString(seg.Content) >= briefSegmentRunes {
			continue
		}
		cards = append(cards, DefenseCard{
			CardID:                "gen-len-" + seg.SegmentID,
			SegmentID:             seg.SegmentID,
			Prompt:                fmt.Sprintf("Section '%s' appears brief. Can you justify its depth given the audience?", seg.Title),
			ExpectedDefensePoints: []string{},
			Status:                DefensePending,
		})
	}
	return cards
}

// QualityReport grades one revision.
type QualityReport struct {
	Warnings         []string `json:"warnings"`
	CompressionRatio float64  `json:"compressionRatio"`
	Passed           bool     `json:"passed"`
}

const (
	minCompressionRatio = 0.5
	maxListedTerms      = 3
	keyTermMinRunes     = 4
)

// RevisionQuality flags capitalised terms that disappeared and heavy cuts.
func RevisionQuality(oldContent, newContent string) QualityReport {
	report := QualityReport{Warnings: []string{}, CompressionRatio: 1, Passed: true}

	newTerms := capitalizedTerms(newContent)
	lowerNew := strings.ToLower(newContent)
	var missing []string
	for _, term := range sortedKeys(capitalizedTerms(oldContent)) {
		if newTerms[term] || strings.Contains(lowerNew, strings.ToLower(term)) {
			continue
		}
		missing = append(missing, term)
	}
	if len(missing) > 0 {
		listed := missing
		if len(listed) > maxListedTerms {
			listed = listed[:maxListedTerms]
		}
		msg := "Potential loss of key terms: " + strings.Join(listed, ", ")
		if len(missing) > maxListedTerms {
			msg += "..."
		} else {
			msg += "."
		}
		report.Warnings = append(report.Warnings, msg)
		report.Passed = false
	}

	if oldLen := utf8.RuneCountInString(oldContent); oldLen > 0 {
		report.CompressionRatio = float64(utf8.RuneCountInString(newContent)) / float64(oldLen)
		if report.CompressionRatio < minCompressionRatio {
			report.Warnings = append(report.Warnings, "Significant content reduction (compression < 50%). Check for evidence loss.")
			report.Passed = false
		}
	}
	return report
}

func capitalizedTerms(text string) map[string]bool {
	terms := map[string]bool{}
	for _, word := range strings.Fields(text) {
		word = strings.Map(func(r rune) rune {
			if unicode.IsPunct(r) {
				return -1
			}
			return r
		}, word)
		first, _ := utf8.DecodeRuneInString(word)
		if unicode.IsUpper(first) && utf8.RuneCountInString(word) >= keyTermMinRunes {
			terms[word] = true
		}
	}
	return terms
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
