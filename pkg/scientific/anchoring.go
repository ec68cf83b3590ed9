package scientific

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AnchorCount is the before/after tally for one anchored array.
type AnchorCount struct {
	Array  string `json:"array"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// foldText lowercases, strips combining marks and collapses whitespace.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Matcher answers snippet containment against one source text. The folded
// and tokenized forms of the source are computed once.
type Matcher struct {
	folded string
	tokens []string
}

func NewMatcher(source string) *Matcher {
	return &Matcher{folded: foldText(source), tokens: tokenize(source)}
}

// Contains reports whether snippet appears in the source. The first pass is
// a folded substring test; the second slides a token window and tolerates
// ceil(n/4) near-miss positions. Token comparison in the second pass keeps
// diacritics, so two accent edits count as real distance.
func (m *Matcher) Contains(snippet string) bool {
	needle := foldText(snippet)
	if needle == "" {
		return false
	}
	if strings.Contains(m.folded, needle) {
		return true
	}

	want := tokenize(snippet)
	n := len(want)
	if n == 0 || n > len(m.tokens) {
		return false
	}
	budget := (n + 3) / 4
	for start := 0; start+n <= len(m.tokens); start++ {
		misses := 0
		for i := 0; i < n && misses <= budget; i++ {
			if !tokenMatches(want[i], m.tokens[start+i]) {
				misses++
			}
		}
		if misses <= budget {
			return true
		}
	}
	return false
}

func tokenMatches(want, got string) bool {
	if want == got {
		return true
	}
	wl, gl := len([]rune(want)), len([]rune(got))
	if wl < 4 || gl < 4 {
		return false
	}
	limit := 1
	if wl > 6 {
		limit = 2
	}
	return levenshtein(want, got) <= limit
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func anchored(item map[string]interface{}, m *Matcher, requireLocation bool) bool {
	keys := []string{"evidenceSnippet"}
	if requireLocation {
		keys = anchorRequiredKeys
	}
	for _, k := range keys {
		if isUnknownOrEmpty(item, k) {
			return false
		}
	}
	snippet, _ := stringField(item, "evidenceSnippet")
	return m.Contains(snippet)
}

// Anchor drops every item whose evidence cannot be found in source. Narrative
// arrays also need a sourceSection and pageRange; discursive items need only
// the snippet. Counts are returned per array in a fixed order.
func Anchor(b Bundle, source string) []AnchorCount {
	m := NewMatcher(source)
	var counts []AnchorCount

	for _, key := range AnchoredArrays {
		arr, ok := b.Array(key)
		if !ok {
			continue
		}
		kept := filterItems(arr, m, true)
		b[key] = kept
		counts = append(counts, AnchorCount{Array: key, Before: len(arr), After: len(kept)})
	}

	if dc, ok := b.Object("discursiveContext"); ok {
		if frames, ok := dc["frames"].([]interface{}); ok {
			kept := filterItems(frames, m, false)
			dc["frames"] = kept
			counts = append(counts, AnchorCount{Array: "discursiveContext.frames", Before: len(frames), After: len(kept)})
		}
	}
	if ds, ok := b.Object("discursiveSystem"); ok {
		for _, key := range DiscursiveSystemArrays {
			arr, ok := ds[key].([]interface{})
			if !ok {
				continue
			}
			kept := filterItems(arr, m, false)
			ds[key] = kept
			counts = append(counts, AnchorCount{Array: "discursiveSystem." + key, Before: len(arr), After: len(kept)})
		}
	}
	return counts
}

func filterItems(arr []interface{}, m *Matcher, requireLocation bool) []interface{} {
	kept := make([]interface{}, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if ok && anchored(obj, m, requireLocation) {
			kept = append(kept, item)
		}
	}
	return kept
}

// ProbeAnchored counts items that would survive Anchor without mutating b.
func ProbeAnchored(b Bundle, source string) int {
	total := 0
	for _, c := range Anchor(b.Clone(), source) {
		total += c.After
	}
	return total
}
