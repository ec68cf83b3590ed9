package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type ActionableState int

const (
	ActionableTodo ActionableState = iota
	ActionableInProgress
	ActionableDone
)

func (s ActionableState) Marker() string {
	switch s {
	case ActionableInProgress:
		return "/"
	case ActionableDone:
		return "x"
	default:
		return " "
	}
}

// Next cycles todo -> in-progress -> done -> todo.
func (s ActionableState) Next() ActionableState {
	return (s + 1) % 3
}

type Actionable struct {
	Description string          `json:"description"`
	State       ActionableState `json:"state"`
	// Line is the zero-based line index inside the owning content.
	Line int `json:"line"`
}

func (a Actionable) IsCompleted() bool  { return a.State == ActionableDone }
func (a Actionable) IsInProgress() bool { return a.State == ActionableInProgress }

func (a Actionable) String() string {
	return "- [" + a.State.Marker() + "] " + a.Description
}

type InsightMetadata struct {
	Id    string   `json:"id"`
	Title string   `json:"title"`
	Date  string   `json:"date"`
	Tags  []string `json:"tags"`
}

// Insight is a processed note. Content is the single source of truth;
// actionables are always derived from it.
type Insight struct {
	Metadata InsightMetadata `json:"metadata"`
	Content  string          `json:"content"`
}

const DefaultInsightTitle = "Structured Thought"

var (
	actionableLine = regexp.MustCompile(`^(\s*)- \[([ /xX])\] (.*)$`)
	titleLine      = regexp.MustCompile(`^#\s*Título:\s*(.+?)\s*$`)
)

func (i *Insight) Actionables() []Actionable {
	return ParseActionables(i.Content)
}

// ToggleActionable advances the index-th actionable and rewrites its line in place.
func (i *Insight) ToggleActionable(index int) error {
	content, err := ToggleActionableInContent(i.Content, index)
	if err != nil {
		return err
	}
	i.Content = content
	return nil
}

func (i *Insight) HasTag(tag string) bool {
	for _, t := range i.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func ParseActionables(content string) []Actionable {
	var out []Actionable
	for n, line := range strings.Split(content, "\n") {
		m := actionableLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		out = append(out, Actionable{
			Description: m[3],
			State:       stateFromMarker(m[2]),
			Line:        n,
		})
	}
	return out
}

// SerializeActionables renders one checkbox line per actionable.
func SerializeActionables(items []Actionable) string {
	var sb strings.Builder
	for _, a := range items {
		sb.WriteString(a.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

var ErrActionableIndex = errors.New("actionable index out of range")

func ToggleActionableInContent(content string, index int) (string, error) {
	items := ParseActionables(content)
	if index < 0 || index >= len(items) {
		return content, fmt.Errorf("%w: %d of %d", ErrActionableIndex, index, len(items))
	}
	target := items[index]

	lines := strings.Split(content, "\n")
	line := lines[target.Line]
	cr := strings.HasSuffix(line, "\r")
	m := actionableLine.FindStringSubmatch(strings.TrimRight(line, "\r"))

	target.State = target.State.Next()
	rewritten := m[1] + target.String()
	if cr {
		rewritten += "\r"
	}
	lines[target.Line] = rewritten
	return strings.Join(lines, "\n"), nil
}

// ExtractTitle returns the first "# Título: ..." value, or the fallback title.
func ExtractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if m := titleLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1]
		}
	}
	return DefaultInsightTitle
}

func stateFromMarker(marker string) ActionableState {
	switch marker {
	case "/":
		return ActionableInProgress
	case "x", "X":
		return ActionableDone
	default:
		return ActionableTodo
	}
}
