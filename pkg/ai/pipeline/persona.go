package pipeline

import (
	"encoding/json"
	"strings"

	"ideawalker-core/internal/constant"
)

// Persona is a named LLM role with one system prompt.
type Persona string

const (
	AnalistaCognitivo   Persona = constant.PersonaAnalistaCognitivo
	SecretarioExecutivo Persona = constant.PersonaSecretarioExecutivo
	Brainstormer        Persona = constant.PersonaBrainstormer
	Orquestrador        Persona = constant.PersonaOrquestrador
	Tecelao             Persona = constant.PersonaTecelao
)

// DefaultPersona runs when diagnosis yields nothing usable and in fast mode.
const DefaultPersona = AnalistaCognitivo

var personaAliases = map[string]Persona{
	"analistacognitivo":   AnalistaCognitivo,
	"secretarioexecutivo": SecretarioExecutivo,
	"secretárioexecutivo": SecretarioExecutivo,
	"brainstormer":        Brainstormer,
	"orquestrador":        Orquestrador,
	"tecelao":             Tecelao,
	"tecelão":             Tecelao,
}

// ParsePersona matches a persona name case-insensitively, ignoring spaces.
func ParsePersona(name string) (Persona, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(name), ""))
	p, ok := personaAliases[key]
	return p, ok
}

// CognitiveState is the diagnosed mode of a raw thought.
type CognitiveState string

const (
	StateUnknown     CognitiveState = "Unknown"
	StateChaotic     CognitiveState = "Chaotic"
	StateDivergent   CognitiveState = "Divergent"
	StateConvergent  CognitiveState = "Convergent"
	StateIntegrative CognitiveState = "Integrative"
	StateClosing     CognitiveState = "Closing"
)

func StateFromTag(tag string) CognitiveState {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#")) {
	case "chaotic":
		return StateChaotic
	case "divergent":
		return StateDivergent
	case "structured", "convergent":
		return StateConvergent
	case "integrative":
		return StateIntegrative
	case "closing":
		return StateClosing
	default:
		return StateUnknown
	}
}

// Diagnosis is the Orquestrador's routing decision.
type Diagnosis struct {
	Sequence   []Persona `json:"sequence"`
	PrimaryTag string    `json:"primary_tag"`
}

type rawDiagnosis struct {
	Sequence   []interface{} `json:"sequence"`
	PrimaryTag interface{}   `json:"primary_tag"`
}

// ParseDiagnosis reads the routing JSON leniently. Unknown or non-string
// names are dropped, the Orquestrador never routes to itself, and an empty
// sequence falls back to DefaultPersona.
func ParseDiagnosis(text string) Diagnosis {
	d := Diagnosis{}
	body := text
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var raw rawDiagnosis
	if err := json.Unmarshal([]byte(body), &raw); err == nil {
		for _, item := range raw.Sequence {
			name, ok := item.(string)
			if !ok {
				continue
			}
			if p, ok := ParsePersona(name); ok && p != Orquestrador {
				d.Sequence = append(d.Sequence, p)
			}
		}
		if tag, ok := raw.PrimaryTag.(string); ok {
			d.PrimaryTag = strings.TrimSpace(tag)
		}
	}
	if len(d.Sequence) == 0 {
		d.Sequence = []Persona{DefaultPersona}
	}
	return d
}
