package pipeline

import (
	"context"
	"testing"
	"time"

	"ideawalker-core/internal/constant"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateCall struct {
	System    string
	User      string
	ForceJSON bool
}

// scriptedClient answers by system prompt; a missing entry means no result.
type scriptedClient struct {
	replies map[string]string
	calls   []generateCall
}

func (c *scriptedClient) Generate(ctx context.Context, system, user string, forceJSON bool) (string, bool) {
	c.calls = append(c.calls, generateCall{System: system, User: user, ForceJSON: forceJSON})
	out, ok := c.replies[system]
	return out, ok
}

func (c *scriptedClient) Chat(ctx context.Context, history []llm.Message, forceJSON bool) (string, bool) {
	return "", false
}

func (c *scriptedClient) Embed(ctx context.Context, text string) []float32 { return nil }

func (c *scriptedClient) CurrentModel() string { return "test-model" }

const rawThought = "Hoje tentei três caminhos mas travei no segundo."

func newTestOrchestrator(client llm.Client) *Orchestrator {
	o := NewOrchestrator(client, constant.NewPromptCatalog(), logger.NewNopLogger())
	o.now = func() time.Time { return time.Unix(1700000000, 0) }
	return o
}

func TestProcessHappyPath(t *testing.T) {
	client := &scriptedClient{replies: map[string]string{
		constant.OrquestradorPrompt:      `{"sequence":["Brainstormer","AnalistaCognitivo"],"primary_tag":"#Divergent"}`,
		constant.BrainstormerPrompt:      "# Título: Caminhos Bifurcados\n\n## Sementes de Ideia\n- três caminhos",
		constant.AnalistaCognitivoPrompt: "# Título: Tensão no Segundo Caminho\n\n## Tensão Central\ntravar",
	}}
	var statuses []string

	res, err := newTestOrchestrator(client).Process(context.Background(), rawThought, false, func(s string) {
		statuses = append(statuses, s)
	})

	require.NoError(t, err)
	insight := res.Insight
	assert.Equal(t, "Tensão no Segundo Caminho", insight.Metadata.Title)
	assert.Equal(t, client.replies[constant.AnalistaCognitivoPrompt], insight.Content)
	assert.Contains(t, insight.Metadata.Tags, TagAutoGenerated)
	assert.Contains(t, insight.Metadata.Tags, TagOrchestrated)
	assert.Contains(t, insight.Metadata.Tags, "#Divergent")
	assert.Equal(t, "1700000000", insight.Metadata.Id)

	require.Len(t, client.calls, 3)
	assert.True(t, client.calls[0].ForceJSON)
	assert.Equal(t, rawThought, client.calls[1].User)
	assert.Equal(t, client.replies[constant.BrainstormerPrompt], client.calls[2].User, "each persona reads the previous output")

	require.Len(t, res.Snapshots, 2)
	assert.Equal(t, Brainstormer, res.Snapshots[0].Persona)
	assert.Equal(t, StateDivergent, res.Snapshots[1].State)
	assert.Len(t, statuses, 3)
}

func TestProcessDiagnoseFallback(t *testing.T) {
	client := &scriptedClient{replies: map[string]string{
		constant.OrquestradorPrompt:      `{"sequence":[],"primary_tag":""}`,
		constant.AnalistaCognitivoPrompt: "# Título: Único\ncorpo",
	}}

	res, err := newTestOrchestrator(client).Process(context.Background(), rawThought, false, nil)

	require.NoError(t, err)
	require.Len(t, client.calls, 2)
	assert.Equal(t, constant.AnalistaCognitivoPrompt, client.calls[1].System)
	assert.Equal(t, []string{"#AutoGenerated", "#Orchestrated"}, res.Insight.Metadata.Tags)
}

func TestProcessFastModeSkipsDiagnose(t *testing.T) {
	client := &scriptedClient{replies: map[string]string{
		constant.AnalistaCognitivoPrompt: "sem título",
	}}

	res, err := newTestOrchestrator(client).Process(context.Background(), rawThought, true, nil)

	require.NoError(t, err)
	require.Len(t, client.calls, 1)
	assert.Nil(t, res.Diagnosis)
	assert.Equal(t, []string{"#AutoGenerated"}, res.Insight.Metadata.Tags)
	assert.Equal(t, "Structured Thought", res.Insight.Metadata.Title)
}

func TestProcessAbortsOnEmptyResponse(t *testing.T) {
	tests := []struct {
		name    string
		replies map[string]string
		calls   int
	}{
		{"diagnose fails", map[string]string{}, 1},
		{"second persona empty", map[string]string{
			constant.OrquestradorPrompt:        `{"sequence":["Brainstormer","SecretarioExecutivo"]}`,
			constant.BrainstormerPrompt:        "# Título: X",
			constant.SecretarioExecutivoPrompt: "   ",
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{replies: tt.replies}
			res, err := newTestOrchestrator(client).Process(context.Background(), rawThought, false, nil)
			assert.ErrorIs(t, err, ErrNoResponse)
			assert.Nil(t, res)
			assert.Len(t, client.calls, tt.calls)
		})
	}
}

func TestParseDiagnosis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Diagnosis
	}{
		{
			name: "accented and unknown names",
			in:   "Diagnóstico:\n{\"sequence\":[\"Tecelão\",\"Poeta\",7,\"secretario executivo\"],\"primary_tag\":\" #Closing \"}",
			want: Diagnosis{Sequence: []Persona{Tecelao, SecretarioExecutivo}, PrimaryTag: "#Closing"},
		},
		{
			name: "orchestrator never routes to itself",
			in:   `{"sequence":["Orquestrador"],"primary_tag":"#Chaotic"}`,
			want: Diagnosis{Sequence: []Persona{AnalistaCognitivo}, PrimaryTag: "#Chaotic"},
		},
		{
			name: "not json",
			in:   "não sei",
			want: Diagnosis{Sequence: []Persona{AnalistaCognitivo}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDiagnosis(tt.in))
		})
	}
}
