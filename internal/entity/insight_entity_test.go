package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNote = "# Título: Plano\n\n## Ações Imediatas\n- [ ] Ligar para Ana\n  - [/] Revisar capítulo\n- [x] Enviar rascunho\ntexto - [ ] não é tarefa\n"

func TestParseActionables(t *testing.T) {
	items := ParseActionables(sampleNote)
	require.Len(t, items, 3)

	assert.Equal(t, "Ligar para Ana", items[0].Description)
	assert.Equal(t, ActionableTodo, items[0].State)
	assert.Equal(t, ActionableInProgress, items[1].State)
	assert.True(t, items[2].IsCompleted())
	assert.Equal(t, 3, items[0].Line)
}

func TestToggleCyclesAndRestores(t *testing.T) {
	for idx := 0; idx < 3; idx++ {
		in := Insight{Content: sampleNote}
		before := in.Actionables()

		require.NoError(t, in.ToggleActionable(idx))
		assert.Equal(t, before[idx].State.Next(), in.Actionables()[idx].State)

		require.NoError(t, in.ToggleActionable(idx))
		require.NoError(t, in.ToggleActionable(idx))

		assert.Equal(t, before, in.Actionables())
		assert.Equal(t, sampleNote, in.Content)
	}
}

func TestTogglePreservesIndentation(t *testing.T) {
	out, err := ToggleActionableInContent(sampleNote, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "  - [x] Revisar capítulo")
}

func TestToggleOutOfRange(t *testing.T) {
	in := Insight{Content: sampleNote}
	assert.ErrorIs(t, in.ToggleActionable(3), ErrActionableIndex)
	assert.Error(t, in.ToggleActionable(-1))
	assert.Equal(t, sampleNote, in.Content)
}

func TestParseIsIdempotentThroughSerialize(t *testing.T) {
	first := ParseActionables(sampleNote)
	second := ParseActionables(SerializeActionables(first))

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Description, second[i].Description)
		assert.Equal(t, first[i].State, second[i].State)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"header", "# Título: Tensão no Segundo Caminho\n## x", "Tensão no Segundo Caminho"},
		{"later line", "intro\n#Título:   Caminhos  \n", "Caminhos"},
		{"missing", "## Sem título", DefaultInsightTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.content))
		})
	}
}

func TestClassifyByExtension(t *testing.T) {
	assert.Equal(t, SourcePDF, ClassifyByExtension("paper.PDF"))
	assert.Equal(t, SourceLaTeX, ClassifyByExtension("x.tex"))
	assert.Equal(t, SourceMarkdown, ClassifyByExtension("x.md"))
	assert.Equal(t, SourcePlainText, ClassifyByExtension("x.txt"))
	assert.Equal(t, SourceUnknown, ClassifyByExtension("x.docx"))
}
