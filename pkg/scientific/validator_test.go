package scientific

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cleanBundle passes both schema and epistemic validation without warnings.
func cleanBundle() Bundle {
	return Bundle{
		"schemaVersion": float64(SchemaVersion),
		"sourceProfile": map[string]interface{}{
			"studyType":       "observational",
			"temporalScale":   "short",
			"ecosystemType":   "terrestrial",
			"evidenceType":    "empirical",
			"transferability": "contextual",
		},
		"narrativeObservations": []interface{}{map[string]interface{}{
			"observation":     "Biomassa aumentou nas parcelas irrigadas.",
			"context":         "parcelas irrigadas",
			"evidenceSnippet": "biomassa aumentou",
			"sourceSection":   "Results",
			"pageRange":       "4",
			"contextuality":   "site-specific",
		}},
		"allegedMechanisms": []interface{}{map[string]interface{}{
			"mechanism":       "Disponibilidade hídrica",
			"status":          "inferred",
			"limitations":     "uma estação",
			"evidenceSnippet": "disponibilidade hídrica",
			"sourceSection":   "Discussion",
			"pageRange":       "6",
			"contextuality":   "conditional",
		}},
		"temporalWindowReferences": []interface{}{map[string]interface{}{
			"timeWindow":         "2019-2021",
			"changeRhythm":       "sazonal",
			"delaysOrHysteresis": "atraso de 2 meses",
		}},
		"baselineAssumptions": []interface{}{map[string]interface{}{
			"baselineType": "fixed",
			"description":  "linha de base 2018",
		}},
		"trajectoryAnalogies": []interface{}{},
		"interpretationLayers": map[string]interface{}{
			"observedStatements":    []interface{}{},
			"authorInterpretations": []interface{}{},
			"possibleReadings":      []interface{}{},
		},
		"source": map[string]interface{}{
			"artifactId": "20240101_120000_paper.pdf",
			"filename":   "paper.pdf",
			"ingestedAt": "2024-01-01T12:00:00Z",
			"model":      "qwen2.5:7b",
		},
	}
}

func TestValidateCleanBundlePasses(t *testing.T) {
	b := cleanBundle()
	require.Empty(t, ValidateSchema(b))

	report, seal := Validate(b)
	assert.Equal(t, StatusPass, report.Status)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, map[string]string{
		"contextuality": "ok",
		"baseline":      "ok",
		"temporal":      "ok",
		"language":      "ok",
		"mechanisms":    "ok",
		"layer":         "ok",
	}, report.Checks)
	assert.True(t, seal.ExportAllowed)
	assert.Equal(t, []string{TargetStrataCore, TargetStrataCAC}, seal.AllowedTargets)
}

func TestValidateBlocksInterpretationForStrataCore(t *testing.T) {
	b := cleanBundle()
	b["interpretationLayers"].(map[string]interface{})["authorInterpretations"] = []interface{}{"A autora deve revisar o manejo."}
	b["requestedTargets"] = []interface{}{"strata-core"}

	report, seal := Validate(b)

	assert.Equal(t, StatusBlock, report.Status)
	assert.Contains(t, report.Errors, "InterpretationLayers presentes: STRATA-Core não permitido.")
	assert.Contains(t, report.Errors, "Linguagem normativa detectada em authorInterpretations.")
	assert.Equal(t, "error", report.Checks["layer"])
	assert.Equal(t, "error", report.Checks["language"])
	assert.False(t, seal.ExportAllowed)
	assert.Empty(t, seal.AllowedTargets)
}

func TestValidateInterpretationWithoutStrataCoreOnlyWarns(t *testing.T) {
	b := cleanBundle()
	b["interpretationLayers"].(map[string]interface{})["authorInterpretations"] = []interface{}{"A autora deve revisar o manejo."}

	report, seal := Validate(b)

	assert.Equal(t, StatusPassWithWarnings, report.Status)
	assert.Equal(t, []string{"Linguagem normativa detectada em authorInterpretations."}, report.Warnings)
	assert.True(t, seal.ExportAllowed)
	assert.Equal(t, []string{TargetStrataCAC}, seal.AllowedTargets)
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b Bundle)
		check   string
		state   string
		message string
	}{
		{
			name: "observation without contextuality",
			mutate: func(b Bundle) {
				obs, _ := b.Array("narrativeObservations")
				obs[0].(map[string]interface{})["contextuality"] = "unknown"
			},
			check: "contextuality", state: "error", message: "NarrativeObservation sem contextuality.",
		},
		{
			name:   "baseline missing",
			mutate: func(b Bundle) { b["baselineAssumptions"] = []interface{}{} },
			check:  "baseline", state: "error", message: "baselineAssumptions ausente.",
		},
		{
			name: "fixed baseline on long study",
			mutate: func(b Bundle) {
				b["sourceProfile"].(map[string]interface{})["temporalScale"] = "long"
			},
			check: "baseline", state: "warning", message: "Baseline fixo em estudo de longa duração pode exigir baseline múltiplo/dinâmico.",
		},
		{
			name:   "temporal references missing",
			mutate: func(b Bundle) { delete(b, "temporalWindowReferences") },
			check:  "temporal", state: "warning", message: "temporalWindowReferences ausente.",
		},
		{
			name: "temporal reference incomplete",
			mutate: func(b Bundle) {
				tw, _ := b.Array("temporalWindowReferences")
				delete(tw[0].(map[string]interface{}), "changeRhythm")
			},
			check: "temporal", state: "error", message: "TemporalWindowReference incompleto.",
		},
		{
			name: "normative observation",
			mutate: func(b Bundle) {
				obs, _ := b.Array("narrativeObservations")
				obs[0].(map[string]interface{})["observation"] = "O manejo garante produtividade."
			},
			check: "language", state: "error", message: "Linguagem normativa detectada em observation.",
		},
		{
			name: "mechanism without limitations",
			mutate: func(b Bundle) {
				m, _ := b.Array("allegedMechanisms")
				m[0].(map[string]interface{})["limitations"] = ""
			},
			check: "mechanisms", state: "error", message: "AllegedMechanism sem limitations.",
		},
		{
			name: "tested mechanism without snippet",
			mutate: func(b Bundle) {
				m, _ := b.Array("allegedMechanisms")
				item := m[0].(map[string]interface{})
				item["status"] = "tested"
				delete(item, "evidenceSnippet")
			},
			check: "mechanisms", state: "error", message: "AllegedMechanism marcado como tested sem evidenceSnippet.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := cleanBundle()
			tt.mutate(b)
			report, seal := Validate(b)
			assert.Equal(t, tt.state, report.Checks[tt.check])
			if tt.state == "error" {
				assert.Contains(t, report.Errors, tt.message)
				assert.Equal(t, StatusBlock, report.Status)
				assert.False(t, seal.ExportAllowed)
			} else {
				assert.Contains(t, report.Warnings, tt.message)
				assert.Equal(t, StatusPassWithWarnings, report.Status)
				assert.True(t, seal.ExportAllowed)
			}
		})
	}
}

func TestVagueTimeWindowWarnsWithoutMessage(t *testing.T) {
	b := cleanBundle()
	tw, _ := b.Array("temporalWindowReferences")
	tw[0].(map[string]interface{})["timeWindow"] = "several decades"

	report, _ := Validate(b)
	assert.Equal(t, "warning", report.Checks["temporal"])
	assert.Empty(t, report.Warnings)
	assert.Equal(t, StatusPass, report.Status)
}

func TestValidateIsDeterministic(t *testing.T) {
	b := cleanBundle()
	b["baselineAssumptions"] = []interface{}{}
	b["requestedTargets"] = []interface{}{"STRATA-Core"}
	b["interpretationLayers"].(map[string]interface{})["possibleReadings"] = []interface{}{"leitura"}
	before := b.Clone()

	r1, s1 := Validate(b)
	r2, s2 := Validate(b)

	assert.Empty(t, cmp.Diff(r1, r2))
	assert.Empty(t, cmp.Diff(s1, s2))
	assert.Empty(t, cmp.Diff(before, b), "validation never mutates the bundle")
}

func TestValidateSchema(t *testing.T) {
	b := cleanBundle()
	b["schemaVersion"] = float64(2)
	b["sourceProfile"].(map[string]interface{})["studyType"] = "anecdotal"
	delete(b, "trajectoryAnalogies")
	m, _ := b.Array("allegedMechanisms")
	m[0].(map[string]interface{})["status"] = "proven"
	b["discursiveContext"] = []interface{}{}

	assert.Equal(t, []string{
		"schemaVersion incompatível",
		"studyType inválido",
		"trajectoryAnalogies ausente ou inválido",
		"allegedMechanisms.status inválido",
		"discursiveContext deve ser um objeto",
	}, ValidateSchema(b))

	assert.Equal(t, []string{
		"schemaVersion ausente ou inválido",
		"sourceProfile ausente ou inválido",
		"narrativeObservations ausente ou inválido",
		"allegedMechanisms ausente ou inválido",
		"temporalWindowReferences ausente ou inválido",
		"baselineAssumptions ausente ou inválido",
		"trajectoryAnalogies ausente ou inválido",
		"interpretationLayers ausente ou inválido",
	}, ValidateSchema(Bundle{}))
}
