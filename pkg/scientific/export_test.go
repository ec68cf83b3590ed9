package scientific

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readJSON(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestExportWritesConsumables(t *testing.T) {
	dir := t.TempDir()
	b := cleanBundle()
	b["discursiveSystem"] = map[string]interface{}{
		"declaredProblems": []interface{}{
			map[string]interface{}{"statement": "erosão", "evidenceSnippet": "erosão"},
			map[string]interface{}{"problem": "seca"},
			"assoreamento",
			map[string]interface{}{"other": 1},
		},
	}
	report, seal := Validate(b)
	require.True(t, seal.ExportAllowed)

	const id = "20240101_120000_paper.pdf"
	names, err := Export(dir, id, b, report, seal)
	require.NoError(t, err)
	assert.Contains(t, names, FileNarrative)
	assert.Contains(t, names, FileDiscursiveSystem)
	assert.NotContains(t, names, FileDiscursiveContext)

	for _, n := range names {
		doc := readJSON(t, filepath.Join(dir, id, n))
		assert.EqualValues(t, SchemaVersion, doc["schemaVersion"], n)
	}

	narrative := readJSON(t, filepath.Join(dir, id, FileNarrative))
	require.NoError(t, ValidateNarrativeEnvelope(narrative))
	history := narrative["history"].([]interface{})
	require.Len(t, history, 1)
	candidate := history[0].(map[string]interface{})
	assert.Equal(t, "candidate_"+id+"_1", candidate["id"])
	meta := candidate["metadata"].(map[string]interface{})
	assert.Equal(t, "1", meta["schemaVersion"])
	assert.Equal(t, "paper.pdf", meta["filename"])

	ds := readJSON(t, filepath.Join(dir, id, FileDiscursiveSystem))
	require.NoError(t, ValidateDiscursiveEnvelope(ds))
	system := ds["systems"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, []interface{}{
		map[string]interface{}{"statement": "erosão"},
		map[string]interface{}{"statement": "seca"},
		map[string]interface{}{"statement": "assoreamento"},
	}, system["declaredProblems"])
	interp := system["interpretationMetadata"].(map[string]interface{})
	assert.Contains(t, interp["allegedMechanismsEvidence"], "Disponibilidade hídrica")

	manifest := readJSON(t, filepath.Join(dir, id, FileManifest))
	assert.Equal(t, id, manifest["artifactId"])
	files := manifest["files"].([]interface{})
	assert.Len(t, files, len(names)-1)
	for _, f := range files {
		entry := f.(map[string]interface{})
		assert.Equal(t, true, entry["exists"])
		assert.Greater(t, entry["sizeBytes"].(float64), float64(0))
	}
}

func TestExportRefusesWithoutSeal(t *testing.T) {
	dir := t.TempDir()
	b := cleanBundle()
	b["baselineAssumptions"] = []interface{}{}
	report, seal := Validate(b)
	require.False(t, seal.ExportAllowed)

	_, err := Export(dir, "x_paper.pdf", b, report, seal)
	assert.ErrorIs(t, err, ErrExportNotAllowed)
	_, statErr := os.Stat(filepath.Join(dir, "x_paper.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiscursiveEnvelopeValidator(t *testing.T) {
	assert.Error(t, ValidateDiscursiveEnvelope(map[string]interface{}{}))
	assert.Error(t, ValidateDiscursiveEnvelope(map[string]interface{}{
		"systems": []interface{}{map[string]interface{}{
			"interpretationMetadata": map[string]interface{}{"n": 1.0},
		}},
	}))
	assert.Error(t, ValidateDiscursiveEnvelope(map[string]interface{}{
		"systems": []interface{}{map[string]interface{}{
			"declaredActions": []interface{}{map[string]interface{}{"action": "x"}},
		}},
	}))
	assert.Nil(t, DiscursiveEnvelope(Bundle{}, "id"))
}

func TestLayoutErrorsPurgeAndProjectManifest(t *testing.T) {
	root := t.TempDir()
	l := NewLayout(filepath.Join(root, "observations"), filepath.Join(root, "consumables"))
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	id := ArtifactID(at, "paper.pdf")
	assert.Equal(t, "20240301_093000_paper.pdf", id)

	path, err := l.SaveError(id, SuffixNarrative, "narrative", "not json {", nil, at)
	require.NoError(t, err)
	payload := readJSON(t, path)
	assert.Equal(t, id+SuffixNarrative, payload["artifactId"])
	assert.Equal(t, id, payload["artifactIdBase"])
	assert.Equal(t, "text", payload["payloadType"])

	_, err = l.SaveError(id, SuffixSchema, "schema", `{"a":1}`, []string{"sourceProfile ausente ou inválido"}, at)
	require.NoError(t, err)

	b := cleanBundle()
	require.NoError(t, l.SaveBundle(id, b))
	report, seal := Validate(b)
	require.NoError(t, l.SaveValidation(id, report, seal, at))
	_, err = Export(l.ConsumablesDir, id, b, report, seal)
	require.NoError(t, err)
	assert.Equal(t, 1, l.BundlesCount())

	summary, err := l.LatestValidation()
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, StatusPass, summary.Status)
	assert.True(t, summary.ExportAllowed)

	m, err := l.WriteProjectManifest(at)
	require.NoError(t, err)
	require.Len(t, m.Articles, 1)
	assert.Equal(t, "paper.pdf", m.Articles[0].Filename)
	require.Len(t, m.Errors, 2)
	for _, e := range m.Errors {
		assert.Equal(t, id, e.ArtifactIDBase)
	}
	assert.FileExists(t, filepath.Join(l.ConsumablesDir, ProjectManifestName))

	other := ArtifactID(at, "other.pdf")
	require.NoError(t, l.SaveBundle(other, b))

	removed, err := l.Purge("paper.pdf")
	require.NoError(t, err)
	assert.Len(t, removed, 5)
	assert.Equal(t, 1, l.BundlesCount())
	assert.NoDirExists(t, l.ArtifactDir(id))
}
