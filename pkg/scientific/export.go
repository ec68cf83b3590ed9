package scientific

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"ideawalker-core/internal/pkg/fsutil"
)

const (
	FileSourceProfile     = "SourceProfile.json"
	FileBundle            = "IWBundle.json"
	FileMechanisms        = "AllegedMechanisms.json"
	FileTemporalWindows   = "TemporalWindowReference.json"
	FileBaselines         = "BaselineAssumptions.json"
	FileAnalogies         = "TrajectoryAnalogies.json"
	FileInterpretations   = "InterpretationLayers.json"
	FileNarrative         = "NarrativeObservation.json"
	FileDiscursiveContext = "DiscursiveContext.json"
	FileDiscursiveSystem  = "DiscursiveSystem.json"
	FileValidationReport  = "EpistemicValidationReport.json"
	FileExportSeal        = "ExportSeal.json"
	FileManifest          = "Manifest.json"
	ProjectManifestName   = "STRATA_Manifest.json"
)

// Downstream enum codes.
const (
	sourceTypeArticle       = 3
	sourceTypeReport        = 4
	temporalContemporary    = 3
	descriptiveRecordIntent = 0
)

var ErrExportNotAllowed = errors.New("export not allowed by epistemic seal")

type file struct {
	name string
	body interface{}
}

// envelope is the minimal wrapper every consumable carries.
func envelope(source map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"schemaVersion": SchemaVersion,
		"source":        source,
	}
}

func withField(source map[string]interface{}, key string, value interface{}) map[string]interface{} {
	e := envelope(source)
	if value == nil {
		value = []interface{}{}
	}
	e[key] = value
	return e
}

// flatten renders any JSON value as a string for string-only metadata maps.
func flatten(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func sourceString(src map[string]interface{}, key string) string {
	if s, ok := src[key].(string); ok && s != "" {
		return s
	}
	return Unknown
}

// NarrativeEnvelope maps narrative observations to state candidates.
func NarrativeEnvelope(b Bundle) map[string]interface{} {
	src := b.Source()
	arr, _ := b.Array("narrativeObservations")
	history := make([]interface{}, 0, len(arr))
	artifactID := sourceString(src, "artifactId")

	for i, obs := range objects(arr) {
		meta := map[string]interface{}{}
		for k, v := range obs {
			meta[k] = flatten(v)
		}
		meta["schemaVersion"] = strconv.Itoa(SchemaVersion)
		for _, k := range []string{"artifactId", "contentHash", "filename", "ingestedAt", "model", "path"} {
			if v, ok := src[k]; ok {
				meta[k] = flatten(v)
			}
		}

		label := Unknown
		if c, ok := stringField(obs, "context"); ok && c != "" {
			label = c
		}
		description, _ := stringField(obs, "observation")

		history = append(history, map[string]interface{}{
			"id": fmt.Sprintf("candidate_%s_%d", artifactID, i+1),
			"source": map[string]interface{}{
				"type":           sourceTypeArticle,
				"sourceId":       artifactID,
				"productionDate": sourceString(src, "ingestedAt"),
				"author":         Unknown,
			},
			"intent":          map[string]interface{}{"type": descriptiveRecordIntent},
			"temporalContext": map[string]interface{}{"category": temporalContemporary, "label": label},
			"axes": []interface{}{map[string]interface{}{
				"label":       "extracted_theme",
				"description": description,
				"level":       0,
			}},
			"spatialScope": map[string]interface{}{"type": 0},
			"metadata":     meta,
		})
	}
	return map[string]interface{}{"history": history}
}

// ValidateNarrativeEnvelope checks the shape downstream readers rely on.
func ValidateNarrativeEnvelope(env map[string]interface{}) error {
	history, ok := env["history"].([]interface{})
	if !ok {
		return errors.New("narrative envelope: 'history' missing or not an array")
	}
	for _, item := range history {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return errors.New("narrative envelope: history item is not an object")
		}
		meta, ok := obj["metadata"].(map[string]interface{})
		if !ok {
			return errors.New("narrative envelope: metadata missing or not an object")
		}
		for _, v := range meta {
			if _, ok := v.(string); !ok {
				return errors.New("narrative envelope: metadata must hold only strings")
			}
		}
	}
	return nil
}

// statementsFrom accepts plain strings, objects with "statement", or the
// first non-empty fallback key.
func statementsFrom(arr []interface{}, fallback ...string) []interface{} {
	out := []interface{}{}
	for _, item := range arr {
		var text string
		switch t := item.(type) {
		case string:
			text = t
		case map[string]interface{}:
			if s, ok := stringField(t, "statement"); ok {
				text = s
				break
			}
			for _, k := range fallback {
				if s, ok := stringField(t, k); ok && s != "" {
					text = s
					break
				}
			}
		}
		if text != "" {
			out = append(out, map[string]interface{}{"statement": text})
		}
	}
	return out
}

// DiscursiveEnvelope builds the single discursive-system candidate. It
// returns nil when there is nothing meaningful to export.
func DiscursiveEnvelope(b Bundle, artifactID string) map[string]interface{} {
	src := b.Source()
	interp := map[string]interface{}{"context": "scientific_ingestion"}
	for _, k := range []string{"filename", "model"} {
		if v, ok := src[k]; ok {
			interp[k] = flatten(v)
		}
	}

	mechArr, _ := b.Array("allegedMechanisms")
	mechanisms := statementsFrom(mechArr, "mechanism")
	if evidence := objects(mechArr); len(evidence) > 0 {
		interp["allegedMechanismsEvidence"] = flatten(evidence)
	}
	if dc, ok := b.Object("discursiveContext"); ok {
		interp["discursiveContext"] = flatten(dc)
	}

	system := map[string]interface{}{
		"id": "ds_candidate_" + artifactID,
		"sourceReferences": []interface{}{map[string]interface{}{
			"type":           sourceTypeReport,
			"sourceId":       sourceString(src, "artifactId"),
			"productionDate": sourceString(src, "ingestedAt"),
			"author":         Unknown,
		}},
		"temporalContext":        map[string]interface{}{"category": temporalContemporary, "label": "general"},
		"allegedMechanisms":      mechanisms,
		"interpretationMetadata": interp,
		"declaredProblems":       []interface{}{},
		"declaredActions":        []interface{}{},
		"expectedEffects":        []interface{}{},
	}
	if ds, ok := b.Object("discursiveSystem"); ok {
		fallbacks := map[string][]string{
			"declaredProblems": {"problem", "declaredProblem"},
			"declaredActions":  {"action", "declaredAction"},
			"expectedEffects":  {"effect", "expectedEffect"},
		}
		for _, key := range DiscursiveSystemArrays {
			if arr, ok := ds[key].([]interface{}); ok {
				system[key] = statementsFrom(arr, fallbacks[key]...)
			}
		}
	}

	if len(mechanisms) == 0 &&
		len(system["declaredProblems"].([]interface{})) == 0 &&
		len(system["declaredActions"].([]interface{})) == 0 {
		return nil
	}
	return map[string]interface{}{"systems": []interface{}{system}}
}

func ValidateDiscursiveEnvelope(env map[string]interface{}) error {
	systems, ok := env["systems"].([]interface{})
	if !ok {
		return errors.New("discursive envelope: 'systems' missing or not an array")
	}
	for _, raw := range systems {
		sys, ok := raw.(map[string]interface{})
		if !ok {
			return errors.New("discursive envelope: system is not an object")
		}
		if rawMeta, present := sys["interpretationMetadata"]; present {
			meta, ok := rawMeta.(map[string]interface{})
			if !ok {
				return errors.New("discursive envelope: interpretationMetadata is not an object")
			}
			for _, v := range meta {
				if _, ok := v.(string); !ok {
					return errors.New("discursive envelope: interpretationMetadata must hold only strings")
				}
			}
		}
		for _, key := range []string{"declaredProblems", "declaredActions", "allegedMechanisms", "expectedEffects"} {
			arr, ok := sys[key].([]interface{})
			if !ok {
				continue
			}
			for _, item := range arr {
				obj, ok := item.(map[string]interface{})
				if !ok {
					return errors.New("discursive envelope: items must carry a string 'statement'")
				}
				if _, ok := obj["statement"].(string); !ok {
					return errors.New("discursive envelope: items must carry a string 'statement'")
				}
			}
		}
	}
	return nil
}

// ManifestEntry records one consumable file as found on disk.
type ManifestEntry struct {
	Name      string `json:"name"`
	Exists    bool   `json:"exists"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Export writes the consumable tree for one artifact. Nothing is written
// unless the seal allows it, and envelopes are validated before the first
// file lands on disk.
func Export(consumablesDir, artifactID string, b Bundle, report Report, seal Seal) ([]string, error) {
	if !seal.ExportAllowed {
		return nil, ErrExportNotAllowed
	}
	src := b.Source()
	if src == nil {
		return nil, errors.New("bundle has no source metadata")
	}

	layers, _ := b.Object("interpretationLayers")
	files := []file{
		{FileSourceProfile, withField(src, "sourceProfile", b["sourceProfile"])},
		{FileBundle, withField(src, "bundle", b)},
		{FileMechanisms, withField(src, "allegedMechanisms", b["allegedMechanisms"])},
		{FileTemporalWindows, withField(src, "temporalWindowReferences", b["temporalWindowReferences"])},
		{FileBaselines, withField(src, "baselineAssumptions", b["baselineAssumptions"])},
		{FileAnalogies, withField(src, "trajectoryAnalogies", b["trajectoryAnalogies"])},
		{FileInterpretations, withField(src, "interpretationLayers", layers)},
	}

	if arr, ok := b.Array("narrativeObservations"); ok && len(arr) > 0 {
		env := NarrativeEnvelope(b)
		if err := ValidateNarrativeEnvelope(env); err != nil {
			return nil, err
		}
		env["schemaVersion"] = SchemaVersion
		files = append(files, file{FileNarrative, env})
	}
	if dc, ok := b["discursiveContext"]; ok {
		files = append(files, file{FileDiscursiveContext, withField(src, "discursiveContext", dc)})
	}
	if env := DiscursiveEnvelope(b, artifactID); env != nil {
		if err := ValidateDiscursiveEnvelope(env); err != nil {
			return nil, err
		}
		env["schemaVersion"] = SchemaVersion
		files = append(files, file{FileDiscursiveSystem, env})
	}
	files = append(files,
		file{FileValidationReport, withField(src, "report", report)},
		file{FileExportSeal, withField(src, "seal", seal)},
	)

	dir := filepath.Join(consumablesDir, artifactID)
	names := make([]string, 0, len(files)+1)
	for _, f := range files {
		if err := fsutil.WriteJSON(filepath.Join(dir, f.name), f.body); err != nil {
			return nil, err
		}
		names = append(names, f.name)
	}

	manifest := envelope(src)
	manifest["files"] = manifestEntries(dir, names)
	for _, k := range []string{"artifactId", "filename", "extractionMethod", "contentHash", "ingestedAt", "sizeBytes"} {
		if v, ok := src[k]; ok {
			manifest[k] = v
		}
	}
	if err := fsutil.WriteJSON(filepath.Join(dir, FileManifest), manifest); err != nil {
		return nil, err
	}
	return append(names, FileManifest), nil
}

func manifestEntries(dir string, names []string) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(names))
	for _, n := range names {
		e := ManifestEntry{Name: n}
		if info, err := os.Stat(filepath.Join(dir, n)); err == nil {
			e.Exists = true
			e.SizeBytes = info.Size()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
