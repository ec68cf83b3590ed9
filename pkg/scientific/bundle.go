package scientific

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Bundle is the merged JSON product of extraction. It stays a generic JSON
// object: model output is loose, and unknown fields must survive export.
type Bundle map[string]interface{}

var ErrNoJSONObject = errors.New("no JSON object found")

// ParseBundle accepts raw model output. Markdown fences and chatter around
// the outermost object are tolerated.
func ParseBundle(text string) (Bundle, error) {
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSONObject
	}

	var b Bundle
	if err := json.Unmarshal([]byte(body[start:end+1]), &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	return b, nil
}

// Clone deep-copies through JSON so callers never alias nested maps.
func (b Bundle) Clone() Bundle {
	data, err := json.Marshal(b)
	if err != nil {
		return Bundle{}
	}
	var out Bundle
	_ = json.Unmarshal(data, &out)
	return out
}

func (b Bundle) Array(key string) ([]interface{}, bool) {
	v, ok := b[key].([]interface{})
	return v, ok
}

func (b Bundle) Object(key string) (map[string]interface{}, bool) {
	v, ok := b[key].(map[string]interface{})
	return v, ok
}

func (b Bundle) SchemaVersion() (int, bool) {
	f, ok := b["schemaVersion"].(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func (b Bundle) Source() map[string]interface{} {
	src, _ := b.Object("source")
	return src
}

func (b Bundle) Marshal() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

func stringField(obj map[string]interface{}, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok
}

func isUnknownOrEmpty(obj map[string]interface{}, key string) bool {
	s, ok := stringField(obj, key)
	if !ok {
		return true
	}
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, Unknown)
}

func isNonEmptyString(obj map[string]interface{}, key string) bool {
	s, ok := stringField(obj, key)
	return ok && s != ""
}

func arrayHasContent(obj map[string]interface{}, key string) bool {
	arr, ok := obj[key].([]interface{})
	return ok && len(arr) > 0
}

// objects returns the object elements of arr, skipping anything else.
func objects(arr []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// Merge overlays the discursive phase onto the narrative base: discursive
// context and system are taken whole; interpretation layers contribute only
// author interpretations and possible readings.
func Merge(narrative, discursive Bundle) Bundle {
	out := narrative.Clone()
	if discursive == nil {
		return out
	}
	if dc, ok := discursive["discursiveContext"]; ok {
		out["discursiveContext"] = dc
	}
	if ds, ok := discursive["discursiveSystem"]; ok {
		out["discursiveSystem"] = ds
	}
	if overlay, ok := discursive.Object("interpretationLayers"); ok {
		layers, ok := out.Object("interpretationLayers")
		if !ok {
			layers = map[string]interface{}{"observedStatements": []interface{}{}}
			out["interpretationLayers"] = layers
		}
		for _, key := range []string{"authorInterpretations", "possibleReadings"} {
			if v, ok := overlay[key]; ok {
				layers[key] = v
			}
		}
	}
	return out
}
