package scientific

import (
	"strings"
)

// Candidate is one admissible reading of a categorical field.
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// NormalizeEnums rewrites every closed-set categorical field in place.
// Composite "a|b" answers become <field>Candidates with equal confidence and
// the field takes the first admissible token. Unknown sourceProfile keys are
// dropped.
func NormalizeEnums(b Bundle) {
	if profile, ok := b.Object("sourceProfile"); ok {
		allowed := allowedProfileKeys()
		for key := range profile {
			if !allowed[key] {
				delete(profile, key)
			}
		}
		for _, field := range ProfileFields {
			normalizeField(profile, field, ProfileEnums[field])
		}
	}

	for arrayKey, fields := range ItemEnums {
		arr, ok := b.Array(arrayKey)
		if !ok {
			continue
		}
		for _, item := range objects(arr) {
			for field, set := range fields {
				normalizeField(item, field, set)
			}
		}
	}
}

func normalizeField(obj map[string]interface{}, field string, set []string) {
	sanitizeCandidates(obj, field, set)

	raw, ok := stringField(obj, field)
	if !ok {
		return
	}
	value := strings.ToLower(strings.TrimSpace(raw))

	if strings.Contains(value, "|") {
		var picked []string
		for _, token := range strings.Split(value, "|") {
			token = strings.TrimSpace(token)
			if contains(set, token) && !contains(picked, token) {
				picked = append(picked, token)
			}
		}
		if len(picked) == 0 {
			return
		}
		candidates := make([]interface{}, 0, len(picked))
		conf := 1.0 / float64(len(picked))
		for _, p := range picked {
			candidates = append(candidates, map[string]interface{}{"value": p, "confidence": conf})
		}
		obj[field+candidatesSuffix] = candidates
		obj[field] = picked[0]
		return
	}

	if contains(set, value) {
		obj[field] = value
	}
}

// sanitizeCandidates keeps only admissible model-supplied candidates and
// clamps their confidence to [0,1].
func sanitizeCandidates(obj map[string]interface{}, field string, set []string) {
	key := field + candidatesSuffix
	raw, present := obj[key]
	if !present {
		return
	}
	arr, ok := raw.([]interface{})
	if !ok {
		delete(obj, key)
		return
	}

	kept := make([]interface{}, 0, len(arr))
	for _, c := range objects(arr) {
		v, _ := stringField(c, "value")
		v = strings.ToLower(strings.TrimSpace(v))
		if !contains(set, v) {
			continue
		}
		conf, ok := c["confidence"].(float64)
		if !ok {
			conf = 0
		}
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		kept = append(kept, map[string]interface{}{"value": v, "confidence": conf})
	}
	if len(kept) == 0 {
		delete(obj, key)
		return
	}
	obj[key] = kept
}
