package scientific

import (
	"strings"
	"unicode"
)

type ReportStatus string

const (
	StatusPass             ReportStatus = "pass"
	StatusPassWithWarnings ReportStatus = "pass-with-warnings"
	StatusBlock            ReportStatus = "block"
)

const (
	checkOK      = "ok"
	checkWarning = "warning"
	checkError   = "error"
)

type Report struct {
	Status   ReportStatus      `json:"status"`
	Errors   []string          `json:"errors"`
	Warnings []string          `json:"warnings"`
	Checks   map[string]string `json:"checks"`
}

type Seal struct {
	ExportAllowed  bool     `json:"exportAllowed"`
	AllowedTargets []string `json:"allowedTargets"`
}

var normativeTerms = []string{"permite", "garante", "leva a", "ideal", "deve", "should", "must", "recommend"}

var vagueTimeTerms = []string{"decade", "long", "years", "anos"}

func containsAny(text string, needles []string) bool {
	lowered := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lowered, n) {
			return true
		}
	}
	return false
}

func isVagueTimeWindow(tw string) bool {
	for _, r := range tw {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return containsAny(tw, vagueTimeTerms)
}

type validation struct {
	report Report
}

func (v *validation) fail(msg string) {
	v.report.Errors = append(v.report.Errors, msg)
}

func (v *validation) warn(msg string) {
	v.report.Warnings = append(v.report.Warnings, msg)
}

func (v *validation) set(key, status string) {
	v.report.Checks[key] = status
}

func checkState(errored, warned bool) string {
	switch {
	case errored:
		return checkError
	case warned:
		return checkWarning
	default:
		return checkOK
	}
}

// HasInterpretation reports whether any interpretation layer is populated.
func HasInterpretation(b Bundle) bool {
	layers, ok := b.Object("interpretationLayers")
	if !ok {
		return false
	}
	for _, key := range InterpretationLayerKeys {
		if arrayHasContent(layers, key) {
			return true
		}
	}
	return false
}

func requestsStrataCore(b Bundle) bool {
	targets, ok := b.Array("requestedTargets")
	if !ok {
		return false
	}
	for _, t := range targets {
		if s, ok := t.(string); ok && strings.EqualFold(strings.TrimSpace(s), "strata-core") {
			return true
		}
	}
	return false
}

// Validate runs the six epistemic checks. It only reads b.
func Validate(b Bundle) (Report, Seal) {
	v := &validation{report: Report{
		Errors:   []string{},
		Warnings: []string{},
		Checks:   map[string]string{},
	}}
	hasInterpretation := HasInterpretation(b)
	strataCore := requestsStrataCore(b)

	v.checkContextuality(b)
	v.checkBaseline(b)
	v.checkTemporal(b)
	v.checkLanguage(b, hasInterpretation && strataCore)
	v.checkMechanisms(b)

	layerErr := hasInterpretation && strataCore
	if layerErr {
		v.fail("InterpretationLayers presentes: STRATA-Core não permitido.")
	}
	v.set("layer", checkState(layerErr, false))

	hasErrors := len(v.report.Errors) > 0
	switch {
	case hasErrors:
		v.report.Status = StatusBlock
	case len(v.report.Warnings) > 0:
		v.report.Status = StatusPassWithWarnings
	default:
		v.report.Status = StatusPass
	}

	seal := Seal{ExportAllowed: !hasErrors, AllowedTargets: []string{}}
	if !hasErrors {
		if hasInterpretation {
			seal.AllowedTargets = []string{TargetStrataCAC}
		} else {
			seal.AllowedTargets = []string{TargetStrataCore, TargetStrataCAC}
		}
	}
	return v.report, seal
}

func (v *validation) checkContextuality(b Bundle) {
	failed := false
	for _, pair := range [][2]string{
		{"narrativeObservations", "NarrativeObservation sem contextuality."},
		{"allegedMechanisms", "AllegedMechanism sem contextuality."},
	} {
		arr, _ := b.Array(pair[0])
		for _, item := range arr {
			obj, _ := item.(map[string]interface{})
			if isUnknownOrEmpty(obj, "contextuality") {
				failed = true
				v.fail(pair[1])
				break
			}
		}
	}
	v.set("contextuality", checkState(failed, false))
}

func (v *validation) checkBaseline(b Bundle) {
	arr, _ := b.Array("baselineAssumptions")
	if len(arr) == 0 {
		v.fail("baselineAssumptions ausente.")
		v.set("baseline", checkError)
		return
	}

	adaptive := false
	for _, a := range objects(arr) {
		bt, _ := stringField(a, "baselineType")
		bt = strings.ToLower(bt)
		if bt == "dynamic" || bt == "multiple" {
			adaptive = true
		}
	}
	warned := false
	if !adaptive {
		if profile, ok := b.Object("sourceProfile"); ok {
			scale, _ := stringField(profile, "temporalScale")
			scale = strings.ToLower(scale)
			if scale == "long" || scale == "multi" {
				warned = true
				v.warn("Baseline fixo em estudo de longa duração pode exigir baseline múltiplo/dinâmico.")
			}
		}
	}
	v.set("baseline", checkState(false, warned))
}

func (v *validation) checkTemporal(b Bundle) {
	arr, _ := b.Array("temporalWindowReferences")
	if len(arr) == 0 {
		v.warn("temporalWindowReferences ausente.")
		v.set("temporal", checkWarning)
		return
	}

	failed, warned := false, false
	for _, item := range arr {
		tw, _ := item.(map[string]interface{})
		if !isNonEmptyString(tw, "timeWindow") || !isNonEmptyString(tw, "changeRhythm") || !isNonEmptyString(tw, "delaysOrHysteresis") {
			failed = true
			v.fail("TemporalWindowReference incompleto.")
			break
		}
		if window, _ := stringField(tw, "timeWindow"); isVagueTimeWindow(window) {
			warned = true
		}
	}
	v.set("temporal", checkState(failed, warned))
}

// checkLanguage scans observation and mechanism text for normative verbs.
// Author interpretations only warn, unless they are headed for STRATA-Core.
func (v *validation) checkLanguage(b Bundle, interpretationIsBlocking bool) {
	failed := false
	scanField := func(arrayKey, field string) {
		arr, _ := b.Array(arrayKey)
		for _, item := range objects(arr) {
			if s, ok := stringField(item, field); ok && containsAny(s, normativeTerms) {
				failed = true
				v.fail("Linguagem normativa detectada em " + field + ".")
				return
			}
		}
	}
	scanField("narrativeObservations", "observation")
	scanField("allegedMechanisms", "mechanism")

	if layers, ok := b.Object("interpretationLayers"); ok {
		arr, _ := layers["authorInterpretations"].([]interface{})
		for _, item := range arr {
			s, ok := item.(string)
			if !ok || !containsAny(s, normativeTerms) {
				continue
			}
			if interpretationIsBlocking {
				failed = true
				v.fail("Linguagem normativa detectada em authorInterpretations.")
			} else {
				v.warn("Linguagem normativa detectada em authorInterpretations.")
			}
			break
		}
	}
	v.set("language", checkState(failed, false))
}

func (v *validation) checkMechanisms(b Bundle) {
	failed := false
	arr, _ := b.Array("allegedMechanisms")
	for _, item := range arr {
		m, _ := item.(map[string]interface{})
		if isUnknownOrEmpty(m, "status") {
			failed = true
			v.fail("AllegedMechanism sem status.")
			break
		}
		if isUnknownOrEmpty(m, "limitations") {
			failed = true
			v.fail("AllegedMechanism sem limitations.")
			break
		}
		status, _ := stringField(m, "status")
		if strings.ToLower(status) == "tested" && isUnknownOrEmpty(m, "evidenceSnippet") {
			failed = true
			v.fail("AllegedMechanism marcado como tested sem evidenceSnippet.")
			break
		}
	}
	v.set("mechanisms", checkState(failed, false))
}
