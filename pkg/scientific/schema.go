// Package scientific holds the pure parts of scientific ingestion: the bundle
// schema, enum normalisation, evidence anchoring, schema and epistemic
// validation, and the consumable envelopes.
package scientific

// SchemaVersion is pinned; readers reject anything else.
const SchemaVersion = 1

const Unknown = "unknown"

var (
	StudyTypes            = []string{"experimental", "observational", "review", "theoretical", "simulation", "mixed", "unknown"}
	TemporalScales        = []string{"short", "medium", "long", "multi", "unknown"}
	EcosystemTypes        = []string{"terrestrial", "aquatic", "urban", "agro", "industrial", "social", "digital", "mixed", "unknown"}
	EvidenceTypes         = []string{"empirical", "theoretical", "mixed", "unknown"}
	TransferabilityLevels = []string{"high", "medium", "low", "contextual", "unknown"}
	ConfidenceLevels      = []string{"low", "medium", "high", "unknown"}
	MechanismStatus       = []string{"tested", "inferred", "speculative", "unknown"}
	BaselineTypes         = []string{"fixed", "dynamic", "multiple", "none", "unknown"}
)

// ProfileEnums maps each categorical sourceProfile field to its closed set.
var ProfileEnums = map[string][]string{
	"studyType":       StudyTypes,
	"temporalScale":   TemporalScales,
	"ecosystemType":   EcosystemTypes,
	"evidenceType":    EvidenceTypes,
	"transferability": TransferabilityLevels,
}

// ProfileFields keeps a stable order for error messages.
var ProfileFields = []string{"studyType", "temporalScale", "ecosystemType", "evidenceType", "transferability"}

// ItemEnums lists categorical fields inside bundle arrays.
var ItemEnums = map[string]map[string][]string{
	"allegedMechanisms":     {"status": MechanismStatus},
	"baselineAssumptions":   {"baselineType": BaselineTypes},
	"narrativeObservations": {"confidence": ConfidenceLevels},
}

const candidatesSuffix = "Candidates"

func allowedProfileKeys() map[string]bool {
	keys := map[string]bool{
		"contextNotes": true,
		"limitations":  true,
	}
	for _, f := range ProfileFields {
		keys[f] = true
		keys[f+candidatesSuffix] = true
	}
	return keys
}

// RequiredArrays must be present as arrays in every bundle.
var RequiredArrays = []string{
	"narrativeObservations",
	"allegedMechanisms",
	"temporalWindowReferences",
	"baselineAssumptions",
	"trajectoryAnalogies",
}

var InterpretationLayerKeys = []string{"observedStatements", "authorInterpretations", "possibleReadings"}

// AnchoredArrays must carry a literal evidenceSnippet plus location fields.
var AnchoredArrays = []string{"narrativeObservations", "allegedMechanisms", "temporalWindowReferences"}

var anchorRequiredKeys = []string{"evidenceSnippet", "sourceSection", "pageRange"}

var DiscursiveSystemArrays = []string{"declaredProblems", "declaredActions", "expectedEffects"}

const (
	TargetStrataCore = "STRATA-Core"
	TargetStrataCAC  = "STRATA-CAC"
)

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
