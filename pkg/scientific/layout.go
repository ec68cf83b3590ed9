package scientific

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ideawalker-core/internal/pkg/fsutil"
)

// Error-payload suffixes, one per failing stage.
const (
	SuffixNarrative  = "_narrative_err"
	SuffixDiscursive = "_discursive_err"
	SuffixExtract    = "_extract_err"
	SuffixSchema     = "_schema_err"
	SuffixExport     = "_export_err"
)

var errorSuffixes = []string{SuffixNarrative, SuffixDiscursive, SuffixExtract, SuffixSchema, SuffixExport}

const artifactTimeLayout = "20060102_150405"

// ArtifactID is YYYYMMDD_HHMMSS_<filename> in local time.
func ArtifactID(at time.Time, filename string) string {
	return at.Local().Format(artifactTimeLayout) + "_" + filename
}

// BaseArtifactID strips a known error suffix.
func BaseArtifactID(id string) string {
	for _, s := range errorSuffixes {
		if strings.HasSuffix(id, s) {
			return strings.TrimSuffix(id, s)
		}
	}
	return id
}

// Layout is the on-disk arrangement of scientific outputs.
type Layout struct {
	ScientificDir  string
	ValidationDir  string
	ErrorsDir      string
	ConsumablesDir string
}

func NewLayout(observationsDir, consumablesDir string) Layout {
	sci := filepath.Join(observationsDir, "scientific")
	return Layout{
		ScientificDir:  sci,
		ValidationDir:  filepath.Join(sci, "validation"),
		ErrorsDir:      filepath.Join(sci, "errors"),
		ConsumablesDir: consumablesDir,
	}
}

func (l Layout) BundlePath(artifactID string) string {
	return filepath.Join(l.ScientificDir, artifactID+".json")
}

func (l Layout) ValidationPath(artifactID string) string {
	return filepath.Join(l.ValidationDir, artifactID+".json")
}

func (l Layout) ErrorPath(artifactID, suffix string) string {
	return filepath.Join(l.ErrorsDir, artifactID+suffix+".json")
}

func (l Layout) ArtifactDir(artifactID string) string {
	return filepath.Join(l.ConsumablesDir, artifactID)
}

// SaveBundle persists the raw (merged, normalised, anchored) bundle.
func (l Layout) SaveBundle(artifactID string, b Bundle) error {
	return fsutil.WriteJSON(l.BundlePath(artifactID), b)
}

// ValidationRecord is what lands under validation/.
type ValidationRecord struct {
	SchemaVersion int    `json:"schemaVersion"`
	ArtifactID    string `json:"artifactId"`
	CreatedAt     string `json:"createdAt"`
	Report        Report `json:"report"`
	Seal          Seal   `json:"seal"`
}

func (l Layout) SaveValidation(artifactID string, report Report, seal Seal, at time.Time) error {
	return fsutil.WriteJSON(l.ValidationPath(artifactID), ValidationRecord{
		SchemaVersion: SchemaVersion,
		ArtifactID:    artifactID,
		CreatedAt:     at.UTC().Format(time.RFC3339),
		Report:        report,
		Seal:          seal,
	})
}

// ErrorPayload keeps the offending model output next to its stage.
type ErrorPayload struct {
	SchemaVersion  int         `json:"schemaVersion"`
	ArtifactID     string      `json:"artifactId"`
	ArtifactIDBase string      `json:"artifactIdBase"`
	Stage          string      `json:"stage"`
	CreatedAt      string      `json:"createdAt"`
	Errors         []string    `json:"errors,omitempty"`
	PayloadType    string      `json:"payloadType,omitempty"`
	Payload        interface{} `json:"payload"`
}

// SaveError writes errors/<artifactId><suffix>.json. The payload is stored as
// parsed JSON when it parses, else as raw text.
func (l Layout) SaveError(artifactID, suffix, stage, payload string, errs []string, at time.Time) (string, error) {
	p := ErrorPayload{
		SchemaVersion:  SchemaVersion,
		ArtifactID:     artifactID + suffix,
		ArtifactIDBase: artifactID,
		Stage:          stage,
		CreatedAt:      at.UTC().Format(time.RFC3339),
		Errors:         errs,
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(payload), &parsed); err == nil {
		p.Payload = parsed
	} else {
		p.PayloadType = "text"
		p.Payload = payload
	}
	path := l.ErrorPath(artifactID, suffix)
	return path, fsutil.WriteJSON(path, p)
}

// Purge removes every prior output derived from filename.
func (l Layout) Purge(filename string) ([]string, error) {
	var removed []string
	marker := "_" + filename

	for _, dir := range []string{l.ScientificDir, l.ValidationDir, l.ErrorsDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("purge %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			id := BaseArtifactID(strings.TrimSuffix(e.Name(), ".json"))
			if !strings.HasSuffix(id, marker) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("purge %s: %w", path, err)
			}
			removed = append(removed, path)
		}
	}

	entries, err := os.ReadDir(l.ConsumablesDir)
	if err != nil && !os.IsNotExist(err) {
		return removed, fmt.Errorf("purge %s: %w", l.ConsumablesDir, err)
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), marker) {
			continue
		}
		path := filepath.Join(l.ConsumablesDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("purge %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// BundlesCount counts raw bundles on disk.
func (l Layout) BundlesCount() int {
	entries, err := os.ReadDir(l.ScientificDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n
}

type ValidationSummary struct {
	Path          string       `json:"path"`
	ArtifactID    string       `json:"artifactId"`
	Status        ReportStatus `json:"status"`
	ErrorCount    int          `json:"errorCount"`
	WarningCount  int          `json:"warningCount"`
	ExportAllowed bool         `json:"exportAllowed"`
}

// LatestValidation summarises the most recently written report.
func (l Layout) LatestValidation() (*ValidationSummary, error) {
	entries, err := os.ReadDir(l.ValidationDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var latest string
	var latestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest, latestMod = e.Name(), info.ModTime()
		}
	}
	if latest == "" {
		return nil, nil
	}

	path := filepath.Join(l.ValidationDir, latest)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec ValidationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &ValidationSummary{
		Path:          path,
		ArtifactID:    rec.ArtifactID,
		Status:        rec.Report.Status,
		ErrorCount:    len(rec.Report.Errors),
		WarningCount:  len(rec.Report.Warnings),
		ExportAllowed: rec.Report.Status != StatusBlock,
	}, nil
}

type ArticleEntry struct {
	ArtifactID string   `json:"artifactId"`
	Filename   string   `json:"filename,omitempty"`
	Manifest   string   `json:"manifest"`
	Files      []string `json:"files"`
}

type ErrorEntry struct {
	ArtifactID     string `json:"artifactId"`
	ArtifactIDBase string `json:"artifactIdBase"`
	Stage          string `json:"stage,omitempty"`
	File           string `json:"file"`
}

type ProjectManifest struct {
	SchemaVersion int               `json:"schemaVersion"`
	GeneratedAt   string            `json:"generatedAt"`
	Layout        map[string]string `json:"layout"`
	Articles      []ArticleEntry    `json:"articles"`
	Errors        []ErrorEntry      `json:"errors"`
}

// WriteProjectManifest rebuilds STRATA_Manifest.json from what is on disk.
func (l Layout) WriteProjectManifest(at time.Time) (*ProjectManifest, error) {
	m := &ProjectManifest{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   at.UTC().Format(time.RFC3339),
		Layout: map[string]string{
			"<artifactId>/":                "one directory per exported article",
			"<artifactId>/" + FileManifest: "per-article file list with sizes",
			"errors":                       "artifacts that failed parsing or validation, keyed by base artifactId",
		},
		Articles: []ArticleEntry{},
		Errors:   []ErrorEntry{},
	}

	entries, err := os.ReadDir(l.ConsumablesDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(l.ConsumablesDir, e.Name())
		article := ArticleEntry{ArtifactID: e.Name(), Manifest: e.Name() + "/" + FileManifest}
		if data, err := os.ReadFile(filepath.Join(dir, FileManifest)); err == nil {
			var mf struct {
				Filename string          `json:"filename"`
				Files    []ManifestEntry `json:"files"`
			}
			if json.Unmarshal(data, &mf) == nil {
				article.Filename = mf.Filename
				for _, f := range mf.Files {
					if f.Exists {
						article.Files = append(article.Files, f.Name)
					}
				}
			}
		}
		if article.Files == nil {
			article.Files = []string{}
		}
		m.Articles = append(m.Articles, article)
	}

	errEntries, err := os.ReadDir(l.ErrorsDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, e := range errEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		entry := ErrorEntry{ArtifactID: id, ArtifactIDBase: BaseArtifactID(id), File: filepath.Join(l.ErrorsDir, e.Name())}
		if data, err := os.ReadFile(entry.File); err == nil {
			var p ErrorPayload
			if json.Unmarshal(data, &p) == nil {
				entry.Stage = p.Stage
			}
		}
		m.Errors = append(m.Errors, entry)
	}

	sort.Slice(m.Articles, func(i, j int) bool { return m.Articles[i].ArtifactID < m.Articles[j].ArtifactID })
	sort.Slice(m.Errors, func(i, j int) bool { return m.Errors[i].ArtifactID < m.Errors[j].ArtifactID })
	return m, fsutil.WriteJSON(filepath.Join(l.ConsumablesDir, ProjectManifestName), m)
}
