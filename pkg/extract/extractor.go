// Package extract turns source files into plain text. PDFs go through
// pdftotext (with OCR fallbacks when the tools are installed); everything
// else is read directly. Successful PDF extractions are cached by SHA-256.
package extract

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"ideawalker-core/internal/pkg/fsutil"
)

const (
	MethodTextRead  = "text-read"
	MethodTextCache = "text-cache"
	MethodPdfToText = "pdftotext (filtered)"
	MethodOcrHybrid = "ocr-hybrid (ocrmypdf)"
	MethodOcrRaw    = "ocr-raw (tesseract)"
	MethodFailed    = "failed"
)

type Result struct {
	Content      string   `json:"-"`
	Success      bool     `json:"success"`
	Method       string   `json:"method"`
	Warnings     []string `json:"warnings,omitempty"`
	SourceSha256 string   `json:"sourceSha256"`
}

// Extractor is the content-extraction collaborator used by the knowledge
// store and the scientific pipeline.
type Extractor interface {
	Extract(ctx context.Context, path string) Result
}

// CommandRunner runs an external tool and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

type FileExtractor struct {
	PdfToText string
	CacheDir  string
	Run       CommandRunner
	LookPath  func(file string) (string, error)
	Status    func(msg string)
}

var _ Extractor = (*FileExtractor)(nil)

func NewFileExtractor(pdfToText, cacheDir string) *FileExtractor {
	if pdfToText == "" {
		pdfToText = "pdftotext"
	}
	return &FileExtractor{
		PdfToText: pdfToText,
		CacheDir:  cacheDir,
		Run:       runCommand,
		LookPath:  exec.LookPath,
	}
}

func (e *FileExtractor) Extract(ctx context.Context, path string) Result {
	sum, _ := FileSha256(path)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return e.extractPdf(ctx, path, sum)
	}
	return extractText(path, sum)
}

func extractText(path, sum string) Result {
	res := Result{SourceSha256: sum}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Method = MethodFailed
		res.Warnings = append(res.Warnings, "Could not open file.")
		return res
	}
	res.Content = string(data)
	res.Success = true
	res.Method = MethodTextRead
	return res
}

func (e *FileExtractor) extractPdf(ctx context.Context, path, sum string) Result {
	res := Result{SourceSha256: sum}

	if content, ok := e.loadCache(sum); ok {
		e.status("[CACHE] Usando texto extraído previamente (SHA-256).")
		res.Content = content
		res.Success = true
		res.Method = MethodTextCache
		return res
	}

	raw, _ := e.Run(ctx, e.PdfToText, path, "-")
	if IsValidContent(raw) {
		res.Content = FilterStructuralLines(raw)
		res.Success = true
		res.Method = MethodPdfToText
		e.saveCache(path, sum, res.Content, res.Method)
		return res
	}

	if e.hasTool("ocrmypdf") {
		e.status("[OCR] Detectado PDF de imagem. Iniciando leitura visual (CPU)...")
		ocrDir := filepath.Join(filepath.Dir(path), ".ocr")
		if err := os.MkdirAll(ocrDir, 0o755); err == nil {
			ocrPath := filepath.Join(ocrDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+"_ocr.pdf")
			_, ocrErr := e.Run(ctx, "ocrmypdf", "--jobs", "4", "--output-type", "pdf", path, ocrPath)
			if ocrErr == nil {
				content, _ := e.Run(ctx, e.PdfToText, ocrPath, "-")
				if IsValidContent(content) {
					res.Content = content
					res.Success = true
					res.Method = MethodOcrHybrid
					res.Warnings = append(res.Warnings, "Content extracted via OCR hybrid pipeline. Formatting preserved but errors possible.")
					e.saveCache(path, sum, res.Content, res.Method)
					return res
				}
			} else {
				_ = os.Remove(ocrPath)
				res.Warnings = append(res.Warnings, "ocrmypdf failed to process the file.")
			}
		}
	}

	if e.hasTool("tesseract") {
		e.status("[OCR] Tentando fallback para Tesseract (raw)...")
		content, _ := e.Run(ctx, "tesseract", path, "stdout")
		if IsValidContent(content) {
			res.Content = content
			res.Success = true
			res.Method = MethodOcrRaw
			res.Warnings = append(res.Warnings, "Content extracted via raw OCR. Layout lost, high error rate possible.")
			e.saveCache(path, sum, res.Content, res.Method)
			return res
		}
	}

	res.Method = MethodFailed
	return res
}

func (e *FileExtractor) hasTool(name string) bool {
	if e.LookPath == nil {
		return false
	}
	_, err := e.LookPath(name)
	return err == nil
}

func (e *FileExtractor) status(msg string) {
	if e.Status != nil {
		e.Status(msg)
	}
}

type cacheMeta struct {
	Sha256      string `json:"sha256"`
	SourcePath  string `json:"sourcePath"`
	Method      string `json:"method"`
	ExtractedAt string `json:"extractedAt"`
}

func (e *FileExtractor) loadCache(sum string) (string, bool) {
	if sum == "" || e.CacheDir == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(e.CacheDir, sum+".txt"))
	if err != nil || !IsValidContent(string(data)) {
		return "", false
	}
	return string(data), true
}

func (e *FileExtractor) saveCache(path, sum, content, method string) {
	if sum == "" || e.CacheDir == "" {
		return
	}
	txt := filepath.Join(e.CacheDir, sum+".txt")
	if !fsutil.Exists(txt) {
		_ = fsutil.WriteFileAtomic(txt, []byte(content), 0o644)
	}
	meta := filepath.Join(e.CacheDir, sum+".meta.json")
	if !fsutil.Exists(meta) {
		_ = fsutil.WriteJSON(meta, cacheMeta{
			Sha256:      sum,
			SourcePath:  path,
			Method:      method,
			ExtractedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// IsValidContent requires at least ten non-whitespace characters.
func IsValidContent(content string) bool {
	n := 0
	for _, r := range content {
		if !unicode.IsSpace(r) {
			n++
			if n >= 10 {
				return true
			}
		}
	}
	return false
}

func FileSha256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}
