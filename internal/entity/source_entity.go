package entity

import (
	"path/filepath"
	"strings"
	"time"
)

// RawThought is one inbox file and its extracted text. Lives for a single scan.
type RawThought struct {
	Filename string
	Content  string
	ModTime  time.Time
}

type SourceType string

const (
	SourcePlainText SourceType = "PlainText"
	SourceMarkdown  SourceType = "Markdown"
	SourcePDF       SourceType = "PDF"
	SourceLaTeX     SourceType = "LaTeX"
	SourceUnknown   SourceType = "Unknown"
)

func ClassifyByExtension(name string) SourceType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return SourcePlainText
	case ".md":
		return SourceMarkdown
	case ".pdf":
		return SourcePDF
	case ".tex":
		return SourceLaTeX
	default:
		return SourceUnknown
	}
}

// SourceArtifact is a file detected in the scientific inbox.
type SourceArtifact struct {
	Path         string     `json:"path"`
	Filename     string     `json:"filename"`
	Type         SourceType `json:"type"`
	ContentHash  string     `json:"contentHash"`
	SizeBytes    int64      `json:"sizeBytes"`
	LastModified time.Time  `json:"lastModified"`
}

// ObservationRecord is an AI synthesis of a non-scientific source document.
type ObservationRecord struct {
	Id         string    `json:"id"`
	SourcePath string    `json:"sourcePath"`
	SourceHash string    `json:"sourceHash"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
