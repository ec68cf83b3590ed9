package implementation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ideawalker-core/internal/entity"
	"ideawalker-core/internal/repository/contract"
)

var artifactExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
	".tex": true,
}

type ArtifactScannerImpl struct {
	inboxPath string
}

func NewArtifactScanner(inboxPath string) contract.ArtifactScanner {
	return &ArtifactScannerImpl{inboxPath: inboxPath}
}

// Scan lists supported files directly under the inbox. The content hash is
// size and mtime, enough to detect changes between scans.
func (s *ArtifactScannerImpl) Scan(ctx context.Context) ([]entity.SourceArtifact, error) {
	entries, err := os.ReadDir(s.inboxPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", s.inboxPath, err)
	}

	var artifacts []entity.SourceArtifact
	for _, e := range entries {
		if !e.Type().IsRegular() || !artifactExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, entity.SourceArtifact{
			Path:         filepath.Join(s.inboxPath, e.Name()),
			Filename:     e.Name(),
			Type:         entity.ClassifyByExtension(e.Name()),
			ContentHash:  fmt.Sprintf("%d_%d", info.Size(), info.ModTime().UnixNano()),
			SizeBytes:    info.Size(),
			LastModified: info.ModTime(),
		})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Filename < artifacts[j].Filename })
	return artifacts, nil
}
