package implementation

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ideawalker-core/internal/entity"
	"ideawalker-core/internal/pkg/fsutil"
	"ideawalker-core/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

const (
	observationTitlePrefix  = "# Observação: "
	observationSourcePrefix = "> Fonte: "
	observationHashPrefix   = "> Hash: "
)

// ObservationRepositoryImpl stores ObservationRecords as markdown under observations/.
// Lookups by source filename are cached; Save invalidates the cache.
type ObservationRepositoryImpl struct {
	dir   string
	cache *cache.Cache
}

func NewObservationRepository(dir string) contract.ObservationRepository {
	return &ObservationRepositoryImpl{
		dir:   dir,
		cache: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (r *ObservationRepositoryImpl) Save(ctx context.Context, record *entity.ObservationRecord) error {
	if record.Id == "" {
		return fmt.Errorf("observation without id")
	}
	var sb strings.Builder
	sb.WriteString(observationTitlePrefix + record.Id + "\n")
	sb.WriteString(observationSourcePrefix + record.SourcePath + "\n")
	sb.WriteString(observationHashPrefix + record.SourceHash + "\n\n")
	sb.WriteString(record.Content)

	if err := fsutil.WriteFileAtomic(filepath.Join(r.dir, record.Id+".md"), []byte(sb.String()), 0o644); err != nil {
		return err
	}
	r.cache.Flush()
	return nil
}

func (r *ObservationRepositoryImpl) FindAll(ctx context.Context) ([]*entity.ObservationRecord, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read observations: %w", err)
	}

	var records []*entity.ObservationRecord
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		rec, err := r.load(filepath.Join(r.dir, e.Name()))
		if err != nil {
			continue
		}
		if info, err := e.Info(); err == nil {
			rec.CreatedAt = info.ModTime()
		}
		records = append(records, rec)
	}
	// ids start with a sortable timestamp
	sort.Slice(records, func(i, j int) bool { return records[i].Id < records[j].Id })
	return records, nil
}

func (r *ObservationRepositoryImpl) FindBySource(ctx context.Context, filename string) (*entity.ObservationRecord, error) {
	if x, found := r.cache.Get(filename); found {
		return x.(*entity.ObservationRecord), nil
	}

	records, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var latest *entity.ObservationRecord
	for _, rec := range records {
		if filepath.Base(rec.SourcePath) == filename {
			latest = rec
		}
	}
	if latest != nil {
		r.cache.Set(filename, latest, cache.DefaultExpiration)
	}
	return latest, nil
}

func (r *ObservationRepositoryImpl) load(path string) (*entity.ObservationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec := &entity.ObservationRecord{Id: strings.TrimSuffix(filepath.Base(path), ".md")}
	var body strings.Builder
	inHeader := true

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			switch {
			case strings.HasPrefix(line, observationTitlePrefix):
				rec.Id = strings.TrimPrefix(line, observationTitlePrefix)
				continue
			case strings.HasPrefix(line, observationSourcePrefix):
				rec.SourcePath = strings.TrimPrefix(line, observationSourcePrefix)
				continue
			case strings.HasPrefix(line, observationHashPrefix):
				rec.SourceHash = strings.TrimPrefix(line, observationHashPrefix)
				continue
			case line == "":
				inHeader = false
				continue
			}
			inHeader = false
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	rec.Content = strings.TrimRight(body.String(), "\n")
	return rec, nil
}
