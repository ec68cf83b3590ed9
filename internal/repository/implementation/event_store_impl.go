package implementation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/writing"
)

const (
	eventSchemaVersion = 1
	eventStreamFile    = "events.ndjson"
)

// storedEvent is one NDJSON line.
type storedEvent struct {
	SchemaVersion int             `json:"schemaVersion"`
	Type          string          `json:"type"`
	Data          json.RawMessage `json:"data"`
	Ts            int64           `json:"ts"`
}

// EventStoreImpl writes each trajectory to <dir>/<id>/events.ndjson.
type EventStoreImpl struct {
	dir    string
	logger logger.ILogger
	mu     sync.Mutex
}

func NewEventStore(dir string, log logger.ILogger) contract.EventStore {
	return &EventStoreImpl{dir: dir, logger: log}
}

func (s *EventStoreImpl) streamPath(id string) (string, error) {
	if strings.TrimSpace(id) == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid trajectory id %q", id)
	}
	return filepath.Join(s.dir, id, eventStreamFile), nil
}

// Append encodes every event first and then writes the batch with a single
// write followed by fsync, so a failed encode leaves the stream untouched.
func (s *EventStoreImpl) Append(ctx context.Context, trajectoryID string, events []writing.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.streamPath(trajectoryID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, e := range events {
		if e.Trajectory() != trajectoryID {
			return fmt.Errorf("event %s belongs to %q, not %q", e.EventType(), e.Trajectory(), trajectoryID)
		}
		data, err := writing.EncodeEvent(e)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.EventType(), err)
		}
		line, err := json.Marshal(storedEvent{
			SchemaVersion: eventSchemaVersion,
			Type:          e.EventType(),
			Data:          data,
			Ts:            e.OccurredAt().UnixMilli(),
		})
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create stream dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("append events: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync stream: %w", err)
	}
	return f.Close()
}

// Load returns the decodable events of a stream in file order. Lines that are
// malformed, of another schema version or of an unknown type are skipped.
// A missing stream yields no events and no error.
func (s *EventStoreImpl) Load(ctx context.Context, trajectoryID string) ([]writing.Event, error) {
	path, err := s.streamPath(trajectoryID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer f.Close()

	var (
		events  []writing.Event
		skipped []string
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec storedEvent
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: malformed", lineNo))
			continue
		}
		if rec.SchemaVersion != eventSchemaVersion {
			skipped = append(skipped, fmt.Sprintf("line %d: schema version %d", lineNo, rec.SchemaVersion))
			continue
		}
		e, err := writing.DecodeEvent(rec.Type, rec.Data, time.UnixMilli(rec.Ts))
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	if len(skipped) > 0 {
		s.logger.Warn("EventStore", "Skipped unreadable events", map[string]interface{}{
			"trajectory_id": trajectoryID,
			"skipped":       skipped,
		})
	}
	return events, nil
}

// ListStreams returns the ids of every trajectory with a stream file, sorted.
func (s *EventStoreImpl) ListStreams(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read trajectories: %w", err)
	}
	ids := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, e.Name(), eventStreamFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
