// Package task runs background units of work off the interactive thread and
// exposes read-only snapshots of their progress to observers.
package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ideawalker-core/internal/pkg/logger"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryAIProcessing  Category = "AI_Processing"
	CategoryIndexing      Category = "Indexing"
	CategoryTranscription Category = "Transcription"
	CategoryExport        Category = "Export"
	CategoryUpdateCheck   Category = "UpdateCheck"
)

const defaultRecentLimit = 20

// Status is a copy of a task's state at one instant. It never aliases worker memory.
type Status struct {
	ID            int64      `json:"id"`
	CorrelationID string     `json:"correlationId"`
	Category      Category   `json:"category"`
	Description   string     `json:"description"`
	Progress      float64    `json:"progress"`
	IsCompleted   bool       `json:"isCompleted"`
	Failed        bool       `json:"failed"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}

// Progress is the mutable record a running task may update.
type Progress struct {
	mu     sync.Mutex
	status Status
}

// SetProgress records completion in [0,1]; out-of-range values are clamped.
func (p *Progress) SetProgress(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.mu.Lock()
	p.status.Progress = v
	p.mu.Unlock()
}

func (p *Progress) SetDescription(description string) {
	p.mu.Lock()
	p.status.Description = description
	p.mu.Unlock()
}

// Step is a convenience for batch loops: progress = done/total.
func (p *Progress) Step(done, total int) {
	if total <= 0 {
		return
	}
	p.SetProgress(float64(done) / float64(total))
}

func (p *Progress) snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		s.FinishedAt = &t
	}
	return s
}

func (p *Progress) finish(err error) {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.IsCompleted = true
	p.status.FinishedAt = &now
	if err != nil {
		p.status.Failed = true
		p.status.ErrorMessage = err.Error()
		return
	}
	p.status.Progress = 1.0
}

// Handle lets the submitter observe one task.
type Handle struct {
	progress *Progress
	done     chan struct{}
}

func (h *Handle) Snapshot() Status {
	return h.progress.snapshot()
}

// Done is closed once the task has finished, successfully or not.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task finishes and returns its final status.
func (h *Handle) Wait() Status {
	<-h.done
	return h.Snapshot()
}

// Func is the unit of work. Returning an error or panicking marks the task failed.
type Func func(ctx context.Context, progress *Progress) error

type IManager interface {
	Submit(category Category, description string, fn Func) *Handle
	ActiveTasks() []Status
	Recent(n int) []Status
	Wait()
}

type Manager struct {
	ctx    context.Context
	logger logger.ILogger

	nextID atomic.Int64
	wg     sync.WaitGroup

	mu          sync.Mutex
	active      []*Handle
	recent      []Status
	recentLimit int
}

var _ IManager = (*Manager)(nil)

func NewManager(ctx context.Context, log logger.ILogger) *Manager {
	return &Manager{
		ctx:         ctx,
		logger:      log,
		recentLimit: defaultRecentLimit,
	}
}

// Submit starts fn on its own goroutine. No ordering exists between submissions.
func (m *Manager) Submit(category Category, description string, fn Func) *Handle {
	h := &Handle{
		progress: &Progress{status: Status{
			ID:            m.nextID.Add(1),
			CorrelationID: uuid.NewString(),
			Category:      category,
			Description:   description,
			StartedAt:     time.Now(),
		}},
		done: make(chan struct{}),
	}

	m.mu.Lock()
	m.active = append(m.active, h)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(h, fn)

	return h
}

func (m *Manager) run(h *Handle, fn Func) {
	defer m.wg.Done()

	err := m.invoke(h.progress, fn)
	h.progress.finish(err)

	final := h.Snapshot()
	if err != nil {
		m.logger.Error("TaskManager", "Task failed", map[string]interface{}{
			"task_id":     final.ID,
			"category":    string(final.Category),
			"description": final.Description,
			"error":       final.ErrorMessage,
		})
	} else {
		m.logger.Info("TaskManager", "Task completed", map[string]interface{}{
			"task_id":  final.ID,
			"category": string(final.Category),
		})
	}

	m.cleanup(h, final)
	close(h.done)
}

func (m *Manager) invoke(progress *Progress, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during task execution: %v", r)
		}
	}()
	return fn(m.ctx, progress)
}

func (m *Manager) cleanup(h *Handle, final Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.active[:0]
	for _, a := range m.active {
		if a != h {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(m.active); i++ {
		m.active[i] = nil
	}
	m.active = kept

	m.recent = append(m.recent, final)
	if len(m.recent) > m.recentLimit {
		m.recent = m.recent[len(m.recent)-m.recentLimit:]
	}
}

// ActiveTasks returns snapshots of every task that has not finished cleanup.
func (m *Manager) ActiveTasks() []Status {
	m.mu.Lock()
	handles := make([]*Handle, len(m.active))
	copy(handles, m.active)
	m.mu.Unlock()

	out := make([]Status, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.Snapshot())
	}
	return out
}

// Recent returns up to n most recently finished statuses, newest first.
func (m *Manager) Recent(n int) []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.recent) {
		n = len(m.recent)
	}
	out := make([]Status, 0, n)
	for i := len(m.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.recent[i])
	}
	return out
}

// Wait blocks until every submitted task has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
