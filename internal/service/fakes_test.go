package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/implementation"
	"ideawalker-core/pkg/events"
	"ideawalker-core/pkg/llm"

	"github.com/stretchr/testify/require"
)

type llmCall struct {
	System    string
	User      string
	ForceJSON bool
}

// fakeClient answers through respond; a nil respond means no result.
type fakeClient struct {
	mu      sync.Mutex
	respond func(system, user string) (string, bool)
	vectors map[string][]float32
	calls   []llmCall
	embeds  int
}

func (c *fakeClient) Generate(ctx context.Context, system, user string, forceJSON bool) (string, bool) {
	c.mu.Lock()
	c.calls = append(c.calls, llmCall{System: system, User: user, ForceJSON: forceJSON})
	c.mu.Unlock()
	if c.respond == nil {
		return "", false
	}
	return c.respond(system, user)
}

func (c *fakeClient) Chat(ctx context.Context, history []llm.Message, forceJSON bool) (string, bool) {
	var system, user string
	for _, m := range history {
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			user = m.Content
		}
	}
	return c.Generate(ctx, system, user, forceJSON)
}

func (c *fakeClient) Embed(ctx context.Context, text string) []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeds++
	return c.vectors[text]
}

func (c *fakeClient) CurrentModel() string { return "test-model" }

func (c *fakeClient) callsWithSystem(system string) []llmCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []llmCall
	for _, call := range c.calls {
		if call.System == system {
			out = append(out, call)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

type projectFixture struct {
	root string
	repo *implementation.FileRepositoryImpl
}

func newProjectFixture(t *testing.T) projectFixture {
	t.Helper()
	root := t.TempDir()
	repo, err := implementation.NewFileRepository(
		filepath.Join(root, "inbox"),
		filepath.Join(root, "notas"),
		filepath.Join(root, ".history"),
		filepath.Join(root, "observations"),
		logger.NewNopLogger(),
	)
	require.NoError(t, err)
	return projectFixture{root: root, repo: repo}
}

func (f projectFixture) path(parts ...string) string {
	return filepath.Join(append([]string{f.root}, parts...)...)
}

func (f projectFixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := f.path(strings.Split(rel, "/")...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f projectFixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(f.path(strings.Split(rel, "/")...))
	require.NoError(t, err)
	return string(data)
}
