package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ideawalker-core/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestInboxWatcherReportsSettledFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	inbox := t.TempDir()
	var (
		mu   sync.Mutex
		seen []string
	)
	w, err := NewInboxWatcher([]string{inbox}, func(ctx context.Context, dir, path string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, filepath.Base(path))
	}, logger.NewNopLogger(), WithQuietPeriod(40*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "ideia.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, ".oculto"), []byte("b"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(inbox, "sub"), 0o755))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, w.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ideia.txt"}, seen)
}
