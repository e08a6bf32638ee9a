package client

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sleepRecorder replaces the backoff sleep so tests run instantly while
// still observing the delays the client would have waited.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func stubSleep(t *testing.T) *sleepRecorder {
	t.Helper()
	rec := &sleepRecorder{}
	orig := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		rec.mu.Lock()
		rec.delays = append(rec.delays, d)
		rec.mu.Unlock()
		return nil
	}
	t.Cleanup(func() { sleepFunc = orig })
	return rec
}

// writePhotos creates small photo files in a temp dir and returns their
// paths, in the order of the given names.
func writePhotos(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		err := os.WriteFile(path, []byte("jpeg bytes for "+name), 0644)
		require.NoError(t, err)
		paths = append(paths, path)
	}
	return paths
}
