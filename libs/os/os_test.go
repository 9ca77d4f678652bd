package os_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tmos "github.com/tendermint/limitorder/libs/os"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.False(t, tmos.FileExists(dir))
	require.NoError(t, tmos.EnsureDir(dir, 0700))
	require.True(t, tmos.FileExists(dir))
	// Existing directories are left alone.
	require.NoError(t, tmos.EnsureDir(dir, 0700))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	require.Error(t, tmos.EnsureDir(filepath.Join(file, "sub"), 0700))
	require.Error(t, tmos.EnsureDir(file, 0700))
}

type mockLogger struct {
	mtx  sync.Mutex
	msgs []string
}

func (ml *mockLogger) Info(msg string, keyvals ...interface{}) {
	ml.mtx.Lock()
	defer ml.mtx.Unlock()
	ml.msgs = append(ml.msgs, msg)
}

func TestTrapSignal(t *testing.T) {
	logger := &mockLogger{}
	ctx, cancel := tmos.TrapSignal(context.Background(), logger)
	defer cancel()

	require.NoError(t, tmos.Kill())
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not canceled after SIGTERM")
	}
	require.Eventually(t, func() bool {
		logger.mtx.Lock()
		defer logger.mtx.Unlock()
		return len(logger.msgs) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTrapSignalCancel(t *testing.T) {
	ctx, cancel := tmos.TrapSignal(context.Background(), &mockLogger{})
	cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
