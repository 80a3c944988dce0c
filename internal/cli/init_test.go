package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/config"
	applog "expenses/internal/log"
)

type fakeServer struct {
	mu        sync.Mutex
	stopped   chan struct{}
	listenErr error
	shutdowns int
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	if f.shutdowns == 1 {
		close(f.stopped)
	}
	return nil
}

func discardLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
}

func TestServeStopsOnContextCancel(t *testing.T) {
	srv := newFakeServer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, discardLogger(), srv, time.Second) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, 1, srv.shutdowns)
}

func TestServeReportsListenError(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("address already in use")

	err := Serve(context.Background(), discardLogger(), srv, time.Second)
	assert.EqualError(t, err, "address already in use")
}

func TestInitSQLite(t *testing.T) {
	cfg := &config.Config{DBPath: t.TempDir() + "/nested/expense.db", SQLiteBusyTimeout: time.Second}
	repo := InitSQLite(discardLogger(), cfg)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.Ping(context.Background()))
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger("nonsense")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
