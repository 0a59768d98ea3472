// Package harness wires configuration, logging, the HTTP client and the
// shared authenticated session together for the integration suites.
//
// Every suite starts with harness.New(t): when no deployment is configured
// (WEB_URL empty) the calling test is skipped, so `go test ./...` stays
// green without a running stack.
package harness

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bengeek06/waterfall-e2e/internal/client"
	"github.com/bengeek06/waterfall-e2e/internal/config"
	"github.com/bengeek06/waterfall-e2e/internal/session"
)

// Harness is the per-suite test environment.
type Harness struct {
	T      *testing.T
	Cfg    *config.Config
	Log    *zap.Logger
	Client *client.Client
	User   session.UserInfo

	cleanupMu sync.Mutex
	cleanups  []func(context.Context)
}

// New loads the configuration and opens (or reuses) the shared session.
// It skips the test when no deployment is configured and fails it when a
// configured deployment cannot be reached.
func New(t *testing.T) *Harness {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "failed to load configuration")

	if !cfg.Configured() {
		t.Skip("WEB_URL not set, skipping integration test")
	}
	require.NoError(t, cfg.Validate(), "incomplete test configuration")

	log := newLogger(t, cfg.LogLevel)

	sess, err := session.Shared(context.Background(), cfg, log)
	require.NoError(t, err, "failed to open authenticated session")

	return &Harness{
		T:      t,
		Cfg:    cfg,
		Log:    log,
		Client: sess.Client,
		User:   sess.User,
	}
}

// NewUnauthenticated builds a harness with a fresh client carrying no
// session cookies, for tests asserting 401 behavior.
func NewUnauthenticated(t *testing.T) *Harness {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "failed to load configuration")
	if !cfg.Configured() {
		t.Skip("WEB_URL not set, skipping integration test")
	}

	log := newLogger(t, cfg.LogLevel)
	c, err := client.New(cfg.WebURL, cfg.HTTPTimeout, log)
	require.NoError(t, err)

	return &Harness{T: t, Cfg: cfg, Log: log, Client: c}
}

// FreshClient returns a second authenticated-capable client that does not
// share cookie state with the suite session.
func (h *Harness) FreshClient() *client.Client {
	c, err := client.New(h.Cfg.WebURL, h.Cfg.HTTPTimeout, h.Log)
	require.NoError(h.T, err)
	return c
}

// Context returns a request context bounded by the configured timeout.
func (h *Harness) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.Cfg.HTTPTimeout+10*time.Second)
}

// UniqueName builds a collision-free resource name, the Go version of the
// timestamp suffixes used throughout the original fixtures.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

// UniqueEmail builds a collision-free email address.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%s@example.com", prefix, time.Now().Unix(), uuid.NewString()[:8])
}

// Defer registers a cleanup executed in reverse order by Cleanup, used for
// deleting created resources with FK ordering (children before parents).
func (h *Harness) Defer(fn func(ctx context.Context)) {
	h.cleanupMu.Lock()
	defer h.cleanupMu.Unlock()
	h.cleanups = append(h.cleanups, fn)
}

// DeferDelete registers a DELETE of the given path for Cleanup. A 204 or a
// 404 (already gone) are both acceptable outcomes.
func (h *Harness) DeferDelete(path string) {
	h.Defer(func(ctx context.Context) {
		resp, err := h.Client.Delete(ctx, path)
		if err != nil {
			h.Log.Warn("cleanup delete failed", zap.String("path", path), zap.Error(err))
			return
		}
		if resp.Status != 204 && resp.Status != 404 {
			h.Log.Warn("cleanup delete rejected",
				zap.String("path", path), zap.Int("status", resp.Status))
		}
	})
}

// Cleanup runs registered cleanups LIFO. Suites call it from TearDownSuite
// or TearDownTest.
func (h *Harness) Cleanup() {
	h.cleanupMu.Lock()
	cleanups := h.cleanups
	h.cleanups = nil
	h.cleanupMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i](ctx)
	}
}

func newLogger(t *testing.T, level string) *zap.Logger {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	log, err := cfg.Build()
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}
