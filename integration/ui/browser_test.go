package ui_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/require"

	"github.com/bengeek06/waterfall-e2e/integration/harness"
)

// newBrowser launches a browser for the UI flows. Test deployments run
// with self-signed certificates, so certificate errors are ignored.
func newBrowser(t *testing.T, h *harness.Harness) *rod.Browser {
	t.Helper()

	l := launcher.New().
		Headless(h.Cfg.Headless).
		NoSandbox(true).
		Set("ignore-certificate-errors")
	if h.Cfg.BrowserBin != "" {
		l = l.Bin(h.Cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	require.NoError(t, err, "failed to launch browser")

	browser := rod.New().ControlURL(controlURL)
	require.NoError(t, browser.Connect(), "failed to connect to browser")
	t.Cleanup(func() {
		_ = browser.Close()
		l.Cleanup()
	})
	return browser
}

// openPage navigates to path under the configured gateway and waits for
// the initial load.
func openPage(t *testing.T, h *harness.Harness, browser *rod.Browser, path string) *rod.Page {
	t.Helper()

	target := strings.TrimSuffix(h.Cfg.WebURL, "/") + path
	page, err := browser.Page(proto.TargetCreateTarget{URL: target})
	require.NoError(t, err, "failed to open %s", target)
	page.MustWaitLoad()
	return page
}

// waitForPath polls until the page URL contains fragment. SPA routing
// makes navigation events unreliable, so polling the URL is the robust
// option.
func waitForPath(t *testing.T, page *rod.Page, fragment string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(page.MustInfo().URL, fragment) {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("page never reached %q, still on %s", fragment, page.MustInfo().URL)
}

// appInitialized asks the identity service whether the first-run setup
// already happened.
func appInitialized(t *testing.T, h *harness.Harness) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), h.Cfg.HTTPTimeout)
	defer cancel()

	resp, err := h.Client.Get(ctx, "/api/identity/init-db", nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status, "init-db status failed: %s", resp.Text())

	var status struct {
		Initialized bool `json:"initialized"`
	}
	require.NoError(t, resp.JSON(&status))
	return status.Initialized
}
