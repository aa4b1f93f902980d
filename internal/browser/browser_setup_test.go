// internal/browser/browser_setup_test.go
package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sedriver/internal/browser"
	"github.com/xkilldash9x/sedriver/internal/config"
)

// testFixture holds the environment for browser integration tests.
type testFixture struct {
	Manager *browser.Manager
	Logger  *zap.Logger
	Config  *config.Config
	Server  *httptest.Server
}

const fixtureHTML = `<!DOCTYPE html>
<html>
<head><title>Fixture</title></head>
<body>
  <h1 id="heading" class="title primary">Hello   World</h1>
  <div id="hidden" style="display:none">secret</div>
  <ul id="list"><li class="item">one</li><li class="item">two</li><li class="item">three</li></ul>
  <input id="name" type="text" value="">
  <button id="remove" onclick="document.getElementById('heading').remove()">remove</button>
  <iframe id="frame" srcdoc="&lt;p id='inner'&gt;framed&lt;/p&gt;"></iframe>
</body>
</html>`

// chromeAvailable reports whether a local Chrome binary can be found.
func chromeAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// setupTestConfig returns a configuration tuned for fast tests.
func setupTestConfig(t *testing.T) (*zap.Logger, *config.Config) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))

	cfg := config.NewDefaultConfig()
	cfg.Browser.Headless = true
	cfg.Browser.WindowWidth = 1280
	cfg.Browser.WindowHeight = 800
	cfg.Driver.DefaultTimeout = 2 * time.Second
	cfg.Driver.PollInterval = 20 * time.Millisecond
	return logger, cfg
}

// newTestFixture starts a manager and a fixture page server, skipping the
// test when no browser is installed.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	if !chromeAvailable() {
		t.Skip("no Chrome or Chromium binary found in PATH")
	}

	logger, cfg := setupTestConfig(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixtureHTML))
	})
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Second</title></head><body><p id="p">second</p></body></html>`))
	})
	server := httptest.NewServer(mux)

	m, err := browser.NewManager(context.Background(), logger, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
		server.Close()
	})

	return &testFixture{Manager: m, Logger: logger, Config: cfg, Server: server}
}
