// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/sedriver/internal/config"
	"github.com/xkilldash9x/sedriver/internal/driver"
)

const defaultLaunchTimeout = 30 * time.Second

// Manager owns the browser process (or remote grid connection) and the
// sessions opened on it. The allocator starts on first use.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	parentCtx       context.Context
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// Paces tab creation so bursts of NewSession do not swamp the browser.
	limiter *rate.Limiter

	mu       sync.Mutex
	sessions map[string]*Session
	driver   *driver.Driver
	started  bool
}

// NewManager validates the browser settings. Nothing is launched until a
// session is requested.
func NewManager(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*Manager, error) {
	if err := cfg.Browser.Validate(); err != nil {
		return nil, fmt.Errorf("cannot create browser manager: %w", err)
	}
	limit := rate.Inf
	if cfg.Browser.SessionRateLimit > 0 {
		limit = rate.Limit(cfg.Browser.SessionRateLimit)
	}
	m := &Manager{
		logger:    logger.Named("browser_manager"),
		cfg:       cfg,
		parentCtx: ctx,
		limiter:   rate.NewLimiter(limit, 1),
		sessions:  make(map[string]*Session),
	}
	m.logger.Info("Browser manager created (launch deferred).",
		zap.Bool("use_grid", cfg.Browser.UseGrid),
		zap.String("type", cfg.Browser.Type))
	return m, nil
}

// start creates the allocator context. Caller holds m.mu.
func (m *Manager) start() {
	if m.started {
		return
	}
	if m.cfg.Browser.UseGrid {
		m.logger.Info("Connecting to remote browser.", zap.String("hub_uri", m.cfg.Browser.HubURI))
		m.allocatorCtx, m.allocatorCancel = chromedp.NewRemoteAllocator(m.parentCtx, m.cfg.Browser.HubURI)
	} else {
		m.logger.Info("Launching local browser.", zap.Bool("headless", m.cfg.Browser.Headless))
		m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(m.parentCtx, DefaultAllocatorOptions(m.cfg.Browser)...)
	}
	m.started = true
}

// allocatorFlag is one Chrome command line switch.
type allocatorFlag struct {
	name  string
	value interface{}
}

// allocatorFlags lists the switches applied on top of chromedp's defaults,
// in order. Later entries win.
func allocatorFlags(cfg config.BrowserConfig) []allocatorFlag {
	flags := []allocatorFlag{
		{"headless", cfg.Headless},
		{"disable-translate", true},
		{"ignore-gpu-blocklist", true},
	}
	if cfg.IgnoreTLSErrors {
		flags = append(flags,
			allocatorFlag{"ignore-certificate-errors", true},
			allocatorFlag{"allow-insecure-localhost", true},
		)
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		flags = append(flags, allocatorFlag{"window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)})
	}
	if runtime.GOOS == "linux" {
		flags = append(flags,
			allocatorFlag{"no-sandbox", true},
			allocatorFlag{"disable-dev-shm-usage", true},
		)
	}

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags = append(flags, allocatorFlag{name, parts[1]})
		} else {
			flags = append(flags, allocatorFlag{name, true})
		}
	}
	return flags
}

// DefaultAllocatorOptions assembles the options for a local Chrome process.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range allocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	return opts
}

// NewSession opens a new tab and returns it as a driver handle.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting to open browser session: %w", err)
	}

	m.mu.Lock()
	m.start()
	allocCtx := m.allocatorCtx
	m.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	)

	launchTimeout := m.cfg.Browser.LaunchTimeout
	if launchTimeout <= 0 {
		launchTimeout = defaultLaunchTimeout
	}
	launchCtx, cancelLaunch := context.WithTimeout(ctx, launchTimeout)
	defer cancelLaunch()
	runCtx, cancelRun := CombineContext(tabCtx, launchCtx)
	defer cancelRun()

	// The first Run on a tab context starts the browser (or connects) and
	// attaches to the target.
	if err := chromedp.Run(runCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}

	var s *Session
	s = newSession(tabCtx, cancel, m.logger, m.cfg.Driver.PollInterval, func() { m.release(s) })
	m.register(s)

	m.logger.Info("Browser session opened.", zap.String("session_id", s.ID()))
	return s, nil
}

// Driver returns the manager's facade, opening its session on first call.
// Later calls return the same Driver until it is quit.
func (m *Manager) Driver(ctx context.Context, opts ...driver.Option) (*driver.Driver, error) {
	m.mu.Lock()
	d := m.driver
	m.mu.Unlock()
	if d != nil {
		return d, nil
	}

	s, err := m.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]driver.Option{driver.WithDefaultTimeout(m.cfg.Driver.DefaultTimeout)}, opts...)
	d = driver.New(s, m.logger, opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.driver != nil {
		// Lost a race with another caller; keep theirs.
		go s.Close(context.Background())
		return m.driver, nil
	}
	m.driver = d
	return d, nil
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
}

// release forgets a closed session, and the memoised driver if it wrapped
// that session.
func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.ID())
	if m.driver != nil && m.driver.ID() == s.ID() {
		m.driver = nil
	}
}

// ActiveSessions returns the number of open sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every open session and then the browser itself.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated.")

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		g.Go(func() error {
			return s.Close(gctx)
		})
	}
	err := g.Wait()
	if err != nil {
		m.logger.Warn("Error while closing sessions.", zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allocatorCancel != nil {
		m.allocatorCancel()
		m.allocatorCancel = nil
	}
	m.started = false
	m.driver = nil
	m.logger.Info("Browser manager shut down.")
	return err
}
