// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sedriver/internal/driver"
)

// ErrSessionClosed is returned by every operation on a closed session.
var ErrSessionClosed = errors.New("browser session is closed")

// Session is one browser tab driven through chromedp. It implements
// driver.Handle.
type Session struct {
	id     string
	ctx    context.Context // chromedp tab context; carries the CDP target.
	cancel context.CancelFunc
	logger *zap.Logger
	waits  *waiter

	mu     sync.RWMutex
	frame  *cdp.Node
	closed bool

	onClose   func()
	closeOnce sync.Once
}

var _ driver.Handle = (*Session)(nil)

// newSession wraps an already created chromedp tab context.
func newSession(tabCtx context.Context, cancel context.CancelFunc, logger *zap.Logger, pollInterval time.Duration, onClose func()) *Session {
	id := uuid.New().String()
	s := &Session{
		id:      id,
		ctx:     tabCtx,
		cancel:  cancel,
		logger:  logger.With(zap.String("session_id", id)),
		onClose: onClose,
	}
	s.waits = &waiter{s: s, interval: pollInterval}
	return s
}

func (s *Session) ID() string { return s.id }

// RunActions runs actions on the tab. ctx bounds the call; the tab context
// supplies the CDP connection.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		// Prefer the caller's error so deadlines are reported as such.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// queryOpts scopes a query for selector to the current frame, if one was
// switched to. XPath inside a frame is evaluated against the frame's document
// because BySearch cannot be scoped.
func (s *Session) queryOpts(selector string, by chromedp.QueryOption) []chromedp.QueryOption {
	frame := s.currentFrame()
	if frame == nil {
		return []chromedp.QueryOption{by}
	}
	if driver.GetSelectorType(selector) == driver.XPath {
		by = byXPathUnder(selector)
	}
	return []chromedp.QueryOption{by, chromedp.FromNode(frame)}
}

func (s *Session) currentFrame() *cdp.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// -- Navigation --

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.RunActions(ctx, chromedp.Navigate(url)); err != nil {
		return err
	}
	s.resetFrame()
	return nil
}

func (s *Session) Back(ctx context.Context) error {
	if err := s.RunActions(ctx, chromedp.NavigateBack()); err != nil {
		return err
	}
	s.resetFrame()
	return nil
}

func (s *Session) Forward(ctx context.Context) error {
	if err := s.RunActions(ctx, chromedp.NavigateForward()); err != nil {
		return err
	}
	s.resetFrame()
	return nil
}

func (s *Session) Refresh(ctx context.Context) error {
	if err := s.RunActions(ctx, chromedp.Reload()); err != nil {
		return err
	}
	s.resetFrame()
	return nil
}

func (s *Session) resetFrame() {
	s.mu.Lock()
	s.frame = nil
	s.mu.Unlock()
}

// -- Page state --

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.RunActions(ctx, chromedp.Title(&title))
	return title, err
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := s.RunActions(ctx, chromedp.Location(&loc))
	return loc, err
}

// PageSource returns the outer HTML of the current document, or of the
// current frame's document after SwitchToFrame.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	var html string
	err := s.RunActions(ctx, chromedp.OuterHTML("html", &html, s.queryOpts("html", chromedp.ByQuery)...))
	return html, err
}

func (s *Session) ExecuteScript(ctx context.Context, script string, res interface{}) error {
	return s.RunActions(ctx, chromedp.Evaluate(script, res))
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.RunActions(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (s *Session) SetWindowSize(ctx context.Context, width, height int) error {
	return s.RunActions(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

// -- Frames --

// SwitchToFrame scopes later queries to the document of the frame matching
// selector. Frames nest: the selector is resolved inside the current frame.
func (s *Session) SwitchToFrame(ctx context.Context, selector string) error {
	var nodes []*cdp.Node
	opts := append(s.queryOpts(selector, driver.QueryOption(selector)), chromedp.AtLeast(1))
	if err := s.RunActions(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return err
	}
	frame := nodes[0]
	if name := strings.ToUpper(frame.NodeName); name != "IFRAME" && name != "FRAME" {
		return fmt.Errorf("%s matched a %s element, not a frame", selector, frame.NodeName)
	}

	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()
	s.logger.Debug("Switched to frame.", zap.String("selector", selector))
	return nil
}

func (s *Session) SwitchToDefaultContent(ctx context.Context) error {
	s.resetFrame()
	return nil
}

// -- Element queries --

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.RunActions(ctx, chromedp.Text(selector, &text, s.queryOpts(selector, driver.QueryOption(selector))...))
	return text, err
}

func (s *Session) Nodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	opts := append(s.queryOpts(selector, driver.QueryAllOption(selector)), chromedp.AtLeast(0))
	if err := s.RunActions(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	nodes, err := s.Nodes(ctx, selector)
	return len(nodes), err
}

func (s *Session) Wait() driver.Waiter { return s.waits }

// -- Lifecycle --

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("Closing session.")
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		// The caller's context may already be done; the tab must still close.
		closeCtx, cancel := context.WithTimeout(Detach(ctx), 10*time.Second)
		defer cancel()
		tabCtx, cancelTab := CombineContext(s.ctx, closeCtx)
		defer cancelTab()
		if cerr := chromedp.Cancel(tabCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("close tab: %w", cerr)
		}
		s.cancel()

		if s.onClose != nil {
			s.onClose()
		}
	})
	return err
}
