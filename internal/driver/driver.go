// internal/driver/driver.go
package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Driver is the facade callers chain against. It owns one browser handle and
// never hands it out: operations that return "self" on the handle return the
// Driver instead, both for the typed delegations below and for attributes
// reached through Forward.
type Driver struct {
	handle   Handle
	settings *Settings
	logger   *zap.Logger
}

// New wraps h. The handle is owned by the returned Driver and released by Quit.
func New(h Handle, logger *zap.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := DefaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	return &Driver{
		handle:   h,
		settings: s,
		logger:   logger.Named("driver").With(zap.String("session_id", h.ID())),
	}
}

// Settings returns the mutable configuration record.
func (d *Driver) Settings() *Settings { return d.settings }

// ID returns the identifier of the wrapped session.
func (d *Driver) ID() string { return d.handle.ID() }

// Forward invokes the attribute called name on the wrapped handle.
// Plain values are returned unchanged. Methods are called with args; when a
// method is declared to return the handle itself, the Driver is returned in
// its place. Unknown names yield an *AttributeMissingError.
func (d *Driver) Forward(ctx context.Context, name string, args ...interface{}) (interface{}, error) {
	attr, err := d.handle.Attribute(name)
	if err != nil {
		return nil, &AttributeMissingError{Name: name, Err: err}
	}
	if !attr.Callable() {
		return attr.Value, nil
	}

	res, err := attr.Call(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if attr.ReturnsSelf {
		return d, nil
	}
	return res, nil
}

// ActionChains returns a fresh low-level input builder bound to the handle.
func (d *Driver) ActionChains() *ActionChain {
	return NewActionChain(d.handle)
}

// WaitFor exposes the handle's wait utilities.
func (d *Driver) WaitFor() Waiter {
	return d.handle.Wait()
}

// InitElement returns a lazy element located by selector. Nothing is looked
// up until the element is first used. A non-positive timeout falls back to
// Settings.DefaultTimeout.
func (d *Driver) InitElement(selector string, timeout time.Duration) (Element, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("%w: selector should be not empty", ErrInvalidArgument)
	}
	if d.settings.ElementType == nil {
		return nil, ErrNoElementBinding
	}
	return d.settings.ElementType(d.handle, selector, d.resolveTimeout(timeout)), nil
}

// InitAllElements returns a lazy collection of every element matching
// selector. All members resolve on the first interaction with any of them.
func (d *Driver) InitAllElements(selector string, timeout time.Duration) (Elements, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("%w: selector should be not empty", ErrInvalidArgument)
	}
	if d.settings.ElementType == nil || d.settings.ElementArrayType == nil {
		return nil, ErrNoElementBinding
	}
	return d.settings.ElementArrayType(d.handle, selector, d.settings.ElementType, d.resolveTimeout(timeout)), nil
}

func (d *Driver) resolveTimeout(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return d.settings.DefaultTimeout
}

// -- Chaining delegations --

func (d *Driver) Navigate(ctx context.Context, url string) (*Driver, error) {
	d.logger.Debug("Navigating.", zap.String("url", url))
	if err := d.handle.Navigate(ctx, url); err != nil {
		return d, fmt.Errorf("navigate to %s: %w", url, err)
	}
	return d, nil
}

func (d *Driver) Back(ctx context.Context) (*Driver, error) {
	return d, d.handle.Back(ctx)
}

// GoForward moves forward in history. It is not named Forward because that
// name belongs to attribute forwarding.
func (d *Driver) GoForward(ctx context.Context) (*Driver, error) {
	return d, d.handle.Forward(ctx)
}

func (d *Driver) Refresh(ctx context.Context) (*Driver, error) {
	return d, d.handle.Refresh(ctx)
}

func (d *Driver) SwitchToFrame(ctx context.Context, selector string) (*Driver, error) {
	if strings.TrimSpace(selector) == "" {
		return d, fmt.Errorf("%w: frame selector should be not empty", ErrInvalidArgument)
	}
	if err := d.handle.SwitchToFrame(ctx, selector); err != nil {
		return d, fmt.Errorf("switch to frame %s: %w", selector, err)
	}
	return d, nil
}

func (d *Driver) SwitchToDefaultContent(ctx context.Context) (*Driver, error) {
	return d, d.handle.SwitchToDefaultContent(ctx)
}

func (d *Driver) SetWindowSize(ctx context.Context, width, height int) (*Driver, error) {
	if width <= 0 || height <= 0 {
		return d, fmt.Errorf("%w: window size %dx%d", ErrInvalidArgument, width, height)
	}
	return d, d.handle.SetWindowSize(ctx, width, height)
}

// -- Value delegations --

func (d *Driver) Title(ctx context.Context) (string, error) {
	return d.handle.Title(ctx)
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	return d.handle.CurrentURL(ctx)
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	return d.handle.PageSource(ctx)
}

// ExecuteScript evaluates script and unmarshals its result into res, which may be nil.
func (d *Driver) ExecuteScript(ctx context.Context, script string, res interface{}) error {
	return d.handle.ExecuteScript(ctx, script, res)
}

// Screenshot captures the viewport as PNG.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.handle.Screenshot(ctx)
}

// FindText returns the text of the first element matching selector.
func (d *Driver) FindText(ctx context.Context, selector string) (string, error) {
	return d.handle.Text(ctx, selector)
}

// Count returns the number of elements matching selector right now.
func (d *Driver) Count(ctx context.Context, selector string) (int, error) {
	return d.handle.Count(ctx, selector)
}

// Quit closes the wrapped session.
func (d *Driver) Quit(ctx context.Context) error {
	d.logger.Debug("Quitting driver.")
	return d.handle.Close(ctx)
}
