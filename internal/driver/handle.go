// internal/driver/handle.go
package driver

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Handle is the capability set a browser session must provide to be driven
// through a Driver. The concrete implementation is browser.Session, which
// wraps a chromedp tab. Keeping the facade on an interface lets the
// expectation logic be tested without a running browser.
type Handle interface {
	ID() string

	// RunActions executes raw chromedp actions against the session's tab.
	RunActions(ctx context.Context, actions ...chromedp.Action) error

	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Refresh(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	SwitchToFrame(ctx context.Context, selector string) error
	SwitchToDefaultContent(ctx context.Context) error
	SetWindowSize(ctx context.Context, width, height int) error
	ExecuteScript(ctx context.Context, script string, res interface{}) error
	Screenshot(ctx context.Context) ([]byte, error)

	// Text returns the visible text of the first element matching selector.
	Text(ctx context.Context, selector string) (string, error)
	// Count returns how many elements currently match selector.
	Count(ctx context.Context, selector string) (int, error)
	// Nodes returns every element currently matching selector, without waiting.
	Nodes(ctx context.Context, selector string) ([]*cdp.Node, error)

	// Attribute resolves a named operation or property for Driver.Forward.
	Attribute(name string) (Attribute, error)

	// Wait exposes the handle's wait utilities.
	Wait() Waiter

	Close(ctx context.Context) error
}

// Method is a callable attribute of a handle.
type Method func(ctx context.Context, args ...interface{}) (interface{}, error)

// Attribute is a named member of a handle. A nil Call means the attribute is
// a plain value. ReturnsSelf marks methods whose result is the handle itself;
// the facade substitutes itself for those so chains keep going through it.
type Attribute struct {
	Value       interface{}
	Call        Method
	ReturnsSelf bool
}

// Callable reports whether the attribute is a method.
func (a Attribute) Callable() bool { return a.Call != nil }

// ValueAttribute wraps a plain value as an attribute.
func ValueAttribute(v interface{}) Attribute { return Attribute{Value: v} }

// MethodAttribute wraps fn as a callable attribute.
func MethodAttribute(fn Method) Attribute { return Attribute{Call: fn} }

// ChainAttribute wraps fn as a callable attribute that returns the handle.
func ChainAttribute(fn Method) Attribute { return Attribute{Call: fn, ReturnsSelf: true} }

// Waiter is the wait-utility namespace of a handle. Every method blocks until
// the condition holds, returning (true, nil), or until timeout elapses,
// returning an error that matches ErrTimeout. Other failures are returned
// as-is.
type Waiter interface {
	ElementToBeVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	ElementToBeInvisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	ElementToGetClass(ctx context.Context, selector, class string, timeout time.Duration) (bool, error)
	ElementInDOM(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	// ElementInside waits for child to be locatable within the first parent match.
	ElementInside(ctx context.Context, parent, child string, timeout time.Duration) (bool, error)
	// ElementToContainText is an exact substring match.
	ElementToContainText(ctx context.Context, selector, text string, timeout time.Duration) (bool, error)
	// ElementToHaveSimilarText ignores case and surrounding or repeated whitespace.
	ElementToHaveSimilarText(ctx context.Context, selector, text string, timeout time.Duration) (bool, error)
	ElementStaleness(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	ElementInvisibility(ctx context.Context, selector string, timeout time.Duration) (bool, error)
}
