// internal/driver/actions.go
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// ActionChain queues low-level input actions and sends them to the browser
// in one batch on Perform. Builder methods return the chain so calls can be
// strung together.
type ActionChain struct {
	handle  Handle
	actions []chromedp.Action
}

// NewActionChain returns an empty chain bound to h.
func NewActionChain(h Handle) *ActionChain {
	return &ActionChain{handle: h}
}

func (c *ActionChain) add(a chromedp.Action) *ActionChain {
	c.actions = append(c.actions, a)
	return c
}

// Click clicks the first visible element matching selector.
func (c *ActionChain) Click(selector string) *ActionChain {
	return c.add(chromedp.Click(selector, QueryOption(selector), chromedp.NodeVisible))
}

// DoubleClick double clicks the first visible element matching selector.
func (c *ActionChain) DoubleClick(selector string) *ActionChain {
	return c.add(chromedp.DoubleClick(selector, QueryOption(selector), chromedp.NodeVisible))
}

// MoveTo moves the pointer to viewport coordinates.
func (c *ActionChain) MoveTo(x, y float64) *ActionChain {
	return c.add(input.DispatchMouseEvent(input.MouseMoved, x, y))
}

// ClickAt presses and releases the left button at viewport coordinates.
func (c *ActionChain) ClickAt(x, y float64) *ActionChain {
	return c.add(chromedp.MouseClickXY(x, y))
}

// KeyDown presses key without releasing it.
func (c *ActionChain) KeyDown(key string) *ActionChain {
	return c.add(input.DispatchKeyEvent(input.KeyDown).WithKey(key))
}

// KeyUp releases key.
func (c *ActionChain) KeyUp(key string) *ActionChain {
	return c.add(input.DispatchKeyEvent(input.KeyUp).WithKey(key))
}

// SendKeys types text into whatever currently has focus.
func (c *ActionChain) SendKeys(text string) *ActionChain {
	return c.add(chromedp.KeyEvent(text))
}

// SendKeysTo focuses the element matching selector and types text into it.
func (c *ActionChain) SendKeysTo(selector, text string) *ActionChain {
	return c.add(chromedp.SendKeys(selector, text, QueryOption(selector), chromedp.NodeVisible))
}

// Pause waits for d between two actions.
func (c *ActionChain) Pause(d time.Duration) *ActionChain {
	return c.add(chromedp.Sleep(d))
}

// Len returns the number of queued actions.
func (c *ActionChain) Len() int { return len(c.actions) }

// Reset drops every queued action.
func (c *ActionChain) Reset() *ActionChain {
	c.actions = nil
	return c
}

// Perform runs the queued actions in order and clears the queue, whether or
// not they succeeded.
func (c *ActionChain) Perform(ctx context.Context) error {
	if len(c.actions) == 0 {
		return nil
	}
	actions := c.actions
	c.actions = nil
	if err := c.handle.RunActions(ctx, actions...); err != nil {
		return fmt.Errorf("perform %d queued actions: %w", len(actions), err)
	}
	return nil
}
