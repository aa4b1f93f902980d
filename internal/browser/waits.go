// internal/browser/waits.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sedriver/internal/driver"
)

// findJS resolves a selector the same way driver.GetSelectorType classifies it.
const findJS = `const find = (sel, xpath, root) => xpath
	? document.evaluate(sel, root || document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue
	: (root || document).querySelector(sel);
const norm = (s) => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
const textOf = (el) => el.innerText !== undefined ? el.innerText : el.textContent;`

const (
	hasClassJS = `(sel, xpath, cls) => {` + findJS + `
	const el = find(sel, xpath);
	return !!el && el.classList.contains(cls);
}`

	containsTextJS = `(sel, xpath, text) => {` + findJS + `
	const el = find(sel, xpath);
	return !!el && (textOf(el) || '').includes(text);
}`

	similarTextJS = `(sel, xpath, text) => {` + findJS + `
	const el = find(sel, xpath);
	return !!el && norm(textOf(el)).includes(norm(text));
}`

	hiddenOrAbsentJS = `(sel, xpath) => {` + findJS + `
	const el = find(sel, xpath);
	if (!el || !el.isConnected) return true;
	const style = window.getComputedStyle(el);
	const rect = el.getBoundingClientRect();
	return style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0' ||
		rect.width === 0 || rect.height === 0;
}`

	insideJS = `(parent, parentXPath, child, childXPath) => {` + findJS + `
	const root = find(parent, parentXPath);
	if (!root) return false;
	return !!find(childXPath && child.startsWith('/') ? '.' + child : child, childXPath, root);
}`
)

// waiter implements driver.Waiter with chromedp's wait and poll actions.
type waiter struct {
	s        *Session
	interval time.Duration
}

var _ driver.Waiter = (*waiter)(nil)

// run bounds actions by timeout and maps an expired wait onto driver.ErrTimeout.
func (w *waiter) run(ctx context.Context, what string, timeout time.Duration, actions ...chromedp.Action) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := w.s.RunActions(opCtx, actions...)
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		// The caller gave up; that is not a wait timeout.
		return false, ctx.Err()
	}
	if errors.Is(err, chromedp.ErrPollingTimeout) || errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		w.s.logger.Debug("Wait timed out.", zap.String("wait", what), zap.Duration("timeout", timeout))
		return false, fmt.Errorf("%s after %v: %w", what, timeout, driver.ErrTimeout)
	}
	return false, fmt.Errorf("%s: %w", what, err)
}

// poll evaluates fn in the current frame until it returns true.
func (w *waiter) poll(ctx context.Context, what string, timeout time.Duration, fn string, args ...interface{}) (bool, error) {
	var ok bool
	opts := []chromedp.PollOption{
		chromedp.WithPollingArgs(args...),
		chromedp.WithPollingTimeout(timeout),
	}
	if w.interval > 0 {
		opts = append(opts, chromedp.WithPollingInterval(w.interval))
	}
	if frame := w.s.currentFrame(); frame != nil {
		opts = append(opts, chromedp.WithPollingInFrame(frame))
	}
	return w.run(ctx, what, timeout, chromedp.PollFunction(fn, &ok, opts...))
}

func isXPath(selector string) bool {
	return driver.GetSelectorType(selector) == driver.XPath
}

func (w *waiter) ElementToBeVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return w.run(ctx, "wait for "+selector+" to be visible", timeout,
		chromedp.WaitVisible(selector, w.s.queryOpts(selector, driver.QueryOption(selector))...))
}

func (w *waiter) ElementToBeInvisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return w.run(ctx, "wait for "+selector+" to be invisible", timeout,
		chromedp.WaitNotVisible(selector, w.s.queryOpts(selector, driver.QueryOption(selector))...))
}

func (w *waiter) ElementInDOM(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return w.run(ctx, "wait for "+selector+" in DOM", timeout,
		chromedp.WaitReady(selector, w.s.queryOpts(selector, driver.QueryOption(selector))...))
}

func (w *waiter) ElementStaleness(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return w.run(ctx, "wait for "+selector+" to go stale", timeout,
		chromedp.WaitNotPresent(selector, w.s.queryOpts(selector, driver.QueryOption(selector))...))
}

func (w *waiter) ElementToGetClass(ctx context.Context, selector, class string, timeout time.Duration) (bool, error) {
	return w.poll(ctx, "wait for "+selector+" to get class "+class, timeout, hasClassJS, selector, isXPath(selector), class)
}

func (w *waiter) ElementToContainText(ctx context.Context, selector, text string, timeout time.Duration) (bool, error) {
	return w.poll(ctx, "wait for "+selector+" to contain text", timeout, containsTextJS, selector, isXPath(selector), text)
}

func (w *waiter) ElementToHaveSimilarText(ctx context.Context, selector, text string, timeout time.Duration) (bool, error) {
	return w.poll(ctx, "wait for "+selector+" to have similar text", timeout, similarTextJS, selector, isXPath(selector), text)
}

func (w *waiter) ElementInvisibility(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return w.poll(ctx, "wait for "+selector+" to be hidden or absent", timeout, hiddenOrAbsentJS, selector, isXPath(selector))
}

func (w *waiter) ElementInside(ctx context.Context, parent, child string, timeout time.Duration) (bool, error) {
	return w.poll(ctx, "wait for "+child+" inside "+parent, timeout, insideJS, parent, isXPath(parent), child, isXPath(child))
}
