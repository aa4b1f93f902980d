// internal/driver/expectations.go
package driver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Expectations are boolean checks against one element. Each check waits
// through the driver's wait utilities and reports a timeout as false rather
// than an error. ToIncludeElement is the exception: it returns a
// *TimeoutError naming both selectors.
//
// A zero timeout argument means "use the default given to NewExpectations".
type Expectations struct {
	driver  *Driver
	element Element
	timeout time.Duration
}

// NewExpectations builds checks for el. It holds no resources.
func NewExpectations(d *Driver, el Element, timeout time.Duration) *Expectations {
	return &Expectations{driver: d, element: el, timeout: timeout}
}

func (x *Expectations) timeoutOr(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return x.timeout
}

// settle turns a timeout into false. Any other error is returned as-is.
func (x *Expectations) settle(check string, ok bool, err error) (bool, error) {
	if err == nil {
		return ok, nil
	}
	if IsTimeout(err) {
		x.driver.logger.Debug("Expectation not met before timeout.",
			zap.String("check", check),
			zap.String("selector", x.element.Selector()),
			zap.Error(err))
		return false, nil
	}
	return false, err
}

// ToBeVisible is true once the element is visible.
func (x *Expectations) ToBeVisible(ctx context.Context, timeout time.Duration) (bool, error) {
	ok, err := x.driver.WaitFor().ElementToBeVisible(ctx, x.element.Selector(), x.timeoutOr(timeout))
	return x.settle("to_be_visible", ok, err)
}

// ToBeInvisible is true once the element is present but not visible.
func (x *Expectations) ToBeInvisible(ctx context.Context, timeout time.Duration) (bool, error) {
	ok, err := x.driver.WaitFor().ElementToBeInvisible(ctx, x.element.Selector(), x.timeoutOr(timeout))
	return x.settle("to_be_invisible", ok, err)
}

// ToHaveClass is true once the element's class list contains class. class is
// a class name, not a CSS selector.
func (x *Expectations) ToHaveClass(ctx context.Context, class string, timeout time.Duration) (bool, error) {
	ok, err := x.driver.WaitFor().ElementToGetClass(ctx, x.element.Selector(), class, x.timeoutOr(timeout))
	return x.settle("to_have_class", ok, err)
}

// ToIncludeElement is true once child is attached to the DOM and locatable
// inside the element. Unlike the other checks a timeout is reported as a
// *TimeoutError, so callers must handle both outcomes.
func (x *Expectations) ToIncludeElement(ctx context.Context, child string, timeout time.Duration) (bool, error) {
	t := x.timeoutOr(timeout)
	w := x.driver.WaitFor()
	parent := x.element.Selector()

	ok, err := w.ElementInDOM(ctx, child, t)
	if err != nil {
		return false, x.includeErr(child, err)
	}
	if !ok {
		return false, nil
	}

	ok, err = w.ElementInside(ctx, parent, child, t)
	if err != nil {
		return false, x.includeErr(child, err)
	}
	return ok, nil
}

func (x *Expectations) includeErr(child string, err error) error {
	if IsTimeout(err) {
		return &TimeoutError{Selector: x.element.Selector(), Child: child, Err: err}
	}
	return err
}

// ShouldContainText is a loose comparison: case is ignored and whitespace is
// collapsed, so "some" matches "this is some text" and " TEST\n" matches "test".
func (x *Expectations) ShouldContainText(ctx context.Context, text string, timeout time.Duration) (bool, error) {
	ok, err := x.driver.WaitFor().ElementToHaveSimilarText(ctx, x.element.Selector(), text, x.timeoutOr(timeout))
	return x.settle("should_contain_text", ok, err)
}

// ShouldHaveExactText waits for the element to contain text and then
// requires its whole text to equal text.
func (x *Expectations) ShouldHaveExactText(ctx context.Context, text string, timeout time.Duration) (bool, error) {
	ok, err := x.driver.WaitFor().ElementToContainText(ctx, x.element.Selector(), text, x.timeoutOr(timeout))
	ok, err = x.settle("should_have_exact_text", ok, err)
	if err != nil || !ok {
		return false, err
	}

	actual, err := boundedText(ctx, x.driver.handle, x.element.Selector(), x.timeoutOr(timeout))
	if err != nil {
		return x.settle("should_have_exact_text", false, err)
	}
	return actual == text, nil
}

// ShouldBeStale is true once the element is detached or absent.
func (x *Expectations) ShouldBeStale(ctx context.Context, timeout time.Duration) (bool, error) {
	ok, err := x.driver.WaitFor().ElementStaleness(ctx, x.element.Selector(), x.timeoutOr(timeout))
	return x.settle("should_be_stale", ok, err)
}

// ShouldBeInvisible is true once the element is hidden to the user or not
// in the DOM at all.
func (x *Expectations) ShouldBeInvisible(ctx context.Context, timeout time.Duration) (bool, error) {
	ok, err := x.driver.WaitFor().ElementInvisibility(ctx, x.element.Selector(), x.timeoutOr(timeout))
	return x.settle("should_be_invisible", ok, err)
}

// boundedText reads the text of selector, giving up with ErrTimeout once
// timeout passes. A done ctx is reported as ctx's own error.
func boundedText(ctx context.Context, h Handle, selector string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return h.Text(ctx, selector)
	}
	lookCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := h.Text(lookCtx, selector)
	if err != nil && ctx.Err() == nil && lookCtx.Err() != nil {
		return "", fmt.Errorf("read text of %s after %v: %w", selector, timeout, ErrTimeout)
	}
	return text, err
}
