// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context that carries the values of primary (the
// chromedp tab context) and is done when either primary or op is done. op's
// deadline, if any, is copied over so timeouts still surface as
// context.DeadlineExceeded.
func CombineContext(primary, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	if deadline, ok := op.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}

	stop := context.AfterFunc(op, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// detachedContext keeps the values of its parent but none of its
// cancellation or deadline.
type detachedContext struct {
	context.Context
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{}       { return nil }
func (detachedContext) Err() error                  { return nil }

// Detach returns a context that inherits values from ctx but is not canceled
// with it. Used to close a tab after the caller's context has expired.
func Detach(ctx context.Context) context.Context {
	return detachedContext{ctx}
}
