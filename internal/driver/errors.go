// internal/driver/errors.go
package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for empty selectors and malformed arguments.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAttributeMissing is matched by every AttributeMissingError.
	ErrAttributeMissing = errors.New("attribute missing")
	// ErrTimeout is the single timeout signal used by wait utilities. Browser
	// implementations translate their own deadline errors into it.
	ErrTimeout = errors.New("timed out")
	// ErrNoElementBinding is returned when the settings carry no element factory.
	ErrNoElementBinding = errors.New("no element type bound")
)

// AttributeMissingError reports a name the wrapped handle does not provide.
type AttributeMissingError struct {
	Name string
	Err  error
}

func (e *AttributeMissingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("browser handle has no attribute %q", e.Name)
	}
	return fmt.Sprintf("browser handle has no attribute %q: %v", e.Name, e.Err)
}

// Unwrap returns the lookup failure reported by the handle.
func (e *AttributeMissingError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrAttributeMissing) match regardless of the cause.
func (e *AttributeMissingError) Is(target error) bool { return target == ErrAttributeMissing }

// TimeoutError is raised by Expectations.ToIncludeElement when the child
// selector never shows up under the parent.
type TimeoutError struct {
	Selector string
	Child    string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s has no element with locator='%s'", e.Selector, e.Child)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// IsTimeout reports whether err carries ErrTimeout anywhere in its chain.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
