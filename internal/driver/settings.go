// internal/driver/settings.go
package driver

import "time"

// DefaultTimeout is used when neither the caller nor the configuration
// provides one.
const DefaultTimeout = 10 * time.Second

// ElementFactory builds a lazy element handle. It must not perform I/O.
type ElementFactory func(h Handle, selector string, timeout time.Duration) Element

// CollectionFactory builds a lazy element collection whose members are made
// with newElement. It must not perform I/O.
type CollectionFactory func(h Handle, selector string, newElement ElementFactory, timeout time.Duration) Elements

// Settings is the mutable configuration record of a Driver. It is read when
// elements are created, so changes apply to elements initialised afterwards.
type Settings struct {
	DefaultTimeout   time.Duration
	ElementType      ElementFactory
	ElementArrayType CollectionFactory
}

// DefaultSettings binds the lazy element types shipped with this package.
func DefaultSettings() *Settings {
	return &Settings{
		DefaultTimeout: DefaultTimeout,
		ElementType: func(h Handle, selector string, timeout time.Duration) Element {
			return NewLazyElement(h, selector, timeout)
		},
		ElementArrayType: func(h Handle, selector string, newElement ElementFactory, timeout time.Duration) Elements {
			return NewLazyElements(h, selector, newElement, timeout)
		},
	}
}

// Option customises a Driver at construction.
type Option func(*Settings)

// WithDefaultTimeout overrides the timeout used when none is passed.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Settings) {
		if d > 0 {
			s.DefaultTimeout = d
		}
	}
}

// WithElementType binds a custom single element type.
func WithElementType(f ElementFactory) Option {
	return func(s *Settings) { s.ElementType = f }
}

// WithElementArrayType binds a custom element collection type.
func WithElementArrayType(f CollectionFactory) Option {
	return func(s *Settings) { s.ElementArrayType = f }
}
