// internal/driver/element.go
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// ErrNoSuchElement is returned when a lazy element resolves to nothing.
var ErrNoSuchElement = errors.New("no such element")

// RefAttribute is set on every member of a resolved LazyElements so each one
// can be addressed by its own CSS selector.
const RefAttribute = "data-sedriver-ref"

// WebElementWrapper marks element handle types. It has no exported members;
// implementations embed ElementMarker.
type WebElementWrapper interface {
	webElement()
}

// ElementMarker satisfies WebElementWrapper when embedded.
type ElementMarker struct{}

func (ElementMarker) webElement() {}

// Element is a selector-bound reference to a page element.
type Element interface {
	WebElementWrapper
	Selector() string
	Timeout() time.Duration
}

// Elements is a selector-bound reference to every matching page element.
type Elements interface {
	Selector() string
	Timeout() time.Duration
	Len(ctx context.Context) (int, error)
	At(ctx context.Context, i int) (Element, error)
	All(ctx context.Context) ([]Element, error)
}

// -- LazyElement --

// LazyElement resolves its selector on first interaction and caches the node
// until Reset.
type LazyElement struct {
	ElementMarker
	handle   Handle
	selector string
	timeout  time.Duration

	mu   sync.Mutex
	node *cdp.Node
}

var _ Element = (*LazyElement)(nil)

// NewLazyElement binds selector to h. No lookup happens here.
func NewLazyElement(h Handle, selector string, timeout time.Duration) *LazyElement {
	return &LazyElement{handle: h, selector: selector, timeout: timeout}
}

func (e *LazyElement) Selector() string       { return e.selector }
func (e *LazyElement) Timeout() time.Duration { return e.timeout }

// Resolve waits up to the element's timeout for the selector to be attached
// to the DOM and caches the first match.
func (e *LazyElement) Resolve(ctx context.Context) (*cdp.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.node != nil {
		return e.node, nil
	}

	if _, err := e.handle.Wait().ElementInDOM(ctx, e.selector, e.timeout); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", e.selector, err)
	}
	nodes, err := e.handle.Nodes(ctx, e.selector)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", e.selector, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("resolve %s: %w", e.selector, ErrNoSuchElement)
	}
	e.node = nodes[0]
	return e.node, nil
}

// Reset forgets the resolved node; the next interaction looks it up again.
func (e *LazyElement) Reset() {
	e.mu.Lock()
	e.node = nil
	e.mu.Unlock()
}

func (e *LazyElement) run(ctx context.Context, build func(ids []cdp.NodeID) chromedp.Action) error {
	node, err := e.Resolve(ctx)
	if err != nil {
		return err
	}
	return e.handle.RunActions(ctx, build([]cdp.NodeID{node.NodeID}))
}

// Text returns the element's visible text.
func (e *LazyElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.run(ctx, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.Text(ids, &text, chromedp.ByNodeID)
	})
	return text, err
}

func (e *LazyElement) Click(ctx context.Context) error {
	return e.run(ctx, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.Click(ids, chromedp.ByNodeID)
	})
}

func (e *LazyElement) SendKeys(ctx context.Context, keys string) error {
	return e.run(ctx, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.SendKeys(ids, keys, chromedp.ByNodeID)
	})
}

func (e *LazyElement) Clear(ctx context.Context) error {
	return e.run(ctx, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.Clear(ids, chromedp.ByNodeID)
	})
}

// AttributeValue returns the named attribute and whether it is present.
func (e *LazyElement) AttributeValue(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := e.run(ctx, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.AttributeValue(ids, name, &value, &ok, chromedp.ByNodeID)
	})
	return value, ok, err
}

const visibleJS = `function() {
	const style = window.getComputedStyle(this);
	return style.visibility !== 'hidden' && style.display !== 'none';
}`

// IsDisplayed reports whether the element currently has a rendered box and
// is not hidden by style. It does not wait.
func (e *LazyElement) IsDisplayed(ctx context.Context) (bool, error) {
	node, err := e.Resolve(ctx)
	if err != nil {
		return false, err
	}
	var visible bool
	err = e.handle.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		// Nodes without a layout box (display:none, detached) have no box model.
		if _, err := dom.GetBoxModel().WithNodeID(node.NodeID).Do(ctx); err != nil {
			visible = false
			return nil
		}
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		err = chromedp.CallFunctionOn(visibleJS, &visible,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
		).Do(ctx)
		// Fails after navigation; ignored.
		_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		return err
	}))
	return visible, err
}

// Expect returns the expectation checks for this element, defaulting to its
// own timeout.
func (e *LazyElement) Expect(d *Driver) *Expectations {
	return NewExpectations(d, e, e.timeout)
}

// -- LazyElements --

// LazyElements resolves every match of its selector on the first call to
// any accessor. Members are built with the bound element factory and
// addressed through RefAttribute.
type LazyElements struct {
	handle     Handle
	selector   string
	newElement ElementFactory
	timeout    time.Duration
	ref        string

	mu       sync.Mutex
	resolved bool
	items    []Element
}

var _ Elements = (*LazyElements)(nil)

// NewLazyElements binds selector to h. No lookup happens here.
func NewLazyElements(h Handle, selector string, newElement ElementFactory, timeout time.Duration) *LazyElements {
	return &LazyElements{
		handle:     h,
		selector:   selector,
		newElement: newElement,
		timeout:    timeout,
		ref:        uuid.NewString()[:8],
	}
}

func (l *LazyElements) Selector() string       { return l.selector }
func (l *LazyElements) Timeout() time.Duration { return l.timeout }

// resolve waits for at least one match. A timeout resolves to an empty
// collection rather than an error.
func (l *LazyElements) resolve(ctx context.Context) ([]Element, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolved {
		return l.items, nil
	}

	if _, err := l.handle.Wait().ElementInDOM(ctx, l.selector, l.timeout); err != nil {
		if IsTimeout(err) {
			l.resolved = true
			l.items = nil
			return nil, nil
		}
		return nil, fmt.Errorf("resolve all %s: %w", l.selector, err)
	}

	nodes, err := l.handle.Nodes(ctx, l.selector)
	if err != nil {
		return nil, fmt.Errorf("resolve all %s: %w", l.selector, err)
	}

	tags := make([]chromedp.Action, 0, len(nodes))
	items := make([]Element, 0, len(nodes))
	for i, n := range nodes {
		ref := fmt.Sprintf("%s-%d", l.ref, i)
		tags = append(tags, dom.SetAttributeValue(n.NodeID, RefAttribute, ref))
		items = append(items, l.newElement(l.handle, fmt.Sprintf(`[%s="%s"]`, RefAttribute, ref), l.timeout))
	}
	if len(tags) > 0 {
		if err := l.handle.RunActions(ctx, tags...); err != nil {
			return nil, fmt.Errorf("tag members of %s: %w", l.selector, err)
		}
	}

	l.items = items
	l.resolved = true
	return l.items, nil
}

func (l *LazyElements) Len(ctx context.Context) (int, error) {
	items, err := l.resolve(ctx)
	return len(items), err
}

func (l *LazyElements) At(ctx context.Context, i int) (Element, error) {
	items, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(items) {
		return nil, fmt.Errorf("%w: index %d out of range for %d elements matching %s", ErrInvalidArgument, i, len(items), l.selector)
	}
	return items[i], nil
}

func (l *LazyElements) All(ctx context.Context) ([]Element, error) {
	items, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(items))
	copy(out, items)
	return out, nil
}

// Texts returns the text of every member in document order.
func (l *LazyElements) Texts(ctx context.Context) ([]string, error) {
	items, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(items))
	for _, el := range items {
		t, err := boundedText(ctx, l.handle, el.Selector(), l.timeout)
		if err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, nil
}

// Reset forgets the resolved members.
func (l *LazyElements) Reset() {
	l.mu.Lock()
	l.resolved = false
	l.items = nil
	l.mu.Unlock()
}
