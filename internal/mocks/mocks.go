// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/sedriver/internal/driver"
)

// -- Handle Mock --

// MockHandle mocks driver.Handle. Wait returns Waits when it is set, so tests
// can stub the wait utilities without an extra expectation.
type MockHandle struct {
	mock.Mock
	Waits *MockWaiter
}

var _ driver.Handle = (*MockHandle)(nil)

// NewMockHandle returns a handle mock with an attached waiter mock.
func NewMockHandle() *MockHandle {
	return &MockHandle{Waits: new(MockWaiter)}
}

func (m *MockHandle) ID() string { return m.Called().String(0) }

func (m *MockHandle) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	return m.Called(ctx, actions).Error(0)
}

func (m *MockHandle) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}
func (m *MockHandle) Back(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockHandle) Forward(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockHandle) Refresh(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockHandle) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) PageSource(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) SwitchToFrame(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockHandle) SwitchToDefaultContent(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) SetWindowSize(ctx context.Context, width, height int) error {
	return m.Called(ctx, width, height).Error(0)
}

func (m *MockHandle) ExecuteScript(ctx context.Context, script string, res interface{}) error {
	return m.Called(ctx, script, res).Error(0)
}

func (m *MockHandle) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var buf []byte
	if b := args.Get(0); b != nil {
		buf = b.([]byte)
	}
	return buf, args.Error(1)
}

func (m *MockHandle) Text(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) Count(ctx context.Context, selector string) (int, error) {
	args := m.Called(ctx, selector)
	return args.Int(0), args.Error(1)
}

func (m *MockHandle) Nodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	args := m.Called(ctx, selector)
	var nodes []*cdp.Node
	if n := args.Get(0); n != nil {
		nodes = n.([]*cdp.Node)
	}
	return nodes, args.Error(1)
}

func (m *MockHandle) Attribute(name string) (driver.Attribute, error) {
	args := m.Called(name)
	return args.Get(0).(driver.Attribute), args.Error(1)
}

func (m *MockHandle) Wait() driver.Waiter {
	if m.Waits != nil {
		return m.Waits
	}
	return m.Called().Get(0).(driver.Waiter)
}

func (m *MockHandle) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

// -- Waiter Mock --

// MockWaiter mocks driver.Waiter.
type MockWaiter struct {
	mock.Mock
}

var _ driver.Waiter = (*MockWaiter)(nil)

func (m *MockWaiter) result(args mock.Arguments) (bool, error) {
	return args.Bool(0), args.Error(1)
}

func (m *MockWaiter) ElementToBeVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, timeout))
}

func (m *MockWaiter) ElementToBeInvisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, timeout))
}

func (m *MockWaiter) ElementToGetClass(ctx context.Context, selector, class string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, class, timeout))
}

func (m *MockWaiter) ElementInDOM(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, timeout))
}

func (m *MockWaiter) ElementInside(ctx context.Context, parent, child string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, parent, child, timeout))
}

func (m *MockWaiter) ElementToContainText(ctx context.Context, selector, text string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, text, timeout))
}

func (m *MockWaiter) ElementToHaveSimilarText(ctx context.Context, selector, text string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, text, timeout))
}

func (m *MockWaiter) ElementStaleness(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, timeout))
}

func (m *MockWaiter) ElementInvisibility(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return m.result(m.Called(ctx, selector, timeout))
}

// -- CDP Executor Mock --

// MockExecutor mocks cdp.Executor so chromedp and cdproto actions can run
// without a browser. Expectations receive the method name, the params and the
// result pointer to fill in.
type MockExecutor struct {
	mock.Mock
}

var _ cdp.Executor = (*MockExecutor)(nil)

func (m *MockExecutor) Execute(ctx context.Context, method string, params, res interface{}) error {
	return m.Called(method, params, res).Error(0)
}

// Context returns parent with m installed as its CDP executor.
func (m *MockExecutor) Context(parent context.Context) context.Context {
	return cdp.WithExecutor(parent, m)
}

// RunActions is a Run callback for MockHandle.RunActions that executes the
// actions against m and records the first failure in errp.
func (m *MockExecutor) RunActions(errp *error) func(mock.Arguments) {
	return func(args mock.Arguments) {
		ctx := m.Context(args.Get(0).(context.Context))
		for _, a := range args.Get(1).([]chromedp.Action) {
			if err := a.Do(ctx); err != nil && *errp == nil {
				*errp = err
			}
		}
	}
}
