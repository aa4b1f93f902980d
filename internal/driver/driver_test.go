// internal/driver/driver_test.go
package driver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sedriver/internal/driver"
	"github.com/xkilldash9x/sedriver/internal/mocks"
)

// setupDriver returns a driver over a fresh handle mock. The mock only
// expects ID, so any unplanned browser call fails the test.
func setupDriver(t *testing.T, opts ...driver.Option) (*driver.Driver, *mocks.MockHandle) {
	t.Helper()
	h := mocks.NewMockHandle()
	h.On("ID").Return("session-1")
	d := driver.New(h, zaptest.NewLogger(t), opts...)
	t.Cleanup(func() {
		h.AssertExpectations(t)
		h.Waits.AssertExpectations(t)
	})
	return d, h
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		d, _ := setupDriver(t)
		assert.Equal(t, "session-1", d.ID())
		assert.Equal(t, driver.DefaultTimeout, d.Settings().DefaultTimeout)
		assert.NotNil(t, d.Settings().ElementType)
		assert.NotNil(t, d.Settings().ElementArrayType)
	})

	t.Run("NilLogger", func(t *testing.T) {
		h := mocks.NewMockHandle()
		h.On("ID").Return("session-2")
		assert.NotPanics(t, func() { driver.New(h, nil) })
	})

	t.Run("WithDefaultTimeout", func(t *testing.T) {
		d, _ := setupDriver(t, driver.WithDefaultTimeout(3*time.Second))
		assert.Equal(t, 3*time.Second, d.Settings().DefaultTimeout)
	})

	t.Run("NonPositiveTimeoutIgnored", func(t *testing.T) {
		d, _ := setupDriver(t, driver.WithDefaultTimeout(0), driver.WithDefaultTimeout(-time.Second))
		assert.Equal(t, driver.DefaultTimeout, d.Settings().DefaultTimeout)
	})
}

func TestDriver_Forward(t *testing.T) {
	ctx := context.Background()

	t.Run("PlainValue", func(t *testing.T) {
		d, h := setupDriver(t)
		h.On("Attribute", "session_id").Return(driver.ValueAttribute("abc"), nil)

		got, err := d.Forward(ctx, "session_id")
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
	})

	t.Run("MethodResult", func(t *testing.T) {
		d, h := setupDriver(t)
		var gotArgs []interface{}
		h.On("Attribute", "find_element_text").Return(driver.MethodAttribute(
			func(_ context.Context, args ...interface{}) (interface{}, error) {
				gotArgs = args
				return "x", nil
			}), nil)

		got, err := d.Forward(ctx, "find_element_text", "#id")
		require.NoError(t, err)
		assert.Equal(t, "x", got)
		assert.Equal(t, []interface{}{"#id"}, gotArgs)
	})

	t.Run("ChainReturnsFacade", func(t *testing.T) {
		d, h := setupDriver(t)
		h.On("Attribute", "get").Return(driver.ChainAttribute(
			func(_ context.Context, _ ...interface{}) (interface{}, error) {
				return h, nil
			}), nil)

		got, err := d.Forward(ctx, "get", "http://example.test")
		require.NoError(t, err)
		assert.Same(t, d, got)
	})

	t.Run("MethodError", func(t *testing.T) {
		d, h := setupDriver(t)
		boom := errors.New("boom")
		h.On("Attribute", "title").Return(driver.MethodAttribute(
			func(context.Context, ...interface{}) (interface{}, error) { return nil, boom }), nil)

		_, err := d.Forward(ctx, "title")
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "title")
	})

	t.Run("MissingAttribute", func(t *testing.T) {
		d, h := setupDriver(t)
		cause := errors.New("session session-1 does not provide \"fly\"")
		h.On("Attribute", "fly").Return(driver.Attribute{}, cause)

		_, err := d.Forward(ctx, "fly")
		require.Error(t, err)
		assert.ErrorIs(t, err, driver.ErrAttributeMissing)
		assert.ErrorIs(t, err, cause)

		var missing *driver.AttributeMissingError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "fly", missing.Name)
	})
}

func TestDriver_InitElement(t *testing.T) {
	t.Run("EmptySelector", func(t *testing.T) {
		d, _ := setupDriver(t)
		for _, sel := range []string{"", "   ", "\n\t"} {
			el, err := d.InitElement(sel, 0)
			assert.ErrorIs(t, err, driver.ErrInvalidArgument, "selector %q", sel)
			assert.Nil(t, el)
		}
	})

	t.Run("NoIO", func(t *testing.T) {
		// No expectations beyond ID: any lookup would fail the mock.
		d, _ := setupDriver(t)
		el, err := d.InitElement(".foo", 0)
		require.NoError(t, err)
		assert.Equal(t, ".foo", el.Selector())
		assert.IsType(t, &driver.LazyElement{}, el)
	})

	t.Run("TimeoutResolution", func(t *testing.T) {
		d, _ := setupDriver(t, driver.WithDefaultTimeout(4*time.Second))

		el, err := d.InitElement(".foo", 0)
		require.NoError(t, err)
		assert.Equal(t, 4*time.Second, el.Timeout())

		el, err = d.InitElement(".foo", 250*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, el.Timeout())
	})

	t.Run("SettingsChangeAppliesLater", func(t *testing.T) {
		d, _ := setupDriver(t)
		d.Settings().DefaultTimeout = time.Second
		el, err := d.InitElement("#later", 0)
		require.NoError(t, err)
		assert.Equal(t, time.Second, el.Timeout())
	})

	t.Run("CustomFactory", func(t *testing.T) {
		type custom struct {
			*driver.LazyElement
		}
		d, _ := setupDriver(t, driver.WithElementType(func(h driver.Handle, sel string, timeout time.Duration) driver.Element {
			return &custom{LazyElement: driver.NewLazyElement(h, sel, timeout)}
		}))

		el, err := d.InitElement("#x", 0)
		require.NoError(t, err)
		assert.IsType(t, &custom{}, el)
	})

	t.Run("NoBinding", func(t *testing.T) {
		d, _ := setupDriver(t, driver.WithElementType(nil))
		_, err := d.InitElement("#x", 0)
		assert.ErrorIs(t, err, driver.ErrNoElementBinding)
	})
}

func TestDriver_InitAllElements(t *testing.T) {
	t.Run("EmptySelector", func(t *testing.T) {
		d, _ := setupDriver(t)
		els, err := d.InitAllElements(" ", 0)
		assert.ErrorIs(t, err, driver.ErrInvalidArgument)
		assert.Nil(t, els)
	})

	t.Run("NoIO", func(t *testing.T) {
		d, _ := setupDriver(t)
		els, err := d.InitAllElements("li.item", 0)
		require.NoError(t, err)
		assert.Equal(t, "li.item", els.Selector())
		assert.Equal(t, driver.DefaultTimeout, els.Timeout())
	})

	t.Run("CustomCollectionReceivesElementFactory", func(t *testing.T) {
		var gotFactory driver.ElementFactory
		d, _ := setupDriver(t, driver.WithElementArrayType(
			func(h driver.Handle, sel string, newElement driver.ElementFactory, timeout time.Duration) driver.Elements {
				gotFactory = newElement
				return driver.NewLazyElements(h, sel, newElement, timeout)
			}))

		_, err := d.InitAllElements("li", time.Second)
		require.NoError(t, err)
		assert.NotNil(t, gotFactory)
	})
}

func TestDriver_Delegations(t *testing.T) {
	ctx := context.Background()

	t.Run("ChainingReturnsSelf", func(t *testing.T) {
		d, h := setupDriver(t)
		h.On("Navigate", mock.Anything, "http://example.test").Return(nil)
		h.On("Back", mock.Anything).Return(nil)
		h.On("Forward", mock.Anything).Return(nil)
		h.On("Refresh", mock.Anything).Return(nil)
		h.On("SwitchToFrame", mock.Anything, "#frame").Return(nil)
		h.On("SwitchToDefaultContent", mock.Anything).Return(nil)
		h.On("SetWindowSize", mock.Anything, 800, 600).Return(nil)

		got, err := d.Navigate(ctx, "http://example.test")
		require.NoError(t, err)
		assert.Same(t, d, got)

		for _, step := range []func(context.Context) (*driver.Driver, error){
			d.Back, d.GoForward, d.Refresh, d.SwitchToDefaultContent,
		} {
			got, err := step(ctx)
			require.NoError(t, err)
			assert.Same(t, d, got)
		}

		got, err = d.SwitchToFrame(ctx, "#frame")
		require.NoError(t, err)
		assert.Same(t, d, got)

		got, err = d.SetWindowSize(ctx, 800, 600)
		require.NoError(t, err)
		assert.Same(t, d, got)
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		d, _ := setupDriver(t)
		_, err := d.SwitchToFrame(ctx, "")
		assert.ErrorIs(t, err, driver.ErrInvalidArgument)
		_, err = d.SetWindowSize(ctx, 0, 600)
		assert.ErrorIs(t, err, driver.ErrInvalidArgument)
	})

	t.Run("NavigateError", func(t *testing.T) {
		d, h := setupDriver(t)
		boom := errors.New("net::ERR_NAME_NOT_RESOLVED")
		h.On("Navigate", mock.Anything, "http://nowhere.invalid").Return(boom)

		got, err := d.Navigate(ctx, "http://nowhere.invalid")
		assert.ErrorIs(t, err, boom)
		assert.Same(t, d, got)
	})

	t.Run("Values", func(t *testing.T) {
		d, h := setupDriver(t)
		h.On("Title", mock.Anything).Return("Fixture", nil)
		h.On("CurrentURL", mock.Anything).Return("http://example.test/", nil)
		h.On("PageSource", mock.Anything).Return("<html></html>", nil)
		h.On("Screenshot", mock.Anything).Return([]byte{0x89, 'P', 'N', 'G'}, nil)
		h.On("Text", mock.Anything, "#heading").Return("Hello", nil)
		h.On("Count", mock.Anything, "li").Return(3, nil)
		h.On("ExecuteScript", mock.Anything, "1+1", nil).Return(nil)
		h.On("Close", mock.Anything).Return(nil)

		title, err := d.Title(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Fixture", title)

		u, err := d.CurrentURL(ctx)
		require.NoError(t, err)
		assert.Equal(t, "http://example.test/", u)

		src, err := d.PageSource(ctx)
		require.NoError(t, err)
		assert.Equal(t, "<html></html>", src)

		png, err := d.Screenshot(ctx)
		require.NoError(t, err)
		assert.Len(t, png, 4)

		text, err := d.FindText(ctx, "#heading")
		require.NoError(t, err)
		assert.Equal(t, "Hello", text)

		n, err := d.Count(ctx, "li")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		assert.NoError(t, d.ExecuteScript(ctx, "1+1", nil))
		assert.NoError(t, d.Quit(ctx))
	})

	t.Run("ActionChainsAndWaitFor", func(t *testing.T) {
		d, h := setupDriver(t)
		assert.NotNil(t, d.ActionChains())
		assert.Same(t, h.Waits, d.WaitFor())
	})
}
