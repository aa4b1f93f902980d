// internal/driver/actions_test.go
package driver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sedriver/internal/driver"
	"github.com/xkilldash9x/sedriver/internal/mocks"
)

func TestActionChain(t *testing.T) {
	ctx := context.Background()

	t.Run("BuildersQueueInOrder", func(t *testing.T) {
		h := mocks.NewMockHandle()
		h.On("RunActions", mock.Anything, actionCount(9)).Return(nil).Once()

		chain := driver.NewActionChain(h).
			Click("#remove").
			DoubleClick("//h1").
			MoveTo(10, 20).
			ClickAt(10, 20).
			KeyDown("Shift").
			SendKeys("abc").
			KeyUp("Shift").
			SendKeysTo("#name", "alice").
			Pause(time.Millisecond)
		assert.Equal(t, 9, chain.Len())

		require.NoError(t, chain.Perform(ctx))
		assert.Zero(t, chain.Len())
		h.AssertExpectations(t)
	})

	t.Run("EmptyPerformIsNoop", func(t *testing.T) {
		h := mocks.NewMockHandle()
		assert.NoError(t, driver.NewActionChain(h).Perform(ctx))
		h.AssertNotCalled(t, "RunActions", mock.Anything, mock.Anything)
	})

	t.Run("FailureClearsQueue", func(t *testing.T) {
		h := mocks.NewMockHandle()
		boom := errors.New("element not visible")
		h.On("RunActions", mock.Anything, actionCount(2)).Return(boom).Once()

		chain := driver.NewActionChain(h).Click("#a").Click("#b")
		err := chain.Perform(ctx)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "2 queued actions")
		assert.Zero(t, chain.Len())
	})

	t.Run("Reset", func(t *testing.T) {
		h := mocks.NewMockHandle()
		chain := driver.NewActionChain(h).SendKeys("x").Reset()
		assert.Zero(t, chain.Len())
	})
}
