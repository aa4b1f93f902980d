// internal/mocks/mocks_test.go
package mocks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/sedriver/internal/driver"
	"github.com/xkilldash9x/sedriver/internal/mocks"
)

func TestMockHandle_WaitUsesAttachedWaiter(t *testing.T) {
	h := mocks.NewMockHandle()
	h.Waits.On("ElementInDOM", mock.Anything, "#a", time.Second).Return(true, nil).Once()

	ok, err := h.Wait().ElementInDOM(context.Background(), "#a", time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
	h.Waits.AssertExpectations(t)
	h.AssertExpectations(t)
}

func TestMockHandle_NilResults(t *testing.T) {
	h := mocks.NewMockHandle()
	boom := errors.New("boom")
	h.On("Nodes", mock.Anything, "li").Return(nil, boom)
	h.On("Screenshot", mock.Anything).Return(nil, boom)
	h.On("Attribute", "nope").Return(driver.Attribute{}, boom)

	nodes, err := h.Nodes(context.Background(), "li")
	assert.Nil(t, nodes)
	assert.ErrorIs(t, err, boom)

	buf, err := h.Screenshot(context.Background())
	assert.Nil(t, buf)
	assert.ErrorIs(t, err, boom)

	_, err = h.Attribute("nope")
	assert.ErrorIs(t, err, boom)
}

func TestMockExecutor_RunsActions(t *testing.T) {
	exec := new(mocks.MockExecutor)
	exec.On("Execute", dom.CommandFocus, mock.Anything, mock.Anything).Return(nil).Once()
	exec.On("Execute", dom.CommandScrollIntoViewIfNeeded, mock.Anything, mock.Anything).Return(errors.New("detached")).Once()

	h := mocks.NewMockHandle()
	var runErr error
	h.On("RunActions", mock.Anything, mock.Anything).Run(exec.RunActions(&runErr)).Return(nil)

	err := h.RunActions(context.Background(),
		dom.Focus().WithNodeID(1),
		dom.ScrollIntoViewIfNeeded().WithNodeID(1),
	)
	assert.NoError(t, err)
	assert.EqualError(t, runErr, "detached")
	exec.AssertExpectations(t)
}
