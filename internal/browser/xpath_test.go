// internal/browser/xpath_test.go
package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sedriver/internal/mocks"
)

// stubXPathSearch answers the CDP calls searchXPath makes. nodeIDs maps each
// matched element's object id to the node id DOM.requestNode returns.
func stubXPathSearch(t *testing.T, exec *mocks.MockExecutor, rootID cdp.NodeID, props []*runtime.PropertyDescriptor, nodeIDs map[runtime.RemoteObjectID]cdp.NodeID) {
	t.Helper()
	exec.On("Execute", dom.CommandResolveNode, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		assert.Equal(t, rootID, args.Get(1).(*dom.ResolveNodeParams).NodeID)
		args.Get(2).(*dom.ResolveNodeReturns).Object = &runtime.RemoteObject{Type: runtime.TypeObject, ObjectID: "frame-doc"}
	}).Return(nil).Once()
	exec.On("Execute", runtime.CommandCallFunctionOn, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		p := args.Get(1).(*runtime.CallFunctionOnParams)
		assert.Equal(t, runtime.RemoteObjectID("frame-doc"), p.ObjectID)
		require.Len(t, p.Arguments, 1)
		assert.JSONEq(t, `"//li[@class='item']"`, string(p.Arguments[0].Value))
		args.Get(2).(*runtime.CallFunctionOnReturns).Result = &runtime.RemoteObject{Type: runtime.TypeObject, ObjectID: "matches"}
	}).Return(nil).Once()
	exec.On("Execute", runtime.CommandGetProperties, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		assert.Equal(t, runtime.RemoteObjectID("matches"), args.Get(1).(*runtime.GetPropertiesParams).ObjectID)
		args.Get(2).(*runtime.GetPropertiesReturns).Result = props
	}).Return(nil).Once()
	exec.On("Execute", dom.CommandRequestNode, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		obj := args.Get(1).(*dom.RequestNodeParams).ObjectID
		id, ok := nodeIDs[obj]
		require.True(t, ok, "unexpected object %s", obj)
		args.Get(2).(*dom.RequestNodeReturns).NodeID = id
	}).Return(nil)
	exec.On("Execute", runtime.CommandReleaseObject, mock.Anything, mock.Anything).Return(nil)
}

func nodeObject(id runtime.RemoteObjectID) *runtime.RemoteObject {
	return &runtime.RemoteObject{Type: runtime.TypeObject, Subtype: runtime.SubtypeNode, ObjectID: id}
}

func TestSearchXPath(t *testing.T) {
	const xpath = "//li[@class='item']"

	t.Run("MatchesInDocumentOrder", func(t *testing.T) {
		exec := new(mocks.MockExecutor)
		props := []*runtime.PropertyDescriptor{
			{Name: "1", Value: nodeObject("li-b")},
			{Name: "length", Value: &runtime.RemoteObject{Type: runtime.TypeNumber, Value: []byte("2")}},
			{Name: "0", Value: nodeObject("li-a")},
		}
		stubXPathSearch(t, exec, 40, props, map[runtime.RemoteObjectID]cdp.NodeID{"li-a": 41, "li-b": 42})

		ids, err := searchXPath(xpath)(exec.Context(context.Background()), &cdp.Node{NodeID: 40})
		require.NoError(t, err)
		assert.Equal(t, []cdp.NodeID{41, 42}, ids)
		exec.AssertNumberOfCalls(t, "Execute", 7)
	})

	t.Run("NoMatches", func(t *testing.T) {
		exec := new(mocks.MockExecutor)
		props := []*runtime.PropertyDescriptor{
			{Name: "length", Value: &runtime.RemoteObject{Type: runtime.TypeNumber, Value: []byte("0")}},
		}
		stubXPathSearch(t, exec, 40, props, nil)

		ids, err := searchXPath(xpath)(exec.Context(context.Background()), &cdp.Node{NodeID: 40})
		require.NoError(t, err)
		assert.Empty(t, ids)
		exec.AssertNotCalled(t, "Execute", dom.CommandRequestNode, mock.Anything, mock.Anything)
	})

	t.Run("ResolveFailure", func(t *testing.T) {
		exec := new(mocks.MockExecutor)
		boom := errors.New("No node with given id found")
		exec.On("Execute", dom.CommandResolveNode, mock.Anything, mock.Anything).Return(boom).Once()

		_, err := searchXPath(xpath)(exec.Context(context.Background()), &cdp.Node{NodeID: 40})
		assert.ErrorIs(t, err, boom)
	})
}

func TestSession_QueryOptsFrameScoping(t *testing.T) {
	s := newDetachedSession(t)

	assert.Len(t, s.queryOpts("//li", nil), 1, "no frame: the selector option is used as given")

	s.frame = &cdp.Node{NodeID: 40, NodeName: "IFRAME"}
	assert.Len(t, s.queryOpts("//li", nil), 2)
	assert.Len(t, s.queryOpts("li.item", nil), 2)
}
