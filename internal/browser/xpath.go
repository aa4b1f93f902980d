// internal/browser/xpath.go
package browser

import (
	"context"
	"sort"
	"strconv"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// xpathAllJS evaluates an XPath expression with the receiver as context node
// and returns the matches in document order.
const xpathAllJS = `function(xpath) {
	const doc = this.ownerDocument || this;
	const res = doc.evaluate(xpath, this, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < res.snapshotLength; i++) out.push(res.snapshotItem(i));
	return out;
}`

// byXPathUnder selects nodes matching xpath under the node chromedp hands the
// query, which is the frame's content document when FromNode names a frame.
// chromedp.BySearch runs DOM.performSearch over the whole page and ignores
// FromNode.
func byXPathUnder(xpath string) chromedp.QueryOption {
	return chromedp.ByFunc(searchXPath(xpath))
}

func searchXPath(xpath string) func(context.Context, *cdp.Node) ([]cdp.NodeID, error) {
	return func(ctx context.Context, n *cdp.Node) ([]cdp.NodeID, error) {
		root, err := dom.ResolveNode().WithNodeID(n.NodeID).Do(ctx)
		if err != nil {
			return nil, err
		}
		defer func() { _ = runtime.ReleaseObject(root.ObjectID).Do(ctx) }()

		var list *runtime.RemoteObject
		err = chromedp.CallFunctionOn(xpathAllJS, &list,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(root.ObjectID)
			},
			xpath,
		).Do(ctx)
		if err != nil {
			return nil, err
		}
		defer func() { _ = runtime.ReleaseObject(list.ObjectID).Do(ctx) }()

		props, _, _, exp, err := runtime.GetProperties(list.ObjectID).WithOwnProperties(true).Do(ctx)
		if err != nil {
			return nil, err
		}
		if exp != nil {
			return nil, exp
		}

		type match struct {
			index int
			obj   runtime.RemoteObjectID
		}
		matches := make([]match, 0, len(props))
		for _, p := range props {
			i, err := strconv.Atoi(p.Name)
			if err != nil || p.Value == nil || p.Value.ObjectID == "" {
				continue
			}
			matches = append(matches, match{index: i, obj: p.Value.ObjectID})
		}
		sort.Slice(matches, func(a, b int) bool { return matches[a].index < matches[b].index })

		ids := make([]cdp.NodeID, 0, len(matches))
		for _, m := range matches {
			id, err := dom.RequestNode(m.obj).Do(ctx)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
}
