// internal/driver/selector.go
package driver

import (
	"strings"

	"github.com/chromedp/chromedp"
)

// SelectorType distinguishes the two locator syntaxes accepted everywhere a
// selector string is taken.
type SelectorType int

const (
	CSS SelectorType = iota
	XPath
)

func (t SelectorType) String() string {
	if t == XPath {
		return "xpath"
	}
	return "css"
}

// GetSelectorType classifies selector. XPath expressions start with '/',
// './' or '(' (for indexed expressions such as "(//li)[2]"); anything else
// is treated as a CSS selector.
func GetSelectorType(selector string) SelectorType {
	s := strings.TrimSpace(selector)
	switch {
	case strings.HasPrefix(s, "/"),
		strings.HasPrefix(s, "./"),
		strings.HasPrefix(s, "("):
		return XPath
	default:
		return CSS
	}
}

// QueryOption returns the chromedp query strategy for selector.
func QueryOption(selector string) chromedp.QueryOption {
	if GetSelectorType(selector) == XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// QueryAllOption is QueryOption for queries that should match every node.
func QueryAllOption(selector string) chromedp.QueryOption {
	if GetSelectorType(selector) == XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}
