// File: cmd/check.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sedriver/internal/browser"
	"github.com/xkilldash9x/sedriver/internal/driver"
	"github.com/xkilldash9x/sedriver/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrChecksFailed is returned when at least one expectation did not hold.
var ErrChecksFailed = errors.New("one or more checks failed")

// checkSpec is one expectation requested on the command line.
type checkSpec struct {
	Kind     string `json:"check"`
	Selector string `json:"selector"`
	Argument string `json:"argument,omitempty"`
}

// checkResult is the outcome of one checkSpec.
type checkResult struct {
	checkSpec
	Passed   bool   `json:"passed"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// checkReport is the --json document.
type checkReport struct {
	URL     string        `json:"url"`
	Session string        `json:"session_id"`
	Passed  bool          `json:"passed"`
	Results []checkResult `json:"results"`
}

type checkFlags struct {
	visible   []string
	invisible []string
	hidden    []string
	class     []string
	text      []string
	exactText []string
	stale     []string
	include   []string
	timeout   time.Duration
	jsonOut   bool
	hub       string
	headed    bool
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check URL",
		Short: "Open URL and evaluate element expectations",
		Long: `Open URL in a browser tab and evaluate each expectation given by flags.
Selectors starting with '/', './' or '(' are XPath; anything else is CSS.
The command exits non-zero if any expectation is false or fails.`,
		Example: `  sedriver check https://example.com --visible h1 --text "h1=example domain"
  sedriver check http://localhost:8080 --include "#list=li.item" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := f.specs()
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				return fmt.Errorf("no checks given; use --visible, --text, --include or another check flag")
			}

			cfg := opts.cfg
			if f.hub != "" {
				cfg.Browser.UseGrid = true
				cfg.Browser.HubURI = f.hub
			}
			if f.headed {
				cfg.Browser.Headless = false
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			m, err := browser.NewManager(ctx, logger, cfg)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(browser.Detach(ctx), 15*time.Second)
				defer cancel()
				if err := m.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Browser shutdown reported an error.", zap.Error(err))
				}
			}()

			d, err := m.Driver(ctx)
			if err != nil {
				return err
			}
			if _, err := d.Navigate(ctx, args[0]); err != nil {
				return err
			}

			results := runChecks(ctx, d, specs, f.timeout)
			report := checkReport{URL: args[0], Session: d.ID(), Passed: allPassed(results), Results: results}
			if err := writeReport(cmd.OutOrStdout(), report, f.jsonOut); err != nil {
				return err
			}
			if !report.Passed {
				return ErrChecksFailed
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVar(&f.visible, "visible", nil, "selector that must become visible (repeatable)")
	fl.StringArrayVar(&f.invisible, "invisible", nil, "selector that must be present but hidden (repeatable)")
	fl.StringArrayVar(&f.hidden, "hidden", nil, "selector that must be hidden or absent from the DOM (repeatable)")
	fl.StringArrayVar(&f.class, "class", nil, "selector=class the element must carry (repeatable)")
	fl.StringArrayVar(&f.text, "text", nil, "selector=text the element must loosely contain (repeatable)")
	fl.StringArrayVar(&f.exactText, "exact-text", nil, "selector=text the element's text must equal (repeatable)")
	fl.StringArrayVar(&f.stale, "stale", nil, "selector that must be absent or detached (repeatable)")
	fl.StringArrayVar(&f.include, "include", nil, "parent=child selector pair; child must be found inside parent (repeatable)")
	fl.DurationVar(&f.timeout, "timeout", 0, "per-check timeout (default driver.default_timeout)")
	fl.BoolVar(&f.jsonOut, "json", false, "print results as JSON")
	fl.StringVar(&f.hub, "hub", "", "remote browser endpoint; enables grid mode")
	fl.BoolVar(&f.headed, "headed", false, "show the local browser window")
	return cmd
}

// specs turns the flag values into checks, in a stable order.
func (f *checkFlags) specs() ([]checkSpec, error) {
	groups := []struct {
		kind   string
		flag   string
		pair   bool
		values []string
	}{
		{"to_be_visible", "visible", false, f.visible},
		{"to_be_invisible", "invisible", false, f.invisible},
		{"should_be_invisible", "hidden", false, f.hidden},
		{"to_have_class", "class", true, f.class},
		{"should_contain_text", "text", true, f.text},
		{"should_have_exact_text", "exact-text", true, f.exactText},
		{"to_include_element", "include", true, f.include},
		{"should_be_stale", "stale", false, f.stale},
	}

	var specs []checkSpec
	for _, g := range groups {
		for _, raw := range g.values {
			spec := checkSpec{Kind: g.kind, Selector: raw}
			if g.pair {
				sel, arg, err := splitPair(g.flag, raw)
				if err != nil {
					return nil, err
				}
				spec.Selector, spec.Argument = sel, arg
			}
			if strings.TrimSpace(spec.Selector) == "" {
				return nil, fmt.Errorf("%w: --%s needs a selector", driver.ErrInvalidArgument, g.flag)
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// splitPair splits "selector=value" on the first '=' outside brackets,
// parentheses and quotes, so attribute selectors such as input[name=q] stay
// whole and the value may itself contain '='.
func splitPair(flag, raw string) (string, string, error) {
	depth := 0
	var quote rune
	for i, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			if depth > 0 {
				depth--
			}
		case r == '=' && depth == 0:
			if i == 0 || i == len(raw)-1 {
				break
			}
			return raw[:i], raw[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("%w: --%s expects selector=value, got %q", driver.ErrInvalidArgument, flag, raw)
}

// runChecks evaluates specs in order against d. A failing check does not
// stop the others.
func runChecks(ctx context.Context, d *driver.Driver, specs []checkSpec, timeout time.Duration) []checkResult {
	results := make([]checkResult, 0, len(specs))
	for _, spec := range specs {
		start := time.Now()
		ok, err := runCheck(ctx, d, spec, timeout)
		r := checkResult{checkSpec: spec, Passed: ok && err == nil, Duration: time.Since(start).Round(time.Millisecond).String()}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

func runCheck(ctx context.Context, d *driver.Driver, spec checkSpec, timeout time.Duration) (bool, error) {
	el, err := d.InitElement(spec.Selector, timeout)
	if err != nil {
		return false, err
	}
	x := driver.NewExpectations(d, el, el.Timeout())
	switch spec.Kind {
	case "to_be_visible":
		return x.ToBeVisible(ctx, 0)
	case "to_be_invisible":
		return x.ToBeInvisible(ctx, 0)
	case "to_have_class":
		return x.ToHaveClass(ctx, spec.Argument, 0)
	case "should_contain_text":
		return x.ShouldContainText(ctx, spec.Argument, 0)
	case "should_have_exact_text":
		return x.ShouldHaveExactText(ctx, spec.Argument, 0)
	case "to_include_element":
		return x.ToIncludeElement(ctx, spec.Argument, 0)
	case "should_be_stale":
		return x.ShouldBeStale(ctx, 0)
	case "should_be_invisible":
		return x.ShouldBeInvisible(ctx, 0)
	}
	return false, fmt.Errorf("%w: unknown check %q", driver.ErrInvalidArgument, spec.Kind)
}

func allPassed(results []checkResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func writeReport(w io.Writer, report checkReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, r := range report.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		line := fmt.Sprintf("%s  %-22s %s", status, r.Kind, r.Selector)
		if r.Argument != "" {
			line += " " + r.Argument
		}
		if r.Error != "" {
			line += "  (" + r.Error + ")"
		}
		if _, err := fmt.Fprintf(w, "%s  [%s]\n", line, r.Duration); err != nil {
			return err
		}
	}
	summary := "all checks passed"
	if !report.Passed {
		summary = "some checks failed"
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", report.URL, summary)
	return err
}
