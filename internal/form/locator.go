// File: internal/form/locator.go
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// targetAttr is the one-shot attribute stamped onto a located widget so the
// rest of the pipeline can address it with a stable CSS selector.
const targetAttr = "data-formpilot-target"

// Ancestor depths. Google Forms nests a question's label span a fixed number
// of wrappers below the container that also holds its widget; checkboxes sit
// one level shallower than everything else.
const (
	containerDepth = 4
	checkboxDepth  = 3
)

// Widget selectors, matched inside the label's ancestor container.
const (
	widgetInput    = `input`
	widgetListbox  = `[role="listbox"]`
	widgetCheckbox = `[role="checkbox"]`
	widgetList     = `[role="list"]`

	widgetDateMonth = `input[role="combobox"][aria-label="Month" i]`
	widgetDateDay   = `input[role="combobox"][aria-label="Day of the month" i]`
	widgetDateYear  = `input[role="combobox"][aria-label="Year" i]`
)

// ErrLabelNotFound reports that no span on the page carried the wanted label,
// or that the label's container held no widget of the wanted shape.
var ErrLabelNotFound = errors.New("label did not resolve to a widget")

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Locator finds widgets by their human-readable label. Google Forms renders
// each question label as a <span> whose trimmed, case-folded innerHTML we
// can compare against; the widget lives a fixed number of ancestors up.
type Locator struct {
	logger *zap.Logger
}

// NewLocator creates a Locator.
func NewLocator(logger *zap.Logger) *Locator {
	return &Locator{logger: logger.Named("locator")}
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := jsonAPI.Marshal(s)
	return string(b)
}

// probeJS builds the script that finds the last span matching label, walks
// up depth ancestors and stamps the first widget-selector match with the
// token. It evaluates to true when a widget was tagged.
func probeJS(label, widget string, depth int, token string) string {
	return fmt.Sprintf(`(() => {
	const want = %s.trim().toLowerCase();
	const spans = Array.from(document.querySelectorAll('span'));
	const hits = spans.filter(s => s.innerHTML && s.innerHTML.trim().toLowerCase() === want);
	if (hits.length === 0) { return false; }
	let node = hits[hits.length - 1];
	for (let i = 0; i < %d && node.parentElement; i++) { node = node.parentElement; }
	const target = node.querySelector(%s);
	if (!target) { return false; }
	target.setAttribute(%s, %s);
	return true;
})()`, jsString(label), depth, jsString(widget), jsString(targetAttr), jsString(token))
}

// Tag locates the widget for label and stamps it. It returns the CSS
// selector addressing the stamped element and an untag action the caller
// runs once done with it.
func (l *Locator) Tag(ctx context.Context, label, widget string, depth int) (selector string, untag chromedp.Action, err error) {
	token := uuid.New().String()

	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(probeJS(label, widget, depth, token), &found)); err != nil {
		return "", nil, fmt.Errorf("locator probe for label %q: %w", label, err)
	}
	if !found {
		return "", nil, fmt.Errorf("label %q (widget %s): %w", label, widget, ErrLabelNotFound)
	}

	selector = fmt.Sprintf(`[%s=%q]`, targetAttr, token)
	untag = removeAttrAction(selector)
	l.logger.Debug("Tagged widget", zap.String("label", label), zap.String("selector", selector))
	return selector, untag, nil
}

// removeAttrAction strips the tagging attribute from whatever still carries it.
func removeAttrAction(selector string) chromedp.Action {
	js := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (el) { el.removeAttribute(%s); }
	return true;
})()`, jsString(selector), jsString(targetAttr))
	var ok bool
	return chromedp.Evaluate(js, &ok)
}

// CountChildren counts the elements matching childSelector inside the tagged
// container.
func (l *Locator) CountChildren(ctx context.Context, containerSelector, childSelector string) (int, error) {
	js := fmt.Sprintf(`(() => {
	const root = document.querySelector(%s);
	if (!root) { return -1; }
	return root.querySelectorAll(%s).length;
})()`, jsString(containerSelector), jsString(childSelector))

	var n int
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &n)); err != nil {
		return 0, fmt.Errorf("counting %q under %q: %w", childSelector, containerSelector, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("container %q vanished before children could be counted", containerSelector)
	}
	return n, nil
}

// TagChild stamps the index-th element matching childSelector inside the
// tagged container, returning its selector and untag action.
func (l *Locator) TagChild(ctx context.Context, containerSelector, childSelector string, index int) (string, chromedp.Action, error) {
	token := uuid.New().String()
	js := fmt.Sprintf(`(() => {
	const root = document.querySelector(%s);
	if (!root) { return false; }
	const kids = root.querySelectorAll(%s);
	if (%d >= kids.length) { return false; }
	kids[%d].setAttribute(%s, %s);
	return true;
})()`, jsString(containerSelector), jsString(childSelector), index, index, jsString(targetAttr), jsString(token))

	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return "", nil, fmt.Errorf("tagging child %d of %q: %w", index, containerSelector, err)
	}
	if !ok {
		return "", nil, fmt.Errorf("child %d of %q no longer exists", index, containerSelector)
	}

	selector := fmt.Sprintf(`[%s=%q]`, targetAttr, token)
	return selector, removeAttrAction(selector), nil
}

// ActiveElementIsInput reports whether the focused element is an <input>.
// Clicking Google Forms' "Other" checkbox focuses its free-text input, which
// is the only signal that the box exists.
func (l *Locator) ActiveElementIsInput(ctx context.Context) (bool, error) {
	var tag string
	err := chromedp.Run(ctx, chromedp.Evaluate(
		`document.activeElement ? document.activeElement.tagName : ''`, &tag))
	if err != nil {
		return false, fmt.Errorf("inspecting active element: %w", err)
	}
	return strings.EqualFold(tag, "input"), nil
}
