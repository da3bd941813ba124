// File: internal/form/locator_test.go
package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSStringEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`Student ID #`, `"Student ID #"`},
		{`with "quotes"`, `"with \"quotes\""`},
		{"line\nbreak", `"line\nbreak"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, jsString(tt.in))
	}
}

func TestProbeJS(t *testing.T) {
	js := probeJS(`Name of Student's Program`, widgetList, containerDepth, "tok-123")

	// The label must appear as an escaped literal, never raw.
	assert.Contains(t, js, `"Name of Student's Program"`)
	assert.Contains(t, js, `"tok-123"`)
	assert.Contains(t, js, `"data-formpilot-target"`)
	assert.Contains(t, js, `i < 4`)
	// The probe compares case-folded trimmed innerHTML, matching how the
	// form renders labels with stray whitespace.
	assert.Contains(t, js, `.trim().toLowerCase()`)
	// The last matching span wins.
	assert.Contains(t, js, `hits[hits.length - 1]`)
}

func TestProbeJSQuotesHostileLabels(t *testing.T) {
	js := probeJS(`x"; alert(1); //`, widgetInput, containerDepth, "tok")
	assert.NotContains(t, js, `alert(1); //"`+"\n", "label must stay inside its literal")
	assert.Contains(t, js, `"x\"; alert(1); //"`)
}

func TestWidgetSelectors(t *testing.T) {
	// The date comboboxes are matched case-insensitively on aria-label, the
	// way the original tolerated the form's inconsistent casing.
	for _, w := range []string{widgetDateMonth, widgetDateDay, widgetDateYear} {
		assert.True(t, strings.HasSuffix(w, `" i]`), "date selector %q must be case-insensitive", w)
		assert.Contains(t, w, `[role="combobox"]`)
	}
	assert.Contains(t, widgetDateDay, "Day of the month")
}

func TestCheckboxDepthShallowerThanContainer(t *testing.T) {
	// Single checkboxes sit one wrapper closer to their label span.
	require.Equal(t, containerDepth-1, checkboxDepth)
}

func TestMultiSelectOptionExcludesPlaceholder(t *testing.T) {
	// The "Choose" placeholder row renders with an empty data-value and must
	// never be a pickable option.
	assert.Contains(t, multiSelectOption, `:not([data-value=""])`)
}
