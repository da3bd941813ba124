// File: internal/form/filler.go
package form

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/bluehensdev/formpilot/internal/typist"
)

// randomTextLength matches the length of throwaway strings typed into
// fields that have no configured value.
const randomTextLength = 20

const lowercase = "abcdefghijklmnopqrstuvwxyz"

// multiSelectOption matches dropdown options that carry an actual value;
// the placeholder "Choose" row has no data-value.
const multiSelectOption = `[role="option"][data-value]:not([data-value=""])`

const checkboxListItem = `[role="listitem"]`

// WidgetLocator finds and tags form widgets by label. *Locator is the page
// backed implementation.
type WidgetLocator interface {
	Tag(ctx context.Context, label, widget string, depth int) (string, chromedp.Action, error)
	CountChildren(ctx context.Context, containerSelector, childSelector string) (int, error)
	TagChild(ctx context.Context, containerSelector, childSelector string, index int) (string, chromedp.Action, error)
	ActiveElementIsInput(ctx context.Context) (bool, error)
}

// Filler walks the catalog in order and drives each field's widget.
type Filler struct {
	locator WidgetLocator
	typist  *typist.Typist
	logger  *zap.Logger
	rng     *rand.Rand

	// checkboxPicks is how many options to tick in a multi-checkbox group.
	checkboxPicks int

	// run executes chromedp actions against the tab; swappable in tests.
	run func(ctx context.Context, actions ...chromedp.Action) error
}

// NewFiller assembles a Filler. The rng is shared with the caller so a
// seeded run reproduces all randomized choices.
func NewFiller(loc WidgetLocator, ty *typist.Typist, rng *rand.Rand, checkboxPicks int, logger *zap.Logger) *Filler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if checkboxPicks < 1 {
		checkboxPicks = 1
	}
	return &Filler{
		locator:       loc,
		typist:        ty,
		logger:        logger.Named("filler"),
		rng:           rng,
		checkboxPicks: checkboxPicks,
		run:           chromedp.Run,
	}
}

// Fill processes every catalog field against the page behind ctx and returns
// per-field outcomes. A field whose label cannot be found is recorded as
// skipped and does not abort the run; any other failure is recorded and the
// run continues with the next field.
func (f *Filler) Fill(ctx context.Context, catalog *Catalog) []Entry {
	entries := make([]Entry, 0, catalog.Len())

	for _, field := range catalog.Fields() {
		log := f.logger.With(zap.String("label", field.Label), zap.String("kind", string(field.Kind)))

		err := f.fillField(ctx, field)
		entry := Entry{
			Label: field.Label,
			Kind:  field.Kind,
			Value: field.ValueString(),
		}
		switch {
		case err == nil:
			entry.Status = StatusFilled
			log.Info("Field filled")
		case errors.Is(err, ErrLabelNotFound):
			entry.Status = StatusSkipped
			entry.Detail = err.Error()
			log.Warn("Field not found on page, skipping", zap.Error(err))
		default:
			entry.Status = StatusFailed
			entry.Detail = err.Error()
			log.Error("Field fill failed", zap.Error(err))
		}
		entries = append(entries, entry)
	}

	return entries
}

// fillField dispatches on the field kind.
func (f *Filler) fillField(ctx context.Context, field Field) error {
	switch field.Kind {
	case KindText:
		return f.fillText(ctx, field)
	case KindDate:
		return f.fillDate(ctx, field)
	case KindSingleCheckbox:
		return f.fillSingleCheckbox(ctx, field)
	case KindMultiSelect:
		return f.fillMultiSelect(ctx, field)
	case KindMultiCheckbox:
		return f.fillMultiCheckbox(ctx, field)
	default:
		return fmt.Errorf("unsupported field kind %q", field.Kind)
	}
}

// fillText types the configured or a random string into the question's input.
func (f *Filler) fillText(ctx context.Context, field Field) error {
	selector, untag, err := f.locator.Tag(ctx, field.Label, widgetInput, containerDepth)
	if err != nil {
		return err
	}
	defer f.runUntag(ctx, untag)

	content := field.Text
	if content == "" {
		content = f.randomString(randomTextLength)
	}
	return f.run(ctx, f.typist.Type(selector, content))
}

// fillDate types month, day and year into the three combobox inputs that
// share the question's container.
func (f *Filler) fillDate(ctx context.Context, field Field) error {
	parts := []struct {
		widget string
		value  int
	}{
		{widgetDateMonth, field.Date.Month},
		{widgetDateDay, field.Date.Day},
		{widgetDateYear, field.Date.Year},
	}
	for _, p := range parts {
		selector, untag, err := f.locator.Tag(ctx, field.Label, p.widget, containerDepth)
		if err != nil {
			return err
		}
		typeErr := f.run(ctx, f.typist.Type(selector, fmt.Sprintf("%d", p.value)))
		f.runUntag(ctx, untag)
		if typeErr != nil {
			return typeErr
		}
	}
	return nil
}

// fillSingleCheckbox clicks the checkbox when the field asks for it.
func (f *Filler) fillSingleCheckbox(ctx context.Context, field Field) error {
	if !field.Checked {
		return nil
	}
	selector, untag, err := f.locator.Tag(ctx, field.Label, widgetCheckbox, checkboxDepth)
	if err != nil {
		return err
	}
	defer f.runUntag(ctx, untag)

	return f.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// fillMultiSelect clicks one option of the dropdown at random.
func (f *Filler) fillMultiSelect(ctx context.Context, field Field) error {
	listbox, untagBox, err := f.locator.Tag(ctx, field.Label, widgetListbox, containerDepth)
	if err != nil {
		return err
	}
	defer f.runUntag(ctx, untagBox)

	n, err := f.locator.CountChildren(ctx, listbox, multiSelectOption)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("listbox for %q has no selectable options", field.Label)
	}

	option, untagOpt, err := f.locator.TagChild(ctx, listbox, multiSelectOption, f.rng.Intn(n))
	if err != nil {
		return err
	}
	defer f.runUntag(ctx, untagOpt)

	return f.run(ctx, chromedp.Click(option, chromedp.ByQuery))
}

// fillMultiCheckbox ticks checkboxPicks options at random. Clicking the
// "Other" option focuses its free-text input, which then receives the
// field's text or a random string.
func (f *Filler) fillMultiCheckbox(ctx context.Context, field Field) error {
	list, untagList, err := f.locator.Tag(ctx, field.Label, widgetList, containerDepth)
	if err != nil {
		return err
	}
	defer f.runUntag(ctx, untagList)

	n, err := f.locator.CountChildren(ctx, list, checkboxListItem)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("checkbox group for %q has no options", field.Label)
	}

	for i := 0; i < f.checkboxPicks; i++ {
		item, untagItem, err := f.locator.TagChild(ctx, list, checkboxListItem, f.rng.Intn(n))
		if err != nil {
			return err
		}
		clickErr := f.run(ctx, chromedp.Click(item, chromedp.ByQuery))
		f.runUntag(ctx, untagItem)
		if clickErr != nil {
			return clickErr
		}

		isInput, err := f.locator.ActiveElementIsInput(ctx)
		if err != nil {
			return err
		}
		if isInput {
			other := field.Text
			if other == "" {
				other = f.randomString(randomTextLength)
			}
			if err := f.run(ctx, f.typist.TypeActive(other)); err != nil {
				return err
			}
		}
	}
	return nil
}

// runUntag removes a tagging attribute, logging rather than failing; a
// leftover attribute is harmless.
func (f *Filler) runUntag(ctx context.Context, untag chromedp.Action) {
	if untag == nil {
		return
	}
	if err := f.run(ctx, untag); err != nil {
		f.logger.Debug("Failed to remove tag attribute", zap.Error(err))
	}
}

// randomString builds a random lowercase string of length n.
func (f *Filler) randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = lowercase[f.rng.Intn(len(lowercase))]
	}
	return string(b)
}
