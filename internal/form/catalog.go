// File: internal/form/catalog.go

// Package form holds the field catalog for the ITA training form and the
// logic that locates and fills each widget inside Google Forms' DOM.
package form

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the widget shape a catalog entry drives.
type Kind string

const (
	KindText           Kind = "text"
	KindDate           Kind = "date"
	KindSingleCheckbox Kind = "single-checkbox"
	KindMultiCheckbox  Kind = "multi-checkbox"
	KindMultiSelect    Kind = "multi-select"
)

// Date is the value of a KindDate field.
type Date struct {
	Month int
	Day   int
	Year  int
}

// Validate rejects dates the form's comboboxes would refuse.
func (d Date) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("month must be 1-12, got %d", d.Month)
	}
	if d.Day < 1 || d.Day > 31 {
		return fmt.Errorf("day must be 1-31, got %d", d.Day)
	}
	if d.Year < 1000 || d.Year > 9999 {
		return fmt.Errorf("year must be four digits, got %d", d.Year)
	}
	return nil
}

func (d Date) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Month, d.Day, d.Year)
}

// Field is one catalog entry: which widget shape, which label locates it,
// and what to put in it. Value semantics per kind:
//   - KindText: string; empty means "type a random lowercase string"
//   - KindDate: Date
//   - KindSingleCheckbox: bool (tick or leave alone)
//   - KindMultiCheckbox, KindMultiSelect: string used as the "Other"
//     free-text when present; the option itself is chosen at random
type Field struct {
	Kind  Kind
	Label string

	Text    string
	Date    Date
	Checked bool
}

// ValueString renders the field's value for logs and the fill report.
func (f Field) ValueString() string {
	switch f.Kind {
	case KindText:
		if f.Text == "" {
			return "<random>"
		}
		return f.Text
	case KindDate:
		return f.Date.String()
	case KindSingleCheckbox:
		return strconv.FormatBool(f.Checked)
	default:
		return "<random choice>"
	}
}

// Catalog is the fixed, ordered list of form fields plus a label index so
// individual values can be overridden before a run.
type Catalog struct {
	fields []Field
	index  map[string]int
}

// NewCatalog builds a catalog, enforcing the one real invariant: labels are
// unique, since they are the only lookup key we have into the page.
func NewCatalog(fields []Field) (*Catalog, error) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Label == "" {
			return nil, fmt.Errorf("field %d has an empty label", i)
		}
		if prev, dup := index[f.Label]; dup {
			return nil, fmt.Errorf("duplicate label %q at positions %d and %d", f.Label, prev, i)
		}
		if f.Kind == KindDate {
			if err := f.Date.Validate(); err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Label, err)
			}
		}
		index[f.Label] = i
	}
	return &Catalog{fields: fields, index: index}, nil
}

// DefaultCatalog mirrors the ITA training form, top to bottom.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Field{
		{Kind: KindSingleCheckbox, Label: "email", Checked: true},
		{Kind: KindText, Label: "Last Name", Text: "Doe"},
		{Kind: KindText, Label: "First Name", Text: "Jane"},
		{Kind: KindText, Label: "Middle Initial", Text: "Q"},
		{Kind: KindText, Label: "Student ID #", Text: "123456"},
		{Kind: KindMultiSelect, Label: "Country of Citizenship"},
		{Kind: KindMultiSelect, Label: "Term for ELI ITA Attendance"},
		{Kind: KindMultiSelect, Label: "ELI ITA Session"},
		{Kind: KindText, Label: "IBT TOEFL Score (Speaking)", Text: "27"},
		{Kind: KindText, Label: "IBT TOEFL Score (Total)", Text: "99"},
		{Kind: KindDate, Label: "Begin Date of TA Contract", Date: Date{Month: 8, Day: 15, Year: 2023}},
		{Kind: KindDate, Label: "End Date of TA Contract", Date: Date{Month: 5, Day: 31, Year: 2024}},
		{Kind: KindText, Label: "Amount of Stipend", Text: "20000"},
		{Kind: KindText, Label: "Percentage of Tuition", Text: "100"},
		{Kind: KindMultiCheckbox, Label: "Name of Student's Program"},
		{Kind: KindText, Label: "Department Contact Name", Text: "Graduate Coordinator"},
		{Kind: KindText, Label: "Department Contact Campus Address", Text: "101 Smith Hall"},
		{Kind: KindText, Label: "Department Contact Person's Telephone Number", Text: "302-555-0143"},
	})
	if err != nil {
		// The built-in catalog is static; a construction failure is a
		// programming error.
		panic(err)
	}
	return c
}

// Fields returns a copy of the ordered field list.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Len reports the number of fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Override replaces the value of the field with the given label, parsing raw
// according to the field's kind. The kind itself never changes. Unknown
// labels are an error so typos in --set flags surface immediately.
func (c *Catalog) Override(label, raw string) error {
	i, ok := c.index[label]
	if !ok {
		return fmt.Errorf("no field with label %q", label)
	}

	switch c.fields[i].Kind {
	case KindSingleCheckbox:
		checked, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("field %q expects a boolean, got %q", label, raw)
		}
		c.fields[i].Checked = checked
	case KindDate:
		d, err := parseDate(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", label, err)
		}
		c.fields[i].Date = d
	default:
		// Text fields take the value verbatim; for the randomized kinds the
		// string becomes the "Other" free-text.
		c.fields[i].Text = raw
	}
	return nil
}

// parseDate accepts "M/D/YYYY".
func parseDate(raw string) (Date, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("expected a date in M/D/YYYY form, got %q", raw)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, fmt.Errorf("expected a date in M/D/YYYY form, got %q", raw)
		}
		nums[i] = n
	}
	d := Date{Month: nums[0], Day: nums[1], Year: nums[2]}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}
