// File: internal/form/catalog_test.go
package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogRejectsDuplicateLabels(t *testing.T) {
	_, err := NewCatalog([]Field{
		{Kind: KindText, Label: "First Name"},
		{Kind: KindText, Label: "First Name"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate label")
}

func TestNewCatalogRejectsEmptyLabel(t *testing.T) {
	_, err := NewCatalog([]Field{{Kind: KindText}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty label")
}

func TestNewCatalogValidatesDates(t *testing.T) {
	_, err := NewCatalog([]Field{
		{Kind: KindDate, Label: "Begin Date", Date: Date{Month: 13, Day: 1, Year: 2024}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "month")
}

func TestDefaultCatalogShape(t *testing.T) {
	c := DefaultCatalog()
	fields := c.Fields()

	require.Equal(t, 18, c.Len())

	// The catalog must follow the form's visual order exactly.
	wantLabels := []string{
		"email",
		"Last Name",
		"First Name",
		"Middle Initial",
		"Student ID #",
		"Country of Citizenship",
		"Term for ELI ITA Attendance",
		"ELI ITA Session",
		"IBT TOEFL Score (Speaking)",
		"IBT TOEFL Score (Total)",
		"Begin Date of TA Contract",
		"End Date of TA Contract",
		"Amount of Stipend",
		"Percentage of Tuition",
		"Name of Student's Program",
		"Department Contact Name",
		"Department Contact Campus Address",
		"Department Contact Person's Telephone Number",
	}
	gotLabels := make([]string, 0, len(fields))
	for _, f := range fields {
		gotLabels = append(gotLabels, f.Label)
	}
	if diff := cmp.Diff(wantLabels, gotLabels); diff != "" {
		t.Errorf("catalog labels mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, KindSingleCheckbox, fields[0].Kind)
	assert.True(t, fields[0].Checked)
	assert.Equal(t, KindMultiSelect, fields[5].Kind)
	assert.Equal(t, KindDate, fields[10].Kind)
	assert.Equal(t, KindMultiCheckbox, fields[14].Kind)
}

func TestFieldsReturnsACopy(t *testing.T) {
	c := DefaultCatalog()
	fields := c.Fields()
	fields[1].Text = "mutated"

	assert.Equal(t, "Doe", c.Fields()[1].Text)
}

func TestOverride(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		c := DefaultCatalog()
		require.NoError(t, c.Override("Last Name", "Smith"))
		assert.Equal(t, "Smith", c.Fields()[1].Text)
		// Kind is untouched.
		assert.Equal(t, KindText, c.Fields()[1].Kind)
	})

	t.Run("checkbox", func(t *testing.T) {
		c := DefaultCatalog()
		require.NoError(t, c.Override("email", "false"))
		assert.False(t, c.Fields()[0].Checked)

		err := c.Override("email", "yep")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boolean")
	})

	t.Run("date", func(t *testing.T) {
		c := DefaultCatalog()
		require.NoError(t, c.Override("Begin Date of TA Contract", "1/15/2025"))
		assert.Equal(t, Date{Month: 1, Day: 15, Year: 2025}, c.Fields()[10].Date)
	})

	t.Run("unknown label", func(t *testing.T) {
		c := DefaultCatalog()
		err := c.Override("Favorite Color", "blue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no field with label")
	})

	t.Run("other text on multi-checkbox", func(t *testing.T) {
		c := DefaultCatalog()
		require.NoError(t, c.Override("Name of Student's Program", "Linguistics"))
		assert.Equal(t, "Linguistics", c.Fields()[14].Text)
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    Date
		wantErr string
	}{
		{raw: "12/20/1990", want: Date{12, 20, 1990}},
		{raw: " 1 / 2 / 2024 ", want: Date{1, 2, 2024}},
		{raw: "2024-01-02", wantErr: "M/D/YYYY"},
		{raw: "13/1/2024", wantErr: "month"},
		{raw: "1/32/2024", wantErr: "day"},
		{raw: "1/2/99", wantErr: "year"},
		{raw: "a/b/c", wantErr: "M/D/YYYY"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDate(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "<random>", Field{Kind: KindText}.ValueString())
	assert.Equal(t, "Doe", Field{Kind: KindText, Text: "Doe"}.ValueString())
	assert.Equal(t, "8/15/2023", Field{Kind: KindDate, Date: Date{8, 15, 2023}}.ValueString())
	assert.Equal(t, "true", Field{Kind: KindSingleCheckbox, Checked: true}.ValueString())
	assert.Equal(t, "<random choice>", Field{Kind: KindMultiSelect}.ValueString())
}
