// File: cmd/fill_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluehensdev/formpilot/internal/config"
	"github.com/bluehensdev/formpilot/internal/form"
)

func fieldByLabel(t *testing.T, c *form.Catalog, label string) form.Field {
	t.Helper()
	for _, f := range c.Fields() {
		if f.Label == label {
			return f
		}
	}
	t.Fatalf("no field labeled %q", label)
	return form.Field{}
}

func TestBuildCatalogAppliesSetFlags(t *testing.T) {
	catalog, err := buildCatalog(config.FormConfig{}, []string{
		"Last Name=Smith",
		"Begin Date of TA Contract=9/1/2023",
		"email=false",
	})
	require.NoError(t, err)

	assert.Equal(t, "Smith", fieldByLabel(t, catalog, "Last Name").Text)
	assert.Equal(t, "9/1/2023", fieldByLabel(t, catalog, "Begin Date of TA Contract").Date.String())
	assert.False(t, fieldByLabel(t, catalog, "email").Checked)
}

func TestBuildCatalogAppliesConfigOverridesFirst(t *testing.T) {
	cfg := config.FormConfig{Overrides: map[string]string{"Last Name": "Jones"}}

	// A --set flag wins over the config file for the same label.
	catalog, err := buildCatalog(cfg, []string{"Last Name=Smith"})
	require.NoError(t, err)
	assert.Equal(t, "Smith", fieldByLabel(t, catalog, "Last Name").Text)

	catalog, err = buildCatalog(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "Jones", fieldByLabel(t, catalog, "Last Name").Text)
}

func TestBuildCatalogRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.FormConfig
		set     []string
		wantErr string
	}{
		{"missing equals", config.FormConfig{}, []string{"Last Name"}, "expected label=value"},
		{"blank label", config.FormConfig{}, []string{"=Smith"}, "expected label=value"},
		{"unknown label", config.FormConfig{}, []string{"Shoe Size=12"}, "Shoe Size"},
		{"bad date", config.FormConfig{}, []string{"Begin Date of TA Contract=yesterday"}, "Begin Date"},
		{"bad config override", config.FormConfig{Overrides: map[string]string{"Shoe Size": "12"}}, nil, "form.overrides"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildCatalog(tt.cfg, tt.set)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildCatalogKeepsValuesTrimOnlyOnLabels(t *testing.T) {
	// The label side of --set tolerates padding, the value side is verbatim.
	catalog, err := buildCatalog(config.FormConfig{}, []string{" Last Name = Smith "})
	require.NoError(t, err)
	assert.Equal(t, " Smith ", fieldByLabel(t, catalog, "Last Name").Text)
}
