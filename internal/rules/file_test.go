package rules

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, SaveFile(path, DefaultTables()))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), got)
}

func TestParse_PartialOverride(t *testing.T) {
	data := []byte(`
merchants:
  - keyword: whole foods
    name: Whole Foods
  - keyword: amazon
    name: Amazon
`)
	got, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, got.Merchants, 2)
	assert.Equal(t, "Whole Foods", got.Merchants[0].Name)
	assert.Equal(t, DefaultTables().TaxKeywords, got.TaxKeywords)

	out := FromTables(got).Evaluate("WHOLE FOODS MKT #10", -30)
	assert.Equal(t, RuleMerchantLookup, out.RuleID)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"blank tax", "tax_keywords: [tax, '']", "tax_keywords[1]"},
		{"duplicate merchant", "merchants: [{keyword: a, name: A}, {keyword: A, name: B}]", "duplicates merchants[0]"},
		{"merchant no name", "merchants: [{keyword: a}]", "empty name"},
		{"kb no forms", "knowledge_base: [{normalized_entity: X, transaction_classification: Y}]", "no surface forms"},
		{"kb no entity", "knowledge_base: [{surface_forms: [x], transaction_classification: Y}]", "normalized_entity"},
		{"bad yaml", "merchants: {", "parsing rules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading rules")
}
