package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordPresent(t *testing.T) {
	keywords := []string{"tax", "irs", "revenue service"}
	tests := []struct {
		text string
		want bool
	}{
		{"IRS Tax Payment #4021", true},
		{"state TAX refund", true},
		{"syntax highlighter license", false},
		{"taxi ride downtown", false},
		{"internal revenue service", true},
		{"revenue services inc", false},
		{"détax refund", false},
		{"taxé", false},
		{"café tax refund", true},
		{"impôt-tax", true},
		{"tax_form", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeywordPresent(tt.text, keywords), "KeywordPresent(%q)", tt.text)
	}
}

func TestKeywordSet_FindReturnsFirstDeclared(t *testing.T) {
	ks := NewKeywordSet([]string{"tax", "irs"})
	kw, ok := ks.Find("IRS Tax Payment")
	assert.True(t, ok)
	assert.Equal(t, "tax", kw)
}

func TestKeywordSet_SkipsBlank(t *testing.T) {
	ks := NewKeywordSet([]string{"", "  ", "visa"})
	assert.Equal(t, []string{"visa"}, ks.keywords)
	assert.False(t, ks.Match("anything at all"))
}

func TestKeywordSet_QuotesMeta(t *testing.T) {
	ks := NewKeywordSet([]string{"a.b"})
	assert.True(t, ks.Match("paid a.b corp"))
	assert.False(t, ks.Match("paid axb corp"))
}

func TestKeywordSet_SymbolEdges(t *testing.T) {
	ks := NewKeywordSet([]string{"at&t"})
	assert.True(t, ks.Match("AT&T wireless bill"))
	assert.True(t, ks.Match("paid at&t"))
	assert.False(t, ks.Match("chat&talk"))
	assert.False(t, ks.Match("at&tx"))

	amp := NewKeywordSet([]string{"&co"})
	assert.True(t, amp.Match("smith&co ltd"))
}

func TestLookupMerchant(t *testing.T) {
	table := DefaultTables().Merchants

	name, ok := LookupMerchant("AMAZON.COM MARKETPLACE PMT", table)
	assert.True(t, ok)
	assert.Equal(t, "Amazon", name)

	// Substring containment, not word boundary.
	name, ok = LookupMerchant("amazonian rainforest tours", table)
	assert.True(t, ok)
	assert.Equal(t, "Amazon", name)

	_, ok = LookupMerchant("local bakery", table)
	assert.False(t, ok)
}

func TestLookupMerchant_DeclarationOrderWins(t *testing.T) {
	table := LookupTable{
		{Keyword: "capital one", Name: "Capital One"},
		{Keyword: "shopify capital", Name: "Shopify Capital"},
	}
	name, ok := table.Lookup("shopify capital one transfer")
	assert.True(t, ok)
	assert.Equal(t, "Capital One", name)

	reversed := LookupTable{table[1], table[0]}
	name, ok = reversed.Lookup("shopify capital one transfer")
	assert.True(t, ok)
	assert.Equal(t, "Shopify Capital", name)
}

func TestKnowledgeBaseFind(t *testing.T) {
	kb := DefaultTables().KnowledgeBase

	e, form, ok := kb.Find("UBER EATS ORDER 551")
	assert.True(t, ok)
	assert.Equal(t, "Food Delivery", e.NormalizedEntity)
	assert.Equal(t, "uber eats", form)

	e, form, ok = kb.Find("uber trip help.uber.com")
	assert.True(t, ok)
	assert.Equal(t, "Rideshare", e.NormalizedEntity)
	assert.Equal(t, "uber", form)

	_, _, ok = kb.Find("corner deli")
	assert.False(t, ok)
}
