package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txenrich/internal/model"
)

func TestDefaultOrder(t *testing.T) {
	var ids []string
	var confs []float64
	for _, r := range Default().Rules() {
		ids = append(ids, r.ID)
		confs = append(confs, r.Confidence)
	}
	assert.Equal(t, []string{
		RuleTaxKeyword,
		RuleMerchantLookup,
		RulePaymentRail,
		RuleEcommercePurchase,
		RuleCreditCardPayment,
		RuleRAGFallback,
		RuleFallback,
	}, ids)
	assert.Equal(t, []float64{1.0, 0.9, 0.8, 0.7, 0.7, 0.6, 0.1}, confs)
}

func TestEvaluate(t *testing.T) {
	set := Default()
	tests := []struct {
		name   string
		desc   string
		amount float64
		rule   string
		class  string
		entity string
		cc     bool
	}{
		{"tax", "IRS Tax Payment #4021", -250, RuleTaxKeyword, "Tax Related", "Tax Authority", false},
		{"tax beats merchant", "amazon tax remittance", -10, RuleTaxKeyword, "Tax Related", "Tax Authority", false},
		{"merchant beats ecommerce", "AMAZON.COM MARKETPLACE PMT", 45.30, RuleMerchantLookup, "Merchant Payment", "Amazon", false},
		{"merchant beats rail", "starbucks via paypal", -5, RuleMerchantLookup, "Merchant Payment", "Starbucks", false},
		{"rail", "ZELLE TO J SMITH", -40, RulePaymentRail, "Payment Rail Transaction", "Payment Processor", false},
		{"rail beats card payment", "visa payment", -100, RulePaymentRail, "Payment Rail Transaction", "Payment Processor", false},
		{"ecommerce", "etsy marketplace sale", 20, RuleEcommercePurchase, "Ecommerce Purchase", "Online Marketplace", false},
		{"ecommerce needs inflow", "etsy marketplace sale", -20, RuleFallback, "Other", "Other", false},
		{"card payment", "Monthly credit card payment", -120, RuleCreditCardPayment, "Credit Card Payment", "Credit Card Company", true},
		{"loan", "auto loan autodebit", -300, RuleCreditCardPayment, "Credit Card Payment", "Credit Card Company", true},
		{"card payment needs outflow", "loan disbursement", 300, RuleFallback, "Other", "Other", false},
		{"knowledge base", "LYFT *RIDE SUN 3PM", -18, RuleRAGFallback, "Travel", "Rideshare", false},
		{"fallback", "random noise xyz123", 10, RuleFallback, "Other", "Other", false},
		{"accented letter is part of the word", "étax", -1, RuleFallback, "Other", "Other", false},
		{"accented rail prefix", "ázelle transfer", -5, RuleFallback, "Other", "Other", false},
		{"accented neighbour word", "café tax", -5, RuleTaxKeyword, "Tax Related", "Tax Authority", false},
		{"empty", "", 10, RuleFallback, "Other", "Other", false},
		{"whitespace", "   ", -10, RuleFallback, "Other", "Other", false},
		{"zero ecommerce", "marketplace", 0, RuleFallback, "Other", "Other", false},
		{"zero card payment", "credit card payment", 0, RuleFallback, "Other", "Other", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := set.Evaluate(tt.desc, tt.amount)
			assert.Equal(t, tt.rule, out.RuleID)
			assert.Equal(t, tt.class, out.Fields[model.FieldTransactionClassification])
			assert.Equal(t, tt.entity, out.Fields[model.FieldNormalizedEntity])
			assert.Equal(t, tt.cc, out.Fields[model.FieldIsCreditCardExpense])
			assert.Equal(t, tt.desc, out.Fields[model.FieldTransactionName])
		})
	}
}

func TestEvaluate_FieldSet(t *testing.T) {
	want := []string{
		model.FieldTransactionClassification,
		model.FieldMerchantClassification,
		model.FieldNormalizedEntity,
		model.FieldTransactionName,
		model.FieldIsCreditCardExpense,
		model.FieldReason,
	}
	for _, desc := range []string{"irs", "netflix", "square", "marketplace", "loan", "spotify", "nothing"} {
		out := Default().Evaluate(desc, 1)
		got := make([]string, 0, len(out.Fields))
		for k := range out.Fields {
			got = append(got, k)
		}
		assert.ElementsMatch(t, want, got, "fields for %q", desc)
	}
}

func TestEvaluate_Reasons(t *testing.T) {
	set := Default()
	assert.Equal(t, "Match found for specific merchant: Amazon",
		set.Evaluate("AMAZON.COM MARKETPLACE PMT", 45.30).Fields[model.FieldReason])
	assert.Contains(t, set.Evaluate("hmrc vat", -1).Fields[model.FieldReason], `"hmrc"`)
	assert.Contains(t, set.Evaluate("stripe payout", 1).Fields[model.FieldReason], `"stripe"`)
	assert.Contains(t, set.Evaluate("spotify p1234", -9.99).Fields[model.FieldReason], "Streaming Service")
	assert.Equal(t, "No specific rule matched; defaulted to fallback.",
		set.Evaluate("zzz", 1).Fields[model.FieldReason])
}

func TestEvaluate_MultipleKeywordsSameConfidence(t *testing.T) {
	out := Default().Evaluate("irs tax hmrc", -1)
	assert.Equal(t, RuleTaxKeyword, out.RuleID)
	assert.InDelta(t, 1.0, out.Confidence, 1e-12)
}

func TestNewSet_Validation(t *testing.T) {
	ok := Rule{ID: "A", Confidence: 0.5, Match: func(string, float64) (Fields, bool) { return nil, false }}

	_, err := NewSet(FallbackRule(), ok, ok)
	assert.ErrorContains(t, err, "duplicate rule ID A")

	_, err = NewSet(FallbackRule(), Rule{ID: "B", Confidence: 0.5})
	assert.ErrorContains(t, err, "no match function")

	_, err = NewSet(FallbackRule(), Rule{ID: "C", Confidence: 1.5, Match: ok.Match})
	assert.ErrorContains(t, err, "outside [0,1]")

	_, err = NewSet(FallbackRule(), Rule{Confidence: 0.5, Match: ok.Match})
	assert.ErrorContains(t, err, "empty ID")

	set, err := NewSet(FallbackRule(), ok)
	require.NoError(t, err)
	assert.Len(t, set.Rules(), 2)
}

func TestEvaluate_FirstMatchStops(t *testing.T) {
	calls := 0
	first := Rule{ID: "FIRST", Confidence: 0.5, Match: func(d string, _ float64) (Fields, bool) {
		return fallbackFields(d), true
	}}
	second := Rule{ID: "SECOND", Confidence: 0.5, Match: func(string, float64) (Fields, bool) {
		calls++
		return nil, false
	}}
	set, err := NewSet(FallbackRule(), first, second)
	require.NoError(t, err)

	out := set.Evaluate("x", 1)
	assert.Equal(t, "FIRST", out.RuleID)
	assert.Zero(t, calls)
}

func TestEvaluate_DecliningFallbackStillOwns(t *testing.T) {
	fb := Rule{ID: "FB", Confidence: 0.1, Match: func(string, float64) (Fields, bool) { return nil, false }}
	set, err := NewSet(fb)
	require.NoError(t, err)

	out := set.Evaluate("x", 1)
	assert.Equal(t, "FB", out.RuleID)
	assert.Equal(t, "Other", out.Fields[model.FieldTransactionClassification])
}
