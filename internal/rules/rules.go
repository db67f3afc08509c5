package rules

import (
	"fmt"

	"github.com/cleared-dev/txenrich/internal/model"
)

// Rule identifiers. They appear in output and reports and must stay stable.
const (
	RuleTaxKeyword         = "RULE_TAX_KEYWORD"
	RuleMerchantLookup     = "RULE_MERCHANT_LOOKUP"
	RulePaymentRail        = "RULE_PAYMENT_RAIL"
	RuleEcommercePurchase  = "RULE_ECOMMERCE_PURCHASE"
	RuleCreditCardPayment  = "RULE_CREDIT_CARD_PAYMENT"
	RuleRAGFallback        = "RULE_RAG_FALLBACK"
	RuleFallback           = "RULE_FALLBACK"
	fallbackClassification = "Other"
)

// Fields is the partial enrichment a rule produces. Keys are record field
// names; Confidence and RuleHit are added by the caller.
type Fields map[string]any

// MatchFunc inspects a transaction and returns its fields when the rule fires.
type MatchFunc func(description string, amountUSD float64) (Fields, bool)

// Rule is a named predicate and producer with a fixed confidence.
type Rule struct {
	ID         string
	Confidence float64
	Match      MatchFunc
}

// Outcome is the result of a rule that fired.
type Outcome struct {
	Fields     Fields
	Confidence float64
	RuleID     string
}

// Evaluate runs the rule against a transaction.
func (r Rule) Evaluate(description string, amountUSD float64) (Outcome, bool) {
	fields, ok := r.Match(description, amountUSD)
	if !ok {
		return Outcome{}, false
	}
	return Outcome{Fields: fields, Confidence: r.Confidence, RuleID: r.ID}, true
}

// Set is an ordered rule chain terminated by a rule that always matches.
type Set struct {
	rules    []Rule
	fallback Rule
}

// NewSet builds a rule chain. Rules are evaluated in the given order and the
// fallback runs only when none of them fire. IDs must be unique.
func NewSet(fallback Rule, rules ...Rule) (*Set, error) {
	seen := make(map[string]bool, len(rules)+1)
	for _, r := range append(append([]Rule(nil), rules...), fallback) {
		if r.ID == "" {
			return nil, fmt.Errorf("rule with empty ID")
		}
		if r.Match == nil {
			return nil, fmt.Errorf("rule %s has no match function", r.ID)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, fmt.Errorf("rule %s confidence %v outside [0,1]", r.ID, r.Confidence)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule ID %s", r.ID)
		}
		seen[r.ID] = true
	}
	return &Set{rules: append([]Rule(nil), rules...), fallback: fallback}, nil
}

// Default returns the built-in rule chain over the built-in tables.
func Default() *Set {
	return FromTables(DefaultTables())
}

// FromTables returns the built-in rule chain over t.
func FromTables(t Tables) *Set {
	s, err := NewSet(FallbackRule(),
		TaxKeywordRule(t.TaxKeywords),
		MerchantLookupRule(t.Merchants),
		PaymentRailRule(t.PaymentRailKeywords),
		EcommercePurchaseRule(t.EcommerceTerms),
		CreditCardPaymentRule(t.CreditCardTerms),
		RAGFallbackRule(t.KnowledgeBase),
	)
	if err != nil {
		panic("built-in rule set: " + err.Error())
	}
	return s
}

// Rules returns the chain in evaluation order, fallback last.
func (s *Set) Rules() []Rule {
	return append(append([]Rule(nil), s.rules...), s.fallback)
}

// Evaluate returns the outcome of the first rule that fires, or the
// fallback's outcome.
func (s *Set) Evaluate(description string, amountUSD float64) Outcome {
	for _, r := range s.rules {
		if out, ok := r.Evaluate(description, amountUSD); ok {
			return out
		}
	}
	out, ok := s.fallback.Evaluate(description, amountUSD)
	if !ok {
		// A fallback that declines still owns the transaction.
		return Outcome{Fields: fallbackFields(description), Confidence: s.fallback.Confidence, RuleID: s.fallback.ID}
	}
	return out
}

func fields(description, class, merchant, entity, reason string, creditCard bool) Fields {
	return Fields{
		model.FieldTransactionClassification: class,
		model.FieldMerchantClassification:    merchant,
		model.FieldNormalizedEntity:          entity,
		model.FieldTransactionName:           description,
		model.FieldIsCreditCardExpense:       creditCard,
		model.FieldReason:                    reason,
	}
}

func fallbackFields(description string) Fields {
	return fields(description, fallbackClassification, fallbackClassification, fallbackClassification,
		"No specific rule matched; defaulted to fallback.", false)
}

// TaxKeywordRule fires on a whole-word tax authority keyword.
func TaxKeywordRule(keywords []string) Rule {
	ks := NewKeywordSet(keywords)
	return Rule{
		ID:         RuleTaxKeyword,
		Confidence: 1.0,
		Match: func(description string, _ float64) (Fields, bool) {
			kw, ok := ks.Find(description)
			if !ok {
				return nil, false
			}
			return fields(description, "Tax Related", "Tax Authority", "Tax Authority",
				fmt.Sprintf("Tax-related transaction detected: keyword %q.", kw), false), true
		},
	}
}

// MerchantLookupRule fires when the description contains a known merchant key.
func MerchantLookupRule(table LookupTable) Rule {
	return Rule{
		ID:         RuleMerchantLookup,
		Confidence: 0.9,
		Match: func(description string, _ float64) (Fields, bool) {
			merchant, ok := table.Lookup(description)
			if !ok {
				return nil, false
			}
			return fields(description, "Merchant Payment", merchant, merchant,
				"Match found for specific merchant: "+merchant, false), true
		},
	}
}

// PaymentRailRule fires on a whole-word payment network keyword.
func PaymentRailRule(keywords []string) Rule {
	ks := NewKeywordSet(keywords)
	return Rule{
		ID:         RulePaymentRail,
		Confidence: 0.8,
		Match: func(description string, _ float64) (Fields, bool) {
			kw, ok := ks.Find(description)
			if !ok {
				return nil, false
			}
			return fields(description, "Payment Rail Transaction", "Payment Processor", "Payment Processor",
				fmt.Sprintf("Payment rail keyword detected: %q.", kw), false), true
		},
	}
}

// EcommercePurchaseRule fires on inflows that mention a marketplace term.
func EcommercePurchaseRule(terms []string) Rule {
	return Rule{
		ID:         RuleEcommercePurchase,
		Confidence: 0.7,
		Match: func(description string, amountUSD float64) (Fields, bool) {
			if !(amountUSD > 0) || !containsAny(description, terms) {
				return nil, false
			}
			return fields(description, "Ecommerce Purchase", "Online Marketplace", "Online Marketplace",
				"Ecommerce purchase identified.", false), true
		},
	}
}

// CreditCardPaymentRule fires on outflows that mention a loan or card payment.
func CreditCardPaymentRule(terms []string) Rule {
	return Rule{
		ID:         RuleCreditCardPayment,
		Confidence: 0.7,
		Match: func(description string, amountUSD float64) (Fields, bool) {
			if !(amountUSD < 0) || !containsAny(description, terms) {
				return nil, false
			}
			return fields(description, "Credit Card Payment", "Credit Card Company", "Credit Card Company",
				"Credit card payment identified.", true), true
		},
	}
}

// RAGFallbackRule fires when the description contains a knowledge base surface form.
func RAGFallbackRule(kb KnowledgeBase) Rule {
	return Rule{
		ID:         RuleRAGFallback,
		Confidence: 0.6,
		Match: func(description string, _ float64) (Fields, bool) {
			entry, form, ok := kb.Find(description)
			if !ok {
				return nil, false
			}
			reason := fmt.Sprintf("Knowledge base match for %s (%q): %s", entry.NormalizedEntity, form, entry.Explanation)
			return fields(description, entry.TransactionClassification, entry.NormalizedEntity, entry.NormalizedEntity,
				reason, false), true
		},
	}
}

// FallbackRule always matches.
func FallbackRule() Rule {
	return Rule{
		ID:         RuleFallback,
		Confidence: 0.1,
		Match: func(description string, _ float64) (Fields, bool) {
			return fallbackFields(description), true
		},
	}
}
