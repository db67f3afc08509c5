package enrich

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/cleared-dev/txenrich/internal/model"
	"github.com/cleared-dev/txenrich/internal/rules"
)

// ValidateTransactions checks every row and returns all failures in index order.
func ValidateTransactions(txns []model.Transaction) []RowError {
	var errs []RowError
	for i, txn := range txns {
		if !utf8.ValidString(txn.Description) {
			errs = append(errs, RowError{Index: i, Field: "Description", Reason: "not valid UTF-8 text"})
		}
		if math.IsNaN(txn.AmountUSD) || math.IsInf(txn.AmountUSD, 0) {
			errs = append(errs, RowError{Index: i, Field: "AmountUSD", Reason: "not a finite number"})
		}
	}
	return errs
}

// buildRecord merges a rule outcome into a record after checking that the
// rule's fields plus Confidence and RuleHit are exactly the record schema.
func buildRecord(index int, description string, out rules.Outcome) (model.EnrichmentRecord, error) {
	verr := &SchemaViolationError{Index: index, RuleHit: out.RuleID}

	declared := make(map[string]bool)
	for _, f := range model.RecordFields() {
		declared[f] = true
	}
	// Set by the orchestrator; a rule supplying them is an extra field.
	reserved := map[string]bool{model.FieldConfidence: true, model.FieldRuleHit: true}

	for k := range out.Fields {
		if !declared[k] || reserved[k] {
			verr.Extra = append(verr.Extra, k)
		}
	}
	sort.Strings(verr.Extra)
	for _, f := range model.RecordFields() {
		if reserved[f] {
			continue
		}
		if _, ok := out.Fields[f]; !ok {
			verr.Missing = append(verr.Missing, f)
		}
	}

	str := func(name string) string {
		v, ok := out.Fields[name]
		if !ok {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			verr.Invalid = append(verr.Invalid, name)
		}
		return s
	}

	rec := model.EnrichmentRecord{
		TransactionClassification: str(model.FieldTransactionClassification),
		MerchantClassification:    str(model.FieldMerchantClassification),
		NormalizedEntity:          str(model.FieldNormalizedEntity),
		TransactionName:           str(model.FieldTransactionName),
		Reason:                    str(model.FieldReason),
		Confidence:                out.Confidence,
		RuleHit:                   out.RuleID,
	}
	if v, ok := out.Fields[model.FieldIsCreditCardExpense]; ok {
		b, isBool := v.(bool)
		if !isBool {
			verr.Invalid = append(verr.Invalid, model.FieldIsCreditCardExpense)
		}
		rec.IsCreditCardExpense = b
	}
	if _, ok := out.Fields[model.FieldTransactionName]; ok && rec.TransactionName != description {
		verr.Invalid = append(verr.Invalid, model.FieldTransactionName)
	}
	if out.Confidence < 0 || out.Confidence > 1 || math.IsNaN(out.Confidence) {
		verr.Invalid = append(verr.Invalid, model.FieldConfidence)
	}
	if out.RuleID == "" {
		verr.Invalid = append(verr.Invalid, model.FieldRuleHit)
	}

	if len(verr.Missing) > 0 || len(verr.Extra) > 0 || len(verr.Invalid) > 0 {
		return model.EnrichmentRecord{}, verr
	}
	return rec, nil
}
