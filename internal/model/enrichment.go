package model

// Enrichment record field names, in output order.
const (
	FieldTransactionClassification = "TransactionClassification"
	FieldMerchantClassification    = "MerchantClassification"
	FieldNormalizedEntity          = "NormalizedEntity"
	FieldTransactionName           = "TransactionName"
	FieldIsCreditCardExpense       = "IsCreditCardExpense"
	FieldReason                    = "Reason"
	FieldConfidence                = "Confidence"
	FieldRuleHit                   = "RuleHit"
)

// RecordFields returns the enrichment schema field names in output order.
func RecordFields() []string {
	return []string{
		FieldTransactionClassification,
		FieldMerchantClassification,
		FieldNormalizedEntity,
		FieldTransactionName,
		FieldIsCreditCardExpense,
		FieldReason,
		FieldConfidence,
		FieldRuleHit,
	}
}

// EnrichmentRecord is the classification produced for a single transaction.
type EnrichmentRecord struct {
	TransactionClassification string  `json:"TransactionClassification"`
	MerchantClassification    string  `json:"MerchantClassification"`
	NormalizedEntity          string  `json:"NormalizedEntity"`
	TransactionName           string  `json:"TransactionName"`
	IsCreditCardExpense       bool    `json:"IsCreditCardExpense"`
	Reason                    string  `json:"Reason"`
	Confidence                float64 `json:"Confidence"`
	RuleHit                   string  `json:"RuleHit"`
}

// EnrichedTransaction pairs an input row with its enrichment.
type EnrichedTransaction struct {
	Transaction Transaction
	Record      EnrichmentRecord
}
