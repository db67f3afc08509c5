package model

// Transaction is one normalized input row handed to the enricher.
type Transaction struct {
	Description string
	AmountUSD   float64 // negative = outflow, positive = inflow

	// Passthrough columns carried from ingestion to the enriched output.
	// The rules never read them.
	Date     string
	Category string
	Balance  string
}
