package ingest

import "strings"

// Canonical column names after renaming.
const (
	colDate        = "TransactionDate"
	colDescription = "Description"
	colCategory    = "Category"
	colAmount      = "AmountUSD"
	colBalance     = "Balance"
)

// aliases maps lowercased raw column names to canonical names.
var aliases = map[string]string{
	"transactiondate":           colDate,
	"date":                      colDate,
	"posting date":              colDate,
	"description":               colDescription,
	"transactionname":           colDescription,
	"name":                      colDescription,
	"category":                  colCategory,
	"transactionclassification": colCategory,
	"amountusd":                 colAmount,
	"transactionamountusd":      colAmount,
	"amount":                    colAmount,
	"balance":                   colBalance,
}

// canonicalColumn returns the canonical name for a raw column, or "" if unknown.
func canonicalColumn(raw string) string {
	return aliases[strings.ToLower(strings.TrimSpace(raw))]
}
