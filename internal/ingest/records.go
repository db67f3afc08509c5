package ingest

import (
	"fmt"
	"math"
	"sort"

	"github.com/cleared-dev/txenrich/internal/enrich"
	"github.com/cleared-dev/txenrich/internal/model"
)

// FromRecords converts decoded JSON rows (as posted to the API) into
// normalized Transactions. Column names go through the same aliases as CSV
// headers. Every bad row is reported in one *enrich.InvalidInputError.
func FromRecords(raw []map[string]any) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(raw))
	var errs []enrich.RowError
	for i, rec := range raw {
		// Sorted so that the first alias present wins the same way every time.
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		row := make(map[string]any, len(rec))
		for _, k := range keys {
			if c := canonicalColumn(k); c != "" {
				if _, dup := row[c]; !dup {
					row[c] = rec[k]
				}
			}
		}

		txn, rowErrs := fromValues(i, row)
		errs = append(errs, rowErrs...)
		txns = append(txns, txn)
	}
	if len(errs) > 0 {
		return nil, &enrich.InvalidInputError{Rows: errs}
	}
	return txns, nil
}

func fromValues(index int, row map[string]any) (model.Transaction, []enrich.RowError) {
	var errs []enrich.RowError
	fail := func(field, format string, args ...any) {
		errs = append(errs, enrich.RowError{Index: index, Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	var txn model.Transaction
	if v, ok := row[colDescription]; !ok || v == nil {
		fail("Description", "missing")
	} else if s, ok := textValue(v); !ok {
		fail("Description", "cannot be read as text (%T)", v)
	} else {
		txn.Description = NormalizeDescription(s)
	}

	if v, ok := row[colAmount]; !ok || v == nil {
		fail("AmountUSD", "missing")
	} else if amt, err := amountValue(v); err != nil {
		fail("AmountUSD", "%v", err)
	} else if math.IsNaN(amt) || math.IsInf(amt, 0) {
		fail("AmountUSD", "not a finite number")
	} else {
		txn.AmountUSD = amt
	}

	if v, ok := row[colDate]; ok && v != nil {
		s, _ := textValue(v)
		date, err := NormalizeDate(s)
		if err != nil {
			fail("TransactionDate", "%v", err)
		}
		txn.Date = date
	}

	txn.Category = "Unknown"
	if v, ok := row[colCategory]; ok && v != nil {
		if s, ok := textValue(v); ok && s != "" {
			txn.Category = s
		}
	}
	if v, ok := row[colBalance]; ok && v != nil {
		txn.Balance, _ = textValue(v)
	}
	return txn, errs
}
