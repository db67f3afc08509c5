package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/txenrich/internal/model"
)

// GenericParser reads CSVs whose header names the columns, using the
// aliases in columns.go. Description and amount columns are required.
type GenericParser struct{}

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a headed CSV and returns normalized Transactions.
func (p *GenericParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, name := range records[0] {
		if c := canonicalColumn(name); c != "" {
			if _, dup := cols[c]; !dup {
				cols[c] = i
			}
		}
	}
	for _, required := range []string{colDescription, colAmount} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		row := make(map[string]string, len(cols))
		for name, idx := range cols {
			row[name] = rec[idx]
		}
		txn, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// fromRow normalizes one row keyed by canonical column name.
func fromRow(row map[string]string) (model.Transaction, error) {
	amount, err := ParseAmount(row[colAmount])
	if err != nil {
		return model.Transaction{}, err
	}
	date, err := NormalizeDate(row[colDate])
	if err != nil {
		return model.Transaction{}, err
	}
	category := row[colCategory]
	if category == "" {
		category = "Unknown"
	}
	return model.Transaction{
		Description: NormalizeDescription(row[colDescription]),
		AmountUSD:   amount,
		Date:        date,
		Category:    category,
		Balance:     row[colBalance],
	}, nil
}
