package enrich

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txenrich/internal/model"
)

// Input columns written after the schema columns.
const (
	ColDate        = "TransactionDate"
	ColDescription = "Description"
	ColCategory    = "Category"
	ColAmount      = "AmountUSD"
	ColBalance     = "Balance"
)

// Header returns the enriched CSV header: schema fields first, then input columns.
func Header() []string {
	return append(model.RecordFields(), ColDate, ColDescription, ColCategory, ColAmount, ColBalance)
}

// WriteEnriched writes enriched rows as CSV, including the header.
func WriteEnriched(w io.Writer, rows []model.EnrichedTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts an enriched row to CSV fields in Header order.
func MarshalRow(row model.EnrichedTransaction) []string {
	rec, txn := row.Record, row.Transaction
	return []string{
		rec.TransactionClassification,
		rec.MerchantClassification,
		rec.NormalizedEntity,
		rec.TransactionName,
		strconv.FormatBool(rec.IsCreditCardExpense),
		rec.Reason,
		strconv.FormatFloat(rec.Confidence, 'f', -1, 64),
		rec.RuleHit,
		txn.Date,
		txn.Description,
		txn.Category,
		formatAmount(txn.AmountUSD),
		txn.Balance,
	}
}

// formatAmount writes at least two decimal places and never rounds away
// precision the input carried.
func formatAmount(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

// ReadEnriched reads an enriched CSV. Columns are located by header name; the
// eight schema columns are required and the input columns are optional.
func ReadEnriched(r io.Reader) ([]model.EnrichedTransaction, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading enriched CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, f := range model.RecordFields() {
		if _, ok := cols[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("enriched CSV missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []model.EnrichedTransaction
	for i, rec := range records[1:] {
		row, err := unmarshalRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func unmarshalRow(rec []string, cols map[string]int) (model.EnrichedTransaction, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var row model.EnrichedTransaction
	conf, err := strconv.ParseFloat(get(model.FieldConfidence), 64)
	if err != nil {
		return row, fmt.Errorf("parsing confidence %q: %w", get(model.FieldConfidence), err)
	}
	cc, err := strconv.ParseBool(get(model.FieldIsCreditCardExpense))
	if err != nil {
		return row, fmt.Errorf("parsing credit card flag %q: %w", get(model.FieldIsCreditCardExpense), err)
	}

	var amount float64
	if s := get(ColAmount); s != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			return row, fmt.Errorf("parsing amount %q: %w", s, err)
		}
		amount = d.InexactFloat64()
	}

	row.Record = model.EnrichmentRecord{
		TransactionClassification: get(model.FieldTransactionClassification),
		MerchantClassification:    get(model.FieldMerchantClassification),
		NormalizedEntity:          get(model.FieldNormalizedEntity),
		TransactionName:           get(model.FieldTransactionName),
		IsCreditCardExpense:       cc,
		Reason:                    get(model.FieldReason),
		Confidence:                conf,
		RuleHit:                   get(model.FieldRuleHit),
	}
	desc := get(ColDescription)
	if _, ok := cols[ColDescription]; !ok {
		desc = row.Record.TransactionName
	}
	row.Transaction = model.Transaction{
		Description: desc,
		AmountUSD:   amount,
		Date:        get(ColDate),
		Category:    get(ColCategory),
		Balance:     get(ColBalance),
	}
	return row, nil
}

// Records extracts the enrichment records from rows.
func Records(rows []model.EnrichedTransaction) []model.EnrichmentRecord {
	recs := make([]model.EnrichmentRecord, len(rows))
	for i, r := range rows {
		recs[i] = r.Record
	}
	return recs
}
