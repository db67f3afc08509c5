package enrich

import (
	"github.com/rs/zerolog"

	"github.com/cleared-dev/txenrich/internal/model"
	"github.com/cleared-dev/txenrich/internal/rules"
)

// Enricher classifies transactions with an ordered rule set.
// It holds no per-call state and is safe for concurrent use.
type Enricher struct {
	rules *rules.Set
	log   zerolog.Logger
}

// NewEnricher creates an Enricher. A nil set means the built-in rules.
func NewEnricher(set *rules.Set, log zerolog.Logger) *Enricher {
	if set == nil {
		set = rules.Default()
	}
	return &Enricher{rules: set, log: log}
}

// Rules returns the rule set in evaluation order.
func (e *Enricher) Rules() []rules.Rule {
	return e.rules.Rules()
}

// Enrich returns one record per transaction, in input order. A batch with
// any invalid row is rejected as a whole with an *InvalidInputError naming
// every bad row. A rule producing an off-schema record aborts the call with
// a *SchemaViolationError.
func (e *Enricher) Enrich(txns []model.Transaction) ([]model.EnrichmentRecord, error) {
	if errs := ValidateTransactions(txns); len(errs) > 0 {
		return nil, &InvalidInputError{Rows: errs}
	}

	records := make([]model.EnrichmentRecord, len(txns))
	hits := make(map[string]int)
	for i, txn := range txns {
		rec, err := e.enrichOne(i, txn)
		if err != nil {
			e.log.Error().Err(err).Int("row", i).Msg("enrichment aborted")
			return nil, err
		}
		records[i] = rec
		hits[rec.RuleHit]++
	}

	ev := e.log.Debug().Int("rows", len(txns))
	for _, r := range e.rules.Rules() {
		ev = ev.Int(r.ID, hits[r.ID])
	}
	ev.Msg("enriched batch")
	return records, nil
}

// EnrichTransactions is Enrich returning each record alongside its input row.
func (e *Enricher) EnrichTransactions(txns []model.Transaction) ([]model.EnrichedTransaction, error) {
	records, err := e.Enrich(txns)
	if err != nil {
		return nil, err
	}
	rows := make([]model.EnrichedTransaction, len(txns))
	for i := range txns {
		rows[i] = model.EnrichedTransaction{Transaction: txns[i], Record: records[i]}
	}
	return rows, nil
}

func (e *Enricher) enrichOne(index int, txn model.Transaction) (model.EnrichmentRecord, error) {
	out := e.rules.Evaluate(txn.Description, txn.AmountUSD)
	return buildRecord(index, txn.Description, out)
}
