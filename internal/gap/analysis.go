package gap

import (
	"fmt"
	"io"
	"os"

	"github.com/cleared-dev/txenrich/internal/enrich"
	"github.com/cleared-dev/txenrich/internal/metrics"
	"github.com/cleared-dev/txenrich/internal/model"
	"github.com/cleared-dev/txenrich/internal/rules"
)

// DefaultSampleSize is how many fallback rows an Analysis keeps for inspection.
const DefaultSampleSize = 5

// Analysis is the gap analysis of a single enrichment run.
type Analysis struct {
	Snapshot metrics.Snapshot
	// Fallback holds every row that hit the fallback rule, in input order.
	Fallback []model.EnrichedTransaction
	// Sample is the first rows of Fallback, for manual inspection.
	Sample []model.EnrichedTransaction
}

// Analyze summarizes rows and collects their fallback transactions.
func Analyze(rows []model.EnrichedTransaction, topN, sampleSize int) Analysis {
	if sampleSize < 0 {
		sampleSize = 0
	}
	a := Analysis{Snapshot: metrics.Summarize(enrich.Records(rows), topN)}
	for _, row := range rows {
		if row.Record.RuleHit == rules.RuleFallback {
			a.Fallback = append(a.Fallback, row)
		}
	}
	a.Sample = a.Fallback
	if len(a.Sample) > sampleSize {
		a.Sample = a.Sample[:sampleSize]
	}
	return a
}

// WriteFallbackReport writes the fallback rows as enriched CSV to path.
func (a Analysis) WriteFallbackReport(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating fallback report: %w", err)
	}
	defer f.Close()

	if err := enrich.WriteEnriched(f, a.Fallback); err != nil {
		return fmt.Errorf("writing fallback report: %w", err)
	}
	return f.Close()
}

// Render prints the gap analysis as a text report.
func (a Analysis) Render(w io.Writer) {
	s := a.Snapshot
	fmt.Fprintln(w, "--- Gap Analysis Report ---")
	if s.Empty() {
		fmt.Fprintln(w, "\nNo enriched transactions to analyze.")
		fmt.Fprintln(w, "\n--- Gap Analysis Complete ---")
		return
	}

	fmt.Fprintln(w, "\n1. Distribution of Rule Hits (%):")
	renderDistribution(w, s.RuleHitDistribution)

	fmt.Fprintf(w, "\n2. Percentage of transactions hitting %s: %.2f%%\n", rules.RuleFallback, s.FallbackPercentage)

	if len(s.TopFallbackDescriptions) > 0 {
		fmt.Fprintf(w, "\n3. Top %d most common descriptions in Fallback transactions:\n", len(s.TopFallbackDescriptions))
		for _, d := range s.TopFallbackDescriptions {
			fmt.Fprintf(w, "  %-40s %d\n", d.Description, d.Count)
		}
	} else {
		fmt.Fprintln(w, "\n3. No fallback transactions to analyze descriptions.")
	}

	fmt.Fprintln(w, "\n4. Distribution of Transaction Classifications (%):")
	renderDistribution(w, s.ClassificationDistribution)

	fmt.Fprintln(w, "\n5. Average Confidence per Rule:")
	for _, rc := range s.AvgConfidencePerRule {
		fmt.Fprintf(w, "  %-28s %.4f\n", rc.RuleHit, rc.Average)
	}
	fmt.Fprintf(w, "  %-28s %s\n", "OVERALL", formatAverage(s.AvgOverallConfidence))

	fmt.Fprintln(w, "\n--- Actionable Signals ---")
	if len(a.Fallback) == 0 {
		fmt.Fprintln(w, "\nNo fallback transactions to provide actionable signals.")
	} else {
		fmt.Fprintln(w, "\nHigh-frequency fallback descriptions (candidates for new rules or knowledge base entries):")
		for _, d := range s.TopFallbackDescriptions {
			fmt.Fprintf(w, "- '%s' (count: %d)\n", d.Description, d.Count)
		}
		fmt.Fprintln(w, "\nSample Fallback Transactions for Manual Inspection:")
		for _, row := range a.Sample {
			fmt.Fprintf(w, "  %-40s %10.2f  %s  %.2f\n",
				row.Transaction.Description, row.Transaction.AmountUSD, row.Record.TransactionClassification, row.Record.Confidence)
		}
	}
	fmt.Fprintln(w, "\n--- Gap Analysis Complete ---")
}

func renderDistribution(w io.Writer, d metrics.Distribution) {
	for _, s := range d {
		fmt.Fprintf(w, "  %-28s %6.2f  (%d)\n", s.Key, s.Percent, s.Count)
	}
}

func formatAverage(a metrics.Average) string {
	if !a.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", a.Value)
}

func formatDelta(a metrics.Average) string {
	if !a.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%+.4f", a.Value)
}
