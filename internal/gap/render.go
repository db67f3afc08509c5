package gap

import (
	"encoding/json"
	"fmt"
	"io"
)

// Render prints the comparison as a text report.
func (r Report) Render(w io.Writer) {
	fmt.Fprintln(w, "--- Gap Delta Report ---")
	fmt.Fprintf(w, "\nRecords: baseline %d, revised %d\n", r.Baseline.Total, r.Revised.Total)
	fmt.Fprintf(w, "Fallback %%:            %6.2f -> %6.2f  (%+.2f)\n",
		r.Baseline.FallbackPercentage, r.Revised.FallbackPercentage, r.FallbackPercentageDelta)
	fmt.Fprintf(w, "RAG fallback %% delta:  %+.2f\n", r.RAGFallbackPercentageDelta)
	fmt.Fprintf(w, "Overall confidence:    %s -> %s  (%s)\n",
		formatAverage(r.Baseline.AvgOverallConfidence), formatAverage(r.Revised.AvgOverallConfidence),
		formatDelta(r.OverallAvgConfidenceDelta))

	fmt.Fprintln(w, "\nConfidence per rule:")
	for _, d := range r.RuleConfidenceDeltas {
		fmt.Fprintf(w, "  %-28s %.4f -> %.4f  (%+.4f)\n", d.RuleHit, d.Baseline, d.Revised, d.Delta)
	}

	fmt.Fprintln(w, "\nNew top fallback descriptions:")
	renderList(w, r.AddedFallbackDescriptions)
	fmt.Fprintln(w, "\nResolved top fallback descriptions:")
	renderList(w, r.RemovedFallbackDescriptions)
}

func renderList(w io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, s := range items {
		fmt.Fprintf(w, "- '%s'\n", s)
	}
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding delta report: %w", err)
	}
	return nil
}
