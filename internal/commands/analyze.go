package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txenrich/internal/enrich"
	"github.com/cleared-dev/txenrich/internal/gap"
	"github.com/cleared-dev/txenrich/internal/runlog"
)

func newAnalyzeCommand(e *env) *cobra.Command {
	var input, fallbackReport string
	var topN, sampleSize int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print a gap analysis of an enriched CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("top-n") {
				topN = e.cfg.Analysis.TopN
			}
			if !cmd.Flags().Changed("sample-size") {
				sampleSize = e.cfg.Analysis.SampleSize
			}

			rows, err := readEnrichedFile(input)
			if err != nil {
				return err
			}
			analysis := gap.Analyze(rows, topN, sampleSize)
			analysis.Render(cmd.OutOrStdout())

			if fallbackReport != "" {
				if err := analysis.WriteFallbackReport(fallbackReport); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %d fallback transactions to %s\n", len(analysis.Fallback), fallbackReport)
			}

			e.log.Debug().
				Int("records", analysis.Snapshot.Total).
				Int("fallback", len(analysis.Fallback)).
				Msg("analysis complete")
			e.recordRuns(runlog.NewEntry("analyze", input, fallbackReport, analysis.Snapshot.Total, analysis.Snapshot.FallbackPercentage))
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "enriched CSV to analyze (required)")
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().StringVar(&fallbackReport, "fallback-report", "", "write fallback rows to this CSV")
	cmd.Flags().IntVar(&topN, "top-n", 0, "number of top fallback descriptions")
	cmd.Flags().IntVar(&sampleSize, "sample-size", 0, "number of fallback rows to sample")

	return cmd
}

func newCompareCommand(e *env) *cobra.Command {
	var baseline, revised string
	var topN int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a baseline enrichment run with a revised one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("top-n") {
				topN = e.cfg.Analysis.TopN
			}

			baseRows, err := readEnrichedFile(baseline)
			if err != nil {
				return err
			}
			revRows, err := readEnrichedFile(revised)
			if err != nil {
				return err
			}

			report := gap.Compare(enrich.Records(baseRows), enrich.Records(revRows), topN)
			if asJSON {
				return report.WriteJSON(cmd.OutOrStdout())
			}
			report.Render(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&baseline, "baseline", "", "enriched CSV from the baseline run (required)")
	cmd.Flags().StringVar(&revised, "revised", "", "enriched CSV from the revised run (required)")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("revised")
	cmd.Flags().IntVar(&topN, "top-n", 0, "number of top fallback descriptions per run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}
