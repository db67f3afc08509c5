package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txenrich/internal/enrich"
	"github.com/cleared-dev/txenrich/internal/ingest"
	"github.com/cleared-dev/txenrich/internal/metrics"
	"github.com/cleared-dev/txenrich/internal/model"
	"github.com/cleared-dev/txenrich/internal/runlog"
)

func newEnrichCommand(e *env) *cobra.Command {
	var input, output, format, rulesFile string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich transaction CSVs with the rule chain",
		Long: `Enrich classifies every transaction and writes an enriched CSV.

With --input, one file is enriched and written to --output (or next to the
input as <name>_enriched.csv). Without --input, every CSV in data/import/ is
enriched into data/enriched/ and then moved to data/import/processed/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := ingest.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(registry.Formats(), ", "))
			}
			enricher, err := e.enricher(rulesFile)
			if err != nil {
				return err
			}

			if input != "" {
				if output == "" {
					output = strings.TrimSuffix(input, filepath.Ext(input)) + "_enriched.csv"
				}
				entry, err := enrichFile(enricher, parser, input, output)
				if err != nil {
					return err
				}
				printRun(cmd.OutOrStdout(), entry)
				e.recordRuns(entry)
				return nil
			}
			return enrichImports(cmd, e, enricher, parser)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CSV file to enrich")
	cmd.Flags().StringVar(&output, "output", "", "where to write the enriched CSV")
	cmd.Flags().StringVar(&format, "format", "generic", "input CSV format")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "rules YAML file (overrides the project rules)")

	return cmd
}

func enrichImports(cmd *cobra.Command, e *env, enricher *enrich.Enricher, parser ingest.Parser) error {
	files, err := ingest.Scan(e.root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No files to enrich in %s\n", ingest.ImportDir)
		return nil
	}

	outDir := filepath.Join(e.root, enrichedDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", enrichedDir, err)
	}

	var entries []runlog.Entry
	for _, f := range files {
		entry, err := enrichFile(enricher, parser, f.Path, filepath.Join(outDir, f.Name))
		if err != nil {
			e.recordRuns(entries...)
			return err
		}
		if err := ingest.MarkProcessed(e.root, f.Name); err != nil {
			e.recordRuns(entries...)
			return err
		}
		printRun(cmd.OutOrStdout(), entry)
		entries = append(entries, entry)
	}
	e.recordRuns(entries...)
	return nil
}

func enrichFile(enricher *enrich.Enricher, parser ingest.Parser, input, output string) (runlog.Entry, error) {
	txns, err := ingest.ParseFile(parser, input)
	if err != nil {
		return runlog.Entry{}, err
	}
	rows, err := enricher.EnrichTransactions(txns)
	if err != nil {
		return runlog.Entry{}, fmt.Errorf("enriching %s: %w", input, err)
	}
	if err := writeEnrichedFile(output, rows); err != nil {
		return runlog.Entry{}, err
	}

	snap := metrics.Summarize(enrich.Records(rows), 0)
	return runlog.NewEntry("enrich", input, output, len(rows), snap.FallbackPercentage), nil
}

func writeEnrichedFile(path string, rows []model.EnrichedTransaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := enrich.WriteEnriched(f, rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func printRun(w io.Writer, entry runlog.Entry) {
	fmt.Fprintf(w, "Enriched %d transactions from %s -> %s (fallback %.2f%%)\n",
		entry.Records, entry.Input, entry.Output, entry.FallbackPct)
}

func readEnrichedFile(path string) ([]model.EnrichedTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := enrich.ReadEnriched(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}
