package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txenrich/internal/commands"
	"github.com/cleared-dev/txenrich/internal/config"
	"github.com/cleared-dev/txenrich/internal/enrich"
	"github.com/cleared-dev/txenrich/internal/gap"
	"github.com/cleared-dev/txenrich/internal/model"
	"github.com/cleared-dev/txenrich/internal/rules"
	"github.com/cleared-dev/txenrich/internal/runlog"
)

const sampleCSV = "../../testdata/transactions.csv"

func runTxenrich(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// noProject points --config at a file that does not exist, so defaults apply
// and no run log is written.
func noProject(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.yaml")
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func readEnriched(t *testing.T, path string) []model.EnrichedTransaction {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := enrich.ReadEnriched(f)
	require.NoError(t, err)
	return rows
}

func ruleHits(rows []model.EnrichedTransaction) []string {
	hits := make([]string, len(rows))
	for i, r := range rows {
		hits[i] = r.Record.RuleHit
	}
	return hits
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runTxenrich(t, "init", dir, "--name", "Test Project", "--config", noProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized txenrich project")

	for _, d := range []string{"rules", "logs", "data/import", "data/import/processed", "data/enriched"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Test Project", cfg.Project.Name)
	assert.True(t, cfg.RunLog.Enabled)

	tables, err := rules.LoadFile(filepath.Join(dir, cfg.Rules.File))
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultTables(), tables)
}

func TestInit_RefusesExistingProject(t *testing.T) {
	dir := t.TempDir()
	_, err := runTxenrich(t, "init", dir, "--config", noProject(t))
	require.NoError(t, err)

	_, err = runTxenrich(t, "init", dir, "--config", noProject(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runTxenrich(t, "init", dir, "--force", "--config", noProject(t))
	assert.NoError(t, err)
}

func TestEnrich_SingleFile(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.csv")
	out, err := runTxenrich(t, "enrich", "--input", sampleCSV, "--output", output, "--config", noProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Enriched 8 transactions")
	assert.Contains(t, out, "fallback 25.00%")

	rows := readEnriched(t, output)
	assert.Equal(t, []string{
		rules.RuleTaxKeyword,
		rules.RuleMerchantLookup,
		rules.RuleCreditCardPayment,
		rules.RuleFallback,
		rules.RulePaymentRail,
		rules.RuleEcommercePurchase,
		rules.RuleRAGFallback,
		rules.RuleFallback,
	}, ruleHits(rows))

	assert.Equal(t, "irs tax payment #4021", rows[0].Record.TransactionName)
	assert.Equal(t, "zelle to j smith", rows[4].Transaction.Description)
	assert.InDelta(t, 1210.55, rows[5].Transaction.AmountUSD, 1e-9)
	assert.Equal(t, "Shopping", rows[1].Transaction.Category)
	assert.Equal(t, "Unknown", rows[0].Transaction.Category)
}

func TestEnrich_DefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bank.csv")
	copyFile(t, sampleCSV, input)

	_, err := runTxenrich(t, "enrich", "--input", input, "--config", noProject(t))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "bank_enriched.csv"))
}

func TestEnrich_ChaseFormat(t *testing.T) {
	output := filepath.Join(t.TempDir(), "chase.csv")
	_, err := runTxenrich(t, "enrich", "--format", "chase", "--input", "../../testdata/chase_checking.csv",
		"--output", output, "--config", noProject(t))
	require.NoError(t, err)

	rows := readEnriched(t, output)
	require.Len(t, rows, 6)
	for _, r := range rows {
		assert.NotEmpty(t, r.Transaction.Date)
		assert.NotEmpty(t, r.Record.RuleHit)
	}
}

func TestEnrich_UnknownFormat(t *testing.T) {
	_, err := runTxenrich(t, "enrich", "--format", "ofx", "--input", sampleCSV, "--config", noProject(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "ofx"`)
}

func TestEnrich_ImportDirectory(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	_, err := runTxenrich(t, "init", dir, "--config", cfgPath)
	require.NoError(t, err)
	copyFile(t, sampleCSV, filepath.Join(dir, "data", "import", "transactions.csv"))

	out, err := runTxenrich(t, "enrich", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Enriched 8 transactions")

	assert.FileExists(t, filepath.Join(dir, "data", "enriched", "transactions.csv"))
	assert.FileExists(t, filepath.Join(dir, "data", "import", "processed", "transactions.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "data", "import", "transactions.csv"))

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "enrich", entries[0].Command)
	assert.Equal(t, 8, entries[0].Records)
	assert.InDelta(t, 25.0, entries[0].FallbackPct, 1e-9)

	out, err = runTxenrich(t, "enrich", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No files to enrich")
}

func TestEnrich_ProjectRulesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	_, err := runTxenrich(t, "init", dir, "--config", cfgPath)
	require.NoError(t, err)

	tables := rules.DefaultTables()
	tables.TaxKeywords = []string{"nothingmatchesthis"}
	require.NoError(t, rules.SaveFile(filepath.Join(dir, "rules", "enrichment-rules.yaml"), tables))

	output := filepath.Join(dir, "out.csv")
	_, err = runTxenrich(t, "enrich", "--input", sampleCSV, "--output", output, "--config", cfgPath)
	require.NoError(t, err)

	rows := readEnriched(t, output)
	assert.NotEqual(t, rules.RuleTaxKeyword, rows[0].Record.RuleHit)
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	enriched := filepath.Join(dir, "enriched.csv")
	_, err := runTxenrich(t, "enrich", "--input", sampleCSV, "--output", enriched, "--config", noProject(t))
	require.NoError(t, err)

	report := filepath.Join(dir, "fallback.csv")
	out, err := runTxenrich(t, "analyze", "--input", enriched, "--fallback-report", report,
		"--sample-size", "1", "--config", noProject(t))
	require.NoError(t, err)

	assert.Contains(t, out, "--- Gap Analysis Report ---")
	assert.Contains(t, out, "2. Percentage of transactions hitting RULE_FALLBACK: 25.00%")
	assert.Contains(t, out, "- 'random noise xyz123' (count: 2)")
	assert.Contains(t, out, "Wrote 2 fallback transactions")

	rows := readEnriched(t, report)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, rules.RuleFallback, r.Record.RuleHit)
	}
}

func TestAnalyze_RequiresInput(t *testing.T) {
	_, err := runTxenrich(t, "analyze", "--config", noProject(t))
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "baseline.csv")
	revised := filepath.Join(dir, "revised.csv")

	_, err := runTxenrich(t, "enrich", "--input", sampleCSV, "--output", baseline, "--config", noProject(t))
	require.NoError(t, err)

	tables := rules.DefaultTables()
	tables.Merchants = append(tables.Merchants, rules.LookupEntry{Keyword: "random noise", Name: "Noise Co"})
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, rules.SaveFile(rulesPath, tables))

	_, err = runTxenrich(t, "enrich", "--input", sampleCSV, "--output", revised, "--rules", rulesPath, "--config", noProject(t))
	require.NoError(t, err)

	out, err := runTxenrich(t, "compare", "--baseline", baseline, "--revised", revised, "--json", "--config", noProject(t))
	require.NoError(t, err)

	var report gap.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.InDelta(t, -25.0, report.FallbackPercentageDelta, 1e-9)
	assert.Equal(t, []string{"random noise xyz123"}, report.RemovedFallbackDescriptions)
	assert.Empty(t, report.AddedFallbackDescriptions)
	require.True(t, report.OverallAvgConfidenceDelta.Valid)
	assert.Greater(t, report.OverallAvgConfidenceDelta.Value, 0.0)

	text, err := runTxenrich(t, "compare", "--baseline", baseline, "--revised", revised, "--config", noProject(t))
	require.NoError(t, err)
	assert.Contains(t, text, "--- Gap Delta Report ---")
	assert.Contains(t, text, "- 'random noise xyz123'")
}

func TestRules_List(t *testing.T) {
	out, err := runTxenrich(t, "rules", "--config", noProject(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Rules from built-in")
	assert.Regexp(t, `1\s+RULE_TAX_KEYWORD\s+1\.0`, out)
	assert.Regexp(t, `6\s+RULE_RAG_FALLBACK\s+0\.6`, out)
	assert.Regexp(t, `7\s+RULE_FALLBACK\s+0\.1`, out)
}

func TestRules_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.yaml")
	_, err := runTxenrich(t, "rules", "--export", path, "--config", noProject(t))
	require.NoError(t, err)

	tables, err := rules.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultTables(), tables)
}

func TestRules_CommitTracksRevision(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	out, err := runTxenrich(t, "init", dir, "--git", "--config", cfgPath)
	require.NoError(t, err)
	assert.Regexp(t, `Initialized txenrich project at .+ \([0-9a-f]+\)`, out)

	out, err = runTxenrich(t, "rules", "commit", "-m", "no-op", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Rules unchanged")

	tables := rules.DefaultTables()
	tables.TaxKeywords = append(tables.TaxKeywords, "franchise board")
	require.NoError(t, rules.SaveFile(filepath.Join(dir, "rules", "enrichment-rules.yaml"), tables))

	out, err = runTxenrich(t, "rules", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "+modified")

	out, err = runTxenrich(t, "rules", "commit", "-m", "add franchise board", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Committed rules/enrichment-rules.yaml")

	out, err = runTxenrich(t, "rules", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(revision ")
	assert.NotContains(t, out, "+modified")
}

func TestRules_CommitRequiresGit(t *testing.T) {
	_, err := runTxenrich(t, "rules", "commit", "-m", "x", "--config", noProject(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules versioning is off")
}
