package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/txenrich/internal/buildinfo"
	"github.com/cleared-dev/txenrich/internal/config"
	"github.com/cleared-dev/txenrich/internal/enrich"
	"github.com/cleared-dev/txenrich/internal/gitops"
	"github.com/cleared-dev/txenrich/internal/logger"
	"github.com/cleared-dev/txenrich/internal/rules"
	"github.com/cleared-dev/txenrich/internal/runlog"
)

// env is the state shared by all subcommands, filled in before any of them run.
type env struct {
	configPath string
	logLevel   string
	logJSON    bool

	root     string // directory holding the config file
	cfg      *config.Config
	cfgFound bool
	log      zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:     "txenrich",
		Short:   "Rule-based transaction enrichment and gap analysis",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.configPath, "config", config.FileName, "path to "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&e.logJSON, "log-json", false, "log as JSON instead of console text")

	rootCmd.AddCommand(
		newInitCommand(),
		newEnrichCommand(e),
		newAnalyzeCommand(e),
		newCompareCommand(e),
		newServeCommand(e),
		newRulesCommand(e),
	)

	return rootCmd
}

func (e *env) setup(cmd *cobra.Command) error {
	absConfig, err := filepath.Abs(e.configPath)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}
	e.root = filepath.Dir(absConfig)

	e.cfg, e.cfgFound, err = config.LoadOrDefault(absConfig)
	if err != nil {
		return err
	}

	level := e.cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		level = e.logLevel
	}
	jsonOut := e.cfg.Log.JSON || e.logJSON

	if jsonOut {
		e.log, err = logger.NewWithWriter(cmd.ErrOrStderr(), level)
	} else {
		e.log, err = logger.NewWithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}, level)
	}
	if err != nil {
		return err
	}
	cmd.SetContext(logger.WithContext(cmd.Context(), e.log))

	e.log.Debug().
		Str("config", absConfig).
		Bool("found", e.cfgFound).
		Msg("configuration loaded")
	return nil
}

// ruleTables resolves the active rule tables: an explicit file, then the
// project's rules file if it exists, then the built-in tables.
func (e *env) ruleTables(explicit string) (rules.Tables, string, error) {
	path := explicit
	if path == "" && e.cfgFound && e.cfg.Rules.File != "" {
		candidate := e.cfg.Rules.File
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(e.root, candidate)
		}
		if fileExists(candidate) {
			path = candidate
		}
	}
	if path == "" {
		return rules.DefaultTables(), "built-in", nil
	}

	tables, err := rules.LoadFile(path)
	if err != nil {
		return rules.Tables{}, "", err
	}
	return tables, path, nil
}

func (e *env) ruleSet(explicit string) (*rules.Set, string, error) {
	tables, source, err := e.ruleTables(explicit)
	if err != nil {
		return nil, "", err
	}
	return rules.FromTables(tables), source, nil
}

func (e *env) enricher(explicitRules string) (*enrich.Enricher, error) {
	set, source, err := e.ruleSet(explicitRules)
	if err != nil {
		return nil, err
	}
	if rev := e.rulesRevision(source); rev != "" {
		e.log.Info().Str("rules", source).Str("revision", rev).Msg("rules loaded")
	} else {
		e.log.Debug().Str("rules", source).Msg("rules loaded")
	}
	return enrich.NewEnricher(set, e.log), nil
}

// rulesRevision describes the committed revision of a rules file, marking
// uncommitted edits. It is empty unless the project versions its rules.
func (e *env) rulesRevision(path string) string {
	if !e.cfgFound || !e.cfg.Git.Enabled || !filepath.IsAbs(path) {
		return ""
	}
	rev, err := gitops.Revision(e.root, path)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not read rules revision")
		return ""
	}
	if rev == "" {
		return "uncommitted"
	}
	if changed, err := gitops.Changed(e.root, path); err == nil && changed {
		rev += "+modified"
	}
	return rev
}

// recordRuns appends to the project run log when the project enables it.
func (e *env) recordRuns(entries ...runlog.Entry) {
	if !e.cfgFound || !e.cfg.RunLog.Enabled || len(entries) == 0 {
		return
	}
	if err := runlog.Append(e.root, entries); err != nil {
		e.log.Warn().Err(err).Msg("could not write run log")
	}
}
