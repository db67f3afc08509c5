package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txenrich/internal/gitops"
	"github.com/cleared-dev/txenrich/internal/rules"
)

func newRulesCommand(e *env) *cobra.Command {
	var rulesFile, export string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active rules in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, source, err := e.ruleTables(rulesFile)
			if err != nil {
				return err
			}
			set := rules.FromTables(tables)

			out := cmd.OutOrStdout()
			if rev := e.rulesRevision(source); rev != "" {
				fmt.Fprintf(out, "Rules from %s (revision %s):\n\n", source, rev)
			} else {
				fmt.Fprintf(out, "Rules from %s:\n\n", source)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PRIORITY\tRULE\tCONFIDENCE")
			for i, r := range set.Rules() {
				fmt.Fprintf(tw, "%d\t%s\t%.1f\n", i+1, r.ID, r.Confidence)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if export != "" {
				if err := rules.SaveFile(export, tables); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nWrote rule tables to %s\n", export)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "rules YAML file (overrides the project rules)")
	cmd.Flags().StringVar(&export, "export", "", "write the effective rule tables as YAML")

	cmd.AddCommand(newRulesCommitCommand(e))
	return cmd
}

func newRulesCommitCommand(e *env) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit the project rules file so runs can be traced to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.cfgFound || !e.cfg.Git.Enabled {
				return errors.New("rules versioning is off; set git.enabled in " + e.configPath)
			}
			if !gitops.IsRepo(e.root) {
				return fmt.Errorf("%s is not a git repository", e.root)
			}

			path := e.cfg.Rules.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(e.root, path)
			}
			if _, err := rules.LoadFile(path); err != nil {
				return fmt.Errorf("refusing to commit invalid rules: %w", err)
			}
			changed, err := gitops.Changed(e.root, path)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "Rules unchanged; nothing to commit")
				return nil
			}

			author := gitops.Author{Name: e.cfg.Git.AuthorName, Email: e.cfg.Git.AuthorEmail}
			hash, err := gitops.Commit(e.root, "rules: "+message, author, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed %s (%s)\n", e.cfg.Rules.File, hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (required)")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}
