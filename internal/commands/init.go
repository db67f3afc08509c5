package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txenrich/internal/config"
	"github.com/cleared-dev/txenrich/internal/gitops"
	"github.com/cleared-dev/txenrich/internal/ingest"
	"github.com/cleared-dev/txenrich/internal/rules"
)

// enrichedDir receives enriched CSVs, relative to the project root.
const enrichedDir = "data/enriched"

func newInitCommand() *cobra.Command {
	var name string
	var force, git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new txenrich project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if name == "" {
				name = filepath.Base(absDir)
			}

			hash, err := runInit(absDir, name, force, git)
			if err != nil {
				return err
			}
			if hash != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized txenrich project at %s (%s)\n", absDir, hash)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized txenrich project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (defaults to the directory name)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing "+config.FileName)
	cmd.Flags().BoolVar(&git, "git", false, "version the project in a new git repository")

	return cmd
}

func runInit(dir, name string, force, git bool) (string, error) {
	cfgPath := filepath.Join(dir, config.FileName)
	if !force && fileExists(cfgPath) {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	// Create directory structure.
	dirs := []string{
		"rules",
		"logs",
		ingest.ImportDir,
		filepath.Join(ingest.ImportDir, "processed"),
		enrichedDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name)
	cfg.Git.Enabled = git
	if err := config.Save(cfgPath, cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	// Seed the rules file with the built-in tables so they can be edited.
	if err := rules.SaveFile(filepath.Join(dir, cfg.Rules.File), rules.DefaultTables()); err != nil {
		return "", fmt.Errorf("writing rules: %w", err)
	}

	gitignore := "data/\nlogs/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ingest.ImportDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return "", fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !git {
		return "", nil
	}
	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return "", err
		}
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(dir, "init: Initialize "+name, author)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
