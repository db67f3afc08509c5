// Package gitops versions project files, chiefly the rules file, in git so
// that enrichment runs can be traced to the rule revision that produced them.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who commits rule revisions.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := run(dir, "init"); err != nil {
		return err
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages paths (everything when none are given) and commits them.
// Returns the short commit hash.
func Commit(dir, message string, author Author, paths ...string) (string, error) {
	add := []string{"add", "-A"}
	if len(paths) > 0 {
		add = append(add, "--")
		add = append(add, paths...)
	}
	if _, err := run(dir, add...); err != nil {
		return "", err
	}

	if _, err := run(dir,
		"-c", "user.name="+author.Name,
		"-c", "user.email="+author.Email,
		"commit", "-m", message, "--author", author.String(),
	); err != nil {
		return "", err
	}
	return run(dir, "rev-parse", "--short", "HEAD")
}

// Revision returns the short hash of the last commit touching path, or ""
// when path has never been committed.
func Revision(dir, path string) (string, error) {
	if !IsRepo(dir) {
		return "", nil
	}
	out, err := run(dir, "log", "-1", "--format=%h", "--", path)
	if err != nil {
		// A repository without commits has no HEAD to log from.
		if strings.Contains(err.Error(), "does not have any commits") {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// Changed reports whether path differs from its last committed version.
func Changed(dir, path string) (bool, error) {
	out, err := run(dir, "status", "--porcelain", "--", path)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", subcommand(args), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// subcommand returns the git subcommand in args, skipping global options
// such as "-c name=value".
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-c" || args[i] == "-C":
			i++
		case strings.HasPrefix(args[i], "-"):
		default:
			return args[i]
		}
	}
	return "git"
}
