package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the conventional config file name at a project root.
const FileName = "txenrich.yaml"

// Config represents the top-level txenrich.yaml configuration.
type Config struct {
	Project  ProjectConfig  `yaml:"project"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Rules    RulesConfig    `yaml:"rules"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	RunLog   RunLogConfig   `yaml:"runlog"`
	Git      GitConfig      `yaml:"git"`
}

// ProjectConfig identifies the project.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// AnalysisConfig controls gap analysis output.
type AnalysisConfig struct {
	TopN       int `yaml:"top_n"`
	SampleSize int `yaml:"sample_size"`
}

// RulesConfig points at an optional rules override file.
type RulesConfig struct {
	File string `yaml:"file,omitempty"` // relative to the project root
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RunLogConfig controls the per-run CSV log.
type RunLogConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GitConfig controls versioning of the rules file.
type GitConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a txenrich.yaml file from disk. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default and found=false.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(""), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Analysis.TopN < 1 {
		return fmt.Errorf("analysis.top_n must be at least 1, got %d", c.Analysis.TopN)
	}
	if c.Analysis.SampleSize < 0 {
		return fmt.Errorf("analysis.sample_size must not be negative, got %d", c.Analysis.SampleSize)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(projectName string) *Config {
	return &Config{
		Project: ProjectConfig{
			Name: projectName,
		},
		Analysis: AnalysisConfig{
			TopN:       10,
			SampleSize: 5,
		},
		Rules: RulesConfig{
			File: "rules/enrichment-rules.yaml",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		RunLog: RunLogConfig{
			Enabled: true,
		},
		Git: GitConfig{
			AuthorName:  "txenrich",
			AuthorEmail: "txenrich@localhost",
		},
	}
}
