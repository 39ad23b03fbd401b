// Package config loads the scanner configuration from YAML and flattens
// the grouped target-directory structure into the ordered list of scan
// targets the orchestrator consumes.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is one resolved directory to scan. Immutable during a scan.
type Target struct {
	Path        string `yaml:"path"`
	Group       string `yaml:"-"` // filled from the group key during flattening
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	// Recursive overrides settings.recursive for this target when set.
	Recursive *bool `yaml:"recursive"`
}

// PathMapping rewrites a host path prefix to its mount point inside a
// container, so the same config works on the host and in Docker.
type PathMapping struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Settings holds scan-wide knobs.
type Settings struct {
	Recursive        bool `yaml:"recursive"`
	ProgressInterval int  `yaml:"progress_interval"`
	ExtractWorkers   int  `yaml:"extract_workers"`
}

// Config holds all configuration loaded from config.yaml.
type Config struct {
	DBPath       string              `yaml:"db_path"`
	HTTPAddr     string              `yaml:"http_addr"`
	Schedule     string              `yaml:"schedule"`
	LogLevel     string              `yaml:"log_level"`
	LogFile      string              `yaml:"log_file"`
	ExcludeDirs  []string            `yaml:"exclude_dirs"`
	PathMappings []PathMapping       `yaml:"path_mappings"`
	Settings     Settings            `yaml:"settings"`
	TargetDirs   map[string][]Target `yaml:"target_directories"`
}

// applyDefaults fills zero/empty fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "photark.db"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Settings.ProgressInterval == 0 {
		c.Settings.ProgressInterval = 500
	}
	if c.Settings.ExtractWorkers == 0 {
		// 1 preserves the strictly sequential reference behavior.
		c.Settings.ExtractWorkers = 1
	}
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	cfg := Config{Settings: Settings{Recursive: true}}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Targets flattens target_directories into one ordered list, stamping each
// entry with its group name and applying path mappings. Groups are visited
// in lexical order so the result is deterministic.
func (c *Config) Targets() []Target {
	groups := make([]string, 0, len(c.TargetDirs))
	for g := range c.TargetDirs {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var out []Target
	for _, group := range groups {
		for _, t := range c.TargetDirs[group] {
			t.Group = group
			t.Path = c.translatePath(t.Path)
			out = append(out, t)
		}
	}
	return out
}

// RecursiveFor resolves the effective recursive flag for a target.
func (c *Config) RecursiveFor(t Target) bool {
	if t.Recursive != nil {
		return *t.Recursive
	}
	return c.Settings.Recursive
}

// translatePath applies the first matching path mapping prefix, if any.
func (c *Config) translatePath(p string) string {
	for _, m := range c.PathMappings {
		if strings.HasPrefix(p, m.From) {
			return m.To + strings.TrimPrefix(p, m.From)
		}
	}
	return p
}
