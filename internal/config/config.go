package config

import (
	"errors"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalNames are the repo-local config files, in search order.
var LocalNames = []string{".dabcheck.yml", ".dabcheck.yaml", "dabcheck.yml", "dabcheck.yaml"}

// FileConfig is the on-disk YAML configuration shape for dabcheck.
type FileConfig struct {
	Include         *string `yaml:"include,omitempty"`
	Exclude         *string `yaml:"exclude,omitempty"`
	MaxBytes        *int64  `yaml:"max_bytes,omitempty"`
	Threads         *int    `yaml:"threads,omitempty"`
	FailOn          *string `yaml:"fail_on,omitempty"`
	NoColor         *bool   `yaml:"no_color,omitempty"`
	DefaultExcludes *bool   `yaml:"default_excludes,omitempty"`
	// Since hides findings whose breaking version is older than this.
	Since    *string `yaml:"since,omitempty"`
	LogLevel *string `yaml:"log_level,omitempty"`
	Enable   *string `yaml:"enable,omitempty"`
	Disable  *string `yaml:"disable,omitempty"`

	// Libraries registers extra DABC tables: library name -> CSV path.
	// Relative paths are resolved against the directory of the config file.
	Libraries map[string]string `yaml:"libraries,omitempty"`
	// Severity maps a library to low, medium or high.
	Severity map[string]string `yaml:"severity,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	dir := filepath.Dir(path)
	for name, p := range cfg.Libraries {
		if p != "" && !filepath.IsAbs(p) {
			cfg.Libraries[name] = filepath.Join(dir, p)
		}
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .dabcheck.yml/.yaml and dabcheck.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath returns the global config location under XDG_CONFIG_HOME or
// ~/.config, or "" when neither is known.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "dabcheck", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// Merge overlays the fields set in over onto fc and returns the result.
// Map entries are merged key by key.
func (fc FileConfig) Merge(over FileConfig) FileConfig {
	out := fc
	pick(&out.Include, over.Include)
	pick(&out.Exclude, over.Exclude)
	pick(&out.MaxBytes, over.MaxBytes)
	pick(&out.Threads, over.Threads)
	pick(&out.FailOn, over.FailOn)
	pick(&out.NoColor, over.NoColor)
	pick(&out.DefaultExcludes, over.DefaultExcludes)
	pick(&out.Since, over.Since)
	pick(&out.LogLevel, over.LogLevel)
	pick(&out.Enable, over.Enable)
	pick(&out.Disable, over.Disable)
	out.Libraries = mergeMap(fc.Libraries, over.Libraries)
	out.Severity = mergeMap(fc.Severity, over.Severity)
	return out
}

// Effective merges the global config, then the local config of root.
// Missing files are skipped; malformed ones are reported.
func Effective(root string) (FileConfig, error) {
	var cfg FileConfig
	if p := GlobalPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			g, err := LoadFile(p)
			if err != nil {
				return cfg, err
			}
			cfg = cfg.Merge(g)
		}
	}
	for _, name := range LocalNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		l, err := LoadFile(p)
		if err != nil {
			return cfg, err
		}
		return cfg.Merge(l), nil
	}
	return cfg, nil
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

func mergeMap(base, over map[string]string) map[string]string {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}

// Starter is written by "dabcheck config init".
const Starter = `# dabcheck configuration
# Paths are globbed with doublestar; lists are comma-separated.

# include: "src/**/*.py"
# exclude: "**/tests/**"
# max_bytes: 1048576
# threads: 4
# default_excludes: true

# Exit with status 1 when a finding at or above this severity remains.
# fail_on: medium

# Hide findings whose default changed before this library version.
# since: "1.0"

# enable: numpy,pandas
# disable: sklearn
# log_level: warn

# Extra DABC tables (CSV with fqn and version columns).
# libraries:
#   scipy: tables/scipy-dabcs.csv

# severity:
#   sklearn: high
`
