package engine

import (
	"path/filepath"
	"strings"

	"github.com/blang/semver/v4"
	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/dabcheck/dabcheck/internal/types"
)

var defaultExcludeDirs = map[string]bool{
	".git":               true,
	"node_modules":       true,
	"dist":               true,
	"build":              true,
	".venv":              true,
	"venv":               true,
	"env":                true,
	"__pycache__":        true,
	"site-packages":      true,
	".tox":               true,
	".nox":               true,
	".eggs":              true,
	".mypy_cache":        true,
	".pytest_cache":      true,
	".ruff_cache":        true,
	".ipynb_checkpoints": true,
}

// sources scanned when no include globs are given
var pythonExtensions = []string{".py", ".pyi", ".pyw"}

// generated code that is not worth reporting on
var defaultExcludeFileSuffixes = []string{
	"_pb2.py", "_pb2_grpc.py", "_pb2.pyi",
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git") || strings.HasSuffix(name, ".egg-info")
}

func isDefaultFileExcluded(lowerRel string) bool {
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	return false
}

func isPythonFile(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	for _, e := range pythonExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// selected applies the include/exclude globs; without include globs only
// Python sources are selected.
func selected(rel string, cfg Config) bool {
	if cfg.IncludeGlobs == "" && !isPythonFile(rel) {
		return false
	}
	return allowedByGlobs(rel, cfg)
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}

// ParseSince validates a minimum breaking version. An empty string is valid
// and disables the filter.
func ParseSince(since string) (*semver.Version, error) {
	if strings.TrimSpace(since) == "" {
		return nil, nil
	}
	v, err := semver.ParseTolerant(since)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// filterBySince drops findings whose breaking version is older than min.
// Versions that do not parse are kept.
func filterBySince(fs []types.Finding, min *semver.Version) []types.Finding {
	if min == nil {
		return fs
	}
	var out []types.Finding
	for _, f := range fs {
		v, err := semver.ParseTolerant(f.Version)
		if err == nil && v.LT(*min) {
			continue
		}
		out = append(out, f)
	}
	return out
}
