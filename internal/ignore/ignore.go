// Package ignore decides what dabcheck stays quiet about: paths listed in a
// .dabcheckignore file, and lookup keys dismissed during a session.
package ignore

import (
	"bufio"
	"os"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the per-repository ignore file.
const FileName = ".dabcheckignore"

// Matcher matches slash-separated relative paths against gitignore-style
// patterns: "dir/" ignores everything below dir, patterns without a slash
// match the base name at any depth, others match the whole path.
type Matcher struct {
	patterns []string
}

// Load reads patterns from path. Blank lines and lines starting with '#' are
// skipped. A missing file yields an empty matcher together with the error.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if err != nil {
		return Matcher{}, err
	}
	defer f.Close()
	var pats []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pats = append(pats, line)
	}
	return NewMatcher(pats...), sc.Err()
}

// NewMatcher builds a matcher from patterns.
func NewMatcher(patterns ...string) Matcher {
	return Matcher{patterns: patterns}
}

// Match reports whether rel is ignored.
func (m Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	for _, p := range m.patterns {
		p = strings.TrimPrefix(p, "/")
		if dir, ok := strings.CutSuffix(p, "/"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") || strings.Contains(rel, "/"+dir+"/") {
				return true
			}
			continue
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, path.Base(rel)); ok {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
