// Package detect finds which known libraries a source file imports.
package detect

import (
	"sort"
	"strings"
)

// IsImportLine reports whether line is a top-level import statement. Indented
// imports do not count.
func IsImportLine(line string) bool {
	return strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "from ")
}

// Imports returns the known libraries named on import lines of text, sorted
// and without duplicates. A library matches when its name occurs anywhere in
// an import line, not only in the module position.
func Imports(text string, known []string) []string {
	found := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		if !IsImportLine(line) {
			continue
		}
		for _, lib := range known {
			if lib != "" && strings.Contains(line, lib) {
				found[lib] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(found))
	for lib := range found {
		out = append(out, lib)
	}
	sort.Strings(out)
	return out
}
