// Package scanner finds call sites that rely on the default value of an
// argument whose default changed between library versions.
//
// Scanning is textual: a call is an identifier, optionally qualified by one
// owner ("np.sum"), followed by an opening parenthesis. The argument span is
// found by counting nested parentheses. An argument counts as passed when its
// name followed by "=" occurs anywhere inside that span.
package scanner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dabcheck/dabcheck/internal/metadata"
	"github.com/dabcheck/dabcheck/internal/types"
)

// IgnoreChecker reports whether findings for a lookup key are suppressed.
type IgnoreChecker interface {
	IsIgnored(key string) bool
}

// callPattern matches "name(" or "owner.name(" and captures name.
var callPattern = regexp.MustCompile(`\b(?:\w+\.)?(\w+)\s*\(`)

// Scan returns one finding per call site in text whose key is in allowed, is
// not ignored, and does not bind every flagged parameter by keyword. Findings
// are in text order. ignored may be nil.
func Scan(text string, allowed metadata.Table, ignored IgnoreChecker) []types.Finding {
	if len(allowed) == 0 {
		return nil
	}
	var (
		out   []types.Finding
		lines *lineIndex
	)
	for _, m := range callPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		md, ok := allowed[name]
		if !ok {
			continue
		}
		if ignored != nil && ignored.IsIgnored(name) {
			continue
		}
		open := m[1] - 1
		closing := FindClosingParen(text, open)
		if closing < 0 {
			continue
		}
		missing := MissingParams(text[open+1:closing], md.Params)
		if len(missing) == 0 {
			continue
		}
		if lines == nil {
			lines = newLineIndex(text)
		}
		line, col := lines.position(m[2])
		out = append(out, types.Finding{
			Line:    line,
			Column:  col,
			Start:   m[2],
			End:     m[3],
			Key:     name,
			Library: md.Library,
			Params:  append([]string(nil), md.Params...),
			Missing: missing,
			Version: md.Version,
			Match:   lines.text(line),
			Message: Message(name, md),
		})
	}
	return out
}

// FindClosingParen returns the index of the ')' matching the '(' at open,
// or -1 when the parentheses are unbalanced.
func FindClosingParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// MissingParams returns the params, in order, that args does not bind as
// "name=" or "name =".
func MissingParams(args string, params []string) []string {
	var missing []string
	for _, p := range params {
		if strings.Contains(args, p+"=") || strings.Contains(args, p+" =") {
			continue
		}
		missing = append(missing, p)
	}
	return missing
}

// Message describes the risk carried by key.
func Message(key string, md *metadata.MethodMetadata) string {
	return fmt.Sprintf("Arguments '%s' from method '%s' have previously suffered from Default Argument Breaking Changes (DABCs) in the version '%s' of the library.",
		strings.Join(md.Params, ", "), key, md.Version)
}
