package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dabcheck/dabcheck/internal/logging"
)

const (
	markerMethod = "method:"
	markerParam  = "param:"
	markerClass  = "class:"

	constructorName = "__init__"
)

// Parse reads a DABC table for library from r. The header must contain fqn
// and version columns (case-insensitive); without them the result is empty.
// Rows that do not yield a key, a parameter and a version are skipped, as are
// records the CSV reader rejects. Only a non-parse read error aborts; the rows
// read so far are returned with it.
func Parse(r io.Reader, library string, logger *slog.Logger) (Table, error) {
	logger = logging.OrDiscard(logger)
	table := Table{}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return table, fmt.Errorf("read %s header: %w", library, err)
	}
	fqnIdx, versionIdx := -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch h {
		case "fqn":
			fqnIdx = i
		case "version":
			versionIdx = i
		}
	}
	if fqnIdx == -1 || versionIdx == -1 {
		logger.Debug("dabc table lacks fqn/version columns", "library", library)
		return table, nil
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logger.Debug("skipping malformed dabc row", "library", library, "line", perr.StartLine, "err", perr.Err)
				continue
			}
			return table, fmt.Errorf("read %s table: %w", library, err)
		}
		if len(row) <= max(fqnIdx, versionIdx) {
			continue
		}
		fqn := strings.TrimSpace(row[fqnIdx])
		version := strings.TrimSpace(row[versionIdx])
		if fqn == "" || version == "" {
			continue
		}
		key, param, ok := ParseFQN(fqn)
		if !ok {
			continue
		}
		if md, exists := table[key]; exists {
			md.AddParam(param)
			continue
		}
		table[key] = NewMethodMetadata(param, version, library)
	}
	return table, nil
}

// ParseFQN extracts the lookup key and affected parameter from an fqn cell.
// Constructors (method __init__) are keyed by their class name.
func ParseFQN(fqn string) (key, param string, ok bool) {
	method, hasMethod := between(fqn, markerMethod, "(")
	param, hasParam := paramName(fqn)
	if !hasParam {
		return "", "", false
	}
	if hasMethod && method == constructorName {
		key, _ = className(fqn)
	} else if hasMethod {
		key = method
	}
	if key == "" {
		return "", "", false
	}
	return key, param, true
}

// between returns the trimmed text after marker up to the next occurrence of
// end. It fails when marker is absent, end does not follow, or the span is empty.
func between(s, marker, end string) (string, bool) {
	i := strings.Index(s, marker)
	if i < 0 {
		return "", false
	}
	start := i + len(marker)
	j := strings.Index(s[start:], end)
	if j <= 0 {
		return "", false
	}
	v := strings.TrimSpace(s[start : start+j])
	return v, v != ""
}

// paramName reads param:<name> up to the next ':' or end of string.
func paramName(fqn string) (string, bool) {
	i := strings.Index(fqn, markerParam)
	if i < 0 {
		return "", false
	}
	rest := fqn[i+len(markerParam):]
	if j := strings.Index(rest, ":"); j >= 0 {
		rest = rest[:j]
	}
	p := strings.TrimSpace(rest)
	return p, p != ""
}

// className reads class:<Name> up to the next '(', else the next ':', else
// end of string.
func className(fqn string) (string, bool) {
	i := strings.Index(fqn, markerClass)
	if i < 0 {
		return "", false
	}
	rest := fqn[i+len(markerClass):]
	if j := strings.Index(rest, "("); j >= 0 {
		rest = rest[:j]
	} else if j := strings.Index(rest, ":"); j >= 0 {
		rest = rest[:j]
	}
	c := strings.TrimSpace(rest)
	return c, c != ""
}
