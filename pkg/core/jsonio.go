package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dabcheck/dabcheck/internal/types"
)

// MarshalFindings writes findings as an indented JSON array. A nil slice is
// written as [] so consumers never see null.
func MarshalFindings(w io.Writer, findings []Finding) error {
	if findings == nil {
		findings = []Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

// UnmarshalFindings reads the array MarshalFindings writes. Findings without
// a severity get the engine default (medium); an unknown severity is an error.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	fs := []Finding{}
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	for i := range fs {
		if fs[i].Severity == "" {
			fs[i].Severity = types.SevMed
			continue
		}
		sev, ok := types.ParseSeverity(string(fs[i].Severity))
		if !ok {
			return nil, fmt.Errorf("finding %d (%s:%d): unknown severity %q", i, fs[i].Path, fs[i].Line, fs[i].Severity)
		}
		fs[i].Severity = sev
	}
	return fs, nil
}
