package report

import (
	"encoding/json"
	"os"

	"github.com/dabcheck/dabcheck/internal/types"
)

// DefaultBaselineFile is where "dabcheck baseline update" writes.
const DefaultBaselineFile = "dabcheck.baseline.json"

type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads a baseline. A malformed file yields an empty baseline.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	_ = json.Unmarshal(f, &b)
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[key(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if !base.Items[key(f)] {
			out = append(out, f)
		}
	}
	return out
}

// key is stable across edits that move a call to another line.
func key(f types.Finding) string {
	if f.Fingerprint != "" {
		return f.Fingerprint
	}
	return types.Fingerprint(f.Path, f.Key, f.Match)
}

// ShouldFail reports whether any finding is at or above failOn
// (low, medium or high; medium when unrecognized).
func ShouldFail(findings []types.Finding, failOn string) bool {
	level := map[types.Severity]int{types.SevLow: 1, types.SevMed: 2, types.SevHigh: 3}
	th := 2
	if s, ok := types.ParseSeverity(failOn); ok {
		th = level[s]
	}
	for _, f := range findings {
		if level[f.Severity] >= th {
			return true
		}
	}
	return false
}
