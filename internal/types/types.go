package types

import (
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
)

// Severity is a coarse-grained risk level for a finding.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// ParseSeverity maps low|medium|high (case-insensitive, "med" accepted) to a
// Severity. The boolean is false for anything else.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SevLow, true
	case "medium", "med":
		return SevMed, true
	case "high":
		return SevHigh, true
	}
	return "", false
}

// Finding describes a call site that omits at least one argument whose
// default value changed between versions of the library that defines it.
// Start and End are byte offsets of the called identifier within the source.
type Finding struct {
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Column      int      `json:"column,omitempty"`
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Key         string   `json:"key"`
	Library     string   `json:"library,omitempty"`
	Params      []string `json:"params"`
	Missing     []string `json:"missing"`
	Version     string   `json:"version"`
	Severity    Severity `json:"severity"`
	Match       string   `json:"match"` // source line containing the call
	Message     string   `json:"message,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

// Fingerprint identifies a finding independently of its byte offset so that
// baselines survive unrelated edits above the call.
func Fingerprint(path, key, line string) string {
	sum := xxhash.Sum64String(path + "|" + key + "|" + strings.TrimSpace(line))
	return strconv.FormatUint(sum, 16)
}
