// Package metadata loads per-library tables of Default Argument Breaking
// Changes (DABCs): which functions and constructors changed the default value
// of which parameters, and in which library version.
package metadata

import (
	"slices"
	"sort"
)

// MethodMetadata is the accumulated risk data for one lookup key.
// Params keeps first-seen order and never contains duplicates; it is never
// empty once the entry exists. Version is the first version seen for the key.
type MethodMetadata struct {
	Params  []string `json:"params" yaml:"params"`
	Version string   `json:"version" yaml:"version"`
	Library string   `json:"library,omitempty" yaml:"library,omitempty"`
}

// NewMethodMetadata returns an entry holding a single parameter.
func NewMethodMetadata(param, version, library string) *MethodMetadata {
	return &MethodMetadata{Params: []string{param}, Version: version, Library: library}
}

// AddParam appends param unless it is already present.
func (m *MethodMetadata) AddParam(param string) {
	if !slices.Contains(m.Params, param) {
		m.Params = append(m.Params, param)
	}
}

// Clone returns a deep copy.
func (m *MethodMetadata) Clone() *MethodMetadata {
	if m == nil {
		return nil
	}
	return &MethodMetadata{Params: slices.Clone(m.Params), Version: m.Version, Library: m.Library}
}

// Table maps a lookup key (function name, or class name for constructors) to
// its metadata.
type Table map[string]*MethodMetadata

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v.Clone()
	}
	return out
}

// Merge copies every entry of other into t, replacing entries with the same key.
func (t Table) Merge(other Table) {
	for k, v := range other {
		t[k] = v
	}
}

// Keys returns the lookup keys in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
