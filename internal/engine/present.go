package engine

import (
	"github.com/dabcheck/dabcheck/internal/metadata"
	"github.com/dabcheck/dabcheck/internal/scanner"
	"github.com/dabcheck/dabcheck/internal/types"
)

// Present replaces everything on s with one marker per finding. Dismissing a
// marker calls dismiss with the finding's key and then removes that marker.
func Present(s Surface, findings []types.Finding, dismiss func(key string)) {
	s.ClearAll()
	for _, f := range findings {
		key := f.Key
		var id MarkerID
		id = s.AddMarker(f.Start, f.End, Tooltip(f), func() {
			if dismiss != nil {
				dismiss(key)
			}
			s.RemoveMarker(id)
		})
	}
}

// Tooltip is the text shown for a finding.
func Tooltip(f types.Finding) string {
	if f.Message != "" {
		return f.Message
	}
	return scanner.Message(f.Key, &metadata.MethodMetadata{Params: f.Params, Version: f.Version})
}
