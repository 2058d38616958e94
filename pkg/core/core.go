package core

import (
	"context"

	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/metadata"
	"github.com/dabcheck/dabcheck/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Config = engine.Config
type Result = engine.Result
type Finding = types.Finding
type Severity = types.Severity

// Scan is the stable entrypoint for other programs.
func Scan(ctx context.Context, cfg Config) ([]Finding, error) {
	return engine.Scan(ctx, cfg)
}

// ScanWithStats scans like Scan and also reports file and library counts.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	return engine.ScanWithStats(ctx, cfg)
}

// Libraries returns the names of the bundled DABC tables, sorted.
func Libraries() []string {
	s, err := metadata.NewStore(metadata.StoreConfig{})
	if err != nil {
		return nil
	}
	return s.Libraries()
}
