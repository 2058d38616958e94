// Package core provides a small, stable facade over dabcheck's internal
// engine for external integrations such as CI bots and editor bridges.
//
// Example:
//
//	cfg := core.Config{Root: ".", EnableLibraries: []string{"sklearn"}}
//	findings, err := core.Scan(ctx, cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, findings)
package core
