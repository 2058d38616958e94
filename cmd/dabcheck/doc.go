// Package dabcheck provides the command-line interface for dabcheck.
// It configures subcommands (scan, watch, tui, libraries, baseline, config),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/dabcheck/dabcheck/cmd/dabcheck"
//	func main() { dabcheck.Execute() }
package dabcheck
