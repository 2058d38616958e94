// Package engine runs DABC detection sessions. An Engine receives source
// lifecycle callbacks from a host, rescans the whole text of a source on
// every notification and hands the findings to the source's presentation
// surface. The batch entry points (Scan, ScanWithStats) drive one Engine over
// a working tree. This package is internal; external consumers should use the
// stable facade in pkg/core.
package engine
