package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/dabcheck/dabcheck/internal/types"
)

type PrintOptions struct {
	NoColor bool
	// Context prints the source line under each finding.
	Context      bool
	Duration     time.Duration
	FilesScanned int
}

func sortFindings(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Column < findings[j].Column
	})
}

// PrintTable renders findings as a bordered table followed by the summary.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No risky calls found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Severity", "Location", "Call", "Library", "Missing", "Since")
		rows := make([][]string, 0, len(findings))
		for _, f := range findings {
			rows = append(rows, []string{
				severityLabel(f.Severity, opts.NoColor),
				fmt.Sprintf("%s:%d:%d", f.Path, f.Line, f.Column),
				f.Key,
				f.Library,
				strings.Join(f.Missing, ", "),
				f.Version,
			})
		}
		if err := table.Bulk(rows); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printFooter(w, findings, opts)
	return nil
}

// PrintText renders one line per finding: severity, location, call and the
// arguments still relying on their defaults.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No risky calls found ✅")
	} else {
		maxKey := 8
		for _, f := range findings {
			maxKey = max(maxKey, len(f.Key))
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			fmt.Fprintf(w, "%-6s %-*s %s:%d:%d  missing: %s (changed in %s %s)\n",
				severityLabel(f.Severity, opts.NoColor), maxKey, f.Key, f.Path, f.Line, f.Column,
				strings.Join(f.Missing, ", "), f.Library, f.Version)
			if opts.Context && f.Match != "" {
				line := f.Match
				if !opts.NoColor {
					line = HighlightLine(line, f.Path)
				}
				fmt.Fprintf(w, "       │ %s\n", line)
			}
		}
	}
	printFooter(w, findings, opts)
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	high, med, low := 0, 0, 0
	for _, f := range findings {
		switch f.Severity {
		case types.SevHigh:
			high++
		case types.SevMed:
			med++
		default:
			low++
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d)\n", len(findings), high, med, low)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
}

func severityLabel(s types.Severity, noColor bool) string {
	if s == "" {
		s = types.SevMed
	}
	if noColor {
		return string(s)
	}
	return colorSeverity(s)
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "\x1b[31mhigh\x1b[0m" // red
	case types.SevMed:
		return "\x1b[33mmedium\x1b[0m" // yellow
	default:
		return "\x1b[36mlow\x1b[0m" // cyan
	}
}
