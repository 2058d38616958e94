package dabcheck

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/git"
	"github.com/dabcheck/dabcheck/internal/report"
	"github.com/dabcheck/dabcheck/internal/types"
	"github.com/dabcheck/dabcheck/pkg/core"
)

var (
	flagText     bool
	flagContext  bool
	flagProgress bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan Python files for calls that rely on changed defaults",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&flagStaged, "staged", false, "scan staged changes only")
	cmd.Flags().BoolVar(&flagChangedOnly, "changed", false, "scan modified and untracked files only")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
	cmd.Flags().BoolVar(&flagContext, "context", false, "print the source line under each finding (text output)")
	cmd.Flags().BoolVar(&flagProgress, "progress", false, "show a progress counter on stderr")
}

func runScan(cmd *cobra.Command, _ []string) error {
	if flagStaged && flagChangedOnly {
		return fmt.Errorf("--staged and --changed are mutually exclusive")
	}
	s, err := resolve(cmd, flagPath)
	if err != nil {
		return err
	}
	cfg := s.cfg
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	machine := flagJSON || flagSARIF

	if !machine {
		fmt.Fprintf(errOut, "Scanning %s for default argument breaking changes...\n", cfg.Root)
	}
	if flagProgress && !machine {
		total, _ := engine.CountTargets(cfg)
		if total > 0 {
			cfg.Progress = progressPrinter(errOut, total)
		}
	}

	res, err := engine.ScanWithStats(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if cfg.Progress != nil {
		fmt.Fprintln(errOut)
	}
	for lib, n := range res.Libraries {
		s.logger.Info("library detected", "library", lib, "files", n)
	}

	base, _ := report.LoadBaseline(filepath.Join(cfg.Root, report.DefaultBaselineFile))
	findings := report.FilterNewFindings(res.Findings, base)
	if findings == nil {
		findings = []types.Finding{}
	} // no `null` in JSON

	opts := report.PrintOptions{NoColor: s.noColor, Context: flagContext, Duration: res.Duration, FilesScanned: res.FilesScanned}
	switch {
	case flagSARIF:
		repo, commit, branch := git.RepoMetadata(cfg.Root)
		err = report.WriteSARIFWithOptions(out, findings, report.SARIFOptions{ToolVersion: version, Repo: repo, Commit: commit, Branch: branch})
		if err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		if err := core.MarshalFindings(out, findings); err != nil {
			return err
		}
	case flagText:
		report.PrintText(out, findings, opts)
	default:
		if err := report.PrintTable(out, findings, opts); err != nil {
			return err
		}
	}

	if report.ShouldFail(findings, s.failOn) {
		return errFailOn
	}
	return nil
}

// progressPrinter returns a callback printing "[n/total] pct%" every ten files.
func progressPrinter(w io.Writer, total int) func() {
	done := 0
	return func() {
		done++
		if done%10 == 0 || done == total {
			pct := float64(done) / float64(total) * 100
			fmt.Fprintf(w, "\r[%d/%d] %.0f%%", done, total, pct)
		}
	}
}
