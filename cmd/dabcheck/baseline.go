package dabcheck

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Update baseline from current scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolve(cmd, flagPath)
			if err != nil {
				return err
			}
			results, err := engine.Scan(cmd.Context(), s.cfg)
			if err != nil {
				return err
			}
			p := filepath.Join(s.cfg.Root, report.DefaultBaselineFile)
			if err := report.SaveBaseline(p, results); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d findings in %s\n", len(results), p)
			return nil
		},
	}
	addSourceFlags(update)

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
