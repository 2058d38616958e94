package dabcheck

import (
	"github.com/spf13/cobra"

	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/logging"
	"github.com/dabcheck/dabcheck/internal/tui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and dismiss findings interactively while files change",
		RunE:  runTUI,
	}
	rootCmd.AddCommand(cmd)
	addSourceFlags(cmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	s, err := resolve(cmd, flagPath)
	if err != nil {
		return err
	}
	// log lines would tear the alternate screen
	if flagLogLevel == "" && flagVerbose == 0 {
		s.cfg.Logger = logging.Discard()
	}
	eng, err := engine.NewFromConfig(s.cfg)
	if err != nil {
		return err
	}
	wcfg, err := watchConfig(s.cfg, nil)
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), eng, wcfg)
}
