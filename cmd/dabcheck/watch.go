package dabcheck

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/report"
	"github.com/dabcheck/dabcheck/internal/watch"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-check files as they change and print their findings",
		RunE:  runWatch,
	}
	rootCmd.AddCommand(cmd)
	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&flagContext, "context", false, "print the source line under each finding")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := resolve(cmd, flagPath)
	if err != nil {
		return err
	}
	eng, err := engine.NewFromConfig(s.cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	opts := report.PrintOptions{NoColor: s.noColor, Context: flagContext}

	var mu sync.Mutex
	wcfg, err := watchConfig(s.cfg, func(rel string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", rel, err)
			return
		}
		fs := eng.Findings(rel)
		if len(fs) == 0 {
			return
		}
		fmt.Fprintf(out, "── %s\n", rel)
		report.PrintText(out, fs, opts)
	})
	if err != nil {
		return err
	}
	host := watch.New(wcfg, eng)

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (ctrl+c to stop)\n", s.cfg.Root)
	return host.Run(cmd.Context())
}

// watchConfig points a watch host at the sources a scan with cfg selects.
func watchConfig(cfg engine.Config, onRefresh func(rel string, err error)) (watch.Config, error) {
	sel, err := engine.Selector(cfg)
	if err != nil {
		return watch.Config{}, err
	}
	return watch.Config{
		Root:      cfg.Root,
		Select:    sel,
		SkipDir:   func(name string) bool { return engine.SkipDir(cfg, name) },
		OnRefresh: onRefresh,
		Logger:    cfg.Logger,
	}, nil
}
