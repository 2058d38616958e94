package dabcheck

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dabcheck/dabcheck/internal/config"
	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/logging"
	"github.com/dabcheck/dabcheck/internal/types"
)

var (
	flagPath        string
	flagInclude     string
	flagExclude     string
	flagMaxBytes    int64
	flagSince       string
	flagEnable      string
	flagDisable     string
	flagIgnore      string
	flagStaged      bool
	flagChangedOnly bool
)

// addSourceFlags registers the flags that pick and filter sources.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	cmd.Flags().StringVar(&flagSince, "since", "", "only report defaults changed in this library version or later")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only check these libraries (comma-separated)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "skip these libraries (comma-separated)")
	cmd.Flags().StringVar(&flagIgnore, "ignore", "", "comma-separated call names to ignore for the session")
}

// settings is the outcome of merging flags with the effective config file.
type settings struct {
	cfg     engine.Config
	file    config.FileConfig
	failOn  string
	noColor bool
	logger  *slog.Logger
}

// resolve builds the engine config for root with precedence CLI > local > global.
func resolve(cmd *cobra.Command, root string) (settings, error) {
	var s settings
	abs, err := filepath.Abs(root)
	if err != nil {
		return s, err
	}
	fc, err := config.Effective(abs)
	if err != nil {
		return s, fmt.Errorf("load config: %w", err)
	}
	s.file = fc
	s.logger = newLogger(cmd, fc)

	sev, err := severities(fc.Severity)
	if err != nil {
		return s, err
	}
	defaultExcludes := flagDefaultExcludes
	if !flagChanged(cmd, "default-excludes") && fc.DefaultExcludes != nil {
		defaultExcludes = *fc.DefaultExcludes
	}
	s.failOn = flagFailOn
	if !flagChanged(cmd, "fail-on") && fc.FailOn != nil {
		s.failOn = *fc.FailOn
	}
	maxBytes := flagMaxBytes
	if !flagChanged(cmd, "max-bytes") {
		maxBytes = pickInt64(0, fc.MaxBytes, &flagMaxBytes)
	}
	s.noColor = pickBool(flagNoColor, fc.NoColor) || !isTerminal(cmd.OutOrStdout())

	s.cfg = engine.Config{
		Root:             abs,
		IncludeGlobs:     pickString(flagInclude, fc.Include),
		ExcludeGlobs:     pickString(flagExclude, fc.Exclude),
		MaxBytes:         maxBytes,
		Threads:          pickInt(flagThreads, fc.Threads),
		DefaultExcludes:  defaultExcludes,
		ScanStaged:       flagStaged,
		ScanChanged:      flagChangedOnly,
		Since:            pickString(flagSince, fc.Since),
		EnableLibraries:  splitList(pickString(flagEnable, fc.Enable)),
		DisableLibraries: splitList(pickString(flagDisable, fc.Disable)),
		ExtraLibraries:   fc.Libraries,
		Severity:         sev,
		Ignore:           splitList(flagIgnore),
		Logger:           s.logger,
	}
	return s, nil
}

func newLogger(cmd *cobra.Command, fc config.FileConfig) *slog.Logger {
	level := logging.LevelFromVerbosity(flagVerbose, flagQuiet)
	switch {
	case flagLogLevel != "":
		level = logging.LevelFromString(flagLogLevel)
	case flagVerbose > 0 || flagQuiet:
	case fc.LogLevel != nil:
		level = logging.LevelFromString(*fc.LogLevel)
	}
	return logging.New(cmd.ErrOrStderr(), level)
}

func severities(in map[string]string) (map[string]types.Severity, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]types.Severity, len(in))
	for lib, v := range in {
		s, ok := types.ParseSeverity(v)
		if !ok {
			return nil, fmt.Errorf("invalid severity %q for library %s", v, lib)
		}
		out[lib] = s
	}
	return out, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pickString(cli string, cfgs ...*string) string {
	if cli != "" {
		return cli
	}
	for _, c := range cfgs {
		if c != nil && *c != "" {
			return *c
		}
	}
	return ""
}

func pickInt(cli int, cfgs ...*int) int {
	if cli != 0 {
		return cli
	}
	for _, c := range cfgs {
		if c != nil && *c != 0 {
			return *c
		}
	}
	return 0
}

func pickInt64(cli int64, cfgs ...*int64) int64 {
	if cli != 0 {
		return cli
	}
	for _, c := range cfgs {
		if c != nil && *c != 0 {
			return *c
		}
	}
	return 0
}

func pickBool(cli bool, cfgs ...*bool) bool {
	if cli {
		return true
	}
	for _, c := range cfgs {
		if c != nil {
			return *c
		}
	}
	return false
}
