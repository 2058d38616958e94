package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dabcheck/dabcheck/internal/ignore"
	"github.com/dabcheck/dabcheck/internal/logging"
	"github.com/dabcheck/dabcheck/internal/metadata"
	"github.com/dabcheck/dabcheck/internal/types"
)

// Config controls a batch scan: scope, performance and filters.
type Config struct {
	Root            string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int
	DefaultExcludes bool
	ScanStaged      bool
	ScanChanged     bool
	// Since drops findings whose breaking version is older than this.
	Since string

	EnableLibraries  []string
	DisableLibraries []string
	// ExtraLibraries maps library names to CSV tables on disk.
	ExtraLibraries map[string]string
	Severity       map[string]types.Severity
	// Ignore lists keys dismissed before the scan starts.
	Ignore []string

	Logger   *slog.Logger
	Progress func()
}

// Result contains findings and basic scan statistics.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	// Libraries counts the files importing each library.
	Libraries map[string]int
	Duration  time.Duration
}

type target struct {
	path string
	data []byte
}

// Scan runs a scan and returns only findings (without stats).
func Scan(ctx context.Context, cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// NewFromConfig builds the Engine a batch scan with cfg would use.
func NewFromConfig(cfg Config) (*Engine, error) {
	since, err := ParseSince(cfg.Since)
	if err != nil {
		return nil, fmt.Errorf("invalid since version %q: %w", cfg.Since, err)
	}
	store, err := metadata.NewStore(metadata.StoreConfig{Extra: cfg.ExtraLibraries, Logger: cfg.Logger})
	if err != nil {
		return nil, err
	}
	return New(Options{
		Store:    store,
		Tracker:  ignore.NewTracker(cfg.Ignore...),
		Enable:   cfg.EnableLibraries,
		Disable:  cfg.DisableLibraries,
		Severity: cfg.Severity,
		Since:    since,
		Logger:   cfg.Logger,
	})
}

// ScanWithStats scans every selected file as its own source of one engine
// session and returns the findings sorted by path and offset.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	var result Result
	started := time.Now()
	logger := logging.OrDiscard(cfg.Logger)

	eng, err := NewFromConfig(cfg)
	if err != nil {
		return result, fmt.Errorf("failed to initialize engine: %w", err)
	}

	targets, err := collectTargets(ctx, cfg)
	if err != nil {
		return result, err
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	var (
		mu   sync.Mutex
		out  []types.Finding
		libs = map[string]int{}
	)
	for _, t := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := TextSource{Name: t.path, Body: string(t.data)}
			if err := eng.OnCreated(src, nil); err != nil {
				return err
			}
			fs := eng.Findings(src.ID())
			detected := eng.DetectedLibraries(src.ID())
			eng.OnReleased(src)

			mu.Lock()
			defer mu.Unlock()
			out = append(out, fs...)
			for _, l := range detected {
				libs[l]++
			}
			result.FilesScanned++
			if cfg.Progress != nil {
				cfg.Progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Start < out[j].Start
	})
	result.Findings = out
	result.Libraries = libs
	result.Duration = time.Since(started)
	logger.Debug("scan done", "files", result.FilesScanned, "findings", len(out), "duration", result.Duration)
	return result, nil
}

func collectTargets(ctx context.Context, cfg Config) ([]target, error) {
	ign, err := loadIgnore(cfg.Root)
	if err != nil {
		return nil, err
	}
	var targets []target
	if cfg.ScanStaged || cfg.ScanChanged {
		files, err := gitFiles(cfg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !eligible(f.Path, cfg, ign) {
				continue
			}
			if cfg.MaxBytes > 0 && int64(len(f.Data)) > cfg.MaxBytes {
				continue
			}
			if !scannable(f.Path, f.Data) {
				continue
			}
			targets = append(targets, target{path: f.Path, data: f.Data})
		}
		return targets, nil
	}
	err = Walk(ctx, cfg, ign, func(p string, data []byte) {
		targets = append(targets, target{path: p, data: data})
	})
	return targets, err
}
