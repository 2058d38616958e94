// Package watch hosts an engine session over a directory tree: every
// selected file becomes a source, and file system events drive the source
// lifecycle through the engine's Listener.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/logging"
)

// Config configures a Host.
type Config struct {
	Root string
	// Select reports whether a slash-separated path relative to Root is a
	// source. Nil selects every file.
	Select func(rel string) bool
	// SkipDir prunes directories by base name. Nil prunes nothing.
	SkipDir func(name string) bool
	// Surface returns the surface for a new source; nil or a nil result
	// registers the source without one.
	Surface func(rel string) engine.Surface
	// OnRefresh runs after each created or changed notification.
	OnRefresh func(rel string, err error)
	// OnRelease runs after a source was released.
	OnRelease func(rel string)
	Logger    *slog.Logger
}

// Host translates fsnotify events into Listener callbacks. Refreshes run on
// the goroutine that called Run.
type Host struct {
	cfg      Config
	listener engine.Listener
	logger   *slog.Logger
	known    map[string]bool
	ready    chan struct{}
}

// New returns a Host delivering notifications to l.
func New(cfg Config, l engine.Listener) *Host {
	if cfg.Select == nil {
		cfg.Select = func(string) bool { return true }
	}
	if cfg.SkipDir == nil {
		cfg.SkipDir = func(string) bool { return false }
	}
	return &Host{
		cfg:      cfg,
		listener: l,
		logger:   logging.OrDiscard(cfg.Logger),
		known:    map[string]bool{},
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the initial tree has been registered and watched.
func (h *Host) Ready() <-chan struct{} { return h.ready }

// Run registers every selected file, then follows file system events until
// ctx is done. Sources still registered are released on return.
func (h *Host) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	defer h.releaseAll()

	if err := h.addTree(w, h.cfg.Root); err != nil {
		return err
	}
	close(h.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			h.handle(w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn("watch error", "err", err)
		}
	}
}

func (h *Host) handle(w *fsnotify.Watcher, ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := h.addTree(w, ev.Name); err != nil {
				h.logger.Warn("watch directory", "path", ev.Name, "err", err)
			}
			return
		}
		h.touch(ev.Name)
	case ev.Has(fsnotify.Write):
		h.touch(ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		h.release(ev.Name)
	}
}

// addTree watches dir and every directory below it and registers the
// selected files it contains.
func (h *Host) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if p != h.cfg.Root && h.cfg.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			return nil
		}
		h.touch(p)
		return nil
	})
}

func (h *Host) rel(p string) (string, bool) {
	rel, err := filepath.Rel(h.cfg.Root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (h *Host) touch(p string) {
	rel, ok := h.rel(p)
	if !ok {
		return
	}
	if !h.cfg.Select(rel) {
		// a known source can stop qualifying, e.g. when marked or grown too large
		if h.known[rel] {
			h.releaseOne(rel)
		}
		return
	}
	src := engine.FileSource{Root: h.cfg.Root, Rel: rel}
	var err error
	if h.known[rel] {
		err = h.listener.OnChanged(src)
	} else {
		var surface engine.Surface
		if h.cfg.Surface != nil {
			surface = h.cfg.Surface(rel)
		}
		err = h.listener.OnCreated(src, surface)
		h.known[rel] = true
	}
	if errors.Is(err, fs.ErrNotExist) {
		// removed between the event and the read
		h.release(p)
		return
	}
	if err != nil {
		h.logger.Warn("refresh failed", "source", rel, "err", err)
	}
	if h.cfg.OnRefresh != nil {
		h.cfg.OnRefresh(rel, err)
	}
}

// release forgets p, or every source below p when p was a directory.
func (h *Host) release(p string) {
	rel, ok := h.rel(p)
	if !ok {
		return
	}
	for id := range h.known {
		if id == rel || strings.HasPrefix(id, rel+"/") || rel == "." {
			h.releaseOne(id)
		}
	}
}

func (h *Host) releaseOne(rel string) {
	delete(h.known, rel)
	h.listener.OnReleased(engine.FileSource{Root: h.cfg.Root, Rel: rel})
	if h.cfg.OnRelease != nil {
		h.cfg.OnRelease(rel)
	}
}

func (h *Host) releaseAll() {
	for id := range h.known {
		h.releaseOne(id)
	}
}
