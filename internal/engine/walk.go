package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dabcheck/dabcheck/internal/git"
	"github.com/dabcheck/dabcheck/internal/ignore"
)

// IgnoreFileMarker anywhere in a file excludes it from scanning.
const IgnoreFileMarker = "dabcheck:ignore-file"

// Walk traverses the working tree and invokes handle for each eligible file.
// It stops early when ctx is cancelled.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(path string, data []byte)) error {
	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		rel = filepath.ToSlash(rel)
		if !eligible(rel, cfg, ign) {
			return nil
		}
		info, _ := d.Info()
		if info != nil && cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		if !scannable(rel, b) {
			return nil
		}
		handle(rel, b)
		return nil
	})
}

func eligible(rel string, cfg Config, ign ignore.Matcher) bool {
	if !selected(rel, cfg) || ign.Match(rel) {
		return false
	}
	return !cfg.DefaultExcludes || !isDefaultFileExcluded(strings.ToLower(rel))
}

func scannable(rel string, b []byte) bool {
	if bytes.Contains(b, []byte(IgnoreFileMarker)) {
		return false
	}
	return !looksBinary(b) && !looksNonTextMIME(rel, b)
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := min(len(b), sniff)
	return bytes.IndexByte(b[:n], 0) >= 0
}

// looksNonTextMIME uses the file extension and a tiny content sniff to skip
// clearly non-text content (e.g., images) in addition to NUL-byte detection.
func looksNonTextMIME(path string, b []byte) bool {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K'
}

// CountTargets estimates the number of files to process based on cfg.
// It mirrors the selection of ScanWithStats but does not read file contents
// in the working-tree case.
func CountTargets(cfg Config) (int, error) {
	ign, err := loadIgnore(cfg.Root)
	if err != nil {
		return 0, err
	}
	if cfg.ScanStaged || cfg.ScanChanged {
		files, err := gitFiles(cfg)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, f := range files {
			if eligible(f.Path, cfg, ign) && (cfg.MaxBytes <= 0 || int64(len(f.Data)) <= cfg.MaxBytes) {
				n++
			}
		}
		return n, nil
	}
	count := 0
	err = filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		rel = filepath.ToSlash(rel)
		if !eligible(rel, cfg, ign) {
			return nil
		}
		info, _ := d.Info()
		if info != nil && cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes {
			return nil
		}
		count++
		return nil
	})
	return count, err
}

func gitFiles(cfg Config) ([]git.File, error) {
	if cfg.ScanStaged {
		return git.StagedFiles(cfg.Root)
	}
	return git.ChangedFiles(cfg.Root)
}

// Selector returns the file filter a scan with cfg applies, for hosts that
// discover sources themselves. rel is slash-separated and relative to Root.
// Like Walk, it stats and reads the file: oversized, binary and marked files
// are rejected, and so are files that no longer exist.
func Selector(cfg Config) (func(rel string) bool, error) {
	ign, err := loadIgnore(cfg.Root)
	if err != nil {
		return nil, err
	}
	return func(rel string) bool {
		if !eligible(rel, cfg, ign) {
			return false
		}
		p := filepath.Join(cfg.Root, filepath.FromSlash(rel))
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
		if cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes {
			return false
		}
		b, err := os.ReadFile(p)
		return err == nil && scannable(rel, b)
	}, nil
}

// loadIgnore reads the ignore file of root. Only a missing file means
// "ignore nothing".
func loadIgnore(root string) (ignore.Matcher, error) {
	m, err := ignore.Load(filepath.Join(root, ignore.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return ignore.Matcher{}, nil
	}
	if err != nil {
		return ignore.Matcher{}, fmt.Errorf("read %s: %w", ignore.FileName, err)
	}
	return m, nil
}

// SkipDir reports whether a directory with this base name is pruned.
func SkipDir(cfg Config, name string) bool {
	return cfg.DefaultExcludes && isDefaultDirExcluded(name)
}
