// Package git reads repository state through go-git: which files are staged
// or modified, and where HEAD points. No git binary is required.
package git

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// File is a repository-relative path with the content to scan.
type File struct {
	Path string
	Data []byte
}

func open(root string) (*gogit.Repository, *gogit.Worktree, error) {
	if strings.ContainsRune(root, 0) {
		return nil, nil, fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid path %q: %w", root, err)
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, nil, fmt.Errorf("open repository %s: %w", root, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("open worktree: %w", err)
	}
	return repo, wt, nil
}

// StagedFiles returns the index version of every file staged for commit.
// Staged deletions are skipped.
func StagedFiles(root string) ([]File, error) {
	repo, wt, err := open(root)
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var out []File
	for _, p := range sortedPaths(st) {
		fs := st[p]
		if fs.Staging == gogit.Unmodified || fs.Staging == gogit.Untracked || fs.Staging == gogit.Deleted {
			continue
		}
		e, err := idx.Entry(p)
		if err != nil {
			continue
		}
		blob, err := repo.BlobObject(e.Hash)
		if err != nil {
			continue
		}
		r, err := blob.Reader()
		if err != nil {
			continue
		}
		b, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			continue
		}
		out = append(out, File{Path: p, Data: b})
	}
	return out, nil
}

// ChangedFiles returns the working-tree content of files that differ from
// HEAD, staged or not, including untracked files.
func ChangedFiles(root string) ([]File, error) {
	_, wt, err := open(root)
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	base := wt.Filesystem.Root()
	var out []File
	for _, p := range sortedPaths(st) {
		fs := st[p]
		if fs.Worktree == gogit.Deleted || (fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified) {
			continue
		}
		b, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(p)))
		if err != nil {
			continue
		}
		out = append(out, File{Path: p, Data: b})
	}
	return out, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the given root.
// Empty strings are returned for anything that cannot be resolved.
func RepoMetadata(root string) (string, string, string) {
	repo, _, err := open(root)
	if err != nil {
		return "", "", ""
	}
	name := ""
	if r, err := repo.Remote("origin"); err == nil && len(r.Config().URLs) > 0 {
		name = shortRepo(r.Config().URLs[0])
	}
	commit, branch := "", ""
	if head, err := repo.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		} else {
			branch = "HEAD"
		}
	}
	return name, commit, branch
}

// shortRepo keeps owner/name of a remote URL when possible.
func shortRepo(url string) string {
	s := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	if i := strings.Index(s, "github.com/"); i >= 0 {
		return s[i+len("github.com/"):]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i:], "//") {
		return s[i+1:]
	}
	return s
}

func sortedPaths(st gogit.Status) []string {
	paths := make([]string, 0, len(st))
	for p := range st {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
