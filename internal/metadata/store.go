package metadata

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dabcheck/dabcheck/internal/logging"
)

//go:embed data/*.csv
var builtinFS embed.FS

var (
	// ErrResourceNotFound means a library is registered but its table is missing.
	ErrResourceNotFound = errors.New("dabc table not found")
	// ErrUnknownLibrary means no table is registered for the library.
	ErrUnknownLibrary = errors.New("unknown library")
)

// Resource locates the DABC table of one library.
type Resource struct {
	Path     string
	Embedded bool // Path is inside the bundled tables rather than on disk
}

// LibraryTable maps a library name to its DABC table.
type LibraryTable map[string]Resource

// DefaultLibraries returns the bundled library tables.
func DefaultLibraries() LibraryTable {
	return LibraryTable{
		"numpy":   {Path: "data/numpy-dabcs.csv", Embedded: true},
		"pandas":  {Path: "data/pandas-dabcs.csv", Embedded: true},
		"sklearn": {Path: "data/sklearn-dabcs.csv", Embedded: true},
	}
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// Extra registers additional libraries backed by CSV files on disk.
	// An entry with the name of a bundled library replaces it.
	Extra map[string]string
	// CacheSize bounds the number of parsed tables kept in memory (default 16).
	CacheSize int
	Logger    *slog.Logger
}

// Store resolves libraries to parsed DABC tables. Parsed tables are cached;
// every Load hands out a private copy. Safe for concurrent use.
type Store struct {
	libraries LibraryTable
	cache     *lru.Cache[string, Table]
	logger    *slog.Logger
}

// NewStore builds a store over the bundled tables plus cfg.Extra.
func NewStore(cfg StoreConfig) (*Store, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 16
	}
	cache, err := lru.New[string, Table](size)
	if err != nil {
		return nil, fmt.Errorf("create table cache: %w", err)
	}
	libs := DefaultLibraries()
	for name, p := range cfg.Extra {
		libs[name] = Resource{Path: p}
	}
	return &Store{libraries: libs, cache: cache, logger: logging.OrDiscard(cfg.Logger)}, nil
}

// Libraries returns the known library names, sorted.
func (s *Store) Libraries() []string {
	names := make([]string, 0, len(s.libraries))
	for n := range s.libraries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resource returns where the table of library lives.
func (s *Store) Resource(library string) (Resource, bool) {
	r, ok := s.libraries[library]
	return r, ok
}

// Load returns the DABC table for library. A registered library whose table
// cannot be found yields ErrResourceNotFound.
func (s *Store) Load(library string) (Table, error) {
	res, ok := s.libraries[library]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLibrary, library)
	}
	if t, ok := s.cache.Get(library); ok {
		return t.Clone(), nil
	}
	f, err := s.open(res)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrResourceNotFound, library, res.Path)
		}
		return nil, fmt.Errorf("open %s table: %w", library, err)
	}
	defer f.Close()

	t, err := Parse(f, library, s.logger)
	if err != nil {
		return nil, err
	}
	s.cache.Add(library, t)
	return t.Clone(), nil
}

// LoadMerged loads every library in order into one fresh table. On key
// collisions the later library wins. Libraries that fail to load are skipped
// and their errors joined into the returned error; the table is still usable.
func (s *Store) LoadMerged(libraries []string) (Table, error) {
	merged := Table{}
	var errs []error
	for _, lib := range libraries {
		t, err := s.Load(lib)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		merged.Merge(t)
	}
	return merged, errors.Join(errs...)
}

func (s *Store) open(res Resource) (io.ReadCloser, error) {
	if res.Embedded {
		return builtinFS.Open(res.Path)
	}
	return os.Open(res.Path)
}
