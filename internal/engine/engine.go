package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	semver "github.com/blang/semver/v4"
	"github.com/google/uuid"

	"github.com/dabcheck/dabcheck/internal/detect"
	"github.com/dabcheck/dabcheck/internal/ignore"
	"github.com/dabcheck/dabcheck/internal/logging"
	"github.com/dabcheck/dabcheck/internal/metadata"
	"github.com/dabcheck/dabcheck/internal/scanner"
	"github.com/dabcheck/dabcheck/internal/types"
)

// ErrUnknownSource is returned by OnChanged for a source that was never
// created or was already released.
var ErrUnknownSource = errors.New("unknown source")

// Options configures an Engine. Zero values select defaults: the bundled
// tables, a fresh tracker and every known library.
type Options struct {
	Store   *metadata.Store
	Tracker *ignore.Tracker
	// Enable restricts detection to these libraries; Disable removes
	// libraries from the set.
	Enable  []string
	Disable []string
	// Severity assigns a severity per library (default medium).
	Severity map[string]types.Severity
	// Since hides findings whose breaking version is older than this.
	Since  *semver.Version
	Logger *slog.Logger
}

// Engine holds one detection session: the dismissed keys and the latest
// findings of every registered source. Safe for concurrent use; refreshes of
// the same source are serialized, different sources refresh in parallel.
type Engine struct {
	store     *metadata.Store
	tracker   *ignore.Tracker
	libraries []string
	severity  map[string]types.Severity
	since     *semver.Version
	session   string
	logger    *slog.Logger

	mu      sync.Mutex
	sources map[string]*sourceState
}

type sourceState struct {
	mu        sync.Mutex
	src       Source
	surface   Surface
	state     atomic.Int32
	libraries []string
	allowed   metadata.Table
	findings  []types.Finding
}

var _ Listener = (*Engine)(nil)

// New builds an Engine.
func New(opts Options) (*Engine, error) {
	store := opts.Store
	if store == nil {
		var err error
		store, err = metadata.NewStore(metadata.StoreConfig{Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = ignore.NewTracker()
	}
	session := uuid.NewString()
	logger := logging.OrDiscard(opts.Logger).With("session", session)

	var libs []string
	for _, lib := range store.Libraries() {
		if len(opts.Enable) > 0 && !slices.Contains(opts.Enable, lib) {
			continue
		}
		if slices.Contains(opts.Disable, lib) {
			continue
		}
		libs = append(libs, lib)
	}
	for _, name := range opts.Enable {
		if _, ok := store.Resource(name); !ok {
			logger.Warn("enabled library has no dabc table", "library", name)
		}
	}
	return &Engine{
		store:     store,
		tracker:   tracker,
		libraries: libs,
		severity:  opts.Severity,
		since:     opts.Since,
		session:   session,
		logger:    logger,
		sources:   map[string]*sourceState{},
	}, nil
}

// Session returns the session id attached to every log record.
func (e *Engine) Session() string { return e.session }

// Libraries returns the libraries this engine detects, sorted.
func (e *Engine) Libraries() []string { return slices.Clone(e.libraries) }

// Tracker returns the session's dismissed keys.
func (e *Engine) Tracker() *ignore.Tracker { return e.tracker }

// OnCreated registers src, replacing any earlier registration with the same
// ID, and refreshes it.
func (e *Engine) OnCreated(src Source, surface Surface) error {
	st := &sourceState{src: src, surface: surface}
	e.mu.Lock()
	e.sources[src.ID()] = st
	e.mu.Unlock()
	return e.refresh(st)
}

// OnChanged refreshes a registered source.
func (e *Engine) OnChanged(src Source) error {
	st, ok := e.lookup(src.ID())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, src.ID())
	}
	st.mu.Lock()
	st.src = src
	st.mu.Unlock()
	return e.refresh(st)
}

// OnReleased forgets src. Its surface is left as is.
func (e *Engine) OnReleased(src Source) {
	e.mu.Lock()
	delete(e.sources, src.ID())
	e.mu.Unlock()
}

// Ignore dismisses key for the rest of the session. Markers already shown
// stay until their source is refreshed.
func (e *Engine) Ignore(key string) {
	if e.tracker.Ignore(key) {
		e.logger.Info("finding dismissed", "key", key)
	}
}

// Refresh rescans the source registered under id.
func (e *Engine) Refresh(id string) error {
	st, ok := e.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	return e.refresh(st)
}

// RefreshAll rescans every registered source in ID order.
func (e *Engine) RefreshAll() error {
	var errs []error
	for _, id := range e.Sources() {
		if err := e.Refresh(id); err != nil && !errors.Is(err, ErrUnknownSource) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sources returns the registered source IDs, sorted.
func (e *Engine) Sources() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.sources))
	for id := range e.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Findings returns a copy of the latest findings for id.
func (e *Engine) Findings(id string) []types.Finding {
	st, ok := e.lookup(id)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.findings)
}

// DetectedLibraries returns the libraries found in the imports of id at its
// latest refresh.
func (e *Engine) DetectedLibraries(id string) []string {
	st, ok := e.lookup(id)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.libraries)
}

// Allowed returns a copy of the merged DABC table of id at its latest refresh.
func (e *Engine) Allowed(id string) metadata.Table {
	st, ok := e.lookup(id)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.allowed.Clone()
}

// State reports whether id is being scanned. Unknown sources are Idle.
func (e *Engine) State(id string) State {
	st, ok := e.lookup(id)
	if !ok {
		return Idle
	}
	return State(st.state.Load())
}

func (e *Engine) lookup(id string) (*sourceState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sources[id]
	return st, ok
}

func (e *Engine) refresh(st *sourceState) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.Store(int32(Scanning))
	defer st.state.Store(int32(Idle))

	id := st.src.ID()
	text, err := st.src.Text()
	if err != nil {
		// keep the previous findings and markers; the next notification retries
		return fmt.Errorf("read %s: %w", id, err)
	}

	libs := detect.Imports(text, e.libraries)
	allowed, err := e.store.LoadMerged(libs)
	if err != nil {
		e.logger.Warn("dabc table unavailable", "source", id, "err", err)
	}

	findings := filterBySince(scanner.Scan(text, allowed, e.tracker), e.since)
	for i := range findings {
		f := &findings[i]
		f.Path = id
		f.Severity = e.severityFor(f.Library)
		f.Fingerprint = types.Fingerprint(id, f.Key, f.Match)
	}

	st.libraries = libs
	st.allowed = allowed
	st.findings = findings
	if st.surface != nil {
		Present(st.surface, findings, e.Ignore)
	}
	e.logger.Debug("refresh done", "source", id, "libraries", libs, "methods", len(allowed), "findings", len(findings))
	return nil
}

func (e *Engine) severityFor(library string) types.Severity {
	if s, ok := e.severity[library]; ok {
		return s
	}
	return types.SevMed
}
