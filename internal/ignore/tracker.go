package ignore

import (
	"sort"
	"sync"
)

// Tracker holds the lookup keys a user dismissed during one session.
// Keys are only ever added. Safe for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewTracker returns a tracker that already ignores keys.
func NewTracker(keys ...string) *Tracker {
	t := &Tracker{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k != "" {
			t.keys[k] = struct{}{}
		}
	}
	return t
}

// Ignore suppresses key for the rest of the session. It reports whether the
// key was newly added.
func (t *Tracker) Ignore(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.keys[key]; ok {
		return false
	}
	t.keys[key] = struct{}{}
	return true
}

// IsIgnored reports whether key was dismissed.
func (t *Tracker) IsIgnored(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.keys[key]
	return ok
}

// Keys returns the dismissed keys, sorted.
func (t *Tracker) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.keys))
	for k := range t.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of dismissed keys.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}
