package tui

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dabcheck/dabcheck/internal/engine"
)

// Entry is one marker as shown in the findings table.
type Entry struct {
	Source  string
	ID      engine.MarkerID
	Start   int
	End     int
	Tooltip string
	dismiss func()
}

// Dismiss runs the marker's dismissal callback.
func (e Entry) Dismiss() {
	if e.dismiss != nil {
		e.dismiss()
	}
}

// Board keeps the markers of every source. It hands out one Surface per
// source and reports changes through the notify callback. Safe for
// concurrent use.
type Board struct {
	mu      sync.Mutex
	next    engine.MarkerID
	markers map[string]map[engine.MarkerID]Entry

	dirty  atomic.Bool
	notify func()
}

// NewBoard returns an empty board. notify may be nil; it is called at most
// once between two Snapshot calls.
func NewBoard(notify func()) *Board {
	return &Board{markers: map[string]map[engine.MarkerID]Entry{}, notify: notify}
}

// Surface returns the surface of source.
func (b *Board) Surface(source string) engine.Surface {
	return &boardSurface{board: b, source: source}
}

// Forget drops every marker of source.
func (b *Board) Forget(source string) {
	b.mu.Lock()
	delete(b.markers, source)
	b.mu.Unlock()
	b.changed()
}

// Snapshot returns all markers ordered by source and offset.
func (b *Board) Snapshot() []Entry {
	b.dirty.Store(false)
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Entry
	for _, ms := range b.markers {
		for _, e := range ms {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (b *Board) changed() {
	if b.notify != nil && b.dirty.CompareAndSwap(false, true) {
		b.notify()
	}
}

type boardSurface struct {
	board  *Board
	source string
}

func (s *boardSurface) ClearAll() {
	b := s.board
	b.mu.Lock()
	delete(b.markers, s.source)
	b.mu.Unlock()
	b.changed()
}

func (s *boardSurface) AddMarker(start, end int, tooltip string, onDismiss func()) engine.MarkerID {
	b := s.board
	b.mu.Lock()
	b.next++
	id := b.next
	ms := b.markers[s.source]
	if ms == nil {
		ms = map[engine.MarkerID]Entry{}
		b.markers[s.source] = ms
	}
	ms[id] = Entry{Source: s.source, ID: id, Start: start, End: end, Tooltip: tooltip, dismiss: onDismiss}
	b.mu.Unlock()
	b.changed()
	return id
}

func (s *boardSurface) RemoveMarker(id engine.MarkerID) {
	b := s.board
	b.mu.Lock()
	if ms := b.markers[s.source]; ms != nil {
		delete(ms, id)
	}
	b.mu.Unlock()
	b.changed()
}
