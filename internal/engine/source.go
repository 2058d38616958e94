package engine

import (
	"os"
	"path/filepath"
)

// Source is a named, readable text buffer.
type Source interface {
	ID() string
	Text() (string, error)
}

// MarkerID identifies a marker placed on a Surface.
type MarkerID int

// Surface displays markers over the text of one source.
type Surface interface {
	ClearAll()
	AddMarker(start, end int, tooltip string, onDismiss func()) MarkerID
	RemoveMarker(id MarkerID)
}

// Listener receives source lifecycle notifications from a host.
type Listener interface {
	// OnCreated registers src and runs the first refresh. surface may be nil
	// for hosts that only read findings back.
	OnCreated(src Source, surface Surface) error
	OnChanged(src Source) error
	OnReleased(src Source)
}

// State is the refresh state of a source.
type State int

const (
	Idle State = iota
	Scanning
)

func (s State) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "idle"
}

// TextSource is an in-memory Source.
type TextSource struct {
	Name string
	Body string
}

func (s TextSource) ID() string            { return s.Name }
func (s TextSource) Text() (string, error) { return s.Body, nil }

// FileSource reads Rel below Root on every refresh. Its ID is Rel with
// forward slashes.
type FileSource struct {
	Root string
	Rel  string
}

func (s FileSource) ID() string { return filepath.ToSlash(s.Rel) }

func (s FileSource) Text() (string, error) {
	b, err := os.ReadFile(filepath.Join(s.Root, s.Rel))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
