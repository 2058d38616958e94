package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_SurfacesAreIndependent(t *testing.T) {
	notified := 0
	b := NewBoard(func() { notified++ })
	a, c := b.Surface("a.py"), b.Surface("c.py")

	a.AddMarker(10, 13, "late", nil)
	a.AddMarker(0, 3, "early", nil)
	id := c.AddMarker(5, 8, "other", nil)

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"early", "late", "other"}, []string{snap[0].Tooltip, snap[1].Tooltip, snap[2].Tooltip})
	// coalesced until the next snapshot
	assert.Equal(t, 1, notified)

	c.RemoveMarker(id)
	a.ClearAll()
	assert.Empty(t, b.Snapshot())
	assert.Equal(t, 2, notified)
}

func TestBoard_DismissAndForget(t *testing.T) {
	b := NewBoard(nil)
	s := b.Surface("a.py")
	dismissed := false
	s.AddMarker(0, 1, "t", func() { dismissed = true })
	b.Surface("b.py").AddMarker(0, 1, "u", nil)

	b.Snapshot()[0].Dismiss()
	assert.True(t, dismissed)
	// a nil callback is a no-op
	b.Snapshot()[1].Dismiss()

	b.Forget("a.py")
	snap := b.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "b.py", snap[0].Source)
}
