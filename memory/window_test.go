package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elbchat/elbchat/core"
)

func TestWindowNeverExceedsCapacity(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 25; i++ {
		w.Append(core.NewUserMessage(fmt.Sprintf("msg-%d", i)))
		assert.LessOrEqual(t, w.Len(), 3)
	}
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	w := NewWindow(10)
	// 12 messages into a window of 10: the two oldest are evicted.
	for i := 0; i < 12; i++ {
		w.Append(core.NewUserMessage(fmt.Sprintf("msg-%d", i)))
	}
	snap := w.Snapshot()
	require.Len(t, snap, 10)
	assert.Equal(t, "msg-2", snap[0].Text)
	assert.Equal(t, "msg-11", snap[9].Text)
	// Ordering is append order throughout.
	for i := 1; i < len(snap); i++ {
		assert.True(t, !snap[i].Timestamp.Before(snap[i-1].Timestamp))
	}
}

func TestWindowSnapshotIsACopy(t *testing.T) {
	w := NewWindow(5)
	w.Append(core.NewUserMessage("one"))
	snap := w.Snapshot()
	w.Append(core.NewUserMessage("two"))
	assert.Len(t, snap, 1)
	snap[0].Text = "mutated"
	assert.Equal(t, "one", w.Snapshot()[0].Text)
}

func TestWindowClear(t *testing.T) {
	w := NewWindow(5)
	w.Append(core.NewUserMessage("one"))
	w.Clear()
	assert.Zero(t, w.Len())
	assert.Equal(t, 5, w.Capacity())
}

func TestWindowDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewWindow(0).Capacity())
	assert.Equal(t, DefaultCapacity, NewWindow(-1).Capacity())
}
