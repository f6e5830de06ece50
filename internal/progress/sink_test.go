package progress

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

func TestSnapshotStore_PublishAndRead(t *testing.T) {
	store := NewSnapshotStore()

	_, ok := store.Snapshot("run-1")
	require.False(t, ok)

	store.Publish("run-1", supervisor.Progress{
		BarsAnalyzed:    10,
		TotalBars:       100,
		PercentComplete: decimal.NewFromInt(10),
		SequenceNumber:  1,
	})

	snap, ok := store.Snapshot("run-1")
	require.True(t, ok)
	assert.Equal(t, 10, snap.BarsAnalyzed)
	assert.Equal(t, 1, snap.SequenceNumber)
}

func TestFanout_PublishesToAllSinks(t *testing.T) {
	a := NewSnapshotStore()
	b := NewSnapshotStore()
	fanout := Fanout{Sinks: []supervisor.ProgressSink{a, b}}

	fanout.Publish("run-2", supervisor.Progress{SequenceNumber: 3})

	snapA, okA := a.Snapshot("run-2")
	snapB, okB := b.Snapshot("run-2")
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, 3, snapA.SequenceNumber)
	assert.Equal(t, 3, snapB.SequenceNumber)
}
