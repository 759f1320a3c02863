package world

import (
	"testing"

	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJournalLastWriteWins(t *testing.T) {
	j := NewMemoryJournal()
	c := ZoneCoord{X: 16}

	require.NoError(t, j.Record(c, Edit{Pos: vec.Vec3{X: 20, Y: 5, Z: 1}, Value: block.NewValue(block.DirtID, 0)}))
	require.NoError(t, j.Record(c, Edit{Pos: vec.Vec3{X: 17, Y: 9, Z: 3}, Value: block.Air}))
	require.NoError(t, j.Record(c, Edit{Pos: vec.Vec3{X: 20, Y: 5, Z: 1}, Value: block.NewValue(block.PlanksID, 0)}))

	edits, err := j.Edits(c)
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, vec.Vec3{X: 17, Y: 9, Z: 3}, edits[0].Pos)
	assert.Equal(t, block.PlanksID, edits[1].Value.ID())

	empty, err := j.Edits(ZoneCoord{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
