package world

import (
	"testing"

	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneBuildFillsEveryCell(t *testing.T) {
	z := NewZone(ZoneCoord{X: -16, Z: 32})
	require.False(t, z.Resident())

	z.Build(newStoneLayer(64))

	require.True(t, z.Resident())
	assert.Equal(t, 1, z.Builds())
	assert.Equal(t, block.StoneID, z.Get(0, 0, 0).ID())
	assert.Equal(t, block.StoneID, z.Get(15, 63, 15).ID())
	assert.True(t, z.Get(15, 64, 15).IsAir())
	assert.Equal(t, ZoneWidth*ZoneHeight*ZoneWidth*2, z.StorageBytes())
}

func TestZoneBuildUsesWorldCoordinates(t *testing.T) {
	var seen []vec.Vec3
	gen := generatorFunc(func(x, y, z int) block.Value {
		if y == 0 {
			seen = append(seen, vec.Vec3{X: x, Y: y, Z: z})
		}
		return block.Air
	})

	z := NewZone(ZoneCoord{X: -16, Z: 32})
	z.Build(gen)

	require.Len(t, seen, ZoneWidth*ZoneWidth)
	assert.Equal(t, vec.Vec3{X: -16, Y: 0, Z: 32}, seen[0])
	assert.Equal(t, vec.Vec3{X: -1, Y: 0, Z: 47}, seen[len(seen)-1])
}

func TestZoneStorageLayout(t *testing.T) {
	z := NewZone(ZoneCoord{})
	z.Build(newStoneLayer(0))

	require.True(t, z.Set(2, 5, 3, block.NewValue(block.DirtID, 0), false))

	snap := z.Snapshot()
	require.Len(t, snap, ZoneWidth*ZoneHeight*ZoneWidth)
	assert.Equal(t, block.DirtID, snap[(2*ZoneWidth+3)*ZoneHeight+5].ID())

	// Снимок - копия
	snap[0] = block.NewValue(block.StoneID, 0)
	assert.True(t, z.Get(0, 0, 0).IsAir())
}

func TestZoneOutOfRangeIsAir(t *testing.T) {
	z := NewZone(ZoneCoord{})
	z.Build(newStoneLayer(ZoneHeight))

	cases := []vec.Vec3{
		{X: -1, Y: 0, Z: 0},
		{X: ZoneWidth, Y: 0, Z: 0},
		{X: 0, Y: -1, Z: 0},
		{X: 0, Y: ZoneHeight, Z: 0},
		{X: 0, Y: 0, Z: -1},
		{X: 0, Y: 0, Z: ZoneWidth},
	}
	for _, c := range cases {
		assert.Equal(t, block.Air, z.Get(c.X, c.Y, c.Z), "ячейка %s", c)
		assert.False(t, z.Set(c.X, c.Y, c.Z, block.NewValue(block.DirtID, 0), true), "ячейка %s", c)
	}
	assert.Zero(t, z.PlayerEdits())
}

func TestZoneDeinitIdempotent(t *testing.T) {
	z := NewZone(ZoneCoord{X: 16})
	z.Build(newStoneLayer(128))

	z.Deinit()
	once := z.Snapshot()
	z.Deinit()

	assert.Nil(t, once)
	assert.Nil(t, z.Snapshot())
	assert.False(t, z.Resident())
	assert.Zero(t, z.StorageBytes())
	assert.Equal(t, ZoneCoord{X: 16}, z.Coord(), "координаты переживают выгрузку")

	for y := 0; y < ZoneHeight; y += 17 {
		assert.Equal(t, block.Air, z.Get(3, y, 3))
	}
	assert.False(t, z.Set(3, 3, 3, block.NewValue(block.DirtID, 0), false))

	z.Build(newStoneLayer(128))
	assert.Equal(t, 2, z.Builds())
	assert.Equal(t, block.StoneID, z.Get(3, 3, 3).ID())
}

func TestZonePlayerEditCounter(t *testing.T) {
	z := NewZone(ZoneCoord{})
	z.Build(newStoneLayer(10))

	require.True(t, z.Set(1, 1, 1, block.Air, true))
	require.True(t, z.Set(1, 2, 1, block.Air, false))

	assert.Equal(t, 1, z.PlayerEdits())
	assert.True(t, z.Get(1, 1, 1).IsAir())
	assert.True(t, z.Get(1, 2, 1).IsAir())
}

func TestZoneEachBlockSkipsAir(t *testing.T) {
	z := NewZone(ZoneCoord{})
	z.Build(newStoneLayer(2))

	count := 0
	z.EachBlock(func(local vec.Vec3, v block.Value) {
		assert.Less(t, local.Y, 2)
		assert.Equal(t, block.StoneID, v.ID())
		count++
	})
	assert.Equal(t, ZoneWidth*ZoneWidth*2, count)
}

func TestZoneBounds(t *testing.T) {
	z := NewZone(ZoneCoord{X: -32, Z: 16})
	min, max := z.Bounds()

	assert.Equal(t, -32.0, min.X())
	assert.Equal(t, 0.0, min.Y())
	assert.Equal(t, 16.0, min.Z())
	assert.Equal(t, -16.0, max.X())
	assert.Equal(t, float64(ZoneHeight), max.Y())
	assert.Equal(t, 32.0, max.Z())
	assert.Equal(t, vec.Vec3{X: -32, Y: 0, Z: 16}, z.Origin())
}
