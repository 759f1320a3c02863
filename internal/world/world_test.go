package world

import (
	"testing"

	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneCoordForFloorDivision(t *testing.T) {
	for x := -70; x <= 70; x++ {
		c := ZoneCoordFor(x, -x)
		assert.LessOrEqual(t, c.X, x)
		assert.Less(t, x, c.X+ZoneWidth)
		assert.LessOrEqual(t, c.Z, -x)
		assert.Less(t, -x, c.Z+ZoneWidth)
		assert.Zero(t, c.X%ZoneWidth)
	}

	assert.Equal(t, ZoneCoord{X: -16, Z: 0}, ZoneCoordFor(-1, 0))
	assert.Equal(t, ZoneCoord{X: -16, Z: -32}, ZoneCoordFor(-16, -17))
	assert.Equal(t, ZoneCoord{X: 0, Z: 16}, ZoneCoordFor(15, 16))
}

func TestZoneCoordDistance(t *testing.T) {
	origin := ZoneCoord{}

	assert.Equal(t, 7, origin.Distance(origin.Offset(7, -3)))
	assert.Equal(t, 12, origin.Distance(origin.Offset(-2, 12)))
	assert.Equal(t, 0, origin.Distance(origin))

	assert.True(t, origin.InRange(origin.Offset(10, -10), 10))
	assert.False(t, origin.InRange(origin.Offset(0, 11), 10))
	// Проверка симметрична по осям
	assert.Equal(t, origin.InRange(origin.Offset(11, 0), 10), origin.InRange(origin.Offset(0, 11), 10))

	assert.True(t, ZoneCoord{X: -16, Z: 5}.Less(ZoneCoord{X: 0, Z: -5}))
	assert.True(t, ZoneCoord{X: 0, Z: -16}.Less(ZoneCoord{X: 0, Z: 0}))
}

func TestWorldSetGridSizeValidation(t *testing.T) {
	w := NewWorld(block.NewDefaultCatalog(), newStoneLayer(1))

	mem, view := w.GridSize()
	assert.Equal(t, 10, mem)
	assert.Equal(t, 5, view)

	assert.ErrorIs(t, w.SetGridSize(3, 5), ErrGridSize)
	assert.ErrorIs(t, w.SetGridSize(3, -1), ErrGridSize)
	require.NoError(t, w.SetGridSize(4, 4))

	mem, view = w.GridSize()
	assert.Equal(t, 4, mem)
	assert.Equal(t, 4, view)
}

func TestWorldEnsureZone(t *testing.T) {
	w := newTestWorld(t, newStoneLayer(64), 10, 5)

	c := ZoneCoord{X: -16, Z: 16}
	assert.Nil(t, w.ZoneAt(c))

	z := w.EnsureZone(c)
	require.NotNil(t, z)
	assert.Same(t, z, w.ZoneAt(c))
	assert.Same(t, z, w.EnsureZone(c))
	assert.Equal(t, 1, z.Builds(), "повторный EnsureZone не перестраивает зону")

	// Невыровненные координаты приводятся к углу зоны
	assert.Same(t, z, w.EnsureZone(ZoneCoord{X: -3, Z: 20}))
}

func TestWorldBlockAtNeverGenerates(t *testing.T) {
	w := newTestWorld(t, newStoneLayer(64), 10, 5)

	assert.Equal(t, block.Air, w.BlockAt(100, 10, -100))
	assert.Equal(t, block.Air, w.BlockAt(-1, 10, -1))
	assert.Empty(t, w.Zones())
	assert.Equal(t, block.Empty.Solid, w.BlockPropertiesAt(5, 5, 5).Solid)

	w.EnsureZone(ZoneCoordFor(-1, -1))
	assert.Equal(t, block.StoneID, w.BlockAt(-1, 10, -1).ID())
	assert.Equal(t, block.Air, w.BlockAt(-1, 64, -1))
	assert.Equal(t, block.Air, w.BlockAt(-1, -1, -1))
	assert.True(t, w.BlockPropertiesAt(-1, 10, -1).Selectable)
	assert.Len(t, w.Zones(), 1)
}

func TestWorldSetBlockAt(t *testing.T) {
	w := newTestWorld(t, newStoneLayer(64), 10, 5)
	planks := block.NewValue(block.PlanksID, 0)

	assert.False(t, w.SetBlockAt(3, 100, 3, planks, true), "правка отсутствующей зоны отбрасывается")
	assert.Empty(t, w.Zones())

	z := w.EnsureZone(ZoneCoord{})
	require.True(t, w.SetBlockAt(3, 100, 3, planks, true))
	assert.Equal(t, planks, w.BlockAt(3, 100, 3))
	assert.Equal(t, 1, z.PlayerEdits())

	require.True(t, w.RemoveBlockAt(3, 10, 3, false))
	assert.True(t, w.BlockAt(3, 10, 3).IsAir())
	assert.Equal(t, 1, z.PlayerEdits())

	z.Deinit()
	assert.False(t, w.SetBlockAt(3, 100, 3, planks, true), "правка выгруженной зоны отбрасывается")
}

func TestWorldEvictionRadius(t *testing.T) {
	metrics := &recordingMetrics{}
	w := newTestWorld(t, newStoneLayer(4), 10, 5)
	w.SetMetrics(metrics)

	near := w.EnsureZone(ZoneCoord{}.Offset(7, 0))
	far := w.EnsureZone(ZoneCoord{}.Offset(12, 0))

	frame := w.Update(View{Position: mgl64.Vec3{8, 100, 8}})

	assert.Equal(t, ZoneCoord{}, frame.Viewer)
	assert.Equal(t, 121, frame.Generated)
	assert.Equal(t, 1, frame.Evicted)
	assert.Len(t, frame.Visible, 121)
	assert.True(t, near.Resident(), "зона на расстоянии 7 остаётся")
	assert.False(t, far.Resident(), "зона на расстоянии 12 выгружена")
	assert.Same(t, far, w.ZoneAt(ZoneCoord{}.Offset(12, 0)), "запись зоны не удаляется")
	assertRadii(t, w, frame.Viewer)

	viewer, ok := w.ViewerZone()
	assert.True(t, ok)
	assert.Equal(t, ZoneCoord{}, viewer)
	assert.Equal(t, 122, metrics.resident)
	assert.Equal(t, 1, metrics.evicted)
	assert.Equal(t, 123, metrics.generated)
}

func TestWorldEvictionOnlyOnZoneChange(t *testing.T) {
	w := newTestWorld(t, newStoneLayer(4), 1, 0)

	w.Update(View{Position: mgl64.Vec3{8, 100, 8}})
	stray := w.EnsureZone(ZoneCoord{}.Offset(5, 0))

	// Тот же участок: выгрузка не запускается
	frame := w.Update(View{Position: mgl64.Vec3{15.5, 100, 0.5}})
	assert.Zero(t, frame.Generated)
	assert.Zero(t, frame.Evicted)
	assert.True(t, stray.Resident())

	frame = w.Update(View{Position: mgl64.Vec3{-0.5, 100, 8}})
	assert.Equal(t, ZoneCoord{X: -16}, frame.Viewer)
	assert.Equal(t, 1, frame.Evicted)
	assert.False(t, stray.Resident())
	assertRadii(t, w, frame.Viewer)
}

func TestWorldShrinkingMemRadiusEvictsNextUpdate(t *testing.T) {
	w := newTestWorld(t, newStoneLayer(4), 3, 3)

	frame := w.Update(View{Position: mgl64.Vec3{8, 100, 8}})
	require.Equal(t, 49, frame.Generated)
	require.Equal(t, 49, w.ResidentCount())

	require.NoError(t, w.SetGridSize(1, 1))

	// Зритель в той же зоне, но радиус памяти уменьшился
	frame = w.Update(View{Position: mgl64.Vec3{9, 100, 9}})
	assert.Equal(t, ZoneCoord{}, frame.Viewer)
	assert.Equal(t, 40, frame.Evicted)
	assert.Equal(t, 9, w.ResidentCount())
	assertRadii(t, w, frame.Viewer)

	// Повторный цикл в той же зоне выгрузку больше не запускает
	frame = w.Update(View{Position: mgl64.Vec3{10, 100, 10}})
	assert.Zero(t, frame.Evicted)
}

func TestWorldStreamingRoundTrip(t *testing.T) {
	metrics := &recordingMetrics{}
	w := newTestWorld(t, newStoneLayer(4), 2, 1)
	w.SetMetrics(metrics)

	w.Update(View{Position: mgl64.Vec3{8, 100, 8}})
	assert.Equal(t, 9, w.ResidentCount())

	away := mgl64.Vec3{16*20 + 8, 100, 8}
	frame := w.Update(View{Position: away})
	assert.Equal(t, 9, frame.Generated)
	assert.Equal(t, 9, frame.Evicted)
	assert.Equal(t, 9, w.ResidentCount())
	assertRadii(t, w, frame.Viewer)

	frame = w.Update(View{Position: mgl64.Vec3{8, 100, 8}})
	assert.Zero(t, frame.Generated)
	assert.Equal(t, 9, frame.Rebuilt)
	assert.Equal(t, 9, metrics.rebuilt)
	assert.Len(t, w.Zones(), 18)

	origin := w.ZoneAt(ZoneCoord{})
	assert.Equal(t, 2, origin.Builds())
	assert.Equal(t, block.StoneID, w.BlockAt(8, 0, 8).ID())
	assert.Equal(t, 9*ZoneWidth*ZoneHeight*ZoneWidth*2, w.ResidentBytes())
}

func TestWorldJournalReplay(t *testing.T) {
	metrics := &recordingMetrics{}
	w := newTestWorld(t, newStoneLayer(64), 0, 0)
	w.SetJournal(NewMemoryJournal())
	w.SetMetrics(metrics)

	planks := block.NewValue(block.PlanksID, 2)
	w.Update(View{Position: mgl64.Vec3{8, 100, 8}})
	require.True(t, w.SetBlockAt(3, 200, 4, planks, true))
	require.True(t, w.RemoveBlockAt(3, 10, 4, true))
	require.True(t, w.RemoveBlockAt(5, 10, 5, false))

	w.ZoneAt(ZoneCoord{}).Deinit()
	frame := w.Update(View{Position: mgl64.Vec3{8, 100, 8}})

	assert.Equal(t, 1, frame.Rebuilt)
	assert.Equal(t, planks, w.BlockAt(3, 200, 4))
	assert.True(t, w.BlockAt(3, 10, 4).IsAir())
	assert.Equal(t, block.StoneID, w.BlockAt(5, 10, 5).ID(), "правка не игрока не сохраняется")
	assert.Equal(t, 2, metrics.edits)
}

func TestWorldFrustumCulling(t *testing.T) {
	w := newTestWorld(t, newStoneLayer(4), 3, 3)

	eye := mgl64.Vec3{8, 100, 8}
	proj := mgl64.Perspective(mgl64.DegToRad(70), 1, 0.1, 1000)
	look := mgl64.LookAtV(eye, eye.Add(mgl64.Vec3{0, 0, -1}), mgl64.Vec3{0, 1, 0})

	frame := w.Update(View{Position: eye, Frustum: NewFrustum(proj.Mul4(look))})

	assert.Equal(t, 49, w.ResidentCount(), "отсечённые зоны остаются резидентными")
	assert.NotEmpty(t, frame.Visible)
	assert.Less(t, len(frame.Visible), 49)

	visible := make(map[ZoneCoord]bool)
	for _, z := range frame.Visible {
		visible[z.Coord()] = true
	}
	assert.True(t, visible[ZoneCoord{}.Offset(0, -3)], "зона перед зрителем видна")
	assert.False(t, visible[ZoneCoord{}.Offset(0, 3)], "зона за спиной отсечена")
}

func TestWorldUpdateSelection(t *testing.T) {
	w := newTestWorld(t, newStoneLayer(64), 0, 0)

	frame := w.Update(View{
		Position:  mgl64.Vec3{8.5, 70.5, 8.5},
		Direction: mgl64.Vec3{0, -100, 0},
	})

	require.True(t, frame.Selection.HasSelection)
	assert.Equal(t, vec.Vec3{X: 8, Y: 63, Z: 8}, frame.Selection.Selected)
	assert.Equal(t, frame.Selection, w.Selection())
}

// assertRadii проверяет, что все резидентные зоны в радиусе памяти,
// а все зоны в радиусе видимости резидентны
func assertRadii(t *testing.T, w *World, viewer ZoneCoord) {
	t.Helper()
	mem, view := w.GridSize()

	for _, c := range w.Zones() {
		z := w.ZoneAt(c)
		if z.Resident() {
			assert.LessOrEqual(t, c.Distance(viewer), mem, "резидентная зона %s", c)
		}
	}
	for dx := -view; dx <= view; dx++ {
		for dz := -view; dz <= view; dz++ {
			z := w.ZoneAt(viewer.Offset(dx, dz))
			require.NotNil(t, z)
			assert.True(t, z.Resident(), "зона %s в радиусе видимости", z.Coord())
		}
	}
}
