package world

import (
	"testing"
	"time"

	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/stretchr/testify/require"
)

// layerGenerator заполняет камнем всё ниже top
type layerGenerator struct {
	top int
	id  block.ID
}

func (g layerGenerator) Sample(_, y, _ int) block.Value {
	if y < g.top {
		return block.NewValue(g.id, 0)
	}
	return block.Air
}

func newStoneLayer(top int) layerGenerator {
	return layerGenerator{top: top, id: block.StoneID}
}

// recordingMetrics запоминает события мира
type recordingMetrics struct {
	generated int
	rebuilt   int
	evicted   int
	resident  int
	edits     int
	hits      int
	misses    int
}

func (m *recordingMetrics) ZoneGenerated(_ time.Duration, rebuilt bool) {
	if rebuilt {
		m.rebuilt++
		return
	}
	m.generated++
}

func (m *recordingMetrics) ZonesEvicted(n int)  { m.evicted += n }
func (m *recordingMetrics) ResidentZones(n int) { m.resident = n }
func (m *recordingMetrics) PlayerEdit()         { m.edits++ }

func (m *recordingMetrics) SelectionUpdated(hit bool) {
	if hit {
		m.hits++
		return
	}
	m.misses++
}

func newTestWorld(t testing.TB, gen Generator, mem, view int) *World {
	t.Helper()
	w := NewWorld(block.NewDefaultCatalog(), gen)
	require.NoError(t, w.SetGridSize(mem, view))
	return w
}

type generatorFunc func(x, y, z int) block.Value

func (f generatorFunc) Sample(x, y, z int) block.Value {
	return f(x, y, z)
}
