package world

import (
	"math"

	"github.com/annel0/zoneworld/internal/logging"
	"github.com/go-gl/mathgl/mgl64"
)

// View - то, что зритель передаёт миру на каждом цикле
type View struct {
	Position  mgl64.Vec3 // Позиция зрителя
	Direction mgl64.Vec3 // Направление взгляда; длина задаёт дальность луча
	Frustum   *Frustum   // Объём видимости; nil отключает отсечение
}

// Frame - результат одного цикла стриминга
type Frame struct {
	Viewer    ZoneCoord
	Visible   []*Zone // Резидентные зоны в радиусе видимости, прошедшие отсечение
	Generated int     // Новые зоны
	Rebuilt   int     // Выгруженные зоны, построенные заново
	Evicted   int     // Зоны, выгруженные на этом цикле
	Selection Selection
}

// Update выполняет один цикл стриминга для позиции зрителя:
// догружает зоны в радиусе видимости, при смене зоны зрителя выгружает зоны
// дальше радиуса памяти и пересчитывает выделение.
func (w *World) Update(view View) Frame {
	viewer := ZoneCoordFor(
		int(math.Floor(view.Position.X())),
		int(math.Floor(view.Position.Z())),
	)
	frame := Frame{Viewer: viewer}

	for dx := -w.viewGridSize; dx <= w.viewGridSize; dx++ {
		for dz := -w.viewGridSize; dz <= w.viewGridSize; dz++ {
			c := viewer.Offset(dx, dz)

			zone, known := w.zones[c]
			switch {
			case !known:
				zone = w.EnsureZone(c)
				frame.Generated++
			case !zone.Resident():
				w.buildZone(zone, true)
				frame.Rebuilt++
			}

			if view.Frustum != nil {
				min, max := zone.Bounds()
				if !view.Frustum.IntersectsBox(min, max) {
					continue
				}
			}
			frame.Visible = append(frame.Visible, zone)
		}
	}

	if !w.camValid || viewer != w.camZone {
		frame.Evicted = w.evict(viewer)
		w.camZone = viewer
		w.camValid = true
	}

	frame.Selection = w.Select(view.Position, view.Direction)

	w.metrics.ResidentZones(w.ResidentCount())
	return frame
}

// evict выгружает резидентные зоны дальше радиуса памяти от зрителя
func (w *World) evict(viewer ZoneCoord) int {
	evicted := 0
	for _, z := range w.zones {
		if !z.Resident() || z.coord.InRange(viewer, w.memGridSize) {
			continue
		}
		z.Deinit()
		evicted++
	}

	if evicted > 0 {
		w.metrics.ZonesEvicted(evicted)
	}
	logging.LogEviction(w.logger, viewer.X, viewer.Z, evicted, w.ResidentCount())
	return evicted
}
