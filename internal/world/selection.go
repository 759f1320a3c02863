package world

import (
	"errors"
	"fmt"

	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrRayConfig возвращается при некорректных параметрах луча
var ErrRayConfig = errors.New("ray config: need 0 < step <= maxT")

// BlockSource - источник блоков для трассировки; World реализует его через BlockAt
type BlockSource interface {
	BlockAt(x, y, z int) block.Value
}

// RayConfig задаёт параметрический диапазон луча origin + t*direction
type RayConfig struct {
	MaxT float64 // Верхняя граница t, не включительно
	Step float64 // Шаг по t
}

// DefaultRayConfig возвращает стандартные параметры: t в [0, 0.1) с шагом 0.001
func DefaultRayConfig() RayConfig {
	return RayConfig{MaxT: 0.1, Step: 0.001}
}

// Validate проверяет параметры луча
func (r RayConfig) Validate() error {
	if r.Step <= 0 || r.MaxT < r.Step {
		return fmt.Errorf("%w (step=%g, maxT=%g)", ErrRayConfig, r.Step, r.MaxT)
	}
	return nil
}

// Selection - результат трассировки: выбранный блок и пустая ячейка перед ним
type Selection struct {
	Selected     vec.Vec3
	PlaceAt      vec.Vec3
	HasSelection bool
	HasPlaceAt   bool
}

// CastSelection шагает по лучу и ищет первый выделяемый блок.
// Зритель с высотой вне [0, ZoneHeight] никогда не получает выделения.
func CastSelection(origin, direction mgl64.Vec3, src BlockSource, catalog *block.Catalog, ray RayConfig) Selection {
	var sel Selection
	if origin.Y() < 0 || origin.Y() > ZoneHeight {
		return sel
	}

	var prev vec.Vec3
	havePrev := false
	for i := 0; ; i++ {
		t := float64(i) * ray.Step
		if t >= ray.MaxT {
			break
		}

		cell := vec.FromFloat(origin.Add(direction.Mul(t)))
		if catalog.PropertiesOf(src.BlockAt(cell.X, cell.Y, cell.Z)).Selectable {
			sel.Selected = cell
			sel.HasSelection = true
			if havePrev {
				sel.PlaceAt = prev
				sel.HasPlaceAt = true
			}
			return sel
		}
		prev = cell
		havePrev = true
	}
	return sel
}

// SetRayConfig задаёт параметры луча выделения
func (w *World) SetRayConfig(r RayConfig) error {
	if err := r.Validate(); err != nil {
		return err
	}
	w.ray = r
	return nil
}

// Ray возвращает параметры луча выделения
func (w *World) Ray() RayConfig {
	return w.ray
}

// Select пересчитывает текущее выделение по лучу зрителя
func (w *World) Select(origin, direction mgl64.Vec3) Selection {
	w.selection = CastSelection(origin, direction, w, w.catalog, w.ray)
	w.metrics.SelectionUpdated(w.selection.HasSelection)
	return w.selection
}

// Selection возвращает выделение последнего цикла
func (w *World) Selection() Selection {
	return w.selection
}

// SelectedBlock возвращает выделенный блок или воздух, если выделения нет
func (w *World) SelectedBlock() block.Value {
	if !w.selection.HasSelection {
		return block.Air
	}
	p := w.selection.Selected
	return w.BlockAt(p.X, p.Y, p.Z)
}

// PlaceAtSelection ставит блок в ячейку перед выделенным блоком
func (w *World) PlaceAtSelection(v block.Value) bool {
	if !w.selection.HasPlaceAt {
		return false
	}
	p := w.selection.PlaceAt
	if !w.SetBlockAt(p.X, p.Y, p.Z, v, true) {
		return false
	}
	w.selection.HasPlaceAt = false
	return true
}

// RemoveSelected заменяет выделенный блок воздухом
func (w *World) RemoveSelected() bool {
	if !w.selection.HasSelection {
		return false
	}
	p := w.selection.Selected
	if !w.RemoveBlockAt(p.X, p.Y, p.Z, true) {
		return false
	}
	w.selection = Selection{}
	return true
}
