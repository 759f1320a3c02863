package world

import (
	"sort"

	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world/block"
)

// Edit - одна правка игрока в мировых координатах
type Edit struct {
	Pos   vec.Vec3
	Value block.Value
}

// EditJournal хранит правки игрока, чтобы они переживали выгрузку зоны.
// Сгенерированный ландшафт в журнал не попадает.
type EditJournal interface {
	Record(coord ZoneCoord, edit Edit) error
	Edits(coord ZoneCoord) ([]Edit, error)
}

// MemoryJournal - журнал в памяти; для позиции хранится последняя правка
type MemoryJournal struct {
	edits map[ZoneCoord]map[vec.Vec3]block.Value
}

// NewMemoryJournal создаёт пустой журнал
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{edits: make(map[ZoneCoord]map[vec.Vec3]block.Value)}
}

// Record запоминает правку
func (j *MemoryJournal) Record(coord ZoneCoord, edit Edit) error {
	zoneEdits, ok := j.edits[coord]
	if !ok {
		zoneEdits = make(map[vec.Vec3]block.Value)
		j.edits[coord] = zoneEdits
	}
	zoneEdits[edit.Pos] = edit.Value
	return nil
}

// Edits возвращает правки зоны в детерминированном порядке
func (j *MemoryJournal) Edits(coord ZoneCoord) ([]Edit, error) {
	zoneEdits := j.edits[coord]
	out := make([]Edit, 0, len(zoneEdits))
	for pos, v := range zoneEdits {
		out = append(out, Edit{Pos: pos, Value: v})
	}
	SortEdits(out)
	return out, nil
}

// SortEdits упорядочивает правки по (x, z, y)
func SortEdits(edits []Edit) {
	sort.Slice(edits, func(i, k int) bool {
		a, b := edits[i].Pos, edits[k].Pos
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.Y < b.Y
	})
}
