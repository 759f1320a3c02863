package world

import (
	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// Размеры зоны в блоках
const (
	ZoneWidth  = 16  // Ширина по X и Z
	ZoneHeight = 256 // Полная высота мира
)

// zoneVolume - число ячеек резидентной зоны
const zoneVolume = ZoneWidth * ZoneHeight * ZoneWidth

// Zone представляет вертикальную колонну мира ZoneWidth x ZoneHeight x ZoneWidth.
// После Deinit хранилище освобождается, но координаты и ссылка на мир остаются.
type Zone struct {
	coord       ZoneCoord
	world       *World        // Владелец, не владеющая ссылка; может быть nil
	blocks      []block.Value // nil, если зона не резидентна
	builds      int           // Сколько раз зона строилась
	playerEdits int           // Счётчик правок игрока
}

// NewZone создаёт пустую нерезидентную зону, не привязанную к миру
func NewZone(coord ZoneCoord) *Zone {
	return &Zone{coord: coord}
}

func newZone(coord ZoneCoord, w *World) *Zone {
	return &Zone{coord: coord, world: w}
}

// Coord возвращает координаты зоны
func (z *Zone) Coord() ZoneCoord {
	return z.coord
}

// Origin возвращает мировые координаты угла зоны (y = 0)
func (z *Zone) Origin() vec.Vec3 {
	return vec.Vec3{X: z.coord.X, Y: 0, Z: z.coord.Z}
}

// Bounds возвращает ограничивающий параллелепипед зоны в мировых координатах
func (z *Zone) Bounds() (min, max mgl64.Vec3) {
	min = mgl64.Vec3{float64(z.coord.X), 0, float64(z.coord.Z)}
	max = mgl64.Vec3{float64(z.coord.X + ZoneWidth), ZoneHeight, float64(z.coord.Z + ZoneWidth)}
	return min, max
}

// Resident сообщает, выделено ли хранилище блоков
func (z *Zone) Resident() bool {
	return z.blocks != nil
}

// Builds возвращает число выполненных построений
func (z *Zone) Builds() int {
	return z.builds
}

// PlayerEdits возвращает число правок, сделанных игроком
func (z *Zone) PlayerEdits() int {
	return z.playerEdits
}

func inZone(lx, ly, lz int) bool {
	return lx >= 0 && lx < ZoneWidth &&
		ly >= 0 && ly < ZoneHeight &&
		lz >= 0 && lz < ZoneWidth
}

func index(lx, ly, lz int) int {
	return (lx*ZoneWidth+lz)*ZoneHeight + ly
}

// Build заполняет все ячейки зоны значениями генератора.
// Нерезидентная зона сначала получает новое хранилище.
func (z *Zone) Build(gen Generator) {
	if z.blocks == nil {
		z.blocks = make([]block.Value, zoneVolume)
	}

	for x := 0; x < ZoneWidth; x++ {
		for lz := 0; lz < ZoneWidth; lz++ {
			base := index(x, 0, lz)
			wx, wz := x+z.coord.X, lz+z.coord.Z
			for y := 0; y < ZoneHeight; y++ {
				z.blocks[base+y] = gen.Sample(wx, y, wz)
			}
		}
	}
	z.builds++
}

// Get возвращает значение ячейки по локальным координатам.
// Вне границ и для нерезидентной зоны возвращается воздух.
func (z *Zone) Get(lx, ly, lz int) block.Value {
	if z.blocks == nil || !inZone(lx, ly, lz) {
		return block.Air
	}
	return z.blocks[index(lx, ly, lz)]
}

// Set перезаписывает ячейку. Вне границ и в нерезидентной зоне ничего не делает.
// playerAction передаётся миру (журнал правок, метрики) и не меняет смысла значения.
func (z *Zone) Set(lx, ly, lz int, v block.Value, playerAction bool) bool {
	if !z.set(lx, ly, lz, v) {
		return false
	}

	if playerAction {
		z.playerEdits++
		if z.world != nil {
			z.world.onPlayerEdit(z, vec.Vec3{X: lx + z.coord.X, Y: ly, Z: lz + z.coord.Z}, v)
		}
	}
	return true
}

func (z *Zone) set(lx, ly, lz int, v block.Value) bool {
	if z.blocks == nil || !inZone(lx, ly, lz) {
		return false
	}
	z.blocks[index(lx, ly, lz)] = v
	return true
}

// Deinit освобождает хранилище. Повторный вызов ничего не меняет.
func (z *Zone) Deinit() {
	z.blocks = nil
}

// Snapshot возвращает копию сетки блоков в порядке (x, z, y) или nil для нерезидентной зоны
func (z *Zone) Snapshot() []block.Value {
	if z.blocks == nil {
		return nil
	}
	out := make([]block.Value, len(z.blocks))
	copy(out, z.blocks)
	return out
}

// EachBlock вызывает fn для каждой непустой ячейки с её локальными координатами
func (z *Zone) EachBlock(fn func(local vec.Vec3, v block.Value)) {
	if z.blocks == nil {
		return
	}
	for x := 0; x < ZoneWidth; x++ {
		for lz := 0; lz < ZoneWidth; lz++ {
			base := index(x, 0, lz)
			for y := 0; y < ZoneHeight; y++ {
				if v := z.blocks[base+y]; !v.IsAir() {
					fn(vec.Vec3{X: x, Y: y, Z: lz}, v)
				}
			}
		}
	}
}

// StorageBytes возвращает объём хранилища зоны
func (z *Zone) StorageBytes() int {
	return len(z.blocks) * 2
}
