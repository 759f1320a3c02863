package world

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/annel0/zoneworld/internal/logging"
	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world/block"
)

// ErrGridSize возвращается при несогласованных радиусах стриминга
var ErrGridSize = errors.New("grid size: need 0 <= view <= mem")

// ZoneCoord - координаты угла зоны в горизонтальной плоскости, кратные ZoneWidth
type ZoneCoord struct {
	X int
	Z int
}

// ZoneCoordFor возвращает координаты зоны, содержащей мировую точку (x, z).
// Используется деление с округлением вниз: x = -1 принадлежит зоне -16.
func ZoneCoordFor(x, z int) ZoneCoord {
	return ZoneCoord{
		X: vec.FloorDiv(x, ZoneWidth) * ZoneWidth,
		Z: vec.FloorDiv(z, ZoneWidth) * ZoneWidth,
	}
}

// Distance возвращает расстояние Чебышёва до другой зоны в ширинах зоны
func (c ZoneCoord) Distance(other ZoneCoord) int {
	dx := abs(c.X-other.X) / ZoneWidth
	dz := abs(c.Z-other.Z) / ZoneWidth
	if dx > dz {
		return dx
	}
	return dz
}

// InRange проверяет, что обе оси отстоят не далее чем на rangeZones зон
func (c ZoneCoord) InRange(other ZoneCoord, rangeZones int) bool {
	r := rangeZones * ZoneWidth
	return abs(c.X-other.X) <= r && abs(c.Z-other.Z) <= r
}

// Offset сдвигает координаты на dx и dz зон
func (c ZoneCoord) Offset(dx, dz int) ZoneCoord {
	return ZoneCoord{X: c.X + dx*ZoneWidth, Z: c.Z + dz*ZoneWidth}
}

// Less задаёт полный порядок: сначала по X, затем по Z
func (c ZoneCoord) Less(other ZoneCoord) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Z < other.Z
}

func (c ZoneCoord) String() string {
	return fmt.Sprintf("zone(%d,%d)", c.X, c.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// World - индекс зон: создаёт зоны по требованию через генератор, выгружает
// дальние и отвечает на запросы блоков. Не потокобезопасен: все вызовы
// должны идти из одного игрового цикла или под внешней блокировкой.
type World struct {
	catalog   *block.Catalog
	generator Generator
	zones     map[ZoneCoord]*Zone // Записи не удаляются за всё время жизни мира

	memGridSize  int // Радиус удержания в памяти
	viewGridSize int // Радиус видимости и генерации

	camZone  ZoneCoord // Зона зрителя на предыдущем цикле
	camValid bool      // false до первого цикла

	ray       RayConfig
	selection Selection

	journal EditJournal
	metrics Metrics
	logger  *logging.Logger
}

// NewWorld создаёт мир. Порядок инициализации: каталог, затем генератор, затем мир.
func NewWorld(catalog *block.Catalog, generator Generator) *World {
	return &World{
		catalog:      catalog,
		generator:    generator,
		zones:        make(map[ZoneCoord]*Zone),
		memGridSize:  10,
		viewGridSize: 5,
		ray:          DefaultRayConfig(),
		metrics:      noopMetrics{},
		logger:       logging.GetWorldLogger(),
	}
}

// SetGridSize задаёт радиусы удержания и видимости в зонах.
// Следующий Update выполнит выгрузку даже без смены зоны зрителя.
func (w *World) SetGridSize(memGridSize, viewGridSize int) error {
	if viewGridSize < 0 || memGridSize < viewGridSize {
		return fmt.Errorf("%w (mem=%d, view=%d)", ErrGridSize, memGridSize, viewGridSize)
	}
	w.memGridSize = memGridSize
	w.viewGridSize = viewGridSize
	w.camValid = false
	return nil
}

// GridSize возвращает радиусы удержания и видимости
func (w *World) GridSize() (memGridSize, viewGridSize int) {
	return w.memGridSize, w.viewGridSize
}

// SetJournal подключает журнал правок игрока; nil отключает журнал
func (w *World) SetJournal(j EditJournal) {
	w.journal = j
}

// SetMetrics подключает сборщик метрик; nil возвращает заглушку
func (w *World) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	w.metrics = m
}

// SetLogger заменяет логгер мира
func (w *World) SetLogger(l *logging.Logger) {
	if l != nil {
		w.logger = l
	}
}

// Catalog возвращает каталог блоков мира
func (w *World) Catalog() *block.Catalog {
	return w.catalog
}

// ZoneAt возвращает зону по координатам или nil. Побочных эффектов нет.
func (w *World) ZoneAt(c ZoneCoord) *Zone {
	return w.zones[c]
}

// EnsureZone возвращает существующую зону или создаёт и строит новую.
// Единственный путь появления зон в индексе.
func (w *World) EnsureZone(c ZoneCoord) *Zone {
	c = ZoneCoordFor(c.X, c.Z)
	if z, ok := w.zones[c]; ok {
		return z
	}

	z := newZone(c, w)
	w.zones[c] = z
	w.buildZone(z, false)
	return z
}

// buildZone строит зону и применяет к ней журнал правок
func (w *World) buildZone(z *Zone, rebuilt bool) {
	start := time.Now()
	z.Build(w.generator)
	w.replayEdits(z)
	took := time.Since(start)

	w.metrics.ZoneGenerated(took, rebuilt)
	logging.LogZoneGenerated(w.logger, z.coord.X, z.coord.Z, took, rebuilt)
}

func (w *World) replayEdits(z *Zone) {
	if w.journal == nil {
		return
	}

	edits, err := w.journal.Edits(z.coord)
	if err != nil {
		w.logger.Warn("Journal read for %s failed: %v", z.coord, err)
		return
	}
	for _, e := range edits {
		z.set(e.Pos.X-z.coord.X, e.Pos.Y, e.Pos.Z-z.coord.Z, e.Value)
	}
	if len(edits) > 0 {
		w.logger.Debug("Replayed %d player edits into %s", len(edits), z.coord)
	}
}

// onPlayerEdit вызывается зоной после правки игрока
func (w *World) onPlayerEdit(z *Zone, pos vec.Vec3, v block.Value) {
	w.metrics.PlayerEdit()
	if w.journal == nil {
		return
	}
	if err := w.journal.Record(z.coord, Edit{Pos: pos, Value: v}); err != nil {
		w.logger.Warn("Journal write for %s at %s failed: %v", z.coord, pos, err)
	}
}

// BlockAt возвращает блок по мировым координатам. Генерацию не запускает:
// для отсутствующей зоны возвращается воздух.
func (w *World) BlockAt(x, y, z int) block.Value {
	zone := w.zones[ZoneCoordFor(x, z)]
	if zone == nil {
		return block.Air
	}
	return zone.Get(x-zone.coord.X, y, z-zone.coord.Z)
}

// BlockPropertiesAt возвращает свойства блока по мировым координатам
func (w *World) BlockPropertiesAt(x, y, z int) block.Properties {
	return w.catalog.PropertiesOf(w.BlockAt(x, y, z))
}

// SetBlockAt записывает блок по мировым координатам.
// Правки отсутствующих или выгруженных зон молча отбрасываются.
func (w *World) SetBlockAt(x, y, z int, v block.Value, playerAction bool) bool {
	zone := w.zones[ZoneCoordFor(x, z)]
	if zone == nil {
		return false
	}
	return zone.Set(x-zone.coord.X, y, z-zone.coord.Z, v, playerAction)
}

// RemoveBlockAt заменяет блок воздухом
func (w *World) RemoveBlockAt(x, y, z int, playerAction bool) bool {
	return w.SetBlockAt(x, y, z, block.Air, playerAction)
}

// Zones возвращает координаты всех известных зон в порядке ZoneCoord.Less
func (w *World) Zones() []ZoneCoord {
	coords := make([]ZoneCoord, 0, len(w.zones))
	for c := range w.zones {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		return coords[i].Less(coords[j])
	})
	return coords
}

// ResidentCount возвращает число зон с выделенным хранилищем
func (w *World) ResidentCount() int {
	n := 0
	for _, z := range w.zones {
		if z.Resident() {
			n++
		}
	}
	return n
}

// ResidentBytes возвращает суммарный объём хранилища резидентных зон
func (w *World) ResidentBytes() int {
	total := 0
	for _, z := range w.zones {
		total += z.StorageBytes()
	}
	return total
}

// ViewerZone возвращает зону зрителя последнего цикла
func (w *World) ViewerZone() (ZoneCoord, bool) {
	return w.camZone, w.camValid
}
