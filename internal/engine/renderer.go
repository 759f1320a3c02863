package engine

import (
	"sync"

	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world"
	"github.com/annel0/zoneworld/internal/world/block"
)

// Renderer - внешний потребитель кадра. Мир вызывает его только на чтение.
type Renderer interface {
	DrawZone(z *world.Zone)
	HighlightBlock(pos vec.Vec3)
}

// RenderStats - счётчики HeadlessRenderer
type RenderStats struct {
	Frames        int      `json:"frames"`
	ZonesDrawn    int      `json:"zones_drawn"`
	BlocksDrawn   int      `json:"blocks_drawn"`
	LastZones     int      `json:"last_zones"`
	LastHighlight vec.Vec3 `json:"last_highlight"`
	Highlights    int      `json:"highlights"`
}

// HeadlessRenderer ничего не рисует, а только считает вызовы.
// Используется сервером без окна и в тестах.
type HeadlessRenderer struct {
	mu         sync.Mutex
	stats      RenderStats
	countCells bool
}

// NewHeadlessRenderer создаёт рендерер; countCells включает подсчёт непустых ячеек
func NewHeadlessRenderer(countCells bool) *HeadlessRenderer {
	return &HeadlessRenderer{countCells: countCells}
}

// BeginFrame отмечает начало кадра
func (r *HeadlessRenderer) BeginFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Frames++
	r.stats.LastZones = 0
}

// DrawZone учитывает зону кадра
func (r *HeadlessRenderer) DrawZone(z *world.Zone) {
	cells := 0
	if r.countCells {
		z.EachBlock(func(vec.Vec3, block.Value) { cells++ })
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ZonesDrawn++
	r.stats.LastZones++
	r.stats.BlocksDrawn += cells
}

// HighlightBlock учитывает подсветку выделенного блока
func (r *HeadlessRenderer) HighlightBlock(pos vec.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Highlights++
	r.stats.LastHighlight = pos
}

// Stats возвращает копию счётчиков
func (r *HeadlessRenderer) Stats() RenderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
