package engine

import (
	"fmt"

	"github.com/annel0/zoneworld/internal/config"
	"github.com/annel0/zoneworld/internal/logging"
	"github.com/annel0/zoneworld/internal/metrics"
	"github.com/annel0/zoneworld/internal/storage"
	"github.com/annel0/zoneworld/internal/world"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime - собранный мир со всеми зависимостями
type Runtime struct {
	Catalog  *block.Catalog
	Terrain  *world.TerrainGenerator
	World    *world.World
	Metrics  *metrics.WorldMetrics
	Storage  *storage.WorldStorage // nil, если журнал в памяти
	Viewers  storage.ViewerRepo
	Renderer *HeadlessRenderer
	Session  *Session
}

// Bootstrap собирает мир из конфигурации в порядке каталог, генератор, мир.
// reg == nil регистрирует метрики в глобальном регистре Prometheus.
func Bootstrap(cfg *config.Config, reg prometheus.Registerer) (*Runtime, error) {
	catalog, err := BuildCatalog(cfg.Blocks)
	if err != nil {
		return nil, err
	}

	terrain := world.NewTerrainGenerator(TerrainConfig(cfg), catalog)

	w := world.NewWorld(catalog, terrain)
	if err := w.SetGridSize(cfg.World.MemGridSize, cfg.World.ViewGridSize); err != nil {
		return nil, err
	}
	if err := w.SetRayConfig(world.RayConfig{MaxT: cfg.World.RayMaxT, Step: cfg.World.RayStep}); err != nil {
		return nil, err
	}

	rt := &Runtime{
		Catalog:  catalog,
		Terrain:  terrain,
		World:    w,
		Metrics:  metrics.NewWorldMetrics(cfg.Telemetry.ServiceName, reg),
		Renderer: NewHeadlessRenderer(false),
	}
	w.SetMetrics(rt.Metrics)

	if cfg.Storage.JournalPath != "" {
		ws, err := storage.NewWorldStorage(cfg.Storage.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		rt.Storage = ws
		rt.Viewers = ws.Viewers()
		w.SetJournal(ws)
		logging.Info("Журнал правок: %s", ws.Path())
	} else {
		rt.Viewers = storage.NewMemoryViewerRepo()
		w.SetJournal(world.NewMemoryJournal())
		logging.Info("Журнал правок в памяти")
	}

	rt.Session = NewSession(w, rt.Renderer)
	logging.Info("Мир собран: seed=%d, view=%d, mem=%d, блоков в каталоге=%d",
		cfg.World.Seed, cfg.World.ViewGridSize, cfg.World.MemGridSize, len(cfg.Blocks))
	return rt, nil
}

// Close освобождает хранилище
func (rt *Runtime) Close() error {
	if rt.Storage == nil {
		return nil
	}
	return rt.Storage.Close()
}

// BuildCatalog заполняет каталог из конфигурации.
// Пустой список означает стандартный набор блоков.
func BuildCatalog(blocks []config.BlockConfig) (*block.Catalog, error) {
	if len(blocks) == 0 {
		return block.NewDefaultCatalog(), nil
	}

	catalog := block.NewCatalog()
	for _, b := range blocks {
		err := catalog.Register(b.ID, block.Properties{
			Name:       b.Name,
			Solid:      b.Solid,
			Selectable: b.Selectable,
			Texture:    b.Texture,
		})
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", b.Name, err)
		}
		if b.DensityMin != nil {
			if err := catalog.SetDensityBand(block.ID(b.ID), *b.DensityMin); err != nil {
				return nil, fmt.Errorf("block %q: %w", b.Name, err)
			}
		}
	}
	return catalog, nil
}

// TerrainConfig переводит раздел terrain в коэффициенты генератора.
// Нулевые поля остаются значениями по умолчанию.
func TerrainConfig(cfg *config.Config) world.TerrainConfig {
	tc := world.DefaultTerrainConfig(cfg.World.Seed)
	t := cfg.Terrain

	setFloat(&tc.HorizontalScale, t.HorizontalScale)
	setFloat(&tc.CenterFalloff, t.CenterFalloff)
	setFloat(&tc.CaveFrequency, t.CaveFrequency)
	setFloat(&tc.VerticalSquash, t.VerticalSquash)
	setFloat(&tc.VariationFrequency, t.VariationFrequency)
	setFloat(&tc.VariationOffset, t.VariationOffset)
	setFloat(&tc.VariationExponent, t.VariationExponent)
	if t.CaveOctaves > 0 {
		tc.CaveOctaves = t.CaveOctaves
	}
	if t.DensityOctaves > 0 {
		tc.DensityOctaves = t.DensityOctaves
	}
	if t.CaveThreshold != nil {
		tc.CaveThreshold = *t.CaveThreshold
	}
	if t.BandMin != nil {
		tc.BandMin = *t.BandMin
	}
	if t.BandMax != nil {
		tc.BandMax = *t.BandMax
	}
	return tc
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
