package world

import (
	"math"

	"github.com/annel0/zoneworld/internal/util"
	"github.com/annel0/zoneworld/internal/world/block"
)

// Generator вычисляет содержимое ячейки по мировым координатам.
// Реализация обязана быть чистой функцией координат.
type Generator interface {
	Sample(x, y, z int) block.Value
}

// TerrainConfig - коэффициенты шумового ландшафта
type TerrainConfig struct {
	Seed               int64
	HorizontalScale    float64 // Нормировка x и z
	CenterFalloff      float64 // Постоянный множитель плотности
	CaveOctaves        int
	CaveFrequency      float64
	CaveThreshold      float64 // Куб шума пещер ниже порога - воздух
	DensityOctaves     int
	VerticalSquash     float64 // Множитель y для основного шума
	VariationFrequency float64
	VariationOffset    float64
	VariationExponent  float64
	BandMin            float64 // Доля высоты: ниже - всегда воздух
	BandMax            float64 // Доля высоты: с этой отметки - всегда воздух
}

// DefaultTerrainConfig возвращает стандартные коэффициенты
func DefaultTerrainConfig(seed int64) TerrainConfig {
	return TerrainConfig{
		Seed:               seed,
		HorizontalScale:    128.0,
		CenterFalloff:      0.35,
		CaveOctaves:        1,
		CaveFrequency:      5.0,
		CaveThreshold:      0.5,
		DensityOctaves:     5,
		VerticalSquash:     0.5,
		VariationFrequency: 3.0,
		VariationOffset:    0.6,
		VariationExponent:  1.8,
		BandMin:            0.1,
		BandMax:            0.9,
	}
}

// TerrainGenerator генерирует ландшафт из слоёв шума
type TerrainGenerator struct {
	cfg     TerrainConfig
	noise   *util.Noise
	catalog *block.Catalog
}

// NewTerrainGenerator создаёт генератор. Каталог должен быть заполнен заранее:
// пороги плотности читаются при каждом вызове Sample.
func NewTerrainGenerator(cfg TerrainConfig, catalog *block.Catalog) *TerrainGenerator {
	return &TerrainGenerator{
		cfg:     cfg,
		noise:   util.NewNoise(cfg.Seed),
		catalog: catalog,
	}
}

// Config возвращает коэффициенты генератора
func (g *TerrainGenerator) Config() TerrainConfig {
	return g.cfg
}

// Plateau возвращает вертикальную огибающую для нормированной высоты yf:
// подъём 0..1 на нижних 10%, плато до 80%, спад до нуля к 90%, выше - ноль.
func Plateau(yf float64) float64 {
	switch {
	case yf <= 0.1:
		return yf * 10.0
	case yf <= 0.8:
		return 1.0
	case yf < 0.9:
		return 1.0 - (yf-0.8)*10.0
	default:
		return 0.0
	}
}

// Density возвращает непрерывную плотность в точке.
// Пещерная маска обнуляет плотность независимо от остальных слагаемых.
func (g *TerrainGenerator) Density(x, y, z int) float64 {
	c := g.cfg
	xf := float64(x) / c.HorizontalScale
	yf := float64(y) / ZoneHeight
	zf := float64(z) / c.HorizontalScale

	// Только сокращение: при нулевой огибающей произведение ниже равно нулю
	// при любых значениях шума. Порядок слагаемых тот же: маска, основа, вариация.
	plateau := Plateau(yf)
	if plateau <= 0 {
		return 0
	}

	caves := math.Pow(g.noise.SimplexNoise(c.CaveOctaves, xf*c.CaveFrequency, yf*c.CaveFrequency, zf*c.CaveFrequency), 3)
	if caves < c.CaveThreshold {
		return 0
	}

	density := g.noise.SimplexNoise(c.DensityOctaves, xf, yf*c.VerticalSquash, zf) * c.CenterFalloff * plateau

	variation := g.noise.ValueNoise(
		(xf+1)*c.VariationFrequency,
		(yf+1)*c.VariationFrequency,
		(zf+1)*c.VariationFrequency,
	)
	density *= math.Pow(variation+c.VariationOffset, c.VariationExponent)

	return density
}

// InBand сообщает, может ли на высоте y вообще появиться твёрдый материал
func (g *TerrainGenerator) InBand(y int) bool {
	yf := float64(y) / ZoneHeight
	return yf >= g.cfg.BandMin && yf < g.cfg.BandMax
}

// Sample возвращает тип блока в точке
func (g *TerrainGenerator) Sample(x, y, z int) block.Value {
	if !g.InBand(y) {
		return block.Air
	}
	return g.catalog.Classify(g.Density(x, y, z))
}
