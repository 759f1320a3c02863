package util

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/aquilax/go-perlin"
	"github.com/cespare/xxhash/v2"
)

const (
	perlinAlpha = 2.0 // Затухание амплитуды между октавами
	perlinBeta  = 2.0 // Рост частоты между октавами

	// perlinSigma - стандартное отклонение одной октавы go-perlin.
	// Сырое значение октавы лежит примерно в [-0.6, 0.6], а не в [-1, 1].
	perlinSigma = 0.18

	// perlinPeriod - период решётки go-perlin по каждой оси
	perlinPeriod = 256.0
)

// Noise - детерминированный источник шума для генерации ландшафта.
// Оба примитива возвращают значения в диапазоне [0, 1].
type Noise struct {
	seed    int64
	mu      sync.Mutex
	octaves map[int]*perlin.Perlin // Генератор Перлина на каждое число октав
}

// NewNoise создаёт источник шума с указанным сидом
func NewNoise(seed int64) *Noise {
	return &Noise{
		seed:    seed,
		octaves: make(map[int]*perlin.Perlin),
	}
}

// Seed возвращает сид источника
func (n *Noise) Seed() int64 {
	return n.seed
}

func (n *Noise) perlinFor(octaves int) *perlin.Perlin {
	if octaves < 1 {
		octaves = 1
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.octaves[octaves]
	if !ok {
		p = perlin.NewPerlin(perlinAlpha, perlinBeta, int32(octaves), n.seed)
		n.octaves[octaves] = p
	}
	return p
}

// SimplexNoise возвращает многооктавный градиентный шум в точке (x, y, z).
// Сырое значение Перлина нормируется на стандартное отклонение суммы октав
// и переводится в [0, 1] через нормальное распределение, так что значения
// покрывают весь диапазон почти равномерно.
func (n *Noise) SimplexNoise(octaves int, x, y, z float64) float64 {
	if octaves < 1 {
		octaves = 1
	}

	// Noise3D переходит на 2D шум при z < 0, поэтому координаты сворачиваются
	// в период решётки: при beta = 2 значения всех октав не меняются.
	raw := n.perlinFor(octaves).Noise3D(wrapPeriod(x), wrapPeriod(y), wrapPeriod(z))
	return clamp01(0.5 * (1 + math.Erf(raw/(octaveSigma(octaves)*math.Sqrt2))))
}

// octaveSigma - стандартное отклонение суммы octaves независимых октав
// с весами 1, 1/alpha, 1/alpha^2, ...
func octaveSigma(octaves int) float64 {
	decay := 1 / (perlinAlpha * perlinAlpha)
	sum := (1 - math.Pow(decay, float64(octaves))) / (1 - decay)
	return perlinSigma * math.Sqrt(sum)
}

func wrapPeriod(v float64) float64 {
	v = math.Mod(v, perlinPeriod)
	if v < 0 {
		v += perlinPeriod
	}
	return v
}

// ValueNoise возвращает решёточный value-шум в [0, 1]: значения в узлах решётки
// берутся из хэша координат узла, между узлами - трилинейная интерполяция
// со сглаживанием.
func (n *Noise) ValueNoise(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	ix, iy, iz := int64(fx), int64(fy), int64(fz)

	tx := smoothstep(x - fx)
	ty := smoothstep(y - fy)
	tz := smoothstep(z - fz)

	c000 := n.lattice(ix, iy, iz)
	c100 := n.lattice(ix+1, iy, iz)
	c010 := n.lattice(ix, iy+1, iz)
	c110 := n.lattice(ix+1, iy+1, iz)
	c001 := n.lattice(ix, iy, iz+1)
	c101 := n.lattice(ix+1, iy, iz+1)
	c011 := n.lattice(ix, iy+1, iz+1)
	c111 := n.lattice(ix+1, iy+1, iz+1)

	x00 := lerp(tx, c000, c100)
	x10 := lerp(tx, c010, c110)
	x01 := lerp(tx, c001, c101)
	x11 := lerp(tx, c011, c111)

	y0 := lerp(ty, x00, x10)
	y1 := lerp(ty, x01, x11)

	return lerp(tz, y0, y1)
}

// lattice возвращает псевдослучайное значение узла решётки в [0, 1)
func (n *Noise) lattice(x, y, z int64) float64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(n.seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(x))
	binary.LittleEndian.PutUint64(buf[16:], uint64(y))
	binary.LittleEndian.PutUint64(buf[24:], uint64(z))

	h := xxhash.Sum64(buf[:])
	return float64(h>>11) / float64(uint64(1)<<53)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
