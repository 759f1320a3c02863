package metrics

import (
	"time"

	"github.com/annel0/zoneworld/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// WorldMetrics экспортирует события стриминга зон в Prometheus.
// Реализует world.Metrics.
type WorldMetrics struct {
	generated  *prometheus.CounterVec
	buildTime  prometheus.Histogram
	evicted    prometheus.Counter
	resident   prometheus.Gauge
	edits      prometheus.Counter
	selections *prometheus.CounterVec
}

// NewWorldMetrics создаёт метрики и регистрирует их в reg.
// nil означает глобальный регистр; повторная регистрация не считается ошибкой.
func NewWorldMetrics(namespace string, reg prometheus.Registerer) *WorldMetrics {
	m := &WorldMetrics{
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zones_built_total",
			Help:      "Число построений зон: новые и повторно загруженные.",
		}, []string{"kind"}),
		buildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "zone_build_seconds",
			Help:      "Длительность построения одной зоны.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zones_evicted_total",
			Help:      "Число зон, выгруженных из памяти.",
		}),
		resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zones_resident",
			Help:      "Зоны с выделенным хранилищем блоков.",
		}),
		edits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_edits_total",
			Help:      "Правки блоков, сделанные игроком.",
		}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_updates_total",
			Help:      "Пересчёты выделения по лучу зрителя.",
		}, []string{"result"}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		m.generated, m.buildTime, m.evicted, m.resident, m.edits, m.selections,
	}
	for i, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				logging.Warn("Не удалось зарегистрировать метрику: %v", err)
				continue
			}
			// Забираем уже зарегистрированный коллектор, чтобы счётчики не расходились
			collectors[i] = are.ExistingCollector
		}
	}
	m.adopt(collectors)
	return m
}

func (m *WorldMetrics) adopt(c []prometheus.Collector) {
	if v, ok := c[0].(*prometheus.CounterVec); ok {
		m.generated = v
	}
	if v, ok := c[1].(prometheus.Histogram); ok {
		m.buildTime = v
	}
	if v, ok := c[2].(prometheus.Counter); ok {
		m.evicted = v
	}
	if v, ok := c[3].(prometheus.Gauge); ok {
		m.resident = v
	}
	if v, ok := c[4].(prometheus.Counter); ok {
		m.edits = v
	}
	if v, ok := c[5].(*prometheus.CounterVec); ok {
		m.selections = v
	}
}

// ZoneGenerated учитывает построение зоны
func (m *WorldMetrics) ZoneGenerated(took time.Duration, rebuilt bool) {
	kind := "new"
	if rebuilt {
		kind = "rebuilt"
	}
	m.generated.WithLabelValues(kind).Inc()
	m.buildTime.Observe(took.Seconds())
}

// ZonesEvicted учитывает выгрузку n зон
func (m *WorldMetrics) ZonesEvicted(n int) {
	m.evicted.Add(float64(n))
}

// ResidentZones обновляет число резидентных зон
func (m *WorldMetrics) ResidentZones(n int) {
	m.resident.Set(float64(n))
}

// PlayerEdit учитывает правку игрока
func (m *WorldMetrics) PlayerEdit() {
	m.edits.Inc()
}

// SelectionUpdated учитывает результат трассировки выделения
func (m *WorldMetrics) SelectionUpdated(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.selections.WithLabelValues(result).Inc()
}
