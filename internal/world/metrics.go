package world

import "time"

// Metrics получает события мира для экспорта наружу
type Metrics interface {
	ZoneGenerated(took time.Duration, rebuilt bool)
	ZonesEvicted(n int)
	ResidentZones(n int)
	PlayerEdit()
	SelectionUpdated(hit bool)
}

type noopMetrics struct{}

func (noopMetrics) ZoneGenerated(time.Duration, bool) {}
func (noopMetrics) ZonesEvicted(int)                  {}
func (noopMetrics) ResidentZones(int)                 {}
func (noopMetrics) PlayerEdit()                       {}
func (noopMetrics) SelectionUpdated(bool)             {}
