package engine

import (
	"context"
	"sync"

	"github.com/annel0/zoneworld/internal/logging"
	"github.com/annel0/zoneworld/internal/world"
	"github.com/annel0/zoneworld/internal/world/block"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/zoneworld/internal/engine"

// frameStarter реализуют рендереры, которым нужно знать границу кадра
type frameStarter interface {
	BeginFrame()
}

// Session связывает мир с рендерером. Мир однопоточный, поэтому все обращения
// к нему идут через мьютекс сессии: игровой цикл и отладочный API.
type Session struct {
	mu       sync.Mutex
	world    *world.World
	renderer Renderer
	tracer   trace.Tracer
	logger   *logging.Logger

	last  world.Frame
	ticks uint64
}

// NewSession создаёт сессию; renderer может быть nil
func NewSession(w *world.World, renderer Renderer) *Session {
	return &Session{
		world:    w,
		renderer: renderer,
		tracer:   otel.Tracer(tracerName),
		logger:   logging.GetEngineLogger(),
	}
}

// Tick выполняет один кадр: стриминг зон, отрисовку видимых зон и подсветку выделения
func (s *Session) Tick(ctx context.Context, cam Camera) world.Frame {
	_, span := s.tracer.Start(ctx, "engine.Tick")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	frame := s.world.Update(cam.View(s.world.Ray()))
	s.ticks++
	s.last = frame

	if s.renderer != nil {
		if fs, ok := s.renderer.(frameStarter); ok {
			fs.BeginFrame()
		}
		for _, z := range frame.Visible {
			s.renderer.DrawZone(z)
		}
		if frame.Selection.HasSelection {
			s.renderer.HighlightBlock(frame.Selection.Selected)
		}
	}

	span.SetAttributes(
		attribute.Int("zone.viewer_x", frame.Viewer.X),
		attribute.Int("zone.viewer_z", frame.Viewer.Z),
		attribute.Int("zones.visible", len(frame.Visible)),
		attribute.Int("zones.generated", frame.Generated),
		attribute.Int("zones.rebuilt", frame.Rebuilt),
		attribute.Int("zones.evicted", frame.Evicted),
		attribute.Bool("selection.hit", frame.Selection.HasSelection),
	)

	if frame.Generated > 0 || frame.Rebuilt > 0 {
		s.logger.Debug("Tick %d: viewer %s, generated %d, rebuilt %d, visible %d",
			s.ticks, frame.Viewer, frame.Generated, frame.Rebuilt, len(frame.Visible))
	}
	return frame
}

// LastFrame возвращает результат последнего кадра и число кадров
func (s *Session) LastFrame() (world.Frame, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.ticks
}

// Place ставит блок перед выделенным блоком
func (s *Session) Place(v block.Value) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.PlaceAtSelection(v)
}

// Remove убирает выделенный блок
func (s *Session) Remove() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.RemoveSelected()
}

// Inspect выполняет fn под блокировкой сессии. fn не должна сохранять ссылки на зоны.
func (s *Session) Inspect(fn func(w *world.World)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.world)
}
