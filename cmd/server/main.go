package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/zoneworld/internal/api"
	"github.com/annel0/zoneworld/internal/config"
	"github.com/annel0/zoneworld/internal/engine"
	"github.com/annel0/zoneworld/internal/logging"
	"github.com/annel0/zoneworld/internal/observability"
	"github.com/annel0/zoneworld/internal/storage"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (defaults to $ZONEWORLD_CONFIG)")
		walkSpeed  = flag.Float64("walk-speed", 6, "Scripted camera speed, blocks per second")
		viewerName = flag.String("viewer", "walker", "Viewer name for the saved camera pose")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	err = logging.GetLoggerManager().Configure(logging.Settings{
		Dir:        cfg.Logging.Dir,
		Level:      cfg.Logging.Level,
		Components: cfg.Logging.Components,
	})
	if err != nil {
		log.Fatalf("❌ Ошибка настройки логирования: %v", err)
	}
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🌍 Запуск zoneworld: view=%d, mem=%d, tick=%d/с",
		cfg.World.ViewGridSize, cfg.World.MemGridSize, cfg.World.TickRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	rt, err := engine.Bootstrap(cfg, nil)
	if err != nil {
		logging.Error("❌ Ошибка сборки мира: %v", err)
		os.Exit(1)
	}

	cam := restoreCamera(ctx, rt.Viewers, *viewerName)

	debug := api.NewDebugServer(api.Config{
		Port:        fmt.Sprintf(":%d", cfg.Server.GetDebugPort()),
		ServiceName: cfg.Telemetry.ServiceName,
		Session:     rt.Session,
		Renderer:    rt.Renderer,
	})
	debug.Start()

	runLoop(ctx, rt.Session, &cam, cfg.World.TickRate, *walkSpeed)

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Получен сигнал завершения, остановка...")

	saveCtx, cancelSave := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelSave()
	pose := storage.ViewerPose{X: cam.Position.X(), Y: cam.Position.Y(), Z: cam.Position.Z(), Yaw: cam.Yaw, Pitch: cam.Pitch}
	if err := rt.Viewers.Save(saveCtx, *viewerName, pose); err != nil {
		logging.Warn("Не удалось сохранить позу зрителя: %v", err)
	}

	if err := debug.Stop(saveCtx); err != nil {
		logging.Error("❌ Ошибка остановки отладочного API: %v", err)
	}
	if err := rt.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия хранилища: %v", err)
	}
	if err := shutdownTelemetry(saveCtx); err != nil {
		logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

func restoreCamera(ctx context.Context, viewers storage.ViewerRepo, name string) engine.Camera {
	cam := engine.NewCamera(mgl64.Vec3{8, 200, 8})
	cam.Pitch = -35

	pose, found, err := viewers.Load(ctx, name)
	if err != nil {
		logging.Warn("Не удалось загрузить позу зрителя %q: %v", name, err)
		return cam
	}
	if found {
		cam.Position = mgl64.Vec3{pose.X, pose.Y, pose.Z}
		cam.Yaw, cam.Pitch = pose.Yaw, pose.Pitch
		logging.Info("Поза зрителя %q восстановлена: %v", name, cam.Position)
	}
	return cam
}

// runLoop крутит игровой цикл до отмены ctx. Камера идёт вперёд и плавно
// поворачивает, чтобы зоны догружались и выгружались.
func runLoop(ctx context.Context, session *engine.Session, cam *engine.Camera, tickRate int, speed float64) {
	dt := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	var elapsed float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		step := dt.Seconds()
		elapsed += step
		cam.Walk(speed * step)
		cam.Turn(15*math.Sin(elapsed/20)*step, 0)

		frame := session.Tick(ctx, *cam)
		if frame.Evicted > 0 {
			logging.Info("Зритель в %s: видно %d зон, выгружено %d", frame.Viewer, len(frame.Visible), frame.Evicted)
		}
	}
}
