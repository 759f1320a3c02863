package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/zoneworld/internal/engine"
	"github.com/annel0/zoneworld/internal/logging"
	"github.com/annel0/zoneworld/internal/middleware"
	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DebugServer - HTTP API для осмотра мира во время работы
type DebugServer struct {
	router     *gin.Engine
	session    *engine.Session
	renderer   *engine.HeadlessRenderer
	port       string
	metrics    *ServerMetrics
	httpServer *http.Server
	logger     *logging.Logger
}

// Config содержит конфигурацию отладочного сервера
type Config struct {
	Port        string                   // адрес для запуска сервера, например ":8089"
	ServiceName string                   // имя сервиса для otel и префикс метрик
	Session     *engine.Session          // сессия мира
	Renderer    *engine.HeadlessRenderer // необязательно: счётчики отрисовки для /stats
	Registry    *prometheus.Registry     // nil - глобальный регистр
}

// GenericResponse - общий формат ответа
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ZoneInfo описывает одну известную зону
type ZoneInfo struct {
	X           int  `json:"x"`
	Z           int  `json:"z"`
	Resident    bool `json:"resident"`
	Builds      int  `json:"builds"`
	PlayerEdits int  `json:"player_edits"`
	Distance    int  `json:"distance"` // До зоны зрителя, в зонах
}

// BlockInfo описывает блок по мировым координатам
type BlockInfo struct {
	Pos        vec.Vec3 `json:"pos"`
	ID         uint8    `json:"id"`
	Aux        uint8    `json:"aux"`
	Name       string   `json:"name"`
	Solid      bool     `json:"solid"`
	Selectable bool     `json:"selectable"`
}

// SelectionInfo - текущее выделение
type SelectionInfo struct {
	Selected *BlockInfo `json:"selected,omitempty"`
	PlaceAt  *vec.Vec3  `json:"place_at,omitempty"`
}

// PlaceRequest - запрос на установку блока перед выделением
type PlaceRequest struct {
	ID  *int `json:"id" binding:"required,min=1,max=255"`
	Aux int  `json:"aux" binding:"min=0,max=255"`
}

// NewDebugServer создает отладочный сервер
func NewDebugServer(config Config) *DebugServer {
	if config.Port == "" {
		config.Port = ":8089"
	}
	if config.ServiceName == "" {
		config.ServiceName = "zoneworld"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger(nil).Handler())

	promMw := middleware.NewPrometheusMiddleware("debug_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &DebugServer{
		router:   router,
		session:  config.Session,
		renderer: config.Renderer,
		port:     config.Port,
		metrics:  NewServerMetrics(),
		logger:   logging.GetAPILogger(),
	}
	server.setupRoutes()
	return server
}

func (ds *DebugServer) setupRoutes() {
	ds.router.GET("/health", ds.handleHealth)

	api := ds.router.Group("/api")
	{
		api.GET("/zones", ds.handleZones)
		api.GET("/block", ds.handleBlock)
		api.GET("/selection", ds.handleSelection)
		api.POST("/selection/place", ds.handlePlace)
		api.POST("/selection/remove", ds.handleRemove)
		api.GET("/stats", ds.handleStats)
	}
}

// Router возвращает gin.Engine (для тестов и встраивания)
func (ds *DebugServer) Router() *gin.Engine {
	return ds.router
}

// Start запускает сервер в отдельной горутине
func (ds *DebugServer) Start() {
	ds.httpServer = &http.Server{
		Addr:              ds.port,
		Handler:           ds.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := ds.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ds.logger.Error("❌ Ошибка отладочного сервера: %v", err)
		}
	}()

	ds.logger.Info("✅ Отладочный API запущен на http://localhost%s", ds.port)
	ds.logger.Info("   GET  /health, /metrics, /api/zones, /api/block, /api/selection, /api/stats")
	ds.logger.Info("   POST /api/selection/place, /api/selection/remove")
}

// Stop останавливает сервер с таймаутом ctx
func (ds *DebugServer) Stop(ctx context.Context) error {
	if ds.httpServer == nil {
		return nil
	}
	ds.logger.Info("🛑 Остановка отладочного API...")
	return ds.httpServer.Shutdown(ctx)
}

func (ds *DebugServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (ds *DebugServer) handleZones(c *gin.Context) {
	var zones []ZoneInfo
	var viewer world.ZoneCoord
	var hasViewer bool

	ds.session.Inspect(func(w *world.World) {
		viewer, hasViewer = w.ViewerZone()
		coords := w.Zones()
		zones = make([]ZoneInfo, 0, len(coords))
		for _, coord := range coords {
			z := w.ZoneAt(coord)
			zones = append(zones, ZoneInfo{
				X:           coord.X,
				Z:           coord.Z,
				Resident:    z.Resident(),
				Builds:      z.Builds(),
				PlayerEdits: z.PlayerEdits(),
				Distance:    coord.Distance(viewer),
			})
		}
	})

	if c.Query("resident") == "true" {
		filtered := zones[:0]
		for _, z := range zones {
			if z.Resident {
				filtered = append(filtered, z)
			}
		}
		zones = filtered
	}

	data := gin.H{"zones": zones, "count": len(zones)}
	if hasViewer {
		data["viewer"] = gin.H{"x": viewer.X, "z": viewer.Z}
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Зоны получены", Data: data})
}

func blockInfo(w *world.World, p vec.Vec3) BlockInfo {
	v := w.BlockAt(p.X, p.Y, p.Z)
	props := w.Catalog().PropertiesOf(v)
	return BlockInfo{
		Pos:        p,
		ID:         uint8(v.ID()),
		Aux:        v.Aux(),
		Name:       props.Name,
		Solid:      props.Solid,
		Selectable: props.Selectable,
	}
}

func (ds *DebugServer) handleBlock(c *gin.Context) {
	var p vec.Vec3
	for _, q := range []struct {
		name string
		dst  *int
	}{{"x", &p.X}, {"y", &p.Y}, {"z", &p.Z}} {
		v, err := strconv.Atoi(c.Query(q.name))
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Параметр " + q.name + " должен быть целым числом",
			})
			return
		}
		*q.dst = v
	}

	var info BlockInfo
	ds.session.Inspect(func(w *world.World) {
		info = blockInfo(w, p)
	})
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок получен", Data: info})
}

func (ds *DebugServer) selectionInfo() SelectionInfo {
	var info SelectionInfo
	ds.session.Inspect(func(w *world.World) {
		sel := w.Selection()
		if sel.HasSelection {
			b := blockInfo(w, sel.Selected)
			info.Selected = &b
		}
		if sel.HasPlaceAt {
			p := sel.PlaceAt
			info.PlaceAt = &p
		}
	})
	return info
}

func (ds *DebugServer) handleSelection(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Выделение получено", Data: ds.selectionInfo()})
}

func (ds *DebugServer) handlePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат данных: " + err.Error(),
		})
		return
	}

	v := block.NewValue(block.ID(*req.ID), uint8(req.Aux))
	if !ds.session.Place(v) {
		c.JSON(http.StatusConflict, GenericResponse{Success: false, Message: "Нет ячейки для установки блока"})
		return
	}

	ds.logger.Info("Блок %d установлен через отладочный API", *req.ID)
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен", Data: ds.selectionInfo()})
}

func (ds *DebugServer) handleRemove(c *gin.Context) {
	if !ds.session.Remove() {
		c.JSON(http.StatusConflict, GenericResponse{Success: false, Message: "Нет выделенного блока"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок удалён"})
}

func (ds *DebugServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	var known, resident, bytes int
	ds.session.Inspect(func(w *world.World) {
		known = len(w.Zones())
		resident = w.ResidentCount()
		bytes = w.ResidentBytes()
	})
	_, ticks := ds.session.LastFrame()

	stats["world"] = map[string]interface{}{
		"zones_known":    known,
		"zones_resident": resident,
		"resident_mb":    float64(bytes) / 1024 / 1024,
		"ticks":          ticks,
	}
	if ds.renderer != nil {
		stats["renderer"] = ds.renderer.Stats()
	}

	server := map[string]interface{}{
		"uptime":      ds.metrics.GetUptime(),
		"server_time": time.Now().Unix(),
	}
	if rss, err := ds.metrics.GetRSS(); err == nil {
		server["rss_mb"] = rss
	}
	if cpu, err := ds.metrics.GetCPUUsage(); err == nil {
		server["cpu_percent"] = cpu
	}
	stats["server"] = server
	stats["memory_details"] = ds.metrics.GetDetailedMemoryStats()

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика получена", Data: stats})
}
