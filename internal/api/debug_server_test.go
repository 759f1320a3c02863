package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/zoneworld/internal/engine"
	"github.com/annel0/zoneworld/internal/world"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatGenerator struct{}

func (flatGenerator) Sample(_, y, _ int) block.Value {
	if y < 64 {
		return block.NewValue(block.StoneID, 0)
	}
	return block.Air
}

type testEnv struct {
	server  *DebugServer
	session *engine.Session
	camera  engine.Camera
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	w := world.NewWorld(block.NewDefaultCatalog(), flatGenerator{})
	require.NoError(t, w.SetGridSize(1, 0))

	renderer := engine.NewHeadlessRenderer(false)
	session := engine.NewSession(w, renderer)

	cam := engine.NewCamera(mgl64.Vec3{8.5, 68.5, 8.5})
	cam.Pitch = -89
	session.Tick(context.Background(), cam)

	server := NewDebugServer(Config{
		Session:  session,
		Renderer: renderer,
		Registry: prometheus.NewRegistry(),
	})
	return &testEnv{server: server, session: session, camera: cam}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)

	var resp GenericResponse
	if strings.HasPrefix(path, "/api") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func dataMap(t *testing.T, resp GenericResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "Data: %#v", resp.Data)
	return m
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestZonesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/zones", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := dataMap(t, resp)
	assert.Equal(t, 1.0, data["count"])
	zones := data["zones"].([]interface{})
	require.Len(t, zones, 1)
	zone := zones[0].(map[string]interface{})
	assert.Equal(t, true, zone["resident"])
	assert.Equal(t, 1.0, zone["builds"])
	assert.Equal(t, map[string]interface{}{"x": 0.0, "z": 0.0}, data["viewer"])
}

func TestBlockEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/block?x=3&y=10&z=4", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "stone", data["name"])
	assert.Equal(t, true, data["selectable"])

	// Зона не загружена: воздух, без генерации
	_, resp = env.do(t, http.MethodGet, "/api/block?x=-500&y=10&z=4", "")
	assert.Equal(t, "air", dataMap(t, resp)["name"])
	env.session.Inspect(func(w *world.World) {
		assert.Len(t, w.Zones(), 1)
	})

	w, resp = env.do(t, http.MethodGet, "/api/block?x=1&y=abc&z=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestSelectionPlaceAndRemove(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodGet, "/api/selection", "")
	data := dataMap(t, resp)
	selected := data["selected"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"x": 8.0, "y": 63.0, "z": 8.0}, selected["pos"])
	assert.Equal(t, map[string]interface{}{"x": 8.0, "y": 64.0, "z": 8.0}, data["place_at"])

	w, _ := env.do(t, http.MethodPost, "/api/selection/place", `{"id": 300}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = env.do(t, http.MethodPost, "/api/selection/place", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = env.do(t, http.MethodPost, "/api/selection/place", `{"id": 3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	w, _ = env.do(t, http.MethodPost, "/api/selection/place", `{"id": 3}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	_, resp = env.do(t, http.MethodGet, "/api/block?x=8&y=64&z=8", "")
	assert.Equal(t, "planks", dataMap(t, resp)["name"])

	w, _ = env.do(t, http.MethodPost, "/api/selection/remove", "")
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodPost, "/api/selection/remove", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	_, resp = env.do(t, http.MethodGet, "/api/block?x=8&y=63&z=8", "")
	assert.Equal(t, "air", dataMap(t, resp)["name"])
}

func TestStatsAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, resp)
	worldStats := data["world"].(map[string]interface{})
	assert.Equal(t, 1.0, worldStats["zones_resident"])
	assert.Equal(t, 1.0, worldStats["ticks"])
	renderer := data["renderer"].(map[string]interface{})
	assert.Equal(t, 1.0, renderer["zones_drawn"])
	assert.Contains(t, data, "server")

	w, _ = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "debug_api_http_request_duration_seconds")
}
