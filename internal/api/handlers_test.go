package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lidar_go/internal/config"
	"lidar_go/internal/lidar"
)

func newTestRouter() *Router {
	cfg := config.LidarConfig{
		MulticastGroup:    "224.0.0.5",
		ListenPort:        5000,
		RateLimitInterval: 50 * time.Millisecond,
	}

	service := lidar.NewService(cfg, nil, nil)
	router := NewRouter(service, nil, "/api")
	router.Setup()
	return router
}

func doRequest(t *testing.T, router *Router, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var body map[string]interface{}
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	}
	return recorder, body
}

func TestGetStatusEndpoint(t *testing.T) {
	router := newTestRouter()

	recorder, body := doRequest(t, router, http.MethodGet, "/api/status")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "IDLE", body["status"])
	assert.Equal(t, false, body["scanning"])
	assert.Equal(t, "224.0.0.5", body["multicast_group"])
	assert.Equal(t, float64(5000), body["listen_port"])
}

func TestGetStatsEndpoint(t *testing.T) {
	router := newTestRouter()

	recorder, body := doRequest(t, router, http.MethodGet, "/api/stats")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, float64(0), body["packets_received"])
	assert.Equal(t, float64(0), body["frames_broadcast"])
	assert.Contains(t, body, "checksum_errors")
	assert.Contains(t, body, "queue_drops")
}

func TestGetCurrentDataWithoutFrames(t *testing.T) {
	router := newTestRouter()

	recorder, body := doRequest(t, router, http.MethodGet, "/api/current")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.NotEmpty(t, body["error"])
}

func TestGetModelsEndpoint(t *testing.T) {
	router := newTestRouter()

	recorder, body := doRequest(t, router, http.MethodGet, "/api/models")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, body, "VL-R2")
	assert.Contains(t, body, "VL-R4")
	assert.Contains(t, body, "VL-R270")
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	recorder, body := doRequest(t, router, http.MethodPost, "/api/status")

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	assert.NotEmpty(t, body["error"])
}

func TestCorsPreflight(t *testing.T) {
	router := newTestRouter()

	recorder, _ := doRequest(t, router, http.MethodOptions, "/api/status")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}
