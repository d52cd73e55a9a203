package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lidar_go/internal/config"
	"lidar_go/internal/models"
)

// fakeController registra as transições solicitadas pelos comandos
type fakeController struct {
	scanning bool
	starts   int
	stops    int
}

func (c *fakeController) StartScan() error {
	c.starts++
	c.scanning = true
	return nil
}

func (c *fakeController) StopScan() {
	c.stops++
	c.scanning = false
}

func (c *fakeController) Status() models.ScanStatus {
	return models.ScanStatus{
		Scanning:       c.scanning,
		MulticastGroup: "224.0.0.5",
		ListenPort:     5000,
		Timestamp:      time.Now(),
	}
}

func newRunningHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(config.LidarConfig{
		MulticastGroup: "224.0.0.5",
		ListenPort:     5000,
	})
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	return hub
}

func registerTestClient(t *testing.T, hub *Hub) *Client {
	t.Helper()

	client := newClient(hub, nil, "test-agent", "127.0.0.1")
	before := hub.ClientCount()
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == before+1
	}, time.Second, 5*time.Millisecond)

	return client
}

// nextMessageOfType lê do buffer de envio do cliente até encontrar uma
// mensagem do tipo esperado, ignorando pings e outras intercaladas
func nextMessageOfType(t *testing.T, client *Client, msgType string) map[string]interface{} {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw, ok := <-client.send:
			require.True(t, ok, "canal de envio fechado antes de receber %q", msgType)

			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &decoded))
			if decoded["type"] == msgType {
				return decoded
			}
		case <-deadline:
			t.Fatalf("nenhuma mensagem do tipo %q recebida", msgType)
		}
	}
}

func testFrame() *models.LidarFrame {
	return &models.LidarFrame{
		Model:         "VL-R2",
		Channels:      2,
		HFov:          120,
		Channel:       1,
		VerticalAngle: 0.5,
		SourceIP:      "192.168.1.10",
		LidarID:       0x01,
		ProductLine:   0x03,
		Timestamp:     time.Now(),
		Points: []models.PointSample{
			{Channel: 1, Distance: 1.25, Azimuth: -60, Detection: 10, Index: 0},
			{Channel: 1, Distance: 3.5, Azimuth: 60, Detection: 20, Index: 359},
		},
	}
}

func TestHubSendsWelcomeOnRegister(t *testing.T) {
	hub := newRunningHub(t)
	client := registerTestClient(t, hub)

	welcome := nextMessageOfType(t, client, "connection")

	info, ok := welcome["protocol_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "224.0.0.5", info["multicast_group"])
	assert.Equal(t, float64(5000), info["listen_port"])
	assert.Equal(t, "Big Endian", info["encoding"])
}

func TestHubBroadcastsFrameToAllClients(t *testing.T) {
	hub := newRunningHub(t)

	clients := []*Client{
		registerTestClient(t, hub),
		registerTestClient(t, hub),
		registerTestClient(t, hub),
	}

	hub.BroadcastFrame(testFrame())

	for _, client := range clients {
		msg := nextMessageOfType(t, client, "lidar")

		assert.Equal(t, "VL-R2", msg["model"])
		assert.Equal(t, float64(2), msg["pointsize"])
		assert.Equal(t, float64(1), msg["channel"])
		assert.Equal(t, float64(3.5), msg["max"])
		assert.Equal(t, "0x01", msg["lidar_id"])
		assert.Equal(t, "0x03", msg["product_line"])

		distances, ok := msg["distances"].([]interface{})
		require.True(t, ok)
		assert.Equal(t, []interface{}{1.25, 3.5}, distances)

		detections, ok := msg["detection_data"].([]interface{})
		require.True(t, ok)
		assert.Equal(t, []interface{}{float64(10), float64(20)}, detections)
	}
}

func TestHubRemovesClientWithFullBuffer(t *testing.T) {
	hub := newRunningHub(t)

	healthy := registerTestClient(t, hub)
	stuck := registerTestClient(t, hub)

	// Encher o buffer do cliente travado até a capacidade
	for stuck.trySend([]byte("{}")) {
	}

	hub.BroadcastFrame(testFrame())

	// O cliente travado é removido; o saudável continua recebendo
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	msg := nextMessageOfType(t, healthy, "lidar")
	assert.Equal(t, "VL-R2", msg["model"])
}

func TestReapedClientToleratesLateSends(t *testing.T) {
	hub := newRunningHub(t)

	stuck := registerTestClient(t, hub)
	stuckID := stuck.id

	for stuck.trySend([]byte("{}")) {
	}

	hub.BroadcastFrame(testFrame())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// A conexão do cliente removido ainda está viva: um ping chega pelo
	// readPump depois do canal já ter sido fechado pelo hub
	stuck.processIncomingMessage([]byte(`{"type":"ping","params":{"time":123}}`))

	// Envios tardios pelo hub também não derrubam o processo
	hub.sendToClient(stuckID, NewErrorMessage("tarde demais", "late"))
	stuck.sendErrorMessage("late", "tarde demais")

	// Fechamento repetido é idempotente
	stuck.closeSend()

	assert.False(t, stuck.trySend([]byte("{}")))
}

func TestHubHandlesScanCommands(t *testing.T) {
	hub := newRunningHub(t)
	controller := &fakeController{}
	hub.SetScanController(controller)

	client := registerTestClient(t, hub)

	hub.commands <- models.ClientCommand{Command: "start_scan", ClientID: client.id}
	msg := nextMessageOfType(t, client, "scan_status")
	assert.Equal(t, true, msg["scanning"])
	assert.Equal(t, 1, controller.starts)

	hub.commands <- models.ClientCommand{Command: "stop_scan", ClientID: client.id}
	msg = nextMessageOfType(t, client, "scan_status")
	assert.Equal(t, false, msg["scanning"])
	assert.Equal(t, 1, controller.stops)
}

func TestHubHandlesGetStatus(t *testing.T) {
	hub := newRunningHub(t)
	hub.SetScanController(&fakeController{scanning: true})

	client := registerTestClient(t, hub)

	hub.commands <- models.ClientCommand{Command: "get_status", ClientID: client.id}
	msg := nextMessageOfType(t, client, "status_response")

	assert.Equal(t, true, msg["scanning"])
	assert.Equal(t, "224.0.0.5", msg["multicast_group"])
	assert.Contains(t, msg["protocol"], "Kanavi")

	supported, ok := msg["supported_models"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, supported, "VL-R2")
	assert.Contains(t, supported, "VL-R4")
	assert.Contains(t, supported, "VL-R270")
}

func TestHubRejectsUnknownCommand(t *testing.T) {
	hub := newRunningHub(t)
	hub.SetScanController(&fakeController{})

	client := registerTestClient(t, hub)

	hub.commands <- models.ClientCommand{Command: "reboot", ClientID: client.id}
	msg := nextMessageOfType(t, client, "error")

	assert.Contains(t, msg["error"], "reboot")
}

func TestHubWithoutControllerRespondsWithError(t *testing.T) {
	hub := newRunningHub(t)
	client := registerTestClient(t, hub)

	hub.commands <- models.ClientCommand{Command: "start_scan", ClientID: client.id}
	msg := nextMessageOfType(t, client, "error")

	assert.NotEmpty(t, msg["error"])
}
