package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"lidar_go/internal/lidar"
	"lidar_go/internal/models"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

// NewLidarMessage converte um frame decodificado para o formato JSON enviado
// aos clientes. Os pontos são achatados em arrays paralelos (distância,
// azimute, detecção) para facilitar o consumo em visualizadores.
func NewLidarMessage(frame *models.LidarFrame) *models.LidarMessage {
	n := len(frame.Points)
	distances := make([]float64, n)
	azimuths := make([]float64, n)
	detections := make([]int, n)
	verticalAngles := make([]float64, n)

	for i, p := range frame.Points {
		distances[i] = p.Distance
		azimuths[i] = p.Azimuth
		detections[i] = int(p.Detection)
		verticalAngles[i] = frame.VerticalAngle
	}

	return &models.LidarMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "lidar",
			Timestamp: frame.Timestamp,
		},
		Model:          frame.Model,
		PointSize:      n,
		Channel:        frame.Channel,
		HFov:           frame.HFov,
		VerticalAngles: verticalAngles,
		Distances:      distances,
		Azimuths:       azimuths,
		Detections:     detections,
		Max:            frame.MaxDistance(),
		SourceIP:       frame.SourceIP,
		LidarID:        fmt.Sprintf("0x%02X", frame.LidarID),
		ProductLine:    fmt.Sprintf("0x%02X", frame.ProductLine),
	}
}

// NewScanStatusMessage cria uma mensagem de mudança de estado do scan
func NewScanStatusMessage(status string, scanStatus models.ScanStatus) *models.ScanStatusMessage {
	return &models.ScanStatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "scan_status",
			Timestamp: time.Now(),
		},
		Status:          status,
		Scanning:        scanStatus.Scanning,
		ListenPort:      scanStatus.ListenPort,
		MulticastGroup:  scanStatus.MulticastGroup,
		SupportedModels: lidar.SupportedModels(),
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      "error",
		Timestamp: time.Now(),
		Error:     message,
		Data: map[string]string{
			"code": errorCode,
		},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	err := json.Unmarshal(data, &command)
	return command, err
}

// CreatePongResponse cria uma resposta para um ping do cliente
func CreatePongResponse(pingTime int64) *models.PongMessage {
	return &models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: time.Now().UnixNano() / int64(time.Millisecond),
	}
}
