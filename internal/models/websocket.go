package models

import "time"

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`            // Tipo da mensagem: "lidar", "scan_status", "pong", etc.
	Timestamp time.Time   `json:"timestamp"`       // Timestamp da mensagem
	Data      interface{} `json:"data,omitempty"`  // Dados adicionais específicos do tipo
	Error     string      `json:"error,omitempty"` // Mensagem de erro, se houver
}

// LidarMessage é a mensagem primária de dados, um frame decodificado por envio
type LidarMessage struct {
	WebSocketMessage
	Model          string    `json:"model"`
	PointSize      int       `json:"pointsize"`
	Channel        int       `json:"channel"`
	HFov           float64   `json:"hfov"`
	VerticalAngles []float64 `json:"vertical_angle"`
	Distances      []float64 `json:"distances"`
	Azimuths       []float64 `json:"azimuth"`
	Detections     []int     `json:"detection_data"`
	Max            float64   `json:"max"`
	SourceIP       string    `json:"source_ip"`
	LidarID        string    `json:"lidar_id"`     // Formato "0xNN"
	ProductLine    string    `json:"product_line"` // Formato "0xNN"
}

// ConnectionMessage é enviada a um cliente recém conectado
type ConnectionMessage struct {
	WebSocketMessage
	Message      string       `json:"message"`
	ProtocolInfo ProtocolInfo `json:"protocol_info"`
	Instructions string       `json:"instructions"`
}

// ProtocolInfo descreve o protocolo do sensor e a configuração de escuta
type ProtocolInfo struct {
	Version        string `json:"version"`
	Encoding       string `json:"encoding"`
	Communication  string `json:"communication"`
	MulticastGroup string `json:"multicast_group"`
	ListenPort     int    `json:"listen_port"`
}

// ScanStatusMessage responde aos comandos start_scan e stop_scan
type ScanStatusMessage struct {
	WebSocketMessage
	Status          string   `json:"status"`
	Scanning        bool     `json:"scanning"`
	ListenPort      int      `json:"listen_port,omitempty"`
	MulticastGroup  string   `json:"multicast_group,omitempty"`
	SupportedModels []string `json:"supported_models,omitempty"`
}

// StatusResponseMessage responde ao comando get_status
type StatusResponseMessage struct {
	WebSocketMessage
	Status           string            `json:"status"`
	Scanning         bool              `json:"scanning"`
	ListenPort       int               `json:"listen_port"`
	MulticastGroup   string            `json:"multicast_group"`
	Protocol         string            `json:"protocol"`
	SupportedModels  map[string]string `json:"supported_models"`
	ConnectedClients int               `json:"connected_clients"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string      `json:"type"`             // Verbo: "start_scan", "stop_scan", "get_status", "ping"
	Params interface{} `json:"params,omitempty"` // Parâmetros adicionais
	ID     string      `json:"id,omitempty"`     // ID opcional para correlacionar solicitações/respostas
}

// ClientCommand representa um comando encaminhado ao hub
type ClientCommand struct {
	Command  string      `json:"command"`
	Params   interface{} `json:"params,omitempty"`
	ClientID string      `json:"-"` // Usado internamente, não enviado no JSON
}

// PingMessage representa um ping enviado pelo cliente
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"` // Timestamp em milissegundos
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`       // Timestamp original do ping
	ServerTime int64 `json:"serverTime"` // Timestamp do servidor em milissegundos
}
