package models

import "time"

// PointSample representa um único ponto medido dentro de um frame
type PointSample struct {
	Channel   int     `json:"channel"`   // Canal (plano de varredura) do ponto
	Distance  float64 `json:"distance"`  // Distância em metros (resolução de 2 casas)
	Azimuth   float64 `json:"azimuth"`   // Ângulo horizontal em graus, relativo à frente
	Detection byte    `json:"detection"` // Byte de detecção do bloco opcional
	Index     int     `json:"index"`     // Índice do ponto dentro do frame
}

// LidarFrame armazena o resultado decodificado de um datagrama de distância
type LidarFrame struct {
	Model         string        `json:"model"`       // Nome do modelo (ex: VL-R4)
	Channels      int           `json:"channels"`    // Número de canais do modelo
	HFov          float64       `json:"hfov"`        // Campo de visão horizontal em graus
	Channel       int           `json:"channel"`     // Canal deste frame (0-15)
	Points        []PointSample `json:"points"`      // Pontos válidos, ordenados por índice
	VerticalAngle float64       `json:"vfov"`        // Ângulo vertical fixo do canal
	InvalidPoints int           `json:"-"`           // Pontos descartados (distância <= 0)
	SourceIP      string        `json:"source_ip"`   // IP de origem do datagrama
	LidarID       byte          `json:"lidar_id"`    // ID opaco do dispositivo
	ProductLine   byte          `json:"productLine"` // Byte de linha de produto
	Timestamp     time.Time     `json:"timestamp"`   // Momento da recepção
}

// MaxDistance retorna a maior distância entre os pontos do frame
func (f *LidarFrame) MaxDistance() float64 {
	max := 0.0
	for _, p := range f.Points {
		if p.Distance > max {
			max = p.Distance
		}
	}
	return max
}

// ScanStatus representa o estado atual do controlador de escaneamento
type ScanStatus struct {
	Scanning       bool      `json:"scanning"`
	MulticastGroup string    `json:"multicastGroup"`
	ListenPort     int       `json:"listenPort"`
	Timestamp      time.Time `json:"timestamp"`
}

// PipelineStats agrega os contadores de diagnóstico do pipeline de ingestão
type PipelineStats struct {
	PacketsReceived int64 `json:"packetsReceived"` // Datagramas lidos do socket
	BadHeader       int64 `json:"badHeader"`       // Rejeições por cabeçalho inválido
	NotDistanceData int64 `json:"notDistanceData"` // Rejeições por comando não suportado
	Truncated       int64 `json:"truncated"`       // Rejeições por datagrama incompleto
	ChecksumErrors  int64 `json:"checksumErrors"`  // Rejeições por checksum inválido
	InvalidPoints   int64 `json:"invalidPoints"`   // Pontos com distância <= 0
	RateLimited     int64 `json:"rateLimited"`     // Frames suprimidos pelo limitador
	QueueDrops      int64 `json:"queueDrops"`      // Frames descartados por fila cheia
	FramesBroadcast int64 `json:"framesBroadcast"` // Frames entregues ao hub
	SocketErrors    int64 `json:"socketErrors"`    // Erros de leitura não fatais
}
