package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lidar_go/internal/lidar"
	"lidar_go/internal/models"
	"lidar_go/internal/redis"
	"lidar_go/pkg/logger"
)

// Handler contém os handlers HTTP para a API
type Handler struct {
	lidarService *lidar.Service
	redisService *redis.Service
}

// NewHandler cria um novo handler de API
func NewHandler(lidarService *lidar.Service, redisService *redis.Service) *Handler {
	return &Handler{
		lidarService: lidarService,
		redisService: redisService,
	}
}

// GetStatus retorna o estado atual do escaneamento
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var status models.ScanStatus

	// Se o Redis estiver disponível, tentar obter status de lá
	if h.redisService != nil && h.redisService.IsConnected() {
		redisStatus, err := h.redisService.GetScanStatus()
		if err == nil && redisStatus != nil {
			status = *redisStatus
		} else {
			// Fallback para o serviço do lidar
			status = h.lidarService.Status()
		}
	} else {
		// Usar serviço do lidar diretamente
		status = h.lidarService.Status()
	}

	state := "IDLE"
	if status.Scanning {
		state = "SCANNING"
	}

	response := map[string]interface{}{
		"status":          state,
		"scanning":        status.Scanning,
		"multicast_group": status.MulticastGroup,
		"listen_port":     status.ListenPort,
		"protocol":        "Kanavi VL-Series Protocol v" + lidar.ProtocolVersion,
		"timestamp":       status.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetStats retorna os contadores de diagnóstico do pipeline
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	stats := h.lidarService.Stats()

	response := map[string]interface{}{
		"packets_received":  stats.PacketsReceived,
		"bad_header":        stats.BadHeader,
		"not_distance_data": stats.NotDistanceData,
		"truncated":         stats.Truncated,
		"checksum_errors":   stats.ChecksumErrors,
		"invalid_points":    stats.InvalidPoints,
		"rate_limited":      stats.RateLimited,
		"queue_drops":       stats.QueueDrops,
		"frames_broadcast":  stats.FramesBroadcast,
		"socket_errors":     stats.SocketErrors,
		"timestamp":         time.Now().UnixNano() / int64(time.Millisecond),
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetCurrentData retorna um resumo do último frame decodificado
func (h *Handler) GetCurrentData(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	frame := h.lidarService.LastFrame()
	if frame == nil {
		h.respondWithError(w, http.StatusNotFound, "Nenhum dado disponível")
		return
	}

	response := map[string]interface{}{
		"model":        frame.Model,
		"channel":      frame.Channel,
		"point_count":  len(frame.Points),
		"hfov":         frame.HFov,
		"max_distance": frame.MaxDistance(),
		"source_ip":    frame.SourceIP,
		"lidar_id":     fmt.Sprintf("0x%02X", frame.LidarID),
		"product_line": fmt.Sprintf("0x%02X", frame.ProductLine),
		"timestamp":    frame.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetModels retorna os modelos de sensor suportados pelo decodificador
func (h *Handler) GetModels(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, lidar.SupportedModelsDetail())
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		// Se falhar ao codificar JSON, tentar responder com erro simples
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
