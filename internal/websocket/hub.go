package websocket

import (
	"context"
	"sync"
	"time"

	"lidar_go/internal/config"
	"lidar_go/internal/lidar"
	"lidar_go/internal/models"
	"lidar_go/pkg/logger"
)

// ScanController governa o ciclo de vida do escaneamento em resposta aos
// comandos dos clientes
type ScanController interface {
	StartScan() error
	StopScan()
	Status() models.ScanStatus
}

// Hub gerencia todas as conexões WebSocket e a distribuição de frames
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	// Controlador de escaneamento, definido após a construção
	scanController ScanController
	controllerLock sync.RWMutex

	// Configuração do sensor, ecoada nas mensagens de status
	lidarConfig config.LidarConfig

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub(lidarConfig config.LidarConfig) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan []byte, 256), // Buffer para não bloquear o loop de drenagem
		commands:    make(chan models.ClientCommand, 100),
		lidarConfig: lidarConfig,
		ctx:         ctx,
		cancel:      cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetScanController define o controlador de escaneamento usado pelos comandos
func (h *Hub) SetScanController(sc ScanController) {
	h.controllerLock.Lock()
	defer h.controllerLock.Unlock()
	h.scanController = sc
}

// getScanController retorna o controlador atual, se definido
func (h *Hub) getScanController() ScanController {
	h.controllerLock.RLock()
	defer h.controllerLock.RUnlock()
	return h.scanController
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	logger.Info("Iniciando WebSocket Hub")

	// Ticker para estatísticas periódicas
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker para manter conexões ativas
	keepAliveTicker := time.NewTicker(5 * time.Second)
	defer keepAliveTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			// Contexto cancelado, encerrar o hub
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			// Registrar novo cliente
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			// Atualizar estatísticas
			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			// Enviar mensagem de boas-vindas com metadados do protocolo
			go h.sendWelcome(client)

		case client := <-h.unregister:
			// Desregistrar cliente
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()

				logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			// Enviar mensagem para todos os clientes
			h.mu.RLock()
			clientCount := len(h.clients)

			// Atualizar estatísticas
			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			if clientCount == 0 {
				h.mu.RUnlock()
				continue // Nenhum cliente conectado, frame é descartado
			}

			// Fan-out independente por cliente
			deadClients := make([]*Client, 0, 4)

			for client := range h.clients {
				if !client.trySend(message) {
					// Buffer do cliente está cheio, marcar para desconexão
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			// Remover clientes mortos diretamente; reenviar para o canal
			// unregister travaria o próprio loop
			if len(deadClients) > 0 {
				h.mu.Lock()
				for _, client := range deadClients {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						client.closeSend()
						logger.Infof("Cliente WebSocket removido por buffer cheio. ID: %s. Total: %d",
							client.id, len(h.clients))
					}
				}
				h.mu.Unlock()
			}

		case cmd := <-h.commands:
			// Processar comando de um cliente
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			// Calcular taxa de mensagens por segundo
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}

			// Resetar contador para próximo cálculo
			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()

			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()

			logger.Infof("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				clientCount, mps, total)

		case <-keepAliveTicker.C:
			// Enviar ping para todos os clientes para manter conexões ativas
			h.sendPingToAllClients()
		}
	}
}

// BroadcastFrame envia um frame decodificado para todos os clientes
func (h *Hub) BroadcastFrame(frame *models.LidarFrame) {
	message := NewLidarMessage(frame)

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de frame", err)
	}
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	switch cmd.Command {
	case "start_scan":
		h.handleStartScan(cmd.ClientID)
	case "stop_scan":
		h.handleStopScan(cmd.ClientID)
	case "get_status":
		h.handleGetStatus(cmd.ClientID)
	default:
		logger.Warnf("Comando desconhecido: %s", cmd.Command)
		h.sendToClient(cmd.ClientID, NewErrorMessage(
			"Comando não suportado: "+cmd.Command, "unknown_command"))
	}
}

// handleStartScan inicia o escaneamento e responde ao cliente solicitante
func (h *Hub) handleStartScan(clientID string) {
	sc := h.getScanController()
	if sc == nil {
		h.sendToClient(clientID, NewErrorMessage("Controlador de escaneamento indisponível", "no_controller"))
		return
	}

	if err := sc.StartScan(); err != nil {
		h.sendToClient(clientID, NewErrorMessage(
			"Erro ao iniciar escaneamento: "+err.Error(), "start_failed"))
		return
	}

	h.sendToClient(clientID, NewScanStatusMessage(
		"Escaneamento do lidar Kanavi iniciado", sc.Status()))
}

// handleStopScan encerra o escaneamento e responde ao cliente solicitante
func (h *Hub) handleStopScan(clientID string) {
	sc := h.getScanController()
	if sc == nil {
		h.sendToClient(clientID, NewErrorMessage("Controlador de escaneamento indisponível", "no_controller"))
		return
	}

	sc.StopScan()

	h.sendToClient(clientID, NewScanStatusMessage(
		"Escaneamento do lidar Kanavi encerrado", sc.Status()))
}

// handleGetStatus envia um snapshot do estado atual ao cliente solicitante
func (h *Hub) handleGetStatus(clientID string) {
	sc := h.getScanController()
	if sc == nil {
		h.sendToClient(clientID, NewErrorMessage("Controlador de escaneamento indisponível", "no_controller"))
		return
	}

	status := sc.Status()
	h.sendToClient(clientID, &models.StatusResponseMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status_response",
			Timestamp: time.Now(),
		},
		Status:           "Servidor do lidar Kanavi VL-Series em operação",
		Scanning:         status.Scanning,
		ListenPort:       status.ListenPort,
		MulticastGroup:   status.MulticastGroup,
		Protocol:         "Kanavi VL-Series Protocol v" + lidar.ProtocolVersion,
		SupportedModels:  lidar.SupportedModelsDetail(),
		ConnectedClients: h.ClientCount(),
	})
}

// sendWelcome envia a mensagem de conexão para um novo cliente
func (h *Hub) sendWelcome(client *Client) {
	welcome := &models.ConnectionMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "connection",
			Timestamp: time.Now(),
		},
		Message: "Conectado ao servidor do lidar Kanavi VL-Series",
		ProtocolInfo: models.ProtocolInfo{
			Version:        lidar.ProtocolVersion,
			Encoding:       "Big Endian",
			Communication:  "Ethernet UDP Multicast",
			MulticastGroup: h.lidarConfig.MulticastGroup,
			ListenPort:     h.lidarConfig.ListenPort,
		},
		Instructions: "Envie 'start_scan' para iniciar o escaneamento",
	}

	if jsonMsg, err := SerializeMessage(welcome); err == nil {
		client.trySend(jsonMsg)
	}
}

// sendToClient envia uma mensagem para um cliente específico
func (h *Hub) sendToClient(clientID string, message interface{}) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	if jsonMsg, err := SerializeMessage(message); err == nil {
		// Cliente removido ou com buffer cheio: a resposta é descartada
		client.trySend(jsonMsg)
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	// Aguardar um pequeno tempo para processamento finalizar
	time.Sleep(100 * time.Millisecond)
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	ping := models.PingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "ping",
			Timestamp: time.Now(),
		},
		Time: time.Now().UnixNano() / int64(time.Millisecond),
	}

	jsonMsg, err := SerializeMessage(ping)
	if err != nil {
		return
	}

	if h.ClientCount() == 0 {
		return
	}

	select {
	case h.broadcast <- jsonMsg:
	default:
		// Buffer de broadcast cheio; o ping é dispensável
	}
}
