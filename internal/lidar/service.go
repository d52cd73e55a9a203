package lidar

import (
	"context"
	"sync"
	"time"

	"lidar_go/internal/config"
	"lidar_go/internal/models"
	"lidar_go/internal/redis"
	"lidar_go/pkg/logger"
)

// drainIdleSleep é a pausa do loop de drenagem quando a fila está vazia
const drainIdleSleep = 10 * time.Millisecond

// Broadcaster entrega frames decodificados às sessões conectadas
type Broadcaster interface {
	BroadcastFrame(frame *models.LidarFrame)
}

// receiverControl abstrai o receptor para permitir testes sem socket real
type receiverControl interface {
	Start() error
	Stop()
	IsRunning() bool
}

// Service é o controlador de escaneamento: a máquina de estados
// IDLE/SCANNING que governa o ciclo de vida do receptor multicast e do
// loop de drenagem. Garante no máximo um receptor ativo.
type Service struct {
	config      config.LidarConfig
	queue       *FrameQueue
	stats       *Stats
	broadcaster Broadcaster
	redis       *redis.Service

	// Fábrica do receptor; substituível em testes
	newReceiver func() receiverControl

	receiver  receiverControl
	scanning  bool
	cancel    context.CancelFunc
	drainDone chan struct{}
	mutex     sync.Mutex

	lastFrame  *models.LidarFrame
	frameMutex sync.RWMutex
}

// NewService cria o serviço de escaneamento do lidar
func NewService(cfg config.LidarConfig, broadcaster Broadcaster, redisService *redis.Service) *Service {
	s := &Service{
		config:      cfg,
		queue:       NewFrameQueue(cfg.QueueCapacity),
		stats:       &Stats{},
		broadcaster: broadcaster,
		redis:       redisService,
	}

	s.newReceiver = func() receiverControl {
		return NewReceiver(
			cfg.MulticastGroup,
			cfg.ListenPort,
			cfg.ReadBuffer,
			NewDecoder(cfg.Debug),
			NewRateLimiter(cfg.RateLimitInterval),
			s.queue,
			s.stats,
		)
	}

	return s
}

// StartScan inicia o receptor e o loop de drenagem. No-op se já está
// escaneando. Falha ao adquirir o socket deixa o estado em IDLE.
func (s *Service) StartScan() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.scanning {
		return nil
	}

	receiver := s.newReceiver()
	if err := receiver.Start(); err != nil {
		logger.Errorf("Erro ao iniciar recepção multicast: %v", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.receiver = receiver
	s.cancel = cancel
	s.drainDone = done
	s.scanning = true

	go s.drainLoop(ctx, done)
	go s.monitorStats(ctx)

	logger.Infof("Escaneamento iniciado (grupo %s, porta %d, limite %v por canal)",
		s.config.MulticastGroup, s.config.ListenPort, s.config.RateLimitInterval)

	s.writeStatus()
	return nil
}

// StopScan encerra o receptor ativo e o loop de drenagem. No-op se ocioso.
func (s *Service) StopScan() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.scanning {
		return
	}

	s.receiver.Stop()
	s.cancel()
	<-s.drainDone

	s.receiver = nil
	s.cancel = nil
	s.drainDone = nil
	s.scanning = false

	logger.Info("Escaneamento encerrado")
	s.writeStatus()
}

// IsScanning verifica se há um escaneamento ativo
func (s *Service) IsScanning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.scanning
}

// Status retorna o estado atual e a configuração estática; leitura pura,
// não causa transição
func (s *Service) Status() models.ScanStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return models.ScanStatus{
		Scanning:       s.scanning,
		MulticastGroup: s.config.MulticastGroup,
		ListenPort:     s.config.ListenPort,
		Timestamp:      time.Now(),
	}
}

// Stats retorna um snapshot dos contadores de diagnóstico
func (s *Service) Stats() models.PipelineStats {
	return s.stats.Snapshot(s.queue.Dropped())
}

// LastFrame retorna o último frame entregue ao hub, se houver
func (s *Service) LastFrame() *models.LidarFrame {
	s.frameMutex.RLock()
	defer s.frameMutex.RUnlock()
	return s.lastFrame
}

// Shutdown encerra o serviço, parando qualquer escaneamento ativo
func (s *Service) Shutdown() {
	s.StopScan()
}

// drainLoop esvazia a fila e entrega cada frame ao hub. Dorme brevemente
// quando a fila está vazia para não ocupar a CPU.
func (s *Service) drainLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	logger.Debug("Loop de drenagem iniciado")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Loop de drenagem encerrado")
			return
		default:
		}

		frames := s.queue.Drain()
		if len(frames) == 0 {
			time.Sleep(drainIdleSleep)
			continue
		}

		for _, frame := range frames {
			s.broadcaster.BroadcastFrame(frame)
			s.stats.AddBroadcast()

			s.frameMutex.Lock()
			s.lastFrame = frame
			s.frameMutex.Unlock()
		}
	}
}

// monitorStats registra periodicamente os contadores do pipeline e
// persiste o snapshot no Redis enquanto o escaneamento está ativo
func (s *Service) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.Stats()
			logger.Infof("Pipeline: %d pacotes, %d frames enviados, %d limitados, %d descartados (fila), %d rejeições de checksum",
				stats.PacketsReceived, stats.FramesBroadcast, stats.RateLimited,
				stats.QueueDrops, stats.ChecksumErrors)

			if s.redis != nil && s.redis.IsConnected() {
				if err := s.redis.WriteStats(stats); err != nil {
					logger.Errorf("Erro ao escrever estatísticas no Redis: %v", err)
				}
			}
		}
	}
}

// writeStatus persiste o estado do escaneamento no Redis, se disponível
func (s *Service) writeStatus() {
	if s.redis == nil || !s.redis.IsConnected() {
		return
	}

	status := models.ScanStatus{
		Scanning:       s.scanning,
		MulticastGroup: s.config.MulticastGroup,
		ListenPort:     s.config.ListenPort,
		Timestamp:      time.Now(),
	}

	if err := s.redis.WriteScanStatus(status); err != nil {
		logger.Errorf("Erro ao escrever status de escaneamento no Redis: %v", err)
	}
}
