package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"lidar_go/internal/config"
	"lidar_go/internal/models"
	"lidar_go/pkg/logger"
)

// Service gerencia a conexão e operações com o Redis. Guarda apenas estado
// operacional (status do escaneamento e contadores de diagnóstico); frames
// nunca são persistidos.
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex
}

// NewService cria um novo serviço Redis
func NewService(cfg config.RedisConfig) (*Service, error) {
	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{
			config:    cfg,
			connected: false,
		}, nil
	}

	// Criar contexto cancelável
	ctx, cancel := context.WithCancel(context.Background())

	// Configurar endereço
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	// Criar cliente Redis
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		prefix: cfg.Prefix,
		config: cfg,
	}

	// Testar conexão
	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		service.connected = false
		return service, nil
	}

	service.connected = true
	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.connected = true
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

// WriteScanStatus escreve o estado atual do escaneamento no Redis
func (s *Service) WriteScanStatus(status models.ScanStatus) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()
	timestamp := status.Timestamp.UnixNano() / int64(time.Millisecond)

	pipe.Set(s.ctx, fmt.Sprintf("%s:scanning", s.prefix), status.Scanning, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:multicast_group", s.prefix), status.MulticastGroup, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:listen_port", s.prefix), status.ListenPort, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix), timestamp, 0)

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever status de escaneamento no Redis: %w", err)
	}

	return nil
}

// WriteStats escreve os contadores de diagnóstico do pipeline no Redis
func (s *Service) WriteStats(stats models.PipelineStats) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	jsonData, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("erro ao serializar estatísticas: %w", err)
	}

	pipe := s.client.Pipeline()

	pipe.Set(s.ctx, fmt.Sprintf("%s:stats", s.prefix), string(jsonData), 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:stats_timestamp", s.prefix),
		time.Now().UnixNano()/int64(time.Millisecond), 0)

	// Contadores individuais para consulta direta
	pipe.Set(s.ctx, fmt.Sprintf("%s:packets_received", s.prefix), stats.PacketsReceived, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:frames_broadcast", s.prefix), stats.FramesBroadcast, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:queue_drops", s.prefix), stats.QueueDrops, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:checksum_errors", s.prefix), stats.ChecksumErrors, 0)

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever estatísticas no Redis: %w", err)
	}

	return nil
}

// GetScanStatus obtém o estado do escaneamento armazenado no Redis
func (s *Service) GetScanStatus() (*models.ScanStatus, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	scanningCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:scanning", s.prefix))
	if scanningCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter status de escaneamento: %w", scanningCmd.Err())
	}

	status := &models.ScanStatus{
		Timestamp: time.Now(),
	}

	scanning, err := scanningCmd.Bool()
	if err == nil {
		status.Scanning = scanning
	}

	if groupCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:multicast_group", s.prefix)); groupCmd.Err() == nil {
		status.MulticastGroup = groupCmd.Val()
	}

	if portCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:listen_port", s.prefix)); portCmd.Err() == nil {
		if port, err := portCmd.Int(); err == nil {
			status.ListenPort = port
		}
	}

	if tsCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix)); tsCmd.Err() == nil {
		if ts, err := tsCmd.Int64(); err == nil {
			status.Timestamp = time.Unix(0, ts*int64(time.Millisecond))
		}
	}

	return status, nil
}

// GetStats obtém o último snapshot de estatísticas armazenado no Redis
func (s *Service) GetStats() (*models.PipelineStats, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	dataCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:stats", s.prefix))
	if dataCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter estatísticas: %w", dataCmd.Err())
	}

	var stats models.PipelineStats
	if err := json.Unmarshal([]byte(dataCmd.Val()), &stats); err != nil {
		return nil, fmt.Errorf("erro ao desserializar estatísticas: %w", err)
	}

	return &stats, nil
}

// markDisconnected marca o serviço como desconectado após uma falha
func (s *Service) markDisconnected() {
	s.mutex.Lock()
	s.connected = false
	s.mutex.Unlock()
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}
