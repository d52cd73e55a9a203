package lidar

import (
	"errors"
	"sync/atomic"

	"lidar_go/internal/models"
)

// Stats acumula os contadores de diagnóstico do pipeline. Todos os campos
// são atualizados com operações atômicas e podem ser lidos de qualquer
// goroutine.
type Stats struct {
	packetsReceived int64
	badHeader       int64
	notDistanceData int64
	truncated       int64
	checksumErrors  int64
	invalidPoints   int64
	rateLimited     int64
	framesBroadcast int64
	socketErrors    int64
}

// AddPacket registra um datagrama lido do socket
func (s *Stats) AddPacket() {
	atomic.AddInt64(&s.packetsReceived, 1)
}

// AddRejection classifica e registra uma rejeição do decodificador
func (s *Stats) AddRejection(err error) {
	switch {
	case errors.Is(err, ErrBadHeader):
		atomic.AddInt64(&s.badHeader, 1)
	case errors.Is(err, ErrNotDistanceData):
		atomic.AddInt64(&s.notDistanceData, 1)
	case errors.Is(err, ErrTruncated):
		atomic.AddInt64(&s.truncated, 1)
	case errors.Is(err, ErrChecksum):
		atomic.AddInt64(&s.checksumErrors, 1)
	}
}

// AddInvalidPoints registra pontos descartados por distância <= 0
func (s *Stats) AddInvalidPoints(count int) {
	atomic.AddInt64(&s.invalidPoints, int64(count))
}

// AddRateLimited registra um frame suprimido pelo limitador de taxa
func (s *Stats) AddRateLimited() {
	atomic.AddInt64(&s.rateLimited, 1)
}

// AddBroadcast registra um frame entregue ao hub
func (s *Stats) AddBroadcast() {
	atomic.AddInt64(&s.framesBroadcast, 1)
}

// AddSocketError registra um erro de leitura não fatal
func (s *Stats) AddSocketError() {
	atomic.AddInt64(&s.socketErrors, 1)
}

// Snapshot retorna uma cópia consistente dos contadores
func (s *Stats) Snapshot(queueDrops int64) models.PipelineStats {
	return models.PipelineStats{
		PacketsReceived: atomic.LoadInt64(&s.packetsReceived),
		BadHeader:       atomic.LoadInt64(&s.badHeader),
		NotDistanceData: atomic.LoadInt64(&s.notDistanceData),
		Truncated:       atomic.LoadInt64(&s.truncated),
		ChecksumErrors:  atomic.LoadInt64(&s.checksumErrors),
		InvalidPoints:   atomic.LoadInt64(&s.invalidPoints),
		RateLimited:     atomic.LoadInt64(&s.rateLimited),
		QueueDrops:      queueDrops,
		FramesBroadcast: atomic.LoadInt64(&s.framesBroadcast),
		SocketErrors:    atomic.LoadInt64(&s.socketErrors),
	}
}
