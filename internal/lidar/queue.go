package lidar

import (
	"sync/atomic"

	"lidar_go/internal/models"
)

// defaultQueueCapacity limita quantos frames podem aguardar o broadcast
const defaultQueueCapacity = 256

// FrameQueue desacopla o loop bloqueante de recepção do loop cooperativo
// de broadcast. Um produtor (receptor) e um consumidor (drenagem);
// em overflow o frame mais novo é descartado sem bloquear o produtor.
type FrameQueue struct {
	frames  chan *models.LidarFrame
	dropped int64
}

// NewFrameQueue cria uma fila com a capacidade informada (0 usa o padrão)
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &FrameQueue{
		frames: make(chan *models.LidarFrame, capacity),
	}
}

// Push enfileira um frame sem bloquear; retorna false se a fila estiver cheia
func (q *FrameQueue) Push(frame *models.LidarFrame) bool {
	select {
	case q.frames <- frame:
		return true
	default:
		atomic.AddInt64(&q.dropped, 1)
		return false
	}
}

// Drain retorna todos os frames atualmente enfileirados, sem bloquear
func (q *FrameQueue) Drain() []*models.LidarFrame {
	var drained []*models.LidarFrame
	for {
		select {
		case frame := <-q.frames:
			drained = append(drained, frame)
		default:
			return drained
		}
	}
}

// Len retorna o número de frames aguardando na fila
func (q *FrameQueue) Len() int {
	return len(q.frames)
}

// Dropped retorna o total de frames descartados por overflow
func (q *FrameQueue) Dropped() int64 {
	return atomic.LoadInt64(&q.dropped)
}
