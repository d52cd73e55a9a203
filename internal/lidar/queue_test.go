package lidar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lidar_go/internal/models"
)

func TestFrameQueueDropsNewestOnOverflow(t *testing.T) {
	queue := NewFrameQueue(2)

	first := &models.LidarFrame{Channel: 0}
	second := &models.LidarFrame{Channel: 1}
	third := &models.LidarFrame{Channel: 2}

	assert.True(t, queue.Push(first))
	assert.True(t, queue.Push(second))

	// Fila cheia: o frame mais novo é descartado sem bloquear
	assert.False(t, queue.Push(third))
	assert.Equal(t, int64(1), queue.Dropped())
	assert.Equal(t, 2, queue.Len())

	// Os frames preservados saem na ordem de chegada
	drained := queue.Drain()
	require.Len(t, drained, 2)
	assert.Same(t, first, drained[0])
	assert.Same(t, second, drained[1])

	// Fila vazia drena para nada
	assert.Empty(t, queue.Drain())
	assert.Equal(t, 0, queue.Len())
}

func TestFrameQueueDefaultCapacity(t *testing.T) {
	queue := NewFrameQueue(0)

	for i := 0; i < defaultQueueCapacity; i++ {
		require.True(t, queue.Push(&models.LidarFrame{Channel: i}))
	}

	assert.False(t, queue.Push(&models.LidarFrame{}))
	assert.Equal(t, int64(1), queue.Dropped())
}
