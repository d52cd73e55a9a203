package lidar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsClassifiesRejections(t *testing.T) {
	stats := &Stats{}

	// Os erros do decodificador chegam embrulhados com contexto
	stats.AddRejection(fmt.Errorf("%w: byte inicial 0x00", ErrBadHeader))
	stats.AddRejection(fmt.Errorf("%w: comando 0xAAC0", ErrNotDistanceData))
	stats.AddRejection(fmt.Errorf("%w: 5 bytes", ErrTruncated))
	stats.AddRejection(fmt.Errorf("%w: calculado 0x12", ErrChecksum))
	stats.AddRejection(fmt.Errorf("%w: recebido 0x34", ErrChecksum))

	stats.AddPacket()
	stats.AddPacket()
	stats.AddInvalidPoints(7)
	stats.AddRateLimited()
	stats.AddBroadcast()
	stats.AddSocketError()

	snapshot := stats.Snapshot(3)

	assert.Equal(t, int64(2), snapshot.PacketsReceived)
	assert.Equal(t, int64(1), snapshot.BadHeader)
	assert.Equal(t, int64(1), snapshot.NotDistanceData)
	assert.Equal(t, int64(1), snapshot.Truncated)
	assert.Equal(t, int64(2), snapshot.ChecksumErrors)
	assert.Equal(t, int64(7), snapshot.InvalidPoints)
	assert.Equal(t, int64(1), snapshot.RateLimited)
	assert.Equal(t, int64(3), snapshot.QueueDrops)
	assert.Equal(t, int64(1), snapshot.FramesBroadcast)
	assert.Equal(t, int64(1), snapshot.SocketErrors)
}
