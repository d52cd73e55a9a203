package lidar

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReceiver(queueCapacity int) *Receiver {
	return NewReceiver(
		"224.0.0.5",
		5000,
		1024*1024,
		NewDecoder(false),
		NewRateLimiter(50*time.Millisecond),
		NewFrameQueue(queueCapacity),
		&Stats{},
	)
}

func TestHandleDatagramEnqueuesFrame(t *testing.T) {
	receiver := newTestReceiver(8)
	addr := &net.UDPAddr{IP: net.ParseIP("192.168.1.10"), Port: 5000}
	now := time.Now()

	packet := buildPacket(0x03, 0x01, 0, distancePayload(360, 2, 0))
	receiver.handleDatagram(packet, addr, now)

	frames := receiver.queue.Drain()
	require.Len(t, frames, 1)
	assert.Equal(t, "192.168.1.10", frames[0].SourceIP)
	assert.Equal(t, now, frames[0].Timestamp)
	assert.Equal(t, int64(1), receiver.stats.Snapshot(0).PacketsReceived)
}

func TestHandleDatagramCountsRejections(t *testing.T) {
	receiver := newTestReceiver(8)
	addr := &net.UDPAddr{IP: net.ParseIP("192.168.1.10"), Port: 5000}
	now := time.Now()

	corrupted := buildPacket(0x03, 0x01, 0, distancePayload(360, 2, 0))
	corrupted[len(corrupted)-1] ^= 0xFF
	receiver.handleDatagram(corrupted, addr, now)

	receiver.handleDatagram([]byte{0x00, 0x01}, addr, now)

	assert.Empty(t, receiver.queue.Drain())

	stats := receiver.stats.Snapshot(0)
	assert.Equal(t, int64(2), stats.PacketsReceived)
	assert.Equal(t, int64(1), stats.ChecksumErrors)
	assert.Equal(t, int64(1), stats.Truncated)
}

func TestHandleDatagramAppliesRateLimit(t *testing.T) {
	receiver := newTestReceiver(8)
	addr := &net.UDPAddr{IP: net.ParseIP("192.168.1.10"), Port: 5000}
	base := time.Now()

	packet := buildPacket(0x03, 0x01, 0, distancePayload(360, 2, 0))

	// Segundo frame do mesmo canal dentro da janela é suprimido
	receiver.handleDatagram(packet, addr, base)
	receiver.handleDatagram(packet, addr, base.Add(10*time.Millisecond))

	// Outro canal passa livremente
	other := buildPacket(0x03, 0x01, 1, distancePayload(360, 2, 0))
	receiver.handleDatagram(other, addr, base.Add(10*time.Millisecond))

	frames := receiver.queue.Drain()
	require.Len(t, frames, 2)
	assert.Equal(t, 0, frames[0].Channel)
	assert.Equal(t, 1, frames[1].Channel)
	assert.Equal(t, int64(1), receiver.stats.Snapshot(0).RateLimited)
}

func TestHandleDatagramSkipsEmptyFrames(t *testing.T) {
	receiver := newTestReceiver(8)
	addr := &net.UDPAddr{IP: net.ParseIP("192.168.1.10"), Port: 5000}
	now := time.Now()

	// Payload inteiro sem retorno: frame decodifica mas nada é enfileirado
	packet := buildPacket(0x03, 0x01, 0, distancePayload(360, 0, 0))
	receiver.handleDatagram(packet, addr, now)

	assert.Empty(t, receiver.queue.Drain())

	stats := receiver.stats.Snapshot(0)
	assert.Equal(t, int64(360), stats.InvalidPoints)
	assert.Equal(t, int64(0), stats.RateLimited)
}

// timeoutError simula o estouro do deadline de leitura do socket
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// fakeSocket entrega datagramas programados, depois devolve timeouts até
// ser fechado; fechado, devolve net.ErrClosed como o socket real
type fakeSocket struct {
	mu      sync.Mutex
	packets [][]byte
	readErr error
	closed  bool
}

func (s *fakeSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return 0, nil, net.ErrClosed
	}

	if s.readErr != nil {
		err := s.readErr
		s.readErr = nil
		s.mu.Unlock()
		return 0, nil, err
	}

	if len(s.packets) > 0 {
		packet := s.packets[0]
		s.packets = s.packets[1:]
		n := copy(b, packet)
		s.mu.Unlock()
		return n, &net.UDPAddr{IP: net.ParseIP("192.168.1.10"), Port: 5000}, nil
	}

	s.mu.Unlock()
	time.Sleep(time.Millisecond)
	return 0, nil, timeoutError{}
}

func (s *fakeSocket) SetReadBuffer(int) error         { return nil }
func (s *fakeSocket) SetReadDeadline(time.Time) error { return nil }

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestReceiverLifecycle(t *testing.T) {
	socket := &fakeSocket{
		packets: [][]byte{
			buildPacket(0x03, 0x01, 0, distancePayload(360, 2, 0)),
		},
	}

	receiver := newTestReceiver(8)
	receiver.listen = func(net.IP, int) (udpSocket, error) { return socket, nil }

	require.NoError(t, receiver.Start())
	assert.True(t, receiver.IsRunning())

	// Start repetido é no-op enquanto ativo
	require.NoError(t, receiver.Start())

	// O datagrama programado atravessa o loop até a fila
	require.Eventually(t, func() bool {
		return receiver.queue.Len() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), receiver.stats.Snapshot(0).PacketsReceived)

	// Stop fecha o socket e aguarda o loop sair em net.ErrClosed
	receiver.Stop()
	assert.False(t, receiver.IsRunning())

	// Stop repetido é no-op quando parado
	receiver.Stop()
}

func TestReceiverSurvivesTransientReadErrors(t *testing.T) {
	socket := &fakeSocket{
		readErr: errors.New("no buffer space available"),
		packets: [][]byte{
			buildPacket(0x03, 0x01, 0, distancePayload(360, 2, 0)),
		},
	}

	receiver := newTestReceiver(8)
	receiver.listen = func(net.IP, int) (udpSocket, error) { return socket, nil }

	require.NoError(t, receiver.Start())
	defer receiver.Stop()

	// O erro transitório é contado e o loop continua recebendo
	require.Eventually(t, func() bool {
		return receiver.queue.Len() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), receiver.stats.Snapshot(0).SocketErrors)
}

func TestReceiverStartRejectsInvalidGroup(t *testing.T) {
	receiver := NewReceiver(
		"não-é-um-ip",
		5000,
		1024,
		NewDecoder(false),
		NewRateLimiter(time.Millisecond),
		NewFrameQueue(1),
		&Stats{},
	)

	err := receiver.Start()
	require.Error(t, err)
	assert.False(t, receiver.IsRunning())
}
