package lidar

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"lidar_go/pkg/logger"
)

const (
	// readDeadline define a frequência com que o loop observa o Stop
	readDeadline = 1 * time.Second

	// maxDatagramSize cobre o maior pacote VL-R4 com folga
	maxDatagramSize = 2048
)

// udpSocket abstrai o socket multicast para permitir testes do loop de
// recepção sem rede real
type udpSocket interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	SetReadBuffer(bytes int) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Receiver é o receptor UDP multicast. Possui o socket e executa o loop
// bloqueante de recepção em goroutine própria, alimentando a fila de frames
// através do decodificador e do limitador de taxa.
type Receiver struct {
	group      string
	port       int
	readBuffer int

	decoder *Decoder
	limiter *RateLimiter
	queue   *FrameQueue
	stats   *Stats

	// Fábrica do socket; substituível em testes
	listen func(groupIP net.IP, port int) (udpSocket, error)

	conn    udpSocket
	running bool
	done    chan struct{}
	mutex   sync.Mutex
}

// NewReceiver cria um receptor para o grupo multicast e porta configurados
func NewReceiver(group string, port, readBuffer int, decoder *Decoder, limiter *RateLimiter, queue *FrameQueue, stats *Stats) *Receiver {
	return &Receiver{
		group:      group,
		port:       port,
		readBuffer: readBuffer,
		decoder:    decoder,
		limiter:    limiter,
		queue:      queue,
		stats:      stats,
		listen: func(groupIP net.IP, port int) (udpSocket, error) {
			// nil como interface deixa o kernel escolher; recebe em todas
			return net.ListenMulticastUDP("udp", nil, &net.UDPAddr{IP: groupIP, Port: port})
		},
	}
}

// Start adquire o socket multicast e inicia o loop de recepção.
// Chamadas repetidas enquanto ativo são no-op.
func (r *Receiver) Start() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.running {
		return nil
	}

	groupIP := net.ParseIP(r.group)
	if groupIP == nil {
		return fmt.Errorf("grupo multicast inválido: %s", r.group)
	}

	conn, err := r.listen(groupIP, r.port)
	if err != nil {
		return fmt.Errorf("erro ao entrar no grupo multicast %s:%d: %w", r.group, r.port, err)
	}

	if err := conn.SetReadBuffer(r.readBuffer); err != nil {
		logger.Warnf("Erro ao ajustar buffer de recepção para %d bytes: %v", r.readBuffer, err)
	}

	r.conn = conn
	r.running = true
	r.done = make(chan struct{})

	logger.Infof("Recepção multicast iniciada: grupo %s, porta %d", r.group, r.port)

	go r.receiveLoop(conn, r.done)
	return nil
}

// Stop encerra o loop de recepção e fecha o socket.
// Chamadas repetidas enquanto parado são no-op.
func (r *Receiver) Stop() {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		return
	}
	r.running = false
	conn := r.conn
	done := r.done
	r.conn = nil
	r.mutex.Unlock()

	// Fechar o socket abandona o grupo multicast e acorda a leitura
	conn.Close()
	<-done

	logger.Info("Recepção multicast encerrada")
}

// IsRunning verifica se o receptor está ativo
func (r *Receiver) IsRunning() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.running
}

// receiveLoop lê datagramas até o socket ser fechado por Stop
func (r *Receiver) receiveLoop(conn udpSocket, done chan struct{}) {
	defer close(done)

	buffer := make([]byte, maxDatagramSize)

	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Erros de leitura não encerram a recepção
			r.stats.AddSocketError()
			logger.Errorf("Erro de leitura UDP: %v", err)
			continue
		}

		r.handleDatagram(buffer[:n], addr, time.Now())
	}
}

// handleDatagram decodifica, limita e enfileira um datagrama recebido
func (r *Receiver) handleDatagram(data []byte, addr *net.UDPAddr, now time.Time) {
	r.stats.AddPacket()

	frame, err := r.decoder.Decode(data)
	if err != nil {
		r.stats.AddRejection(err)
		logger.Debugf("Datagrama de %s rejeitado: %v", addr.IP, err)
		return
	}

	r.stats.AddInvalidPoints(frame.InvalidPoints)

	// Frames sem pontos válidos não são encaminhados
	if len(frame.Points) == 0 {
		return
	}

	if !r.limiter.Allow(frame.Channel, now) {
		r.stats.AddRateLimited()
		return
	}

	frame.SourceIP = addr.IP.String()
	frame.Timestamp = now

	if !r.queue.Push(frame) {
		logger.Warnf("Fila de frames cheia; frame do canal %d descartado", frame.Channel)
	}
}
