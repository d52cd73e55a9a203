package lidar

import (
	"encoding/binary"
	"errors"
	"fmt"

	"lidar_go/internal/models"
	"lidar_go/pkg/logger"
)

// Motivos de rejeição do decodificador. Todo caminho de falha retorna um
// destes erros embrulhado; nenhum datagrama malformado gera panic.
var (
	ErrBadHeader       = errors.New("cabeçalho inválido")
	ErrNotDistanceData = errors.New("comando não é de dados de distância")
	ErrTruncated       = errors.New("datagrama truncado")
	ErrChecksum        = errors.New("checksum inválido")
)

// Decoder converte datagramas brutos do protocolo Kanavi em frames.
// Função pura: sem I/O e sem estado compartilhado.
type Decoder struct {
	debug bool
}

// NewDecoder cria um novo decodificador de pacotes
func NewDecoder(debug bool) *Decoder {
	return &Decoder{debug: debug}
}

// Decode decodifica um datagrama em um frame ou retorna o motivo da rejeição
func (d *Decoder) Decode(data []byte) (*models.LidarFrame, error) {
	if len(data) < minPacketSize {
		return nil, fmt.Errorf("%w: %d bytes (mínimo %d)", ErrTruncated, len(data), minPacketSize)
	}

	if data[0] != startMarker {
		return nil, fmt.Errorf("%w: byte inicial 0x%02X", ErrBadHeader, data[0])
	}

	productLine := data[1]
	lidarID := data[2]
	command := binary.BigEndian.Uint16(data[3:5])
	dataLength := int(binary.BigEndian.Uint16(data[5:7]))

	// Apenas comandos 0xDDC0-0xDDCF carregam dados de distância
	if byte(command>>8) != distanceDataTag {
		return nil, fmt.Errorf("%w: comando 0x%04X", ErrNotDistanceData, command)
	}
	low := byte(command & 0x00FF)
	if low&0xF0 != channelTag {
		return nil, fmt.Errorf("%w: byte de canal 0x%02X", ErrNotDistanceData, low)
	}
	channel := int(low & 0x0F)

	// Cabeçalho + payload + byte de checksum
	if len(data) < headerSize+dataLength+1 {
		return nil, fmt.Errorf("%w: %d bytes para payload de %d", ErrTruncated, len(data), dataLength)
	}

	payload := data[headerSize : headerSize+dataLength]
	received := data[headerSize+dataLength]

	// Checksum cobre apenas o cabeçalho (bytes 0-6), XOR simples
	var calculated byte
	for i := 0; i < headerSize; i++ {
		calculated ^= data[i]
	}
	if calculated != received {
		return nil, fmt.Errorf("%w: calculado 0x%02X, recebido 0x%02X", ErrChecksum, calculated, received)
	}

	model := LookupModel(productLine)
	frame := &models.LidarFrame{
		Model:         model.Name,
		Channels:      model.Channels,
		HFov:          model.HFov,
		Channel:       channel,
		VerticalAngle: VerticalAngle(model.Name, channel),
		LidarID:       lidarID,
		ProductLine:   productLine,
	}

	expected := model.ExpectedPoints

	// Payload menor que o esperado degrada para um frame sem pontos
	if len(payload) < expected*2 {
		if d.debug {
			logger.Debugf("Payload curto para %s canal %d: %d bytes (esperado %d)",
				model.Name, channel, len(payload), expected*2)
		}
		return frame, nil
	}

	frame.Points = d.extractPoints(payload, expected, channel, model.HFov, frame)
	return frame, nil
}

// extractPoints extrai os pontos do bloco de distâncias do payload
func (d *Decoder) extractPoints(payload []byte, expected, channel int, hfov float64, frame *models.LidarFrame) []models.PointSample {
	points := make([]models.PointSample, 0, expected)

	// Bloco de detecção opcional após as distâncias. O índice envolve por
	// módulo quando o bloco é menor que o número de pontos; comportamento
	// herdado do parser original e ainda não confirmado contra o framing
	// real do dispositivo.
	detOffset := expected * 2
	detLength := len(payload) - detOffset

	for i := 0; i < expected; i++ {
		if i*2+1 >= len(payload) {
			break
		}

		// Dois bytes por ponto: metros inteiros + centésimos
		distance := float64(payload[i*2]) + float64(payload[i*2+1])/100.0

		var azimuth float64
		if expected > 1 {
			azimuth = -hfov/2 + float64(i)*hfov/float64(expected-1)
		}

		var detection byte
		if detLength > 0 {
			detection = payload[detOffset+(i%detLength)]
		}

		// Distância <= 0 significa ausência de retorno; conta como inválida
		if distance <= 0 {
			frame.InvalidPoints++
			continue
		}

		points = append(points, models.PointSample{
			Channel:   channel,
			Distance:  distance,
			Azimuth:   azimuth,
			Detection: detection,
			Index:     i,
		})
	}

	return points
}
