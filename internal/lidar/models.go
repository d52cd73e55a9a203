package lidar

import "fmt"

// Constantes do protocolo Kanavi VL-Series (encode big-endian)
const (
	// ProtocolVersion é a versão do protocolo suportada
	ProtocolVersion = "1.5.2"

	// startMarker é o byte inicial de todo datagrama
	startMarker = 0xFA

	// distanceDataTag é o byte alto do comando de dados de distância
	distanceDataTag = 0xDD

	// channelTag ocupa o nibble alto do byte baixo do comando (0xC0-0xCF)
	channelTag = 0xC0

	// headerSize cobre header, product line, lidar id, comando e data length
	headerSize = 7

	// minPacketSize é o menor datagrama aceitável (cabeçalho + checksum)
	minPacketSize = 8
)

// ModelInfo descreve um modelo de sensor conhecido
type ModelInfo struct {
	Name           string
	Channels       int
	HFov           float64
	Interface      string
	ExpectedPoints int
}

// lidarModels mapeia o byte de linha de produto para o modelo correspondente.
// Tabela estática; não modificar em tempo de execução.
var lidarModels = map[byte]ModelInfo{
	0x03: {Name: "VL-R2", Channels: 2, HFov: 120, Interface: "Ethernet", ExpectedPoints: 360},
	0x06: {Name: "VL-R4", Channels: 4, HFov: 100, Interface: "Ethernet", ExpectedPoints: 400},
	0x07: {Name: "VL-R270", Channels: 1, HFov: 270, Interface: "Ethernet", ExpectedPoints: 360},
}

// verticalAngles mapeia (modelo, canal) para o ângulo vertical fixo do canal.
// Combinações desconhecidas retornam 0.0.
var verticalAngles = map[string]map[int]float64{
	"VL-R4": {0: -1.5, 1: -0.5, 2: 0.5, 3: 1.5},
	"VL-R2": {0: -0.5, 1: 0.5},
}

// LookupModel retorna o modelo para uma linha de produto, com fallback
// genérico de 4 canais e 360 graus para linhas desconhecidas
func LookupModel(productLine byte) ModelInfo {
	if info, ok := lidarModels[productLine]; ok {
		return info
	}
	return ModelInfo{
		Name:           fmt.Sprintf("Unknown_%02X", productLine),
		Channels:       4,
		HFov:           360,
		Interface:      "Unknown",
		ExpectedPoints: 360,
	}
}

// VerticalAngle retorna o ângulo vertical fixo de um canal do modelo
func VerticalAngle(model string, channel int) float64 {
	if channels, ok := verticalAngles[model]; ok {
		if angle, ok := channels[channel]; ok {
			return angle
		}
	}
	return 0.0
}

// SupportedModels lista os modelos conhecidos para mensagens de status
func SupportedModels() []string {
	return []string{"VL-R2", "VL-R4", "VL-R270"}
}

// SupportedModelsDetail descreve os modelos conhecidos com canal e FOV
func SupportedModelsDetail() map[string]string {
	detail := make(map[string]string, len(lidarModels))
	for _, info := range lidarModels {
		detail[info.Name] = fmt.Sprintf("%dCh %.0f° %s", info.Channels, info.HFov, info.Interface)
	}
	return detail
}
