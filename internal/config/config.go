package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server ServerConfig `json:"server"`
	Lidar  LidarConfig  `json:"lidar"`
	Redis  RedisConfig  `json:"redis"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// LidarConfig contém configurações do sensor Kanavi VL-Series.
// Fixa na inicialização; não há reconfiguração dinâmica.
type LidarConfig struct {
	MulticastGroup    string        `json:"multicastGroup"`
	ListenPort        int           `json:"listenPort"`
	RateLimitInterval time.Duration `json:"rateLimitInterval"`
	QueueCapacity     int           `json:"queueCapacity"`
	ReadBuffer        int           `json:"readBuffer"`
	Debug             bool          `json:"debug"`
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
	Enabled  bool   `json:"enabled"`
}

// Load carrega a configuração do arquivo ou usa valores padrão
func Load() (*Config, error) {
	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, err
		}
	}

	return &config, nil
}
