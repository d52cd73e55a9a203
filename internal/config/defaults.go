package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8765,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Lidar: LidarConfig{
			MulticastGroup:    "224.0.0.5",
			ListenPort:        5000,
			RateLimitInterval: 50 * time.Millisecond, // 20 Hz por canal
			QueueCapacity:     256,
			ReadBuffer:        1024 * 1024,
			Debug:             false,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			Prefix:   "lidar_kanavi",
			Enabled:  true,
		},
	}
}
