package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lidar_go/internal/config"
	"lidar_go/internal/server"
	"lidar_go/pkg/logger"
)

func main() {
	// Configurar diretório de logs
	logDir := filepath.Join(".", "logs")
	os.MkdirAll(logDir, 0755)

	// Inicializar logger
	logger.Init()
	logger.SetLevel(logger.DEBUG) // Usar DEBUG para ter mais informações durante desenvolvimento
	logger.EnableFileLogging(logDir, "lidar")
	defer logger.Sync()

	// Exibir banner de inicialização
	displayBanner()

	logger.Info("Iniciando Kanavi Lidar Relay")

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	// Intervalo mínimo entre frames encaminhados por canal
	if cfg.Lidar.RateLimitInterval < 10*time.Millisecond {
		logger.Warn("Intervalo de rate limit muito baixo. Definindo para 10ms")
		cfg.Lidar.RateLimitInterval = 10 * time.Millisecond
	}

	logger.Infof("Configuração carregada: Multicast %s:%d, Redis em %s:%d",
		cfg.Lidar.MulticastGroup, cfg.Lidar.ListenPort, cfg.Redis.Host, cfg.Redis.Port)
	logger.Infof("Rate limit por canal: %v", cfg.Lidar.RateLimitInterval)

	// Criar e iniciar o servidor
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	// Iniciar o servidor em uma goroutine separada
	go func() {
		logger.Infof("Servidor iniciado na porta %d", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Fatal("Erro ao iniciar o servidor", err)
		}
	}()

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Desligando servidor...")

	// Criar contexto com timeout para o shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Desligar o servidor
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
 _     _ _______ __   _ _______ _    _ _____
 |____/  |_____| | \  | |_____|  \  /    |
 |    \_ |     | |  \_| |     |   \/   __|__

 _     _____ ______  _______  ______
 |        |   |     \ |_____| |_____/
 |_____ __|__ |_____/ |     | |    \_  v1.0
                        VL-SERIES RELAY
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
