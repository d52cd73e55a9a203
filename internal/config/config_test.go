package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir muda para o diretório informado e restaura o original ao final
func chdir(t *testing.T, dir string) {
	t.Helper()

	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(original) })
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	// Rodar em um diretório sem config.json
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, "224.0.0.5", cfg.Lidar.MulticastGroup)
	assert.Equal(t, 5000, cfg.Lidar.ListenPort)
	assert.Equal(t, 50*time.Millisecond, cfg.Lidar.RateLimitInterval)
	assert.Equal(t, 256, cfg.Lidar.QueueCapacity)
	assert.Equal(t, "lidar_kanavi", cfg.Redis.Prefix)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := `{
		"server": {"port": 9000},
		"lidar": {"multicastGroup": "224.1.1.1", "listenPort": 6000, "debug": true}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(contents), 0644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "224.1.1.1", cfg.Lidar.MulticastGroup)
	assert.Equal(t, 6000, cfg.Lidar.ListenPort)
	assert.True(t, cfg.Lidar.Debug)

	// Campos omitidos no arquivo mantêm os padrões
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 256, cfg.Lidar.QueueCapacity)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{invalido"), 0644))
	chdir(t, dir)

	_, err := Load()
	require.Error(t, err)
}
