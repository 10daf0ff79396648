package serve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "dtodo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint = "127.0.0.1:9090"
backend = "sqlite"
data-dir = "/var/lib/dtodo"
timeout = 2
shutdown-timeout = 20
max-workers = 64
quarantine-corrupt = false
log-level = "debug"
`), 0o644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", config.Endpoint)
	assert.Equal(t, "sqlite", config.Backend)
	assert.Equal(t, "/var/lib/dtodo", config.DataDir)
	assert.Equal(t, int64(2), config.TimeoutSecond)
	assert.Equal(t, int64(20), config.ShutdownTimeoutSecond)
	assert.Equal(t, 64, config.MaxWorkers)
	assert.False(t, config.QuarantineCorrupt)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("endpoint", "127.0.0.1:9090")
	viper.Set("backend", "cassandra")
	viper.Set("shutdown-timeout", 5)
	viper.Set("log-level", "info")

	_, err := loadConfig()
	assert.Error(t, err)

	viper.Set("backend", "memory")
	viper.Set("log-level", "loud")
	_, err = loadConfig()
	assert.Error(t, err)

	viper.Set("log-level", "warn")
	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Backend)
}
