package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "checkout-service", cfg.App.Name)
	assert.Equal(t, 8088, cfg.App.Port)
	assert.Equal(t, "checkout-evaluated", cfg.Infra.Kafka.EvaluationTopic)
	assert.Empty(t, cfg.Infra.MySQL.DSN)
	assert.False(t, cfg.App.OverwriteFlowsOnImport)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  port: 9000
  logLevel: debug
  enableExpressionConditions: true
infra:
  redis:
    addrs: redis:6379
  kafka:
    brokers: kafka:9092
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("PORT", "9100")
	t.Setenv("OVERWRITE_FLOWS_ON_IMPORT", "true")
	t.Setenv("MYSQL_DSN", "root:pw@tcp(db:3306)/checkout")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.True(t, cfg.App.EnableExpressionConditions)
	assert.True(t, cfg.App.OverwriteFlowsOnImport)
	assert.Equal(t, "redis:6379", cfg.Infra.Redis.Addrs)
	assert.Equal(t, "kafka:9092", cfg.Infra.Kafka.Brokers)
	assert.Equal(t, "root:pw@tcp(db:3306)/checkout", cfg.Infra.MySQL.DSN)
	// 文件中未出现的字段保留默认值
	assert.Equal(t, "checkout-flow-updated", cfg.Infra.Kafka.FlowUpdateTopic)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [1, 2"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestGetCurrentConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App.Port = 1234
	SetCurrentConfig(cfg)
	t.Cleanup(func() { currentConfig.Store(nil) })

	assert.Equal(t, 1234, GetCurrentConfig().App.Port)
}
