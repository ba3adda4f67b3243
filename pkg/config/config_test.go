package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 126, c.Bond.Horizon)
	assert.Equal(t, 1.7, c.Dividend.BondYieldFallback)
	assert.Equal(t, 20*time.Second, c.HTTP.Timeout)
	assert.Equal(t, "bondReports.ts", c.Bond.TSFile)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: production\nbond:\n  horizon: 60\nlog:\n  format: json\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 60, c.Bond.Horizon)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, 10, c.Bond.Years)
}

func TestValidateRejectsKafkaWithoutBrokers(t *testing.T) {
	c := Default()
	c.Kafka.Enabled = true
	assert.Error(t, c.Validate())
}

func TestValidateRejectsBadEnum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("XLL_WEBHOOK_URL", "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=abc")
	t.Setenv("XLL_KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=abc", c.Push.WebhookURL)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}
