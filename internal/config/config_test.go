package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Emay.Timeout)
	assert.Equal(t, 5, cfg.SMS.ExpireMinutes)
	assert.Equal(t, "sms.outbound", cfg.Kafka.Topic)
	assert.Equal(t, []string{"127.0.0.1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 300*time.Millisecond, cfg.Worker.BatchWait)
	assert.Equal(t, 15*time.Second, cfg.Worker.Breaker.OpenFor)
	assert.Empty(t, cfg.APIKeys)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
emay:
  app_id: "EUCP-FILE"
  secret_key: "from-file"
  host: "10.0.0.5"
  port: 8080
sms:
  sign_name: "Acme"
api_keys:
  - name: crm
    key: k-123
    rps: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("SMSGW_EMAY_SECRET_KEY", "from-env")
	t.Setenv("SMSGW_HTTP_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "EUCP-FILE", cfg.Emay.AppID)
	assert.Equal(t, "from-env", cfg.Emay.SecretKey)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "Acme", cfg.SMS.SignName)
	require.Len(t, cfg.APIKeys, 1)
	assert.Equal(t, APIKeyConfig{Name: "crm", Key: "k-123", RPS: 5}, cfg.APIKeys[0])

	cc := cfg.Emay.ClientConfig()
	assert.Equal(t, "10.0.0.5", cc.Host)
	assert.Equal(t, 8080, cc.Port)
	assert.Equal(t, 30*time.Second, cc.Timeout)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("emay: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
