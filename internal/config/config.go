package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log        LogConfig       `mapstructure:"log"`
	HTTP       HTTPConfig      `mapstructure:"http"`
	Emay       EmayConfig      `mapstructure:"emay"`
	SMS        SMSConfig       `mapstructure:"sms"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	Worker     WorkerConfig    `mapstructure:"worker"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	APIKeys    []APIKeyConfig  `mapstructure:"api_keys"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json | console
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type EmayConfig struct {
	AppID     string        `mapstructure:"app_id"`
	SecretKey string        `mapstructure:"secret_key"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ClientConfig maps the section onto the gateway client's settings.
func (c EmayConfig) ClientConfig() emay.Config {
	return emay.Config{
		AppID:     c.AppID,
		SecretKey: c.SecretKey,
		Host:      c.Host,
		Port:      c.Port,
		Timeout:   c.Timeout,
	}
}

type SMSConfig struct {
	SignName      string `mapstructure:"sign_name"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
	MaxContent    int    `mapstructure:"max_content"` // runes
	MaxBatch      int    `mapstructure:"max_batch"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	Topic          string        `mapstructure:"topic"`
	GroupID        string        `mapstructure:"group_id"`
	MinBytes       int           `mapstructure:"min_bytes"`
	MaxBytes       int           `mapstructure:"max_bytes"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type WorkerConfig struct {
	Count        int           `mapstructure:"count"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchWait    time.Duration `mapstructure:"batch_wait"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	FailThreshold int           `mapstructure:"fail_threshold"`
	OpenFor       time.Duration `mapstructure:"open_for"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

// APIKeyConfig is one caller allowed on the /v1 API. RPS overrides rate_limit.rps when > 0.
type APIKeyConfig struct {
	Name string `mapstructure:"name"`
	Key  string `mapstructure:"key"`
	RPS  int    `mapstructure:"rps"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (SMSGW_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		// a missing file is fine, defaults and env still apply
		if err := v.MergeInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("merge %s: %w", path, err)
		}
	}

	// env override (SMSGW_EMAY_APP_ID -> emay.app_id)
	v.SetEnvPrefix("SMSGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
