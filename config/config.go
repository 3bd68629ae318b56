// Package config carrega a configuração do record-gateway a partir de variáveis
// de ambiente (prefixo RECORDGW_) e de um .env opcional.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "RECORDGW_"

type Config struct {
	ListenAddr string `koanf:"listen_addr" validate:"required"`
	DataFile   string `koanf:"data_file" validate:"required"`

	ConcurrencyMax     int           `koanf:"concurrency_max" validate:"gt=0"`
	ConcurrencyBacklog int           `koanf:"concurrency_backlog" validate:"gte=0"`
	ConcurrencyTimeout time.Duration `koanf:"concurrency_timeout" validate:"gte=0"`

	RequestTimeout      time.Duration `koanf:"request_timeout" validate:"gt=0"`
	DelayDuration       time.Duration `koanf:"delay_duration" validate:"gte=0"`
	TimeoutDemoDuration time.Duration `koanf:"timeout_demo_duration" validate:"gt=0"`
	ShutdownGrace       time.Duration `koanf:"shutdown_grace" validate:"gt=0"`

	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"oneof=console json"`

	RateEnabled   bool          `koanf:"rate_enabled"`
	RateRPS       float64       `koanf:"rate_rps" validate:"gt=0"`
	RateBurst     int           `koanf:"rate_burst" validate:"gt=0"`
	RateKeyHeader string        `koanf:"rate_key_header"`
	TrustXFF      bool          `koanf:"trust_xff"`
	RetryAfter    time.Duration `koanf:"retry_after" validate:"gte=0"`

	StatsRedisEnabled  bool          `koanf:"stats_redis_enabled"`
	StatsRedisAddr     string        `koanf:"stats_redis_addr" validate:"required_if=StatsRedisEnabled true"`
	StatsRedisPassword string        `koanf:"stats_redis_password"`
	StatsRedisDB       int           `koanf:"stats_redis_db" validate:"gte=0"`
	StatsPrefix        string        `koanf:"stats_prefix"`
	StatsTTL           time.Duration `koanf:"stats_ttl" validate:"gte=0"`
	StatsBucket        string        `koanf:"stats_bucket" validate:"oneof=minute none"`
	StatsTrackKeys     bool          `koanf:"stats_track_keys"`
}

// Default devolve a configuração usada quando nada é definido.
func Default() Config {
	return Config{
		ListenAddr: "127.0.0.1:3000",
		DataFile:   "./record.avro",

		ConcurrencyMax: 2,

		RequestTimeout:      10 * time.Second,
		DelayDuration:       5 * time.Second,
		TimeoutDemoDuration: 20 * time.Second,
		ShutdownGrace:       10 * time.Second,

		LogLevel:  "info",
		LogFormat: "console",

		RateRPS:    10,
		RateBurst:  20,
		RetryAfter: time.Second,

		StatsPrefix: "recordgw:stats",
		StatsTTL:    24 * time.Hour,
		StatsBucket: "minute",
	}
}

// Load lê o .env (se existir) e as variáveis RECORDGW_* por cima dos defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv é Load sem o .env.
func FromEnv() (Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checa as tags validate e as relações entre os prazos dos demos.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// os demos só fazem sentido se /delay cabe no prazo e /timeout não
	if c.DelayDuration >= c.RequestTimeout {
		return fmt.Errorf("invalid config: delay_duration (%s) must be < request_timeout (%s)", c.DelayDuration, c.RequestTimeout)
	}
	if c.TimeoutDemoDuration < c.RequestTimeout {
		return fmt.Errorf("invalid config: timeout_demo_duration (%s) must be >= request_timeout (%s)", c.TimeoutDemoDuration, c.RequestTimeout)
	}
	return nil
}
