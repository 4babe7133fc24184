package config

import (
	"bytes"
	_ "embed"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig      `mapstructure:"http"`
	Log        LogConfig       `mapstructure:"log"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Auth       AuthConfig      `mapstructure:"auth"`
	Stripe     StripeConfig    `mapstructure:"stripe"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Inference  InferenceConfig `mapstructure:"inference"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
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

// AuthConfig points at the hosted identity provider used for session
// introspection. SessionCookie names the cookie carrying the access token.
type AuthConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	AnonKey       string        `mapstructure:"anon_key"`
	SessionCookie string        `mapstructure:"session_cookie"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PriceID       string `mapstructure:"price_id"`
	AppURL        string `mapstructure:"app_url"`
}

// RateLimitConfig holds per-route-class request ceilings per window.
// API routes get the stricter ceiling.
type RateLimitConfig struct {
	Window      time.Duration `mapstructure:"window"`
	PagePerWin  int           `mapstructure:"page_per_window"`
	APIPerWin   int           `mapstructure:"api_per_window"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
}

type InferenceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (MAKEUPAI_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (MAKEUPAI_*)
	v.SetEnvPrefix("MAKEUPAI")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
