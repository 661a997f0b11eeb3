package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerCfg struct {
	Port                string `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	RequestTimeoutSecs  int    `mapstructure:"request_timeout_seconds"`
	Development         bool   `mapstructure:"development"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JwtCfg struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type IdentityCfg struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type RateLimitCfg struct {
	PerMinute int `mapstructure:"per_minute"`
}

type Config struct {
	Server    ServerCfg    `mapstructure:"server"`
	Mongo     MongoCfg     `mapstructure:"mongo"`
	Redis     RedisCfg     `mapstructure:"redis"`
	Kafka     KafkaCfg     `mapstructure:"kafka"`
	JWT       JwtCfg       `mapstructure:"jwt"`
	Identity  IdentityCfg  `mapstructure:"identity"`
	RateLimit RateLimitCfg `mapstructure:"rate_limit"`
	// Derived
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	IdentityTimeout time.Duration
}

// RateLimitWindow is the fixed window the per-minute limit applies to.
func (c *Config) RateLimitWindow() time.Duration { return time.Minute }

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = 5
	}
	if cfg.Identity.TimeoutSeconds == 0 {
		cfg.Identity.TimeoutSeconds = 3
	}
	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = 120
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "clubchat"
	}
	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	cfg.RequestTimeout = time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second
	cfg.IdentityTimeout = time.Duration(cfg.Identity.TimeoutSeconds) * time.Second
}

func validate(cfg *Config) error {
	if cfg.Mongo.URI == "" {
		return errors.New("config: mongo.uri is required")
	}
	if cfg.Mongo.Database == "" {
		return errors.New("config: mongo.database is required")
	}
	if cfg.Redis.Addr == "" {
		return errors.New("config: redis.addr is required")
	}
	return nil
}
