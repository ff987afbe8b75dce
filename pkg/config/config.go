package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pion/webrtc/v3"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Signal struct {
		PingInterval      time.Duration `yaml:"ping_interval"`
		PongTimeout       time.Duration `yaml:"pong_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		MessagesPerSecond float64       `yaml:"messages_per_second"`
		Burst             int           `yaml:"burst"`
		MaxMessageBytes   int64         `yaml:"max_message_bytes"`
	} `yaml:"signal"`

	Chat struct {
		HistoryCapacity  int   `yaml:"history_capacity"`
		MaxMessageLength int   `yaml:"max_message_length"`
		MaxTipAmount     int64 `yaml:"max_tip_amount"`
	} `yaml:"chat"`

	Media struct {
		Provider   string        `yaml:"provider"` // p2p | managed | ingest
		AppID      string        `yaml:"app_id"`
		AppSecret  string        `yaml:"app_secret"`
		TokenTTL   time.Duration `yaml:"token_ttl"`
		IngestBase string        `yaml:"ingest_base"`
		HLSBase    string        `yaml:"hls_base"`
		ICEServers []struct {
			URLs       []string `yaml:"urls"`
			Username   string   `yaml:"username,omitempty"`
			Credential string   `yaml:"credential,omitempty"`
		} `yaml:"ice_servers"`
	} `yaml:"media"`

	Redis struct {
		Enabled       bool   `yaml:"enabled"`
		Address       string `yaml:"address"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		PoolSize      int    `yaml:"pool_size"`
		ArchiveMaxLen int64  `yaml:"archive_max_len"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret         string `yaml:"jwt_secret"`
		AllowGuestViewers bool   `yaml:"allow_guest_viewers"`
	} `yaml:"auth"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Signal.PingInterval <= 0 {
		return fmt.Errorf("signal.ping_interval must be > 0")
	}
	if c.Signal.PongTimeout <= 0 {
		return fmt.Errorf("signal.pong_timeout must be > 0")
	}
	if c.Signal.WriteTimeout <= 0 {
		return fmt.Errorf("signal.write_timeout must be > 0")
	}
	if c.Signal.MessagesPerSecond <= 0 {
		return fmt.Errorf("signal.messages_per_second must be > 0")
	}
	if c.Signal.Burst <= 0 {
		return fmt.Errorf("signal.burst must be > 0")
	}
	if c.Signal.MaxMessageBytes < 0 {
		return fmt.Errorf("signal.max_message_bytes must be >= 0")
	}

	if c.Chat.HistoryCapacity <= 0 {
		return fmt.Errorf("chat.history_capacity must be > 0")
	}
	if c.Chat.MaxMessageLength <= 0 {
		return fmt.Errorf("chat.max_message_length must be > 0")
	}
	if c.Chat.MaxTipAmount < 0 {
		return fmt.Errorf("chat.max_tip_amount must be >= 0")
	}

	switch c.Media.Provider {
	case "p2p", "managed", "ingest":
	default:
		return fmt.Errorf("media.provider must be one of p2p, managed, ingest")
	}
	if c.Media.Provider == "managed" {
		if c.Media.AppID == "" || c.Media.AppSecret == "" {
			return fmt.Errorf("media.app_id and media.app_secret are required for the managed provider")
		}
		if c.Media.TokenTTL <= 0 {
			return fmt.Errorf("media.token_ttl must be > 0 for the managed provider")
		}
	}
	if c.Media.Provider == "ingest" && c.Media.IngestBase == "" {
		return fmt.Errorf("media.ingest_base is required for the ingest provider")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Signal.PingInterval = 30 * time.Second
	cfg.Signal.PongTimeout = 60 * time.Second
	cfg.Signal.WriteTimeout = 10 * time.Second
	cfg.Signal.MessagesPerSecond = 25
	cfg.Signal.Burst = 50
	cfg.Signal.MaxMessageBytes = 64 * 1024

	cfg.Chat.HistoryCapacity = 50
	cfg.Chat.MaxMessageLength = 500
	cfg.Chat.MaxTipAmount = 100000

	cfg.Media.Provider = "p2p"
	cfg.Media.TokenTTL = 1 * time.Hour

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.ArchiveMaxLen = 1000

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AllowGuestViewers = true

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

// ICEServers converts the configured ICE servers into webrtc values clients
// can use directly.
func (c *Config) ICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.Media.ICEServers))
	for _, s := range c.Media.ICEServers {
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
		}
		out = append(out, server)
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("STREAMVIBE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("STREAMVIBE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("STREAMVIBE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if addr := os.Getenv("STREAMVIBE_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if provider := os.Getenv("STREAMVIBE_MEDIA_PROVIDER"); provider != "" {
		c.Media.Provider = provider
	}
}
