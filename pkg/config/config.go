package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	StorageMemory = "memory"
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		PublicURL       string        `yaml:"public_url"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Signal struct {
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"signal"`

	Canvas struct {
		Width      int    `yaml:"width"`
		Height     int    `yaml:"height"`
		Background string `yaml:"background"`
	} `yaml:"canvas"`

	Session struct {
		LoginDelay  time.Duration `yaml:"login_delay"`
		InviteDelay time.Duration `yaml:"invite_delay"`
	} `yaml:"session"`

	Presence struct {
		Enabled           bool          `yaml:"enabled"`
		Interval          time.Duration `yaml:"interval"`
		StrokeProbability float64       `yaml:"stroke_probability"`
	} `yaml:"presence"`

	Storage struct {
		Backend    string `yaml:"backend"` // memory, bolt or redis
		BoltPath   string `yaml:"bolt_path"`
		ProfileKey string `yaml:"profile_key"`
	} `yaml:"storage"`

	Redis struct {
		Address   string `yaml:"address"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		PoolSize  int    `yaml:"pool_size"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret      string        `yaml:"jwt_secret"`
		AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"auth"`

	Snapshots struct {
		Enabled   bool          `yaml:"enabled"`
		Directory string        `yaml:"directory"`
		Interval  time.Duration `yaml:"interval"`
		Retention int           `yaml:"retention"`
	} `yaml:"snapshots"`

	Monitoring struct {
		PrometheusEnabled bool   `yaml:"prometheus_enabled"`
		MetricsPath       string `yaml:"metrics_path"`
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

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"`
		} `yaml:"http"`

		WebSocket struct {
			MessagesPerSecond   float64 `yaml:"messages_per_second"`
			Burst               int     `yaml:"burst"`
			MaxMessageSizeBytes int64   `yaml:"max_message_size_bytes"`
		} `yaml:"websocket"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
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

	// Signal
	if c.Signal.PingInterval <= 0 {
		return fmt.Errorf("signal.ping_interval must be > 0")
	}
	if c.Signal.PongTimeout <= c.Signal.PingInterval {
		return fmt.Errorf("signal.pong_timeout must be greater than signal.ping_interval")
	}
	if c.Signal.WriteTimeout <= 0 {
		return fmt.Errorf("signal.write_timeout must be > 0")
	}

	// Canvas
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas.width and canvas.height must be > 0")
	}

	// Session
	if c.Session.LoginDelay < 0 {
		return fmt.Errorf("session.login_delay must be >= 0")
	}
	if c.Session.InviteDelay < 0 {
		return fmt.Errorf("session.invite_delay must be >= 0")
	}

	// Presence
	if c.Presence.Enabled {
		if c.Presence.Interval <= 0 {
			return fmt.Errorf("presence.interval must be > 0 when presence is enabled")
		}
		if c.Presence.StrokeProbability < 0 || c.Presence.StrokeProbability > 1 {
			return fmt.Errorf("presence.stroke_probability must be within [0, 1]")
		}
	}

	// Storage
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageBolt:
		if c.Storage.BoltPath == "" {
			return fmt.Errorf("storage.bolt_path must not be empty when storage.backend=bolt")
		}
	case StorageRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when storage.backend=redis")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when storage.backend=redis")
		}
	default:
		return fmt.Errorf("storage.backend must be one of memory, bolt, redis (got %q)", c.Storage.Backend)
	}
	if c.Storage.ProfileKey == "" {
		return fmt.Errorf("storage.profile_key must not be empty")
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}

	// Snapshots
	if c.Snapshots.Enabled {
		if c.Snapshots.Directory == "" {
			return fmt.Errorf("snapshots.directory must not be empty when snapshots are enabled")
		}
		if c.Snapshots.Interval <= 0 {
			return fmt.Errorf("snapshots.interval must be > 0 when snapshots are enabled")
		}
		if c.Snapshots.Retention < 0 {
			return fmt.Errorf("snapshots.retention must be >= 0")
		}
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing is enabled")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.MessagesPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.websocket.messages_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.Burst <= 0 {
			return fmt.Errorf("rate_limiting.websocket.burst must be > 0 when rate limiting is enabled")
		}
	}
	if c.RateLimiting.WebSocket.MaxMessageSizeBytes < 0 {
		return fmt.Errorf("rate_limiting.websocket.max_message_size_bytes must be >= 0")
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
// A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.PublicURL = "http://localhost:8080/"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 10 * time.Second

	cfg.Signal.PingInterval = 30 * time.Second
	cfg.Signal.PongTimeout = 60 * time.Second
	cfg.Signal.WriteTimeout = 10 * time.Second

	cfg.Canvas.Width = 900
	cfg.Canvas.Height = 600
	cfg.Canvas.Background = "#ffffff"

	cfg.Session.LoginDelay = time.Second
	cfg.Session.InviteDelay = time.Second

	cfg.Presence.Enabled = true
	cfg.Presence.Interval = 3 * time.Second
	cfg.Presence.StrokeProbability = 0.15

	cfg.Storage.Backend = StorageBolt
	cfg.Storage.BoltPath = "data/drawboard.db"
	cfg.Storage.ProfileKey = "collabUser"

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.PoolSize = 10
	cfg.Redis.KeyPrefix = "drawboard:"

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AccessTokenTTL = 24 * time.Hour
	cfg.Auth.AllowedOrigins = []string{"*"}

	cfg.Snapshots.Enabled = true
	cfg.Snapshots.Directory = "data/snapshots"
	cfg.Snapshots.Interval = 5 * time.Minute
	cfg.Snapshots.Retention = 10

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.MetricsPath = "/metrics"

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 256
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 120
	cfg.RateLimiting.WebSocket.Burst = 240
	cfg.RateLimiting.WebSocket.MaxMessageSizeBytes = 64 * 1024

	return cfg
}

func (c *Config) applyEnvOverrides() error {
	if addr := os.Getenv("DRAWBOARD_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if url := os.Getenv("DRAWBOARD_PUBLIC_URL"); url != "" {
		c.Server.PublicURL = url
	}
	if level := os.Getenv("DRAWBOARD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("DRAWBOARD_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if backend := os.Getenv("DRAWBOARD_STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if path := os.Getenv("DRAWBOARD_BOLT_PATH"); path != "" {
		c.Storage.BoltPath = path
	}
	if addr := os.Getenv("DRAWBOARD_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if v := os.Getenv("DRAWBOARD_PRESENCE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DRAWBOARD_PRESENCE_ENABLED: %w", err)
		}
		c.Presence.Enabled = enabled
	}
	return nil
}
