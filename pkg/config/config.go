package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"LiveChart/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
		CORS            bool          `yaml:"cors"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		SessionLimit    struct {
			Burst        float64 `yaml:"burst"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"session_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
		Retries int           `yaml:"retries"`
	} `yaml:"api"`
	Chart struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		MaxTickRPS   int           `yaml:"max_tick_rps"`
		Width        int           `yaml:"width"`
		Height       int           `yaml:"height"`
		Default      struct {
			Symbol   string `yaml:"symbol"`
			Interval string `yaml:"interval"`
			Source   string `yaml:"source"`
			Strategy string `yaml:"strategy"`
			Period   string `yaml:"period"`
		} `yaml:"default"`
	} `yaml:"chart"`
	Cache struct {
		Type          string        `yaml:"type"` // none | memory | redis | layered
		TTL           time.Duration `yaml:"ttl"`
		MemoryMaxSize int           `yaml:"memory_max_size"`
		Redis         struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		LogTopic     string   `yaml:"log_topic"`
		EventKinds   []string `yaml:"event_kinds"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
}

// Default returns the configuration used for keys the YAML leaves out.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowThreshold = time.Second
	c.Server.CORS = true
	c.Server.SessionLimit.Burst = 5
	c.Server.SessionLimit.RefillPerSec = 1
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.Output = "stdout"
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	c.API.BaseURL = "http://localhost:8000"
	c.API.Retries = 1
	c.Chart.PollInterval = time.Second
	c.Chart.Width = 800
	c.Chart.Height = 400
	c.Chart.Default.Symbol = "BTC"
	c.Chart.Default.Interval = "1d"
	c.Chart.Default.Source = "YAHOO"
	c.Chart.Default.Strategy = "NONE"
	c.Chart.Default.Period = "1y"
	c.Cache.Type = "memory"
	c.Cache.TTL = 30 * time.Second
	c.Cache.MemoryMaxSize = 1000
	c.Cache.Redis.Addr = "localhost:6379"
	c.Cache.Redis.PoolSize = 10
	c.Cache.Redis.Prefix = "livechart"
	c.Kafka.Topic = "livechart.chart.events"
	c.Kafka.LogTopic = "livechart.logs"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "snappy"
	return c
}

// Load reads and parses a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got '%s'", c.API.BaseURL)
	}
	if c.Chart.PollInterval <= 0 {
		return fmt.Errorf("chart.poll_interval must be positive")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	if strings.TrimSpace(c.Chart.Default.Symbol) == "" {
		return fmt.Errorf("chart.default.symbol is required")
	}
	switch c.Cache.Type {
	case "", "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be 'none', 'memory', 'redis' or 'layered', got '%s'", c.Cache.Type)
	}
	if (c.Cache.Type == "redis" || c.Cache.Type == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for cache.type '%s'", c.Cache.Type)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
