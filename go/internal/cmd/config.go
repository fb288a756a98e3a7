package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration loaded from YAML, with env overrides
// for deployment-specific values.
type Config struct {
	Scheduler struct {
		TickIntervalSec int `yaml:"tick_interval_sec"`
	} `yaml:"scheduler"`
	Bus struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
		ConsumerName  string `yaml:"consumer_name"`
	} `yaml:"bus"`
	Gateway struct {
		PingIntervalSec int `yaml:"ping_interval_sec"`
		ReadTimeoutSec  int `yaml:"read_timeout_sec"`
		WriteTimeoutSec int `yaml:"write_timeout_sec"`
	} `yaml:"gateway"`
}

// defaultConfig returns the configuration used when no file is present.
func defaultConfig() *Config {
	var cfg Config
	cfg.Scheduler.TickIntervalSec = 1
	cfg.Bus.Enabled = true
	cfg.Bus.URL = "nats://localhost:4222"
	cfg.Bus.StreamName = "ROOM_EVENTS"
	cfg.Bus.SubjectPrefix = "room.events"
	cfg.Bus.ConsumerName = "room-gateway"
	cfg.Gateway.PingIntervalSec = 30
	cfg.Gateway.ReadTimeoutSec = 60
	cfg.Gateway.WriteTimeoutSec = 10
	return &cfg
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Env overrides for containerized deployments.
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.Bus.URL = url
	}
	return cfg, nil
}

func (c *Config) tickInterval() time.Duration {
	return time.Duration(c.Scheduler.TickIntervalSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
