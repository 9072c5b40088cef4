package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration of one bot. Values come from
// DefaultConfig, overridden by an optional JSON file, overridden by
// VKGRAM_* environment variables.
type Config struct {
	Token      string          `json:"token" env:"VKGRAM_TOKEN"`
	GroupID    int64           `json:"group_id" env:"VKGRAM_GROUP_ID"`
	APIBase    string          `json:"api_base" env:"VKGRAM_API_BASE"`
	APIVersion string          `json:"api_version" env:"VKGRAM_API_VERSION"`
	Workers    int             `json:"workers" env:"VKGRAM_WORKERS"`
	QueueSize  int             `json:"queue_size" env:"VKGRAM_QUEUE_SIZE"`
	API        APIConfig       `json:"api"`
	LongPoll   LongPollConfig  `json:"long_poll"`
	RateLimit  RateLimitConfig `json:"rate_limit"`
	Logging    LoggingConfig   `json:"logging"`
}

type APIConfig struct {
	TimeoutSec          int `json:"timeout_sec" env:"VKGRAM_API_TIMEOUT_SEC"`
	MaxRateLimitRetries int `json:"max_rate_limit_retries" env:"VKGRAM_API_MAX_RATE_LIMIT_RETRIES"`
}

type LongPollConfig struct {
	WaitSec      int `json:"wait_sec" env:"VKGRAM_LONG_POLL_WAIT_SEC"`
	RetryDelayMS int `json:"retry_delay_ms" env:"VKGRAM_LONG_POLL_RETRY_DELAY_MS"`
}

type RateLimitConfig struct {
	MaxRequests int `json:"max_requests" env:"VKGRAM_RATE_LIMIT_MAX_REQUESTS"`
	PeriodMS    int `json:"period_ms" env:"VKGRAM_RATE_LIMIT_PERIOD_MS"`
}

type LoggingConfig struct {
	Enabled       bool   `json:"enabled" env:"VKGRAM_LOGGING_ENABLED"`
	Level         string `json:"level" env:"VKGRAM_LOGGING_LEVEL"`
	Dir           string `json:"dir" env:"VKGRAM_LOGGING_DIR"`
	Filename      string `json:"filename" env:"VKGRAM_LOGGING_FILENAME"`
	MaxSizeMB     int    `json:"max_size_mb" env:"VKGRAM_LOGGING_MAX_SIZE_MB"`
	RetentionDays int    `json:"retention_days" env:"VKGRAM_LOGGING_RETENTION_DAYS"`
}

func DefaultConfig() *Config {
	return &Config{
		APIBase:    "https://api.vk.com/method",
		APIVersion: "5.199",
		Workers:    10,
		QueueSize:  1000,
		API: APIConfig{
			TimeoutSec:          15,
			MaxRateLimitRetries: 3,
		},
		LongPoll: LongPollConfig{
			WaitSec:      25,
			RetryDelayMS: 1000,
		},
		RateLimit: RateLimitConfig{
			MaxRequests: 3,
			PeriodMS:    1000,
		},
		Logging: LoggingConfig{
			Enabled:       false,
			Level:         "info",
			Dir:           "logs",
			Filename:      "vkgram.log",
			MaxSizeMB:     20,
			RetentionDays: 3,
		},
	}
}

// LoadConfig reads the JSON file at path (missing file means defaults) and
// applies environment overrides. Unknown JSON fields are rejected.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			data = nil
		} else {
			return nil, err
		}
	}
	if len(data) > 0 {
		if err := unmarshalConfigStrict(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func unmarshalConfigStrict(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("invalid config: trailing JSON content")
		}
		return err
	}
	return nil
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

func (c *Config) LongPollRetryDelay() time.Duration {
	return time.Duration(c.LongPoll.RetryDelayMS) * time.Millisecond
}

func (c *Config) RateLimitPeriod() time.Duration {
	return time.Duration(c.RateLimit.PeriodMS) * time.Millisecond
}
