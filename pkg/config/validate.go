package config

import "fmt"

// Validate returns configuration problems found in cfg.
// It does not mutate cfg.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if cfg.Token == "" {
		errs = append(errs, fmt.Errorf("token is required"))
	}
	if cfg.GroupID <= 0 {
		errs = append(errs, fmt.Errorf("group_id must be > 0"))
	}
	if cfg.APIBase == "" {
		errs = append(errs, fmt.Errorf("api_base is required"))
	}
	if cfg.APIVersion == "" {
		errs = append(errs, fmt.Errorf("api_version is required"))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be > 0"))
	}
	if cfg.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue_size must be > 0"))
	}
	if cfg.API.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout_sec must be > 0"))
	}
	if cfg.API.MaxRateLimitRetries < 0 {
		errs = append(errs, fmt.Errorf("api.max_rate_limit_retries must be >= 0"))
	}
	if cfg.LongPoll.WaitSec <= 0 {
		errs = append(errs, fmt.Errorf("long_poll.wait_sec must be > 0"))
	}
	if cfg.LongPoll.RetryDelayMS <= 0 {
		errs = append(errs, fmt.Errorf("long_poll.retry_delay_ms must be > 0"))
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_requests must be > 0"))
	}
	if cfg.RateLimit.PeriodMS <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.period_ms must be > 0"))
	}

	if cfg.Logging.Enabled {
		if cfg.Logging.Dir == "" {
			errs = append(errs, fmt.Errorf("logging.dir is required when logging.enabled=true"))
		}
		if cfg.Logging.Filename == "" {
			errs = append(errs, fmt.Errorf("logging.filename is required when logging.enabled=true"))
		}
		if cfg.Logging.MaxSizeMB <= 0 {
			errs = append(errs, fmt.Errorf("logging.max_size_mb must be > 0"))
		}
		if cfg.Logging.RetentionDays <= 0 {
			errs = append(errs, fmt.Errorf("logging.retention_days must be > 0"))
		}
	}

	return errs
}
