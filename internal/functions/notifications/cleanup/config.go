// internal/functions/notifications/cleanup/config.go
package cleanup

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	RetentionDays int           `mapstructure:"retention_days"`
	BatchLimit    int           `mapstructure:"batch_limit"`
	Schedule      string        `mapstructure:"schedule"`
	Timezone      string        `mapstructure:"timezone"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		RetentionDays: 30,
		BatchLimit:    500,
		Schedule:      "0 0 * * *",
		Timezone:      "Asia/Manila",
		Timeout:       2 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive")
	}
	if c.BatchLimit <= 0 {
		return fmt.Errorf("batch_limit must be positive")
	}
	if c.Schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
