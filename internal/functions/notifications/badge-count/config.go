// internal/functions/notifications/badge-count/config.go
package badgecount

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled  bool          `mapstructure:"enabled"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 0 disables caching
	Timeout  time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:  true,
		CacheTTL: 30 * time.Second,
		Timeout:  10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
