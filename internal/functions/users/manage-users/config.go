// internal/functions/users/manage-users/config.go
package manageusers

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled             bool          `mapstructure:"enabled"`
	Timeout             time.Duration `mapstructure:"timeout"`
	WelcomeEmailEnabled bool          `mapstructure:"welcome_email_enabled"`
	FromEmail           string        `mapstructure:"from_email"`
	AWSRegion           string        `mapstructure:"aws_region"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Timeout:   30 * time.Second,
		AWSRegion: "ap-southeast-1",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.WelcomeEmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when welcome_email_enabled is set")
	}
	return nil
}
