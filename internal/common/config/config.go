// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Firebase  FirebaseConfig  `mapstructure:"firebase"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Retention RetentionConfig `mapstructure:"retention"`
	Badge     BadgeConfig     `mapstructure:"badge"`
	Users     UsersConfig     `mapstructure:"users"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	ReadTimeout    int    `mapstructure:"read_timeout"`    // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"`   // milliseconds
	HandlerTimeout int    `mapstructure:"handler_timeout"` // milliseconds, per-invocation deadline
}

type FirebaseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Handler Configuration Sections ---

// RetentionConfig holds settings for the scheduled notification cleanup.
type RetentionConfig struct {
	Days       int    `mapstructure:"days"`
	BatchLimit int    `mapstructure:"batch_limit"`
	Schedule   string `mapstructure:"schedule"`
	Timezone   string `mapstructure:"timezone"`
}

// BadgeConfig holds settings for the badge-count handler.
type BadgeConfig struct {
	CacheTTL int `mapstructure:"cache_ttl"` // milliseconds, 0 disables caching
}

// UsersConfig holds settings for the manage-users handler.
type UsersConfig struct {
	WelcomeEmail struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"welcome_email"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// TracingConfig holds settings for the Jaeger trace exporter.
type TracingConfig struct {
	CollectorURL string `mapstructure:"collector_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Validate checks that required fields are present.
func (f FirebaseConfig) Validate() error {
	if f.ProjectID == "" {
		return fmt.Errorf("firebase.project_id is required")
	}
	return nil
}
