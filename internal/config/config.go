package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBConnectAttempts int           `mapstructure:"DB_CONNECT_ATTEMPTS"`
	DBConnectDelay    time.Duration `mapstructure:"DB_CONNECT_DELAY"`

	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel  string `mapstructure:"OPENAI_MODEL"`

	// CollaboratorTimeout bounds every LLM and storage call made during a
	// single conversation turn.
	CollaboratorTimeout time.Duration `mapstructure:"COLLABORATOR_TIMEOUT"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

// Load reads configuration from the environment and an optional
// config.yaml in the working directory, applying defaults for everything
// except the database URL and the OpenAI key.
func Load() (Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DB_CONNECT_ATTEMPTS", 5)
	viper.SetDefault("DB_CONNECT_DELAY", "500ms")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("COLLABORATOR_TIMEOUT", "15s")
	viper.SetDefault("CORS_ORIGINS", []string{"*"})

	// A missing config file is fine; env vars alone are enough.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with the production
// logging profile.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
