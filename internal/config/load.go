package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and optionally a
// config file. Environment variables take precedence over values from the
// config file, which takes precedence over built-in defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file next to the binary.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables with CARDBANK_ prefix, e.g.
	// CARDBANK_DATABASE_URL overrides database.url.
	v.SetEnvPrefix("CARDBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the built-in defaults, including the fixed fee
// schedule applied to every new card.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log_level", "info")
	// Registered empty so the env override is visible to Unmarshal;
	// validation still rejects a missing URL.
	v.SetDefault("database.url", "")
	v.SetDefault("card.max_debt", "500.00")
	v.SetDefault("card.fee_withdrawal_domestic", "5.00")
	v.SetDefault("card.fee_withdrawal_abroad", "10.00")
	v.SetDefault("card.fee_maintenance", "10.00")
	v.SetDefault("card.min_transactions", 5)
	v.SetDefault("card.activation_delay_base_ms", 1000)
}
