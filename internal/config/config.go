package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Card     CardConfig     `mapstructure:"card" validate:"required"`
}

// ServerConfig contains the settings of the interactive session itself.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// CardConfig contains the fixed defaults applied to every card at creation
// and the activation processing delay base. Monetary values are decimal
// strings so they survive the trip through viper without float rounding.
type CardConfig struct {
	MaxDebt               string `mapstructure:"max_debt"                validate:"required"`
	FeeWithdrawalDomestic string `mapstructure:"fee_withdrawal_domestic" validate:"required"`
	FeeWithdrawalAbroad   string `mapstructure:"fee_withdrawal_abroad"   validate:"required"`
	FeeMaintenance        string `mapstructure:"fee_maintenance"         validate:"required"`
	MinTransactions       int    `mapstructure:"min_transactions"        validate:"gte=0"`

	// ActivationDelayBaseMS is the length of one activation "time unit" in
	// milliseconds. The activation flow blocks for 5-15 units; tests set
	// this to 0 to skip the wait.
	ActivationDelayBaseMS int `mapstructure:"activation_delay_base_ms" validate:"gte=0"`
}
