package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads the configuration and sets default values for development/production
func LoadConfig() error {
	// Optional .env for local overrides; absence is fine.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create a default one
			return createDefaultConfig()
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	setDefaults()
	return nil
}

// setDefaults sets default configuration values based on the environment
func setDefaults() {
	env := viper.GetString("ENV")
	if env == "" {
		env = "development"
		viper.Set("ENV", env)
	}

	if env == "development" {
		viper.SetDefault("allowed_origin", "http://localhost:5173")
		viper.SetDefault("wallet_db_path", "./dev_wallet.db")
		viper.SetDefault("log_level", "debug")
	} else {
		viper.SetDefault("allowed_origin", "https://wallet.example.com")
		viper.SetDefault("wallet_db_path", "/var/lib/solana-wallet/wallet.db")
		viper.SetDefault("log_level", "info")
	}

	// RPC endpoints: at least one is required for the scheduler to work.
	viper.SetDefault("rpc_endpoints", []string{
		"https://api.mainnet-beta.solana.com",
	})

	// Scheduler and health tracker tunables.
	viper.SetDefault("requests_per_batch", 10)
	viper.SetDefault("batch_delay", "1s")
	viper.SetDefault("max_retries", 3)
	viper.SetDefault("retry_delay", "2s")
	viper.SetDefault("max_queue_size", 100)
	viper.SetDefault("request_timeout", "30s")
	viper.SetDefault("health_check_interval", "30s")
	viper.SetDefault("probe_timeout", "5s")
	viper.SetDefault("slot_poll_interval", "10s")
	viper.SetDefault("balance_cache_ttl", "10s")

	// Token registry and price feed.
	viper.SetDefault("token_registry_url", "https://token.jup.ag/strict")
	viper.SetDefault("token_registry_ttl", "1h")
	viper.SetDefault("price_feed_url", "https://api.coinbase.com/v2/prices/SOL-USD/spot")
	viper.SetDefault("price_cache_ttl", "5m")

	// Session and unlock policy.
	viper.SetDefault("balance_poll_interval", "10s")
	viper.SetDefault("auto_logout_duration", "15m")
	viper.SetDefault("session_check_interval", "1m")
	viper.SetDefault("unlock_policy", "password") // "password" or "pin"
	viper.SetDefault("min_password_length", 8)
	viper.SetDefault("pin_length", 6)

	// API server.
	viper.SetDefault("api_port", 9003)
	viper.SetDefault("log_file", "./wallet.log")
	viper.SetDefault("theme", "dark")
	viper.SetDefault("explorer_url", "https://solana.fm/tx")
	viper.SetDefault("commitment", "confirmed")
}

// createDefaultConfig writes out a config file with initial values
func createDefaultConfig() error {
	setDefaults()
	if err := viper.SafeWriteConfigAs("config.json"); err != nil {
		return fmt.Errorf("error creating default config file: %w", err)
	}
	return nil
}
