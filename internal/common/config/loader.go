// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like VISION_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Vision.APIKey == "" {
		if val := os.Getenv("VISION_API_KEY"); val != "" {
			cfg.Vision.APIKey = val
		}
	}
	if cfg.Vision.BaseURL == "" {
		if val := os.Getenv("VISION_BASE_URL"); val != "" {
			cfg.Vision.BaseURL = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("POSTGRES_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sneakscout"
	}
	if cfg.Search.BatchSize == 0 {
		cfg.Search.BatchSize = 3
	}
	if cfg.Search.BatchCooldown == 0 {
		cfg.Search.BatchCooldown = 3
	}
	if cfg.Search.ScrapeTimeout == 0 {
		cfg.Search.ScrapeTimeout = 120
	}
	if cfg.Search.MaxConcurrent == 0 {
		cfg.Search.MaxConcurrent = 5
	}
	if cfg.Pipeline.MaxPrice == 0 {
		cfg.Pipeline.MaxPrice = 5000
	}
	if cfg.Pipeline.ProbeTimeout == 0 {
		cfg.Pipeline.ProbeTimeout = 5
	}
	if cfg.Pipeline.TitleBudget == 0 {
		cfg.Pipeline.TitleBudget = 60
	}
	if !viper.IsSet("pipeline.men_match_on_unmarked") {
		// Observed catalog convention: unmarked listings are men's.
		cfg.Pipeline.MenMatchOnUnmarked = true
	}
	if cfg.Vision.Timeout == 0 {
		cfg.Vision.Timeout = 15000
	}
	if cfg.Stores.RegistryPath == "" {
		cfg.Stores.RegistryPath = "configs/stores.json"
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "results.json"
	}
	if !viper.IsSet("output.write_partials") {
		cfg.Output.WritePartials = true
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Search.BatchSize < 1 {
		return fmt.Errorf("search.batch_size must be at least 1")
	}
	if cfg.Search.MaxConcurrent < cfg.Search.BatchSize {
		return fmt.Errorf("search.max_concurrent (%d) must not be smaller than search.batch_size (%d)",
			cfg.Search.MaxConcurrent, cfg.Search.BatchSize)
	}
	if cfg.Pipeline.MaxPrice <= 0 {
		return fmt.Errorf("pipeline.max_price must be positive")
	}
	if cfg.Database.Postgres.Enabled && cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host required when postgres is enabled")
	}
	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address required when redis is enabled")
	}
	return nil
}
