// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Search   SearchConfig   `mapstructure:"search"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Database DatabaseConfig `mapstructure:"database"`
	Stores   StoresConfig   `mapstructure:"stores"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SearchConfig holds orchestrator scheduling knobs.
type SearchConfig struct {
	BatchSize       int `mapstructure:"batch_size"`        // workers dispatched concurrently per batch
	BatchCooldown   int `mapstructure:"batch_cooldown"`    // seconds between batches
	ScrapeTimeout   int `mapstructure:"scrape_timeout"`    // seconds covering open + raw extraction only
	MaxConcurrent   int `mapstructure:"max_concurrent"`    // global bound over variant x worker tasks
	DispatchPerSec  int `mapstructure:"dispatch_per_sec"`  // rate limit on task starts, 0 disables
}

// PipelineConfig holds validation stage knobs.
type PipelineConfig struct {
	MaxPrice           float64 `mapstructure:"max_price"`             // exclusive price sanity upper bound
	ProbeTimeout       int     `mapstructure:"probe_timeout"`         // seconds for image reachability probe
	TitleBudget        int     `mapstructure:"title_budget"`          // display title character budget
	MenMatchOnUnmarked bool    `mapstructure:"men_match_on_unmarked"` // unmarked titles count as men's
}

// VisionConfig holds settings for the image classification verifier.
type VisionConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Timeout  int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL int    `mapstructure:"cache_ttl"` // hours; 0 means no expiry
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	IndexPrefix string   `mapstructure:"index_prefix"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoresConfig locates the storefront registry file.
type StoresConfig struct {
	RegistryPath string   `mapstructure:"registry_path"`
	Allowlist    []string `mapstructure:"allowlist"` // empty means all registered stores
}

// OutputConfig holds result sink settings.
type OutputConfig struct {
	Path          string `mapstructure:"path"`           // run record JSON file
	WritePartials bool   `mapstructure:"write_partials"` // re-write the record on every item_found
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
