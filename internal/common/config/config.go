// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	APIs         APIsConfig         `mapstructure:"apis"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
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

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"genai"`

	Directory struct {
		BaseURL    string `mapstructure:"base_url"`
		PageSize   int    `mapstructure:"page_size"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxResults int    `mapstructure:"max_results"`
	} `mapstructure:"directory"`

	Embeddings struct {
		BaseURL   string `mapstructure:"base_url"`
		Model     string `mapstructure:"model"`
		Dimension int    `mapstructure:"dimension"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"embeddings"`
}

// OrchestratorConfig holds the plan execution settings.
type OrchestratorConfig struct {
	WaitBudget     int `mapstructure:"wait_budget"`     // seconds, confirmation wait
	MaxIterations  int `mapstructure:"max_iterations"`  // tool invocation ceiling per run
	CandidateLimit int `mapstructure:"candidate_limit"` // candidates presented per run
}

// WaitBudgetDuration returns the confirmation wait as a time.Duration.
func (o OrchestratorConfig) WaitBudgetDuration() time.Duration {
	return time.Duration(o.WaitBudget) * time.Second
}

// CacheConfig holds the enrichment cache settings.
type CacheConfig struct {
	TTLDays             int     `mapstructure:"ttl_days"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	KeyPrefix           string  `mapstructure:"key_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
