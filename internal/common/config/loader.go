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

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
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

	// Environment overlay, ignored if not present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from the working directory or the project root so the loader
// works from cmd/, package test directories, and the repo root alike.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
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

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "brewscout"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.MetricsAddr == "" {
		cfg.App.MetricsAddr = ":9102"
	}

	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.Database == "" {
		cfg.Database.Postgres.Database = "customers"
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = "postgres"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.APIs.GenAI.Timeout == 0 {
		cfg.APIs.GenAI.Timeout = 30000
	}
	if cfg.APIs.GenAI.Model == "" {
		cfg.APIs.GenAI.Model = "gemini-2.5-flash"
	}
	if cfg.APIs.Directory.BaseURL == "" {
		cfg.APIs.Directory.BaseURL = "https://api.openbrewerydb.org/v1/breweries"
	}
	if cfg.APIs.Directory.PageSize == 0 {
		cfg.APIs.Directory.PageSize = 50
	}
	if cfg.APIs.Directory.Timeout == 0 {
		cfg.APIs.Directory.Timeout = 10000
	}
	if cfg.APIs.Embeddings.BaseURL == "" {
		cfg.APIs.Embeddings.BaseURL = "http://localhost:11434"
	}
	if cfg.APIs.Embeddings.Model == "" {
		cfg.APIs.Embeddings.Model = "nomic-embed-text"
	}
	if cfg.APIs.Embeddings.Dimension == 0 {
		cfg.APIs.Embeddings.Dimension = 768
	}
	if cfg.APIs.Embeddings.Timeout == 0 {
		cfg.APIs.Embeddings.Timeout = 15000
	}

	if cfg.Orchestrator.WaitBudget == 0 {
		cfg.Orchestrator.WaitBudget = 30
	}
	if cfg.Orchestrator.MaxIterations == 0 {
		cfg.Orchestrator.MaxIterations = 10
	}
	if cfg.Orchestrator.CandidateLimit == 0 {
		cfg.Orchestrator.CandidateLimit = 5
	}

	if cfg.Cache.TTLDays == 0 {
		cfg.Cache.TTLDays = 30
	}
	if cfg.Cache.SimilarityThreshold == 0 {
		cfg.Cache.SimilarityThreshold = 0.92
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "enrich:cache:"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Orchestrator.MaxIterations < 1 {
		return fmt.Errorf("orchestrator.max_iterations must be positive")
	}
	if cfg.Orchestrator.CandidateLimit < 3 || cfg.Orchestrator.CandidateLimit > 5 {
		return fmt.Errorf("orchestrator.candidate_limit must be between 3 and 5")
	}
	if cfg.Cache.SimilarityThreshold <= 0 || cfg.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("cache.similarity_threshold must be in (0, 1]")
	}
	if cfg.Cache.TTLDays < 1 {
		return fmt.Errorf("cache.ttl_days must be positive")
	}
	if cfg.APIs.Directory.BaseURL == "" {
		return fmt.Errorf("apis.directory.base_url is required")
	}
	return nil
}
