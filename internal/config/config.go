package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit"` // requests per minute per client
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// StorageConfig selects where comparisons and villages live.
// Backend is "file" or "postgres".
type StorageConfig struct {
	Backend         string `yaml:"backend"`
	ComparisonsPath string `yaml:"comparisons_path"`
	WorkbookPath    string `yaml:"workbook_path"`
	Sheet           string `yaml:"sheet"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	Criteria []CriterionConfig `yaml:"criteria"`
}

type CriterionConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name; unknown names fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CriterionSet builds the process-wide criterion definitions.
func (c *Config) CriterionSet() (scoring.CriterionSet, error) {
	criteria := make([]scoring.Criterion, 0, len(c.Scoring.Criteria))
	for _, cc := range c.Scoring.Criteria {
		p, err := scoring.ParsePolarity(cc.Type)
		if err != nil {
			return nil, fmt.Errorf("criterion %q: %w", cc.Name, err)
		}
		criteria = append(criteria, scoring.Criterion{Name: strings.TrimSpace(cc.Name), Polarity: p})
	}
	set := scoring.NewCriterionSet(criteria...)
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file":
		if c.Storage.ComparisonsPath == "" || c.Storage.WorkbookPath == "" {
			return fmt.Errorf("storage: file backend needs comparisons_path and workbook_path")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("storage: postgres backend needs database.url")
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if _, err := c.CriterionSet(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}

func defaultCriteria() []CriterionConfig {
	defaults := scoring.DefaultCriteria()
	out := make([]CriterionConfig, len(defaults))
	for i, c := range defaults {
		out[i] = CriterionConfig{Name: c.Name, Type: string(c.Polarity)}
	}
	return out
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8600,
			MetricsPort: 8601,
			RateLimit:   120,
			MaxUploadMB: 10,
		},
		Storage: StorageConfig{
			Backend:         "file",
			ComparisonsPath: "data/ahp_config.json",
			WorkbookPath:    "data/Data_Stunting.xlsx",
			Sheet:           "ProsesingSAW",
		},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			Criteria: defaultCriteria(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DESARANK_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DESARANK_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("DESARANK_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("DESARANK_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("DESARANK_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("DESARANK_COMPARISONS_PATH"); v != "" {
		cfg.Storage.ComparisonsPath = v
	}
	if v := os.Getenv("DESARANK_WORKBOOK_PATH"); v != "" {
		cfg.Storage.WorkbookPath = v
	}
	if v := os.Getenv("DESARANK_SHEET"); v != "" {
		cfg.Storage.Sheet = v
	}
	if v := os.Getenv("DESARANK_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DESARANK_AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.AutoMigrate = b
		}
	}
	if v := os.Getenv("DESARANK_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("DESARANK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DESARANK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
