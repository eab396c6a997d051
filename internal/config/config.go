package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
	ReconcileBodyLimit string        `mapstructure:"RECONCILE_BODY_LIMIT"`

	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	// Engagement escalation thresholds, in days since last contact. The
	// list pair drives the patient list badges; the worklist pair drives
	// the follow-up queue, which escalates later on purpose.
	ListAtRiskDays     int `mapstructure:"LIST_AT_RISK_DAYS"`
	ListChurnDays      int `mapstructure:"LIST_CHURN_DAYS"`
	WorklistAtRiskDays int `mapstructure:"WORKLIST_AT_RISK_DAYS"`
	WorklistChurnDays  int `mapstructure:"WORKLIST_CHURN_DAYS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("RECONCILE_BODY_LIMIT", "10M")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("LIST_AT_RISK_DAYS", 14)
	v.SetDefault("LIST_CHURN_DAYS", 21)
	v.SetDefault("WORKLIST_AT_RISK_DAYS", 21)
	v.SetDefault("WORKLIST_CHURN_DAYS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("RECONCILE_BODY_LIMIT")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("LIST_AT_RISK_DAYS")
	v.BindEnv("LIST_CHURN_DAYS")
	v.BindEnv("WORKLIST_AT_RISK_DAYS")
	v.BindEnv("WORKLIST_CHURN_DAYS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that threshold pairs are ordered: at-risk must come
// before churn, and neither may be zero or negative.
func (c *Config) Validate() error {
	pairs := []struct {
		name          string
		atRisk, churn int
	}{
		{"list", c.ListAtRiskDays, c.ListChurnDays},
		{"worklist", c.WorklistAtRiskDays, c.WorklistChurnDays},
	}
	for _, p := range pairs {
		if p.atRisk <= 0 || p.churn <= 0 {
			return fmt.Errorf("%s thresholds must be positive, got at-risk=%d churn=%d", p.name, p.atRisk, p.churn)
		}
		if p.atRisk >= p.churn {
			return fmt.Errorf("%s at-risk threshold (%d) must be below churn threshold (%d)", p.name, p.atRisk, p.churn)
		}
	}
	return nil
}
