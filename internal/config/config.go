package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Issue transition policies accepted by ISSUE_TRANSITION_POLICY.
const (
	IssuePolicyPermissive = "permissive"
	IssuePolicyStrict     = "strict"
)

type Config struct {
	Port           int      `env:"PORT" envDefault:"8080"`
	DBString       string   `env:"DB_STRING,notEmpty"`
	SessionSecret  string   `env:"SESSION_SECRET" envDefault:"workhub-dev-secret"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	AppBaseURL     string   `env:"APP_BASE_URL" envDefault:""`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"warn"`
	RunMigrations  bool     `env:"RUN_MIGRATIONS" envDefault:"true"`

	FanoutConcurrency     int           `env:"FANOUT_CONCURRENCY" envDefault:"8"`
	IssueTransitionPolicy string        `env:"ISSUE_TRANSITION_POLICY" envDefault:"permissive"`
	DeadlineSweepInterval time.Duration `env:"DEADLINE_SWEEP_INTERVAL" envDefault:"1h"`
	DeadlineWindow        time.Duration `env:"DEADLINE_WINDOW" envDefault:"24h"`
}

// Load reads .env when present and parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return Parse()
}

// Parse reads the process environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.IssueTransitionPolicy {
	case IssuePolicyPermissive, IssuePolicyStrict:
	default:
		return fmt.Errorf("ISSUE_TRANSITION_POLICY must be %q or %q, got %q",
			IssuePolicyPermissive, IssuePolicyStrict, c.IssueTransitionPolicy)
	}
	if c.FanoutConcurrency < 1 {
		return fmt.Errorf("FANOUT_CONCURRENCY must be at least 1")
	}
	if c.DeadlineWindow <= 0 {
		return fmt.Errorf("DEADLINE_WINDOW must be positive")
	}
	return nil
}
