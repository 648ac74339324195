package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"salary-trends/models"
)

const envPrefix = "SALARY_"

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config holds all application configuration.
type Config struct {
	BaseURL               string  `koanf:"base_url"`
	Years                 []int   `koanf:"years"`
	RequestDelaySeconds   float64 `koanf:"request_delay_seconds"`
	RequestTimeoutSeconds float64 `koanf:"request_timeout_seconds"`
	ForecastHorizon       int     `koanf:"forecast_horizon"`
	MaxRetries            int     `koanf:"max_retries"`
	Pacing                string  `koanf:"pacing"`

	FetchEngine string `koanf:"fetch_engine"`
	ChromeTLS   bool   `koanf:"chrome_tls"`
	ChromeBin   string `koanf:"chrome_bin"`
	UserAgent   string `koanf:"user_agent"`

	OutputDir       string `koanf:"output_dir"`
	MetricsTextfile string `koanf:"metrics_textfile"`

	DBDriver         string `koanf:"db_driver"`
	DBDSN            string `koanf:"db_dsn"`
	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     string `koanf:"postgres_port"`
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDB       string `koanf:"postgres_db"`
	PostgresSSLMode  string `koanf:"postgres_sslmode"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Leagues replaces the built-in catalogue; ExtraLeagues is appended to it.
	Leagues      []models.League `koanf:"leagues"`
	ExtraLeagues []models.League `koanf:"extra_leagues"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		BaseURL:               "https://www.spotrac.com",
		Years:                 []int{2021, 2022, 2023, 2024, 2025},
		RequestDelaySeconds:   2.5,
		RequestTimeoutSeconds: 20,
		ForecastHorizon:       3,
		MaxRetries:            1,
		Pacing:                "fixed",

		FetchEngine: "http",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",

		OutputDir: "./output",

		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "scraper",
		PostgresDB:      "salary_db",
		PostgresSSLMode: "disable",

		LogLevel:  "info",
		LogFormat: "text",

		Leagues: DefaultLeagues(),
	}
}

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables. Order of precedence (low -> high):
//  1. defaults
//  2. YAML file named by SALARY_CONFIG
//  3. env (prefix SALARY_), including values from a .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SALARY_REQUEST_DELAY_SECONDS -> request_delay_seconds (flat keys).
	// List keys take comma separated values: SALARY_YEARS=2023,2024.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := Default()
	// mapstructure decodes into existing slices element by element, so
	// defaults must be dropped before an override is applied.
	if k.Exists("years") {
		cfg.Years = nil
	}
	if k.Exists("leagues") {
		cfg.Leagues = nil
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.Leagues = append(cfg.Leagues, cfg.ExtraLeagues...)
	cfg.ExtraLeagues = nil

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// listKeys are the env keys decoded as comma separated lists.
var listKeys = map[string]struct{}{"years": {}}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case len(c.Years) == 0:
		return fmt.Errorf("%w: years must not be empty", ErrInvalidConfig)
	case c.RequestDelaySeconds < 0:
		return fmt.Errorf("%w: request_delay_seconds must be >= 0", ErrInvalidConfig)
	case c.RequestTimeoutSeconds <= 0:
		return fmt.Errorf("%w: request_timeout_seconds must be > 0", ErrInvalidConfig)
	case c.ForecastHorizon < 1:
		return fmt.Errorf("%w: forecast_horizon must be >= 1", ErrInvalidConfig)
	}
	switch c.FetchEngine {
	case "http", "browser":
	default:
		return fmt.Errorf("%w: fetch_engine %q (want http or browser)", ErrInvalidConfig, c.FetchEngine)
	}
	switch c.DBDriver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: db_driver %q (want postgres, sqlite or empty)", ErrInvalidConfig, c.DBDriver)
	}
	for _, l := range c.Leagues {
		if l.Name == "" || l.Slug == "" || len(l.Teams) == 0 {
			return fmt.Errorf("%w: league %q needs name, slug and teams", ErrInvalidConfig, l.Name)
		}
	}
	return nil
}

// RequestDelay is the pause after every attempted request.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds * float64(time.Second))
}

// RequestTimeout bounds a single GET.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds * float64(time.Second))
}

// League looks up a league by name or slug, case-insensitively.
func (c *Config) League(name string) (models.League, bool) {
	for _, l := range c.Leagues {
		if strings.EqualFold(l.Name, name) || strings.EqualFold(l.Slug, name) {
			return l, true
		}
	}
	return models.League{}, false
}

// DSN returns the database connection string for the configured driver.
// For postgres it is assembled from the individual settings unless db_dsn
// is set explicitly.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	if c.DBDriver == "sqlite" {
		return "salary.db"
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
