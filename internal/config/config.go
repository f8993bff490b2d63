// Package config loads the application configuration from the environment.
//
// Everything configurable lives in one struct, parsed once at startup and
// handed to server.New. There are no module-level singletons — handlers and
// stores receive what they need through constructors.
//
// A .env file in the working directory is loaded first (godotenv), so local
// development doesn't need a wall of exports; real deployments set the
// variables directly and have no .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// devSecretKey backs SECRET_KEY when it is unset. Fine for a laptop; any
// deployment that uses it gets a loud warning in the log because every
// session cookie is forgeable with a known key.
const devSecretKey = "dev-fallback-key-change-in-production"

// OAuthClient holds one provider's application credentials. The envPrefix
// on the Config fields expands these to GITHUB_CLIENT_ID, YANDEX_CLIENT_SECRET
// and so on.
type OAuthClient struct {
	ID     string `env:"ID"`
	Secret string `env:"SECRET"`
}

// Config is the full configuration surface.
//
// DatabaseURL selects the store: set → PostgreSQL, unset → a local SQLite
// file at DBPath. BaseURL is what the OAuth callback URLs are built from and
// must match the redirect URI registered with each provider.
type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	Debug     bool   `env:"DEBUG" envDefault:"false"`
	SecretKey string `env:"SECRET_KEY"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBPath      string `env:"DB_PATH" envDefault:"data/commentboard.db"`

	BaseURL string `env:"BASE_URL"`

	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"web/templates"`

	GitHub OAuthClient `envPrefix:"GITHUB_CLIENT_"`
	Yandex OAuthClient `envPrefix:"YANDEX_CLIENT_"`
}

// Load reads .env (if present) and the process environment.
func Load(logger *slog.Logger) (Config, error) {
	// A missing .env is the normal case outside local dev — not an error.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.SecretKey == "" {
		logger.Warn("SECRET_KEY not set — using the development fallback key; sessions are not secure")
		cfg.SecretKey = devSecretKey
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	return cfg, nil
}

// LogLevel maps the debug flag to an slog level.
func (c Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// CallbackURL returns the OAuth redirect URI for a provider,
// e.g. "http://localhost:8080/auth/github".
func (c Config) CallbackURL(provider string) string {
	return fmt.Sprintf("%s/auth/%s", c.BaseURL, provider)
}

// UsesPostgres reports whether DATABASE_URL selects a PostgreSQL store.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// EnsureDBDir creates the parent directory for the SQLite file. No-op when
// running against Postgres.
func (c Config) EnsureDBDir() error {
	if c.UsesPostgres() {
		return nil
	}
	dir := filepath.Dir(c.DBPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: creating database directory %s: %w", dir, err)
	}
	return nil
}
