package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database holds Postgres connection settings.
type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME" envDefault:"tricity"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASS" envDefault:"postgres"`
}

// ConnectionString renders the settings as a libpq-style DSN.
func (d Database) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		d.Host, d.Port, d.Name, d.User, d.Password,
	)
}

// Config contains all runtime options for the server and worker processes.
type Config struct {
	HTTPAddr   string        `env:"HTTP_ADDR" envDefault:":8080"`
	UploadDir  string        `env:"UPLOAD_DIR"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	ImportBatchSize   int           `env:"IMPORT_BATCH_SIZE" envDefault:"100"`
	ImportWorkers     int           `env:"IMPORT_WORKERS" envDefault:"4"`
	ImportJobTimeout  time.Duration `env:"IMPORT_JOB_TIMEOUT" envDefault:"30m"`
	ImportMaxAttempts int           `env:"IMPORT_MAX_ATTEMPTS" envDefault:"5"`

	Database Database
}

// Load reads .env files when present, then parses the environment.
func Load() (*Config, error) {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				return nil, fmt.Errorf("load %s: %w", file, err)
			}
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if cfg.ImportBatchSize < 1 || cfg.ImportBatchSize > 1000 {
		cfg.ImportBatchSize = 100
	}
	if cfg.ImportWorkers < 1 {
		cfg.ImportWorkers = 1
	}
	return cfg, nil
}
