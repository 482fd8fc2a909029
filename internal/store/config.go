package store

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envconfigPrefix = "DATABASE"

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the database connection options.
type Config struct {
	Driver       string `envconfig:"DRIVER" default:"sqlite"`
	DSN          string `envconfig:"DSN" default:"spiders.db"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" default:"10"`
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"true"`
}

// LoadConfigFromEnv reads DATABASE_* environment variables.
func LoadConfigFromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process(envconfigPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("error getting database configuration from environment: %w", err)
	}
	return c, nil
}
