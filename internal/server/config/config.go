// Package config handles configuration for the server component: defaults,
// a JSON overlay, USERDESK_* environment variables and command-line flags,
// applied in that order.
package config

import "time"

// Config holds runtime settings for the userdesk server.
type Config struct {
	HTTPAddr   string `env:"HTTP_ADDR"`
	HealthAddr string `env:"HEALTH_ADDR"`
	// DatabaseDSN is a PostgreSQL DSN (pgx). Empty selects the in-memory store.
	DatabaseDSN string `env:"DATABASE_DSN"`
	// SecretKey signs bearer tokens (HS256). Override the default outside development.
	SecretKey     string        `env:"SECRET_KEY"`
	TokenValidity time.Duration `env:"TOKEN_VALIDITY"`
	BcryptCost    int           `env:"BCRYPT_COST"`

	// RedisURL enables the login rate limiter; empty disables it.
	RedisURL string `env:"REDIS_URL"`
	// LoginRate is the sustained number of login attempts per minute per client.
	LoginRate  int `env:"LOGIN_RATE"`
	LoginBurst int `env:"LOGIN_BURST"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	LogLevel        string        `env:"LOG_LEVEL"`
	LogFormat       string        `env:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.HealthAddr = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.TokenValidity = 24 * time.Hour
	c.BcryptCost = 0
	c.RedisURL = ""
	c.LoginRate = 10
	c.LoginBurst = 5
	c.AdminEmail = ""
	c.AdminPassword = ""
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config from defaults, the JSON file named by
// -c/-config, the process environment and finally args. args excludes the
// program name.
func LoadConfig(args []string) (*Config, error) {
	return load(args, nil)
}

func load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
