package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/userdesk/internal/flagx"
	"github.com/dmitrijs2005/userdesk/internal/timex"
)

// jsonConfig is the on-disk shape. Durations accept "24h" or nanoseconds.
type jsonConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	HealthAddr      string          `json:"health_addr"`
	DatabaseDSN     string          `json:"database_dsn"`
	SecretKey       string          `json:"secret_key"`
	TokenValidity   *timex.Duration `json:"token_validity"`
	BcryptCost      *int            `json:"bcrypt_cost"`
	RedisURL        string          `json:"redis_url"`
	LoginRate       *int            `json:"login_rate"`
	LoginBurst      *int            `json:"login_burst"`
	AdminEmail      string          `json:"admin_email"`
	AdminPassword   string          `json:"admin_password"`
	LogLevel        string          `json:"log_level"`
	LogFormat       string          `json:"log_format"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
}

// parseJSON overlays cfg with the fields present in the file named by
// -c/-config. Absent fields keep their current value.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.HealthAddr, jc.HealthAddr)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.AdminEmail, jc.AdminEmail)
	setString(&cfg.AdminPassword, jc.AdminPassword)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.TokenValidity != nil {
		cfg.TokenValidity = jc.TokenValidity.Duration
	}
	if jc.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	if jc.BcryptCost != nil {
		cfg.BcryptCost = *jc.BcryptCost
	}
	if jc.LoginRate != nil {
		cfg.LoginRate = *jc.LoginRate
	}
	if jc.LoginBurst != nil {
		cfg.LoginBurst = *jc.LoginBurst
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
