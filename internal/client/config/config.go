package config

import (
	"time"
)

// Config holds runtime settings for the userdesk CLI.
type Config struct {
	// APIBaseURL is the root of the HTTP API, including the /api prefix.
	APIBaseURL string
	// HealthAddr is host:port of the server's gRPC health endpoint.
	HealthAddr          string
	OnlineCheckInterval time.Duration
	// StateDBPath is the SQLite file holding the persisted token.
	StateDBPath string
	// RequestTimeout bounds each HTTP request; zero means no limit.
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.HealthAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.StateDBPath = "userdesk.db"
	c.RequestTimeout = 0
	c.LogLevel = "warn"
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config in args (if any), then the flags in args. Later sources win.
// args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
