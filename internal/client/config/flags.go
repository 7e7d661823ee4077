package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/userdesk/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-i", "-s", "-t", "-l"}

// parseFlags overlays cfg with the flags it knows about; anything else in
// args is ignored.
//
//	-a string   API base URL
//	-g string   gRPC health endpoint host:port
//	-i int      online check interval (seconds)
//	-s string   state database path
//	-t int      request timeout (seconds, 0 = none)
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("userdesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "gRPC health endpoint")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.StateDBPath, "s", cfg.StateDBPath, "state database path")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *interval <= 0 {
		return fmt.Errorf("parse flags: online check interval must be positive")
	}
	if *timeout < 0 {
		return fmt.Errorf("parse flags: request timeout must not be negative")
	}

	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
