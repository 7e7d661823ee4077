package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/userdesk/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-k", "-t", "-r", "-l"}

// parseFlags overlays cfg with the flags it knows about.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN (empty = in-memory store)
//	-k string   token signing key
//	-t int      token validity, minutes
//	-r string   Redis URL for the login rate limiter
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("userdesk-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "address and port of the health endpoint")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "secret key")
	validity := fs.Int("t", int(cfg.TokenValidity.Minutes()), "token validity (in minutes)")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "redis URL")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	set := false
	fs.Visit(func(f *flag.Flag) { set = set || f.Name == "t" })
	if !set {
		return nil
	}
	if *validity <= 0 {
		return fmt.Errorf("parse flags: token validity must be positive")
	}
	cfg.TokenValidity = time.Duration(*validity) * time.Minute
	return nil
}
