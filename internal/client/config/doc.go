// Package config loads runtime configuration for the userdesk CLI.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags -a, -g, -i, -s, -t, -l.
//
// Example JSON:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080/api",
//	  "health_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "state_db_path": "userdesk.db",
//	  "request_timeout": "10s",
//	  "log_level": "warn"
//	}
package config
