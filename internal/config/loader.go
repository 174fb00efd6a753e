package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the portal service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionTTL    time.Duration
	SlotInterval  int
	ProposalTTL   time.Duration
	AdminUsername string
	AdminPassword string
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and collecting every missing or malformed entry into a
// single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:portal.db?_foreign_keys=on",
		SessionTTL:    24 * time.Hour,
		SlotInterval:  30,
		ProposalTTL:   2 * time.Minute,
		AdminUsername: "admin",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("PORTAL_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PORTAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PORTAL_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("PORTAL_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "PORTAL_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if intervalValue := strings.TrimSpace(os.Getenv("PORTAL_SLOT_INTERVAL")); intervalValue != "" {
		interval, err := strconv.Atoi(intervalValue)
		if err != nil || interval <= 0 || interval > 24*60 {
			invalid = append(invalid, "PORTAL_SLOT_INTERVAL")
		} else {
			cfg.SlotInterval = interval
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("PORTAL_PROPOSAL_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "PORTAL_PROPOSAL_TTL")
		} else {
			cfg.ProposalTTL = ttl
		}
	}

	if username := strings.TrimSpace(os.Getenv("PORTAL_ADMIN_USERNAME")); username != "" {
		cfg.AdminUsername = username
	}

	if password := strings.TrimSpace(os.Getenv("PORTAL_ADMIN_PASSWORD")); password == "" {
		missing = append(missing, "PORTAL_ADMIN_PASSWORD")
	} else {
		cfg.AdminPassword = password
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
