package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL         string
	DatabaseMaxConns    int
	ServerAddr          string
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool
	BidConfirmWait      time.Duration
	MigrationsDir       string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "pregao")
		pass := getenv("POSTGRES_PASSWORD", "pregao_pass")
		db := getenv("POSTGRES_DB", "pregao")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	maxConns := parseInt(getenv("DATABASE_MAX_CONNS", "10"), 10)
	addr := getenv("SERVER_ADDR", "0.0.0.0:8080")
	ttl := parseDuration(getenv("SESSION_TTL", "24h"), 24*time.Hour)
	cookieName := getenv("SESSION_COOKIE_NAME", "pregao_session")
	cookieSecure := parseBool(getenv("SESSION_COOKIE_SECURE", "false"), false)
	confirmSecs := parseInt(getenv("BID_CONFIRM_SECONDS", "10"), 10)
	migrationsDir := getenv("MIGRATIONS_DIR", "migrations")

	return &Config{
		DatabaseURL:         dsn,
		DatabaseMaxConns:    maxConns,
		ServerAddr:          addr,
		SessionTTL:          ttl,
		SessionCookieName:   cookieName,
		SessionCookieSecure: cookieSecure,
		BidConfirmWait:      time.Duration(confirmSecs) * time.Second,
		MigrationsDir:       migrationsDir,
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}
