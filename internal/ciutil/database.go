package ciutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/phrazzld/marginalia/internal/redact"
)

// Database URL variables, in lookup order.
const (
	EnvDatabaseURL           = "DATABASE_URL"
	EnvMarginaliaTestDBURL   = "MARGINALIA_TEST_DB_URL"
	EnvMarginaliaDatabaseURL = "MARGINALIA_DATABASE_URL"
)

// Defaults applied to CI database URLs.
const (
	StandardCIUser     = "postgres"
	StandardCIPassword = "postgres"
	StandardCIPort     = "5432"
	StandardCIDatabase = "marginalia_test"
	StandardCIOptions  = "sslmode=disable"
)

// GetTestDatabaseURL resolves the integration test database URL from
// DATABASE_URL, MARGINALIA_TEST_DB_URL or MARGINALIA_DATABASE_URL. Under CI
// the credentials are rewritten to postgres:postgres. An empty string means
// no database is configured. logger may be nil.
func GetTestDatabaseURL(logger *slog.Logger) string {
	dbURL, name := GetEnvWithFallbacks(EnvDatabaseURL, EnvMarginaliaTestDBURL, EnvMarginaliaDatabaseURL)
	if dbURL == "" {
		return ""
	}
	if logger != nil {
		logger.Debug("using test database url", "var", name, "value", redact.String(dbURL))
	}
	if !IsCI() {
		return dbURL
	}

	standardized, err := StandardizeDatabaseURL(dbURL)
	if err != nil {
		if logger != nil {
			logger.Warn("could not standardize database url", "error", redact.Error(err))
		}
		return dbURL
	}
	return standardized
}

// StandardizeDatabaseURL applies the CI credentials, port, database name and
// options to a postgres URL. Non-postgres URLs are returned unchanged.
func StandardizeDatabaseURL(dbURL string) (string, error) {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return dbURL, nil
	}

	out := *parsed
	out.User = url.UserPassword(StandardCIUser, StandardCIPassword)

	host := parsed.Hostname()
	if (host == "" || host == "localhost" || host == "127.0.0.1") && parsed.Port() == "" {
		if host == "" {
			host = "localhost"
		}
		out.Host = host + ":" + StandardCIPort
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		out.Path = "/" + StandardCIDatabase
	}
	if parsed.RawQuery == "" {
		out.RawQuery = StandardCIOptions
	}
	return out.String(), nil
}
