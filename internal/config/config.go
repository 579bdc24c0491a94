// Package config holds runtime configuration for dynrestore. Defaults come
// from the environment; CLI flags override them in cmd/.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Default values matching the restore runbook.
const (
	DefaultRegion         = "eu-central-1"
	DefaultTimeoutMinutes = 30
	DefaultLockFile       = "/tmp/dynamodb_restore.lock"
	DefaultZone           = "Europe/Berlin"

	// RetentionDays is the maximum age of a recovery point the provider's
	// point-in-time recovery can honor.
	RetentionDays = 35
)

// Table roles of the quote-lambda table set.
const (
	RoleQuotes    = "quotes"
	RoleUserLikes = "user_likes"
	RoleUserViews = "user_views"
)

// baseTableNames maps each logical role to its production table base name.
var baseTableNames = map[string]string{
	RoleQuotes:    "quote-lambda-tf-quotes",
	RoleUserLikes: "quote-lambda-tf-user-likes",
	RoleUserViews: "quote-lambda-tf-user-views",
}

// Environments lists the closed set of deployment environments.
var Environments = []string{"dev", "prod"}

// Config holds all configuration options.
type Config struct {
	// Version information (set by ldflags)
	Version   string
	BuildTime string
	GitCommit string

	// Target selection
	Environment string
	Region      string

	// Restore behavior
	TimeoutMinutes int
	LockFile       string
	DryRun         bool

	// Recovery point handling
	DefaultZone string // IANA zone applied to timezone-naive restore points

	// Status persistence
	StatusDir string

	// Provider endpoint overrides (local DynamoDB, testing)
	Endpoint  string
	AccessKey string
	SecretKey string

	// Output options
	Debug     bool
	NoColor   bool
	LogLevel  string
	LogFormat string
	LogFile   string // empty = console only
}

// New creates a new configuration with environment-driven defaults.
func New() *Config {
	return &Config{
		Environment:    getEnvString("RESTORE_ENVIRONMENT", ""),
		Region:         getEnvString("AWS_REGION", DefaultRegion),
		TimeoutMinutes: getEnvInt("RESTORE_TIMEOUT_MINUTES", DefaultTimeoutMinutes),
		LockFile:       getEnvString("RESTORE_LOCK_FILE", DefaultLockFile),
		DefaultZone:    getEnvString("RESTORE_DEFAULT_TZ", DefaultZone),
		StatusDir:      getEnvString("RESTORE_STATUS_DIR", "."),
		Endpoint:       getEnvString("DYNAMODB_ENDPOINT", ""),
		AccessKey:      getEnvString("AWS_ACCESS_KEY_ID", ""),
		SecretKey:      getEnvString("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:       getEnvString("LOG_LEVEL", "info"),
		LogFormat:      getEnvString("LOG_FORMAT", "text"),
	}
}

// ValidEnvironment reports whether env is one of the supported environments.
func ValidEnvironment(env string) bool {
	for _, e := range Environments {
		if e == env {
			return true
		}
	}
	return false
}

// TableSet returns the role → concrete table name mapping for the configured
// environment. Dev tables carry a -dev suffix; prod uses the base names.
func (c *Config) TableSet() (map[string]string, error) {
	if !ValidEnvironment(c.Environment) {
		return nil, fmt.Errorf("invalid environment %q: must be one of %v", c.Environment, Environments)
	}

	tables := make(map[string]string, len(baseTableNames))
	for role, base := range baseTableNames {
		if c.Environment == "dev" {
			tables[role] = base + "-dev"
		} else {
			tables[role] = base
		}
	}
	return tables, nil
}

// Roles returns the table roles in stable order.
func Roles() []string {
	roles := make([]string, 0, len(baseTableNames))
	for role := range baseTableNames {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
