package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN). postgres:// URLs select PostgreSQL,
	// anything else is treated as a SQLite path.
	DatabaseURL string

	// Server bind address (host:port)
	ServerAddr string

	// Maximum database connection pool size
	MaxDBConnections int

	// Enable debug logging
	Debug bool

	// LogFormat is "text" or "json"
	LogFormat string

	// RoleGuard is the guard name stamped on roles created by the manager
	RoleGuard string

	// CoreRoles are role names that can never be edited or deleted, whatever
	// their ledger row says.
	CoreRoles []string

	// PageSize is the role list page size when the caller does not pass one
	PageSize int

	// MaxRoleNameLength bounds role names on create and update
	MaxRoleNameLength int

	Auth AuthConfig

	Observability ObservabilityConfig
}

// AuthConfig configures bearer token authentication on the HTTP API.
type AuthConfig struct {
	// TokenSecret is the HMAC key for HS256 bearer tokens. Empty disables
	// authentication and authorization checks (local development only).
	TokenSecret string
}

// Enabled reports whether bearer tokens are required.
func (a AuthConfig) Enabled() bool {
	return a.TokenSecret != ""
}

// ObservabilityConfig configures OpenTelemetry export.
type ObservabilityConfig struct {
	OTLPEndpoint   string
	OTLPInsecure   bool
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// DefaultCoreRoles is the bootstrap core role set.
var DefaultCoreRoles = []string{"super-admin", "admin", "faculty-admin", "lecturer", "student", "exam-office"}

const minTokenSecretLength = 32

// Load reads configuration from the global viper instance: TIMETABLE_ prefixed
// environment variables override a config file, which overrides defaults.
func Load() (*Config, error) {
	v := viper.GetViper()
	v.SetEnvPrefix("TIMETABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_url", "timetable.db")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("max_db_connections", 25)
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")
	v.SetDefault("role_guard", "web")
	v.SetDefault("core_roles", DefaultCoreRoles)
	v.SetDefault("page_size", 15)
	v.SetDefault("max_role_name_length", 125)
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.otlp_insecure", false)
	v.SetDefault("observability.service_name", "timetableapi")
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.environment", "development")

	cfg := &Config{
		DatabaseURL:       v.GetString("database_url"),
		ServerAddr:        v.GetString("server_addr"),
		MaxDBConnections:  v.GetInt("max_db_connections"),
		Debug:             v.GetBool("debug"),
		LogFormat:         v.GetString("log_format"),
		RoleGuard:         v.GetString("role_guard"),
		CoreRoles:         splitList(v.GetStringSlice("core_roles")),
		PageSize:          v.GetInt("page_size"),
		MaxRoleNameLength: v.GetInt("max_role_name_length"),
		Auth: AuthConfig{
			TokenSecret: v.GetString("auth.token_secret"),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint:   v.GetString("observability.otlp_endpoint"),
			OTLPInsecure:   v.GetBool("observability.otlp_insecure"),
			ServiceName:    v.GetString("observability.service_name"),
			ServiceVersion: v.GetString("observability.service_version"),
			Environment:    v.GetString("observability.environment"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("TIMETABLE_DATABASE_URL is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.MaxRoleNameLength <= 0 {
		return fmt.Errorf("max_role_name_length must be positive, got %d", c.MaxRoleNameLength)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.Auth.TokenSecret != "" && len(c.Auth.TokenSecret) < minTokenSecretLength {
		return fmt.Errorf("auth.token_secret must be at least %d bytes", minTokenSecretLength)
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
