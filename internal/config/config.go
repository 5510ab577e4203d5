package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Membrane MembraneConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type DatabaseConfig struct {
	Connection string
}

// AuthConfig holds the secret of the session JWT issued by the web
// application's auth provider.
type AuthConfig struct {
	SessionSecret string
}

type MembraneConfig struct {
	WorkspaceKey    string
	WorkspaceSecret string
	APIURI          string
	HTTPTimeout     time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("JWT_SECRET", ""),
		},
		Membrane: MembraneConfig{
			WorkspaceKey:    getEnv("MEMBRANE_WORKSPACE_KEY", ""),
			WorkspaceSecret: getEnv("MEMBRANE_WORKSPACE_SECRET", ""),
			APIURI:          getEnv("MEMBRANE_API_URI", "https://api.integration.app"),
			// Long-poll requests ask the platform to hold for up to 30s.
			HTTPTimeout: time.Duration(getEnvAsInt("MEMBRANE_HTTP_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// Validate rejects settings the server cannot run safely with. Session
// cookies are sent cross-origin, so the CORS origin list must be explicit.
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if HasWildcardOrigin(c.App.CorsAllowedOrigins) {
		return errors.New("CORS_ALLOWED_ORIGINS must list explicit origins, not *")
	}
	return nil
}

// HasWildcardOrigin reports whether a comma separated origin list contains *.
func HasWildcardOrigin(origins string) bool {
	for _, origin := range strings.Split(origins, ",") {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
