package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DatabasePath is the SQLite database file path.
	DatabasePath string
	// MasterSecret signs and verifies bearer tokens.
	MasterSecret string
	// GeminiAPIKey enables the AI generation backend when set.
	GeminiAPIKey string
	// GeminiModel is the generation model name.
	GeminiModel string
	Debug       bool
	// AllowedOrigins is the CORS origin allow-list.
	AllowedOrigins []string
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr         *string
	DatabasePath *string
	MasterSecret *string
	GeminiAPIKey *string
	Debug        *bool
}

// Load loads server configuration from environment variables and applies any
// explicit overrides.
func Load(overrides Overrides) (*Config, error) {
	port := 3000
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./codev.db"
	}
	if overrides.DatabasePath != nil {
		dbPath = *overrides.DatabasePath
	}

	masterSecret := os.Getenv("CODEV_MASTER_SECRET")
	if masterSecret == "" {
		// Legacy name used by early deployments.
		masterSecret = os.Getenv("SECRET_KEY")
	}
	if overrides.MasterSecret != nil {
		masterSecret = *overrides.MasterSecret
	}
	if masterSecret == "" {
		return nil, fmt.Errorf("CODEV_MASTER_SECRET environment variable is required")
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if overrides.GeminiAPIKey != nil {
		geminiKey = *overrides.GeminiAPIKey
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	origins := []string{"*"}
	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = []string{clientURL}
	}

	return &Config{
		Addr:           addr,
		DatabasePath:   dbPath,
		MasterSecret:   masterSecret,
		GeminiAPIKey:   geminiKey,
		GeminiModel:    geminiModel,
		Debug:          debug,
		AllowedOrigins: origins,
	}, nil
}
