// Package config resolves CLI configuration from flags, a .env file, and
// the environment into an explicit struct. Core packages never read the
// environment themselves; everything they need is passed in from here.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvAPIKey     = "LD_API_KEY"
	EnvProjectKey = "LD_PROJECT_KEY"
	EnvBaseURL    = "LD_BASE_URL"
	EnvEditor     = "EDITOR"
)

// ErrMissingAPIKey is returned when no API key is available from flags,
// .env, or the environment.
var ErrMissingAPIKey = errors.New("API key is required (set --api-key or LD_API_KEY)")

// Config holds everything the CLI needs at startup.
type Config struct {
	APIKey     string
	ProjectKey string
	BaseURL    string // empty means the production API endpoint
	Editor     string // empty means the editor package default
}

// Load builds a Config. Values passed as flags win; otherwise a .env file
// in the working directory is loaded (best effort) and the environment is
// consulted.
func Load(apiKeyFlag, projectKeyFlag string) (*Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:     apiKeyFlag,
		ProjectKey: projectKeyFlag,
		BaseURL:    os.Getenv(EnvBaseURL),
		Editor:     os.Getenv(EnvEditor),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.ProjectKey == "" {
		cfg.ProjectKey = os.Getenv(EnvProjectKey)
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}
