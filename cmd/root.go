package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/ldflag/internal/config"
	"github.com/marcus/ldflag/internal/ldapi"
	"github.com/marcus/ldflag/internal/prompt"
)

var (
	version        string
	apiKeyFlag     string
	projectKeyFlag string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "ldflag",
	Short: "Create and update LaunchDarkly feature flags with JSON variations",
	Long: `ldflag - Create, update, and validate LaunchDarkly feature flags whose
variations are JSON documents conforming to the TCP port schema
(value.tcp_port: integer between 0 and 65535).

Run without a command for the guided interactive workflow.`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "",
		"LaunchDarkly API key (can also be set via LD_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&projectKeyFlag, "project-key", "",
		"LaunchDarkly project key (can also be set via LD_PROJECT_KEY)")
}

// loadConfig resolves configuration from global flags, .env, and the
// environment.
func loadConfig() (*config.Config, error) {
	return config.Load(apiKeyFlag, projectKeyFlag)
}

func newClient(cfg *config.Config) *ldapi.Client {
	return ldapi.New(cfg.BaseURL, cfg.APIKey)
}

// resolveProjectKey returns the configured project key, falling back to an
// interactive selection when a terminal is available.
func resolveProjectKey(cfg *config.Config, client *ldapi.Client) (string, error) {
	if cfg.ProjectKey != "" {
		return cfg.ProjectKey, nil
	}
	if !prompt.Interactive() {
		return "", fmt.Errorf("project key is required (set --project-key or LD_PROJECT_KEY)")
	}

	projects, err := client.Projects()
	if err != nil {
		return "", fmt.Errorf("list projects: %w", err)
	}
	return prompt.SelectProject(projects)
}
