package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/ldflag/internal/input"
	"github.com/marcus/ldflag/internal/ldapi"
	"github.com/marcus/ldflag/internal/models"
	"github.com/marcus/ldflag/internal/output"
	"github.com/marcus/ldflag/internal/schema"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new feature flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		flagKey, _ := cmd.Flags().GetString("flag-key")
		flagName, _ := cmd.Flags().GetString("flag-name")
		variationsPath, _ := cmd.Flags().GetString("variations")
		envRules, _ := cmd.Flags().GetStringArray("env-rules")

		cfg, err := loadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		client := newClient(cfg)

		projectKey, err := resolveProjectKey(cfg, client)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		variations, err := input.ReadVariations(variationsPath)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if result := schema.ValidateVariations(variations); !result.Valid() {
			for _, line := range output.FormatValidationErrors(result) {
				output.Error("%s", line)
			}
			return fmt.Errorf("variations failed validation")
		}

		if _, err := client.CreateFlag(projectKey, flagKey, flagName, variations); err != nil {
			output.Error("create flag: %v", err)
			return err
		}
		output.Success("feature flag %q created (key: %s)", flagName, flagKey)

		return applyEnvRules(client, projectKey, flagKey, envRules)
	},
}

// applyEnvRules configures per-environment targeting rules from
// "environment:rules.json" pairs. A failure on one environment is reported
// but does not stop the others.
func applyEnvRules(client *ldapi.Client, projectKey, flagKey string, envRules []string) error {
	failures := 0
	for _, pair := range envRules {
		envKey, rulesPath, err := input.ParseEnvRule(pair)
		if err != nil {
			output.Error("%v", err)
			failures++
			continue
		}

		rules, err := input.ReadTargetingRules(rulesPath)
		if err != nil {
			output.Error("%v", err)
			failures++
			continue
		}

		if err := client.ConfigureEnvironmentTargeting(projectKey, flagKey, envKey, rules); err != nil {
			output.Error("configure environment %q: %v", envKey, err)
			failures++
			continue
		}
		output.Success("targeting rules applied to environment %q", envKey)
	}

	if failures > 0 {
		return fmt.Errorf("%d environment rule(s) could not be applied", failures)
	}
	return nil
}

// suggestKey derives a flag key from a display name.
func suggestKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}

// templateVariations builds starter variations, one per project
// environment, defaulting the port by environment kind. Falls back to a
// two-variation template when the project has no environments.
func templateVariations(envs []ldapi.Environment) []models.Variation {
	if len(envs) == 0 {
		return []models.Variation{
			{
				Name:        "Production",
				Description: "Production configuration",
				Value:       json.RawMessage(`{"tcp_port": 443}`),
			},
			{
				Name:        "Development",
				Description: "Development configuration",
				Value:       json.RawMessage(`{"tcp_port": 8080}`),
			},
		}
	}

	variations := make([]models.Variation, len(envs))
	for i, env := range envs {
		port := 8080
		if strings.Contains(strings.ToLower(env.Key), "prod") {
			port = 443
		}
		variations[i] = models.Variation{
			Name:        env.Name,
			Description: fmt.Sprintf("%s configuration", env.Name),
			Value:       json.RawMessage(fmt.Sprintf(`{"tcp_port": %d}`, port)),
		}
	}
	return variations
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().String("flag-key", "", "Feature flag key")
	createCmd.Flags().String("flag-name", "", "Feature flag name")
	createCmd.Flags().String("variations", "", "JSON file with variations (- for stdin)")
	createCmd.Flags().StringArray("env-rules", nil, "Environment targeting rules as environment:path.json")
	createCmd.MarkFlagRequired("flag-key")
	createCmd.MarkFlagRequired("flag-name")
	createCmd.MarkFlagRequired("variations")
}
