package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/ldflag/internal/config"
	"github.com/marcus/ldflag/internal/editor"
	"github.com/marcus/ldflag/internal/editsession"
	"github.com/marcus/ldflag/internal/ldapi"
	"github.com/marcus/ldflag/internal/models"
	"github.com/marcus/ldflag/internal/output"
	"github.com/marcus/ldflag/internal/prompt"
)

// runInteractive is the default workflow when no subcommand is given:
// pick a project, then create, update, or validate.
func runInteractive(cmd *cobra.Command, args []string) error {
	if !prompt.Interactive() {
		err := fmt.Errorf("no command specified and no terminal available")
		output.Error("%v", err)
		cmd.Usage()
		return err
	}

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

	var action string
	err = huh.NewSelect[string]().
		Title("What would you like to do?").
		Options(
			huh.NewOption("Create a new JSON feature flag", "create"),
			huh.NewOption("Update an existing JSON feature flag", "update"),
			huh.NewOption("Validate JSON feature flags", "validate"),
		).
		Value(&action).
		Run()
	if err != nil {
		return err
	}

	switch action {
	case "create":
		return runCreateInteractive(cfg, client, projectKey)
	case "update":
		return runUpdateWorkflow(cfg, client, projectKey)
	default:
		return runValidateWorkflow(cfg, client, projectKey, true, false)
	}
}

// runCreateInteractive authors a new flag from an environment-derived
// template edited in the external editor.
func runCreateInteractive(cfg *config.Config, client *ldapi.Client, projectKey string) error {
	flagName, err := prompt.Input("Feature flag name", "")
	if err != nil {
		return err
	}
	if flagName == "" {
		return fmt.Errorf("flag name cannot be empty")
	}

	flagKey, err := prompt.Input("Feature flag key", suggestKey(flagName))
	if err != nil {
		return err
	}
	if flagKey == "" {
		return fmt.Errorf("flag key cannot be empty")
	}

	output.Info("Fetching environments for project %q...", projectKey)
	envs, err := client.Environments(projectKey)
	if err != nil {
		output.Warning("fetch environments: %v (using default template)", err)
		envs = nil
	}
	template := templateVariations(envs)
	output.Info("Prepared a template with %d variation(s).", len(template))
	printEditingInstructions()

	session := editsession.New(editor.New(cfg.Editor))
	session.Confirm = func(before, after []models.Variation) bool {
		output.Info("")
		output.Info("Variations to create:")
		for i, v := range after {
			output.Info("%s", output.FormatVariationLine(i, v))
		}
		ok, err := prompt.Confirm(fmt.Sprintf("Create flag %q with these variations?", flagKey))
		return err == nil && ok
	}

	outcome, err := session.Run(template)
	if err != nil {
		output.Error("%v", err)
		return err
	}

	switch outcome.Kind {
	case models.OutcomeAccepted:
		// fall through to create below
	case models.OutcomeUnchanged:
		// The untouched template is itself valid, so an unmodified save
		// still means "create with the template".
		outcome.Variations = template
	case models.OutcomeAborted:
		output.Info("Creation cancelled.")
		return nil
	default:
		for _, line := range output.FormatValidationErrors(outcome.Result) {
			output.Error("%s", line)
		}
		return fmt.Errorf("edited variations are invalid")
	}

	if _, err := client.CreateFlag(projectKey, flagKey, flagName, outcome.Variations); err != nil {
		output.Error("create flag: %v", err)
		return err
	}
	output.Success("feature flag %q created (key: %s)", flagName, flagKey)
	return nil
}
