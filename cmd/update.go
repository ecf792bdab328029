package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/ldflag/internal/config"
	"github.com/marcus/ldflag/internal/editor"
	"github.com/marcus/ldflag/internal/editsession"
	"github.com/marcus/ldflag/internal/ldapi"
	"github.com/marcus/ldflag/internal/models"
	"github.com/marcus/ldflag/internal/output"
	"github.com/marcus/ldflag/internal/prompt"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update an existing feature flag's variations in the editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !prompt.Interactive() {
			err := fmt.Errorf("update needs a terminal to run the editor")
			output.Error("%v", err)
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

		return runUpdateWorkflow(cfg, client, projectKey)
	},
}

// runUpdateWorkflow lets the user pick a JSON flag, edit its variations,
// and persists the accepted result.
func runUpdateWorkflow(cfg *config.Config, client *ldapi.Client, projectKey string) error {
	output.Info("Fetching JSON flags for project %q...", projectKey)
	summaries, err := client.ListJSONFlags(projectKey)
	if err != nil {
		output.Error("list flags: %v", err)
		return err
	}

	flagKey, err := prompt.SelectFlag(summaries)
	if err != nil {
		output.Error("%v", err)
		return err
	}

	var current []models.Variation
	for _, s := range summaries {
		if s.Key == flagKey {
			current = s.Variations
			break
		}
	}

	output.Info("")
	output.Info("Current variations:")
	for i, v := range current {
		output.Info("%s", output.FormatVariationLine(i, v))
	}
	printEditingInstructions()

	session := editsession.New(editor.New(cfg.Editor))
	session.Confirm = func(before, after []models.Variation) bool {
		output.Info("")
		output.Info("Updated variations:")
		for i, v := range after {
			output.Info("%s", output.FormatVariationLine(i, v))
		}
		ok, err := prompt.Confirm("Update the flag with these variations?")
		return err == nil && ok
	}

	outcome, err := session.Run(current)
	if err != nil {
		output.Error("%v", err)
		return err
	}

	switch outcome.Kind {
	case models.OutcomeAccepted:
		if _, err := client.UpdateFlagVariations(projectKey, flagKey, outcome.Variations); err != nil {
			output.Error("update flag: %v", err)
			return err
		}
		output.Success("variations updated for flag %q", flagKey)
		return nil
	case models.OutcomeUnchanged:
		output.Info("No changes made.")
		return nil
	case models.OutcomeAborted:
		output.Info("Update cancelled.")
		return nil
	default:
		for _, line := range output.FormatValidationErrors(outcome.Result) {
			output.Error("%s", line)
		}
		return fmt.Errorf("edited variations are invalid")
	}
}

// printEditingInstructions explains the expected document shape before the
// editor opens.
func printEditingInstructions() {
	output.Info("")
	output.Info("Edit the JSON array of variations. Each variation needs a name and a")
	output.Info("value containing tcp_port (integer 0-65535). Remove a variation by")
	output.Info("deleting its object; add one by appending an object without an _id.")
	output.Info("Save and close the editor when done.")
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
