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
	"github.com/marcus/ldflag/internal/reconcile"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate existing JSON feature flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		fix, _ := cmd.Flags().GetBool("fix")
		jsonOut, _ := cmd.Flags().GetBool("json")

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

		if fix && !prompt.Interactive() {
			err := fmt.Errorf("--fix needs a terminal to run the editor")
			output.Error("%v", err)
			return err
		}

		return runValidateWorkflow(cfg, client, projectKey, fix, jsonOut)
	},
}

// storeAdapter narrows the API client to the reconciler's persistence
// contract.
type storeAdapter struct {
	client *ldapi.Client
}

func (s storeAdapter) UpdateFlagVariations(projectKey, flagKey string, variations []models.Variation) error {
	_, err := s.client.UpdateFlagVariations(projectKey, flagKey, variations)
	return err
}

// runValidateWorkflow scans the project's JSON flags and reports on each;
// with fix enabled every invalid flag gets one editor round. With jsonOut
// the reports are emitted as a single JSON document instead of styled
// lines.
func runValidateWorkflow(cfg *config.Config, client *ldapi.Client, projectKey string, fix, jsonOut bool) error {
	if !jsonOut {
		output.Info("Fetching JSON flags for project %q...", projectKey)
	}
	summaries, err := client.ListJSONFlags(projectKey)
	if err != nil {
		output.Error("list flags: %v", err)
		return err
	}

	session := editsession.New(editor.New(cfg.Editor))
	if fix {
		session.Confirm = func(before, after []models.Variation) bool {
			ok, err := prompt.Confirm("Update the flag with these variations?")
			return err == nil && ok
		}
	}

	r := reconcile.New(storeAdapter{client}, session, projectKey)

	var summary reconcile.Summary
	views := []output.ReportView{}
	for report := range r.Run(summaries, fix) {
		if jsonOut {
			views = append(views, output.NewReportView(report))
		} else {
			output.Info("%s", output.FormatFlagReport(report))
		}
		summary.Add(report)
	}
	if jsonOut {
		if err := output.JSON(views); err != nil {
			return err
		}
	} else {
		output.Info("")
		output.Info("%s", output.RunSummaryLine(summary.Valid, summary.Fixed, summary.Skipped, summary.Failed))
	}

	if !summary.Clean() {
		return fmt.Errorf("%d of %d flags have invalid variations", summary.Failed+summary.Skipped, summary.Total)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("fix", false, "Prompt to fix invalid flags in the editor")
	validateCmd.Flags().Bool("json", false, "Emit reports as JSON instead of styled output")
}
