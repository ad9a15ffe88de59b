package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shipguard/shipguard/analytics"
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/output"
	"github.com/shipguard/shipguard/waiver"
	"github.com/spf13/cobra"
)

var waiveCmd = &cobra.Command{
	Use:   "waive <ruleId>",
	Short: "Append a waiver suppressing a rule for a file",
	Long: `waive <ruleId> --file <path> --reason <msg> [--expiry <iso>] appends a
time-bounded exception to the waivers file. A waiver with no --expiry waives
indefinitely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleID := args[0]

		projectPath, _ := cmd.Flags().GetString("project")
		configPath, _ := cmd.Flags().GetString("config")
		file, _ := cmd.Flags().GetString("file")
		reason, _ := cmd.Flags().GetString("reason")
		expiryStr, _ := cmd.Flags().GetString("expiry")

		if file == "" {
			return fmt.Errorf("--file is required")
		}
		if reason == "" {
			return fmt.Errorf("--reason is required")
		}

		var expiry *time.Time
		if expiryStr != "" {
			t, err := time.Parse(time.RFC3339, expiryStr)
			if err != nil {
				return fmt.Errorf("--expiry must be an ISO-8601 timestamp: %w", err)
			}
			expiry = &t
		}

		absProjectPath, err := filepath.Abs(projectPath)
		if err != nil {
			return fmt.Errorf("failed to resolve project path: %w", err)
		}

		cfg, err := config.Load(absProjectPath, configPath)
		if err != nil {
			return err
		}

		existing, err := waiver.Load(absProjectPath, cfg.WaiversFile)
		if err != nil {
			return err
		}

		w := model.Waiver{
			RuleID: ruleID,
			File:   file,
			Reason: reason,
			Expiry: expiry,
		}

		stored, _, err := waiver.Add(absProjectPath, cfg.WaiversFile, existing, w, time.Now())
		if err != nil {
			return fmt.Errorf("failed to save waiver: %w", err)
		}

		logger := output.NewLogger(output.VerbosityDefault)
		logger.Progress("Waived %s for %s", stored.RuleID, stored.File)

		analytics.ReportEventWithProperties(analytics.WaiveCompleted, map[string]interface{}{
			"has_expiry": expiry != nil,
		})

		return nil
	},
}

func init() {
	rootCmd.AddCommand(waiveCmd)
	waiveCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
	waiveCmd.Flags().StringP("config", "c", "shipguard.json", "Path to the config file, relative to --project")
	waiveCmd.Flags().String("file", "", "File the waiver applies to (required)")
	waiveCmd.Flags().String("reason", "", "Why the finding is waived (required)")
	waiveCmd.Flags().String("expiry", "", "ISO-8601 timestamp after which the waiver no longer applies")
}
