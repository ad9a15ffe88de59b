package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shipguard/shipguard/analytics"
	"github.com/shipguard/shipguard/baseline"
	"github.com/shipguard/shipguard/output"
	"github.com/shipguard/shipguard/scan"
	"github.com/spf13/cobra"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Write a baseline snapshot from the current scan",
	Long: `baseline runs the detection pipeline and writes the resulting active
finding fingerprints to the baseline file, so future runs can report only new
or fixed findings.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		projectPath, _ := cmd.Flags().GetString("project")
		configPath, _ := cmd.Flags().GetString("config")

		absProjectPath, err := filepath.Abs(projectPath)
		if err != nil {
			return fmt.Errorf("failed to resolve project path: %w", err)
		}

		logger := output.NewLogger(output.VerbosityDefault)

		res, err := scan.Run(scan.Options{
			Root:       absProjectPath,
			ConfigPath: configPath,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC().Format(time.RFC3339)
		if err := baseline.Write(absProjectPath, res.Config.BaselineFile, now, res.ScanResult.Score, res.ScanResult.Findings); err != nil {
			return fmt.Errorf("failed to write baseline: %w", err)
		}

		logger.Progress("Wrote baseline with %d finding(s) at score %d", len(res.ScanResult.Findings), res.ScanResult.Score)

		analytics.ReportEventWithProperties(analytics.BaselineCompleted, map[string]interface{}{
			"findings_count": len(res.ScanResult.Findings),
			"score":          res.ScanResult.Score,
		})

		return nil
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
	baselineCmd.Flags().StringP("config", "c", "shipguard.json", "Path to the config file, relative to --project")
}
