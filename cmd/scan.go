package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shipguard/shipguard/analytics"
	"github.com/shipguard/shipguard/output"
	"github.com/shipguard/shipguard/scan"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a Next.js project and print a human-readable report",
	Long: `Scan runs the detection pipeline against a Next.js app-router project: missing
auth checks, missing rate limiting, missing tenancy scoping, SSRF-prone outbound
fetches, and unauthenticated payment endpoints.

scan always exits 0 once the pipeline completes — use "shipguard ci" to enforce
the configured gate in a pipeline. A bad config file or a project that doesn't
look like a supported Next.js app still exits non-zero.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		startTime := time.Now()

		projectPath, _ := cmd.Flags().GetString("project")
		configPath, _ := cmd.Flags().GetString("config")
		outputFormat, _ := cmd.Flags().GetString("output")
		outputFile, _ := cmd.Flags().GetString("output-file")
		writeSarif, _ := cmd.Flags().GetBool("sarif")
		verbose, _ := cmd.Flags().GetBool("verbose")
		debug, _ := cmd.Flags().GetBool("debug")

		analytics.ReportEventWithProperties(analytics.ScanStarted, map[string]interface{}{
			"output_format": outputFormat,
		})

		if outputFormat == "" {
			outputFormat = "text"
		}
		if outputFormat != "text" && outputFormat != "json" && outputFormat != "sarif" {
			return fmt.Errorf("--output must be 'text', 'json', or 'sarif'")
		}

		absProjectPath, err := filepath.Abs(projectPath)
		if err != nil {
			return fmt.Errorf("failed to resolve project path: %w", err)
		}

		verbosity := output.VerbosityDefault
		switch {
		case debug:
			verbosity = output.VerbosityDebug
		case verbose:
			verbosity = output.VerbosityVerbose
		}
		logger := output.NewLogger(verbosity)

		noBanner, _ := cmd.Flags().GetBool("no-banner")
		if output.ShouldShowBanner(logger.IsTTY(), noBanner) {
			output.PrintBanner(logger.GetWriter(), Version, output.DefaultBannerOptions())
		} else if logger.IsTTY() && !noBanner {
			fmt.Fprintln(logger.GetWriter(), output.GetCompactBanner(Version))
		}

		res, err := scan.Run(scan.Options{
			Root:       absProjectPath,
			ConfigPath: configPath,
			Logger:     logger,
		})
		if err != nil {
			analytics.ReportEventWithProperties(analytics.ScanFailed, map[string]interface{}{
				"error_type": "pipeline",
			})
			code := exitCodeForError(err)
			fmt.Fprintln(os.Stderr, err)
			os.Exit(code)
		}

		if err := renderReport(res.ScanResult, outputFormat, outputFile); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if writeSarif {
			sarifPath := filepath.Join(absProjectPath, "shipguard.sarif.json")
			if err := writeSarifFile(res.ScanResult, sarifPath); err != nil {
				return err
			}
			logger.Progress("Wrote SARIF report to %s", sarifPath)
		}

		analytics.ReportEventWithProperties(analytics.ScanCompleted, map[string]interface{}{
			"duration_ms":    time.Since(startTime).Milliseconds(),
			"findings_count": len(res.ScanResult.Findings),
			"score":          res.ScanResult.Score,
			"output_format":  outputFormat,
		})

		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("project", "p", ".", "Path to the project directory to scan")
	scanCmd.Flags().StringP("config", "c", "shipguard.json", "Path to the config file, relative to --project")
	scanCmd.Flags().StringP("output", "o", "text", "Output format: text, json, or sarif")
	scanCmd.Flags().StringP("output-file", "f", "", "Write output to file instead of stdout")
	scanCmd.Flags().Bool("sarif", false, "Additionally write a SARIF report to shipguard.sarif.json")
	scanCmd.Flags().BoolP("verbose", "v", false, "Show progress and statistics")
	scanCmd.Flags().Bool("debug", false, "Show detailed debug diagnostics")
}
