package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shipguard/shipguard/analytics"
	"github.com/shipguard/shipguard/baseline"
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/diff"
	"github.com/shipguard/shipguard/github"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/output"
	"github.com/shipguard/shipguard/rule"
	"github.com/shipguard/shipguard/scan"
	"github.com/shipguard/shipguard/score"
	"github.com/spf13/cobra"
)

var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "Run the pipeline and enforce the configured CI gate",
	Long: `ci runs the same detection pipeline as "shipguard scan", then applies the
project's CI gate: fail if any active finding meets the configured severity and
confidence thresholds, or the score drops below the minimum, or too many new
critical or high findings appeared since the baseline.

Exit codes: 0 pass, 2 invalid config, 3 unsupported project shape, 10 score
below minimum, 11 severity gate, 12 new-critical gate, 13 new-high gate.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		startTime := time.Now()

		projectPath, _ := cmd.Flags().GetString("project")
		configPath, _ := cmd.Flags().GetString("config")
		outputFormat, _ := cmd.Flags().GetString("output")
		outputFile, _ := cmd.Flags().GetString("output-file")
		writeSarif, _ := cmd.Flags().GetBool("sarif")
		verbose, _ := cmd.Flags().GetBool("verbose")
		debug, _ := cmd.Flags().GetBool("debug")

		diffAware, _ := cmd.Flags().GetBool("diff-aware")
		baseRef, _ := cmd.Flags().GetString("base")
		headRef, _ := cmd.Flags().GetString("head")

		githubToken, _ := cmd.Flags().GetString("github-token")
		githubRepo, _ := cmd.Flags().GetString("github-repo")
		githubPR, _ := cmd.Flags().GetInt("github-pr")
		prComment, _ := cmd.Flags().GetBool("pr-comment")

		analytics.ReportEventWithProperties(analytics.CIStarted, map[string]interface{}{
			"output_format": outputFormat,
			"diff_aware":    diffAware,
		})

		if outputFormat == "" {
			outputFormat = "sarif"
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

		res, err := scan.Run(scan.Options{
			Root:       absProjectPath,
			ConfigPath: configPath,
			Logger:     logger,
		})
		if err != nil {
			analytics.ReportEventWithProperties(analytics.CIFailed, map[string]interface{}{
				"error_type": "pipeline",
			})
			code := exitCodeForError(err)
			fmt.Fprintln(os.Stderr, err)
			os.Exit(code)
		}

		result := res.ScanResult
		findingDiff := res.Diff
		newCritical, newHigh := res.NewCritical, res.NewHigh

		if diffAware {
			if baseRef != "" {
				if derr := diff.ValidateGitRef(absProjectPath, baseRef); derr != nil {
					return fmt.Errorf("invalid --base ref %q: %w", baseRef, derr)
				}
			}
			changed, derr := computeChangedFiles(absProjectPath, baseRef, headRef, githubToken, githubRepo, githubPR)
			if derr != nil {
				return fmt.Errorf("failed to compute changed files: %w", derr)
			}
			logger.Progress("Diff-aware: %d changed file(s)", len(changed))
			result, findingDiff, newCritical, newHigh = filterToChangedFiles(result, findingDiff, res.Config, changed)
		}

		if err := renderReport(result, outputFormat, outputFile); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if writeSarif {
			sarifPath := filepath.Join(absProjectPath, "shipguard.sarif.json")
			if err := writeSarifFile(result, sarifPath); err != nil {
				return err
			}
			logger.Progress("Wrote SARIF report to %s", sarifPath)
		}

		if prComment {
			if perr := postPRComment(githubToken, githubRepo, githubPR, prComment, result, res.FilesScanned, logger); perr != nil {
				logger.Warning("failed to post PR comment: %v", perr)
			}
		}

		decision := output.EvaluateGate(res.Config.CI, result.Findings, result.Score, newCritical, newHigh)

		analytics.ReportEventWithProperties(analytics.CICompleted, map[string]interface{}{
			"duration_ms":    time.Since(startTime).Milliseconds(),
			"findings_count": len(result.Findings),
			"score":          result.Score,
			"new_critical":   newCritical,
			"new_high":       newHigh,
			"gate_pass":      decision.Pass,
			"exit_code":      decision.ExitCode,
		})

		if !decision.Pass {
			fmt.Fprintln(os.Stderr, decision.Message)
			os.Exit(decision.ExitCode)
		}

		return nil
	},
}

// computeChangedFiles resolves the diff-aware file set, preferring the
// GitHub API when PR context is available and falling back to a local git
// diff otherwise.
func computeChangedFiles(projectPath, baseRef, headRef, token, repo string, prNumber int) (map[string]bool, error) {
	owner, name := "", ""
	if repo != "" {
		var err error
		owner, name, err = github.ParseRepo(repo)
		if err != nil {
			return nil, err
		}
	}

	provider, err := diff.NewChangedFilesProvider(diff.ProviderOptions{
		ProjectRoot: projectPath,
		BaseRef:     baseRef,
		HeadRef:     headRef,
		GitHubToken: token,
		Owner:       owner,
		Repo:        name,
		PRNumber:    prNumber,
	})
	if err != nil {
		return nil, err
	}

	files, err := provider.GetChangedFiles()
	if err != nil {
		return nil, err
	}

	changed := make(map[string]bool, len(files))
	for _, f := range files {
		changed[f] = true
	}
	return changed, nil
}

// filterToChangedFiles restricts a scan result to findings in changed
// files, recomputing score, summary, and the new-finding counts the gate
// consumes so the filtered view stays internally consistent.
func filterToChangedFiles(result model.ScanResult, prior model.BaselineDiff, cfg config.Config, changed map[string]bool) (model.ScanResult, model.BaselineDiff, int, int) {
	active := filterFindingsByFile(result.Findings, changed)
	waived := filterFindingsByFile(result.WaivedFindings, changed)
	filteredDiff := model.BaselineDiff{
		New:   filterKeysByFile(prior.New, changed),
		Fixed: filterKeysByFile(prior.Fixed, changed),
	}

	result.Findings = active
	result.WaivedFindings = waived
	result.Score = score.Compute(cfg.Scoring, active)
	result.Summary = model.BuildSummary(active, waived)

	keySev := baseline.KeySeverities(active)
	newCritical := filteredDiff.CountNewAtSeverity(model.SeverityCritical, keySev)
	newHigh := filteredDiff.CountNewAtSeverity(model.SeverityHigh, keySev)

	return result, filteredDiff, newCritical, newHigh
}

func filterFindingsByFile(findings []model.Finding, changed map[string]bool) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if changed[f.File] {
			out = append(out, f)
		}
	}
	return out
}

// filterKeysByFile keeps a finding key only if its embedded file (the
// second "|"-separated segment of model.Finding.Key) is in changed.
func filterKeysByFile(keys []string, changed map[string]bool) []string {
	var out []string
	for _, k := range keys {
		parts := strings.SplitN(k, "|", 3)
		if len(parts) >= 2 && changed[parts[1]] {
			out = append(out, k)
		}
	}
	return out
}

func postPRComment(token, repo string, prNumber int, enabled bool, result model.ScanResult, filesScanned int, logger *output.Logger) error {
	opts := github.PRCommentOptions{PRNumber: prNumber, Comment: enabled}
	if err := opts.Validate(); err != nil {
		return err
	}
	owner, name, err := github.ParseRepo(repo)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("--github-token is required for PR commenting")
	}

	client := github.NewClient(token, owner, name)
	metrics := github.ScanMetrics{
		FilesScanned: filesScanned,
		RulesRun:     len(rule.All()),
	}
	return github.PostPRComments(client, opts, result.Findings, metrics, func(format string, args ...any) {
		logger.Progress(format, args...)
	})
}

func init() {
	rootCmd.AddCommand(ciCmd)
	ciCmd.Flags().StringP("project", "p", ".", "Path to the project directory to scan")
	ciCmd.Flags().StringP("config", "c", "shipguard.json", "Path to the config file, relative to --project")
	ciCmd.Flags().StringP("output", "o", "sarif", "Output format: sarif, json, or text")
	ciCmd.Flags().StringP("output-file", "f", "", "Write output to file instead of stdout")
	ciCmd.Flags().Bool("sarif", false, "Additionally write a SARIF report to shipguard.sarif.json")
	ciCmd.Flags().BoolP("verbose", "v", false, "Show progress and statistics")
	ciCmd.Flags().Bool("debug", false, "Show detailed debug diagnostics")

	ciCmd.Flags().Bool("diff-aware", false, "Restrict findings to files changed since --base")
	ciCmd.Flags().String("base", "", "Base git ref for diff-aware scanning")
	ciCmd.Flags().String("head", "HEAD", "Head git ref for diff-aware scanning")

	ciCmd.Flags().String("github-token", "", "GitHub API token, for diff-aware PR scans and PR commenting")
	ciCmd.Flags().String("github-repo", "", "GitHub repository in owner/repo format")
	ciCmd.Flags().Int("github-pr", 0, "Pull request number")
	ciCmd.Flags().Bool("pr-comment", false, "Post a summary comment on the pull request")
}
