// Package scan wires the detector, enumerator, rule set, waiver store,
// scoring function, baseline, and extension host into the single
// orchestrated pipeline the CLI commands drive: load config → detect →
// enumerate → run rules per file → apply waivers → score → diff against
// the baseline → dispatch hooks → hand back a report-ready result.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shipguard/shipguard/baseline"
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/detect"
	"github.com/shipguard/shipguard/enumerate"
	"github.com/shipguard/shipguard/hook"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/output"
	"github.com/shipguard/shipguard/rule"
	"github.com/shipguard/shipguard/score"
	"github.com/shipguard/shipguard/waiver"
)

// DetectorError means root does not have the expected app-router shape.
// Fatal; callers surface output.ExitDetectorError.
type DetectorError struct {
	Reason string
}

func (e *DetectorError) Error() string {
	return e.Reason
}

// HookError wraps the first failing GateResult an extension returned.
// Callers surface Result.ExitCode as the process exit code.
type HookError struct {
	Phase  string
	Result hook.GateResult
}

func (e *HookError) Error() string {
	if e.Result.Message != "" {
		return fmt.Sprintf("%s: %s", e.Phase, e.Result.Message)
	}
	return fmt.Sprintf("%s hook vetoed the scan", e.Phase)
}

// Options configures a single scan run.
type Options struct {
	// Root is the project directory to scan.
	Root string

	// ConfigPath is the config file path relative to Root. Empty means
	// "use defaults, no project file".
	ConfigPath string

	// Hooks is the extension host to dispatch through. Nil runs with no
	// registered extensions.
	Hooks *hook.Host

	// Logger receives warnings for skipped files and recovered rule
	// panics. Nil discards them.
	Logger *output.Logger

	// Now fixes the scan's notion of the current instant, for
	// deterministic tests. The zero value means time.Now().
	Now time.Time
}

// Result is everything a CLI command needs to render a report and decide
// an exit code.
type Result struct {
	Config       config.Config
	ScanResult   model.ScanResult
	Diff         model.BaselineDiff
	NewCritical  int
	NewHigh      int
	FilesScanned int
}

// Run executes the full pipeline described in the package doc. On success
// it returns a populated Result. Config, detector and hook failures come
// back as *config.ParseError, *DetectorError and *HookError, which the
// caller maps to exit codes; enumeration, waiver and baseline read errors
// are returned as plain errors.
func Run(opts Options) (*Result, error) {
	cfg, err := config.Load(opts.Root, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	hooks := opts.Hooks
	if hooks == nil {
		hooks = hook.NewHost()
	}

	if r := hooks.DispatchConfigLoaded(cfg); !r.OK {
		return nil, &HookError{Phase: "onConfigLoaded", Result: r}
	}

	det := detect.Detect(opts.Root)
	if !det.OK {
		return nil, &DetectorError{Reason: det.Reason}
	}

	files, err := enumerate.Files(opts.Root, det.AppDir, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("enumerating files: %w", err)
	}

	findings := runRules(opts.Root, files, cfg, opts.Logger)

	if r := hooks.DispatchFindings(findings); !r.OK {
		return nil, &HookError{Phase: "onFindings", Result: r}
	}

	waivers, err := waiver.Load(opts.Root, cfg.WaiversFile)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	active, waived := waiver.Apply(findings, waivers, now)

	scoreVal := score.Compute(cfg.Scoring, active)

	prior, err := baseline.Read(opts.Root, cfg.BaselineFile)
	if err != nil {
		return nil, err
	}
	diff := baseline.Diff(active, prior)
	keySev := baseline.KeySeverities(active)
	newCritical := diff.CountNewAtSeverity(model.SeverityCritical, keySev)
	newHigh := diff.CountNewAtSeverity(model.SeverityHigh, keySev)

	result := model.ScanResult{
		Version:        1,
		Timestamp:      now.UTC().Format(time.RFC3339),
		Framework:      cfg.Framework,
		Score:          scoreVal,
		Findings:       active,
		WaivedFindings: waived,
		Summary:        model.BuildSummary(active, waived),
	}

	if r := hooks.DispatchScored(result); !r.OK {
		return nil, &HookError{Phase: "onScored", Result: r}
	}

	if r := hooks.DispatchReport(result); !r.OK {
		return nil, &HookError{Phase: "onReport", Result: r}
	}

	return &Result{
		Config:       cfg,
		ScanResult:   result,
		Diff:         diff,
		NewCritical:  newCritical,
		NewHigh:      newHigh,
		FilesScanned: len(files),
	}, nil
}

// runRules processes files through a worker pool sized to the host's CPU
// count, as the data-parallel-over-files model requires: rules are pure
// over a file's text and the shared immutable config, so per-file work is
// independent and can run concurrently with no shared mutable state.
// Results are reordered by (ruleId, file, line, column) before returning,
// so a scan of the same tree produces byte-identical output regardless of
// worker scheduling.
func runRules(root string, files []string, cfg config.Config, logger *output.Logger) []model.Finding {
	if len(files) == 0 {
		return nil
	}

	rules := rule.All()

	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	fileChan := make(chan string, len(files))
	resultChan := make(chan []model.Finding, len(files))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for relPath := range fileChan {
			resultChan <- scanFile(root, relPath, rules, cfg, logger)
		}
	}

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go worker()
	}

	for _, f := range files {
		fileChan <- f
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var findings []model.Finding
	for fileFindings := range resultChan {
		findings = append(findings, fileFindings...)
	}

	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	return findings
}

// scanFile reads one file and runs every rule against it. A read failure
// is a FileReadError: logged as a warning, the file contributes no
// findings, and the scan continues.
func scanFile(root, relPath string, rules []rule.Rule, cfg config.Config, logger *output.Logger) []model.Finding {
	full := filepath.Join(root, filepath.FromSlash(relPath))
	data, err := os.ReadFile(full)
	if err != nil {
		if logger != nil {
			logger.Warning("skipping %s: %s", relPath, err)
		}
		return nil
	}

	f := rule.File{RelPath: relPath, Source: string(data)}

	var findings []model.Finding
	for _, r := range rules {
		findings = append(findings, runRuleSafely(r, cfg, f, logger)...)
	}
	return dedupe(findings)
}

// runRuleSafely runs a single rule against f, catching any panic as a
// RuleInternalError: a synthetic low/low finding naming the failing rule
// is produced instead, and the scan continues. Every finding the rule
// itself returns has its severity filled in from cfg — rules never set
// their own severity.
func runRuleSafely(r rule.Rule, cfg config.Config, f rule.File, logger *output.Logger) (out []model.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			if logger != nil {
				logger.Warning("rule %s panicked on %s: %v", r.ID, f.RelPath, rec)
			}
			out = []model.Finding{{
				RuleID:     "internal/" + r.ID,
				Severity:   model.SeverityLow,
				Confidence: model.ConfidenceLow,
				Message:    fmt.Sprintf("rule %s failed: %v", r.ID, rec),
				File:       f.RelPath,
				Evidence:   []string{fmt.Sprintf("%v", rec)},
			}}
		}
	}()

	if !r.AppliesTo(cfg, f) {
		return nil
	}

	results := r.Run(cfg, f)
	for i := range results {
		results[i].Severity = cfg.Severity(results[i].RuleID)
	}
	return results
}

// dedupe collapses findings sharing a DedupeKey — the same rule reporting
// the same location and message twice within one file.
func dedupe(findings []model.Finding) []model.Finding {
	if len(findings) == 0 {
		return findings
	}
	seen := make(map[string]struct{}, len(findings))
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		k := f.DedupeKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}
