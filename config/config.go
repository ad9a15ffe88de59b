// Package config loads and defaults the scanner's configuration. Every
// component downstream receives a fully-populated Config value and never
// probes for field presence itself.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shipguard/shipguard/model"
)

// AuthHints names the symbols and files that satisfy the auth-missing rule.
type AuthHints struct {
	Functions       []string `json:"functions"`
	MiddlewareFiles []string `json:"middlewareFiles"`
}

// RateLimitHints names the symbols that satisfy the rate-limit-missing rule.
type RateLimitHints struct {
	Wrappers []string `json:"wrappers"`
}

// TenancyHints names the where-clause fields that satisfy the
// tenancy-missing rule.
type TenancyHints struct {
	OrgFieldNames []string `json:"orgFieldNames"`
}

// Hints bundles all per-rule symbol hints a project can configure.
type Hints struct {
	Auth      AuthHints      `json:"auth"`
	RateLimit RateLimitHints `json:"rateLimit"`
	Tenancy   TenancyHints   `json:"tenancy"`
}

// RuleConfig overrides behaviour for a single rule ID.
type RuleConfig struct {
	Severity model.Severity `json:"severity"`
}

// ScoringConfig parameterizes the deterministic scoring function.
type ScoringConfig struct {
	Start    int                      `json:"start"`
	Penalties map[model.Severity]int  `json:"penalties"`
}

// CIConfig parameterizes the CI gate decision.
type CIConfig struct {
	FailOn        model.Severity   `json:"failOn"`
	MinConfidence model.Confidence `json:"minConfidence"`
	MinScore      int              `json:"minScore"`
	MaxNewCritical int             `json:"maxNewCritical"`
	MaxNewHigh     *int            `json:"maxNewHigh,omitempty"`
}

// Config is the fully-resolved, explicit configuration value every
// component consumes. Default builds the defaults and Load merges a project
// config file onto them.
type Config struct {
	Framework    string                `json:"framework"`
	Include      []string              `json:"include"`
	Exclude      []string              `json:"exclude"`
	Hints        Hints                 `json:"hints"`
	Rules        map[string]RuleConfig `json:"rules"`
	Scoring      ScoringConfig         `json:"scoring"`
	CI           CIConfig              `json:"ci"`
	WaiversFile  string                `json:"waiversFile"`
	BaselineFile string                `json:"baselineFile"`

	// Governance is an opaque passthrough block: the OSS core never reads
	// it, but a round trip through Load/Save must preserve it verbatim so
	// extensions can consume it.
	Governance json.RawMessage `json:"governance,omitempty"`
}

// Default rule severities, applied when config.rules[id] is absent.
var defaultRuleSeverities = map[string]model.Severity{
	"auth-missing":            model.SeverityHigh,
	"rate-limit-missing":      model.SeverityHigh,
	"tenancy-missing":         model.SeverityHigh,
	"ssrf-user-url":           model.SeverityHigh,
	"unauth-payment-intent":   model.SeverityCritical,
}

var defaultPenalties = map[model.Severity]int{
	model.SeverityCritical: 30,
	model.SeverityHigh:     15,
	model.SeverityMedium:   7,
	model.SeverityLow:      2,
}

// Default loads defaults with no project overrides — used by `init` to
// scaffold a starter config file and as the base every Load() merges onto.
func Default() Config {
	rules := make(map[string]RuleConfig, len(defaultRuleSeverities))
	for id, sev := range defaultRuleSeverities {
		rules[id] = RuleConfig{Severity: sev}
	}
	penalties := make(map[model.Severity]int, len(defaultPenalties))
	for sev, n := range defaultPenalties {
		penalties[sev] = n
	}
	return Config{
		Framework: "next",
		Include:   []string{"app/**/route.ts", "app/**/route.tsx", "app/**/route.js", "app/**/route.jsx", "app/**/*.ts", "app/**/*.tsx", "app/**/*.js", "app/**/*.jsx"},
		Exclude:   []string{"**/*.test.*", "**/*.spec.*", "**/node_modules/**"},
		Hints: Hints{
			Auth:      AuthHints{Functions: []string{"auth", "getServerSession", "requireAuth", "verifySession"}},
			RateLimit: RateLimitHints{Wrappers: []string{"rateLimit", "limiter", "withRateLimit"}},
			Tenancy:   TenancyHints{OrgFieldNames: []string{"orgId", "organizationId", "tenantId"}},
		},
		Rules: rules,
		Scoring: ScoringConfig{
			Start:     100,
			Penalties: penalties,
		},
		CI: CIConfig{
			FailOn:        model.SeverityHigh,
			MinConfidence: model.ConfidenceMedium,
			MinScore:      0,
			MaxNewCritical: 0,
		},
		WaiversFile:  ".shipguard-waivers.json",
		BaselineFile: ".shipguard-baseline.json",
	}
}

// ParseError reports a malformed JSON document naming the offending path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to parse %s: %s", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads the config file at path relative to root, merging it onto
// Default(). A missing file is not an error — Default() is returned as-is,
// so `shipguard scan` works in a project with no config file yet.
func Load(root, path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var raw partialConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, &ParseError{Path: path, Err: err}
	}
	raw.applyTo(&cfg)
	return cfg, nil
}

// partialConfig mirrors Config but with every field optional, so a project
// config file only needs to name what it overrides.
type partialConfig struct {
	Framework    *string          `json:"framework"`
	Include      []string         `json:"include"`
	Exclude      []string         `json:"exclude"`
	Hints        *Hints           `json:"hints"`
	Rules        map[string]RuleConfig `json:"rules"`
	Scoring      *partialScoring  `json:"scoring"`
	CI           *partialCI       `json:"ci"`
	WaiversFile  *string          `json:"waiversFile"`
	BaselineFile *string          `json:"baselineFile"`
	Governance   json.RawMessage  `json:"governance"`
}

type partialScoring struct {
	Start     *int                    `json:"start"`
	Penalties map[model.Severity]int `json:"penalties"`
}

type partialCI struct {
	FailOn         *model.Severity   `json:"failOn"`
	MinConfidence  *model.Confidence `json:"minConfidence"`
	MinScore       *int              `json:"minScore"`
	MaxNewCritical *int              `json:"maxNewCritical"`
	MaxNewHigh     *int              `json:"maxNewHigh"`
}

func (p partialConfig) applyTo(cfg *Config) {
	if p.Framework != nil {
		cfg.Framework = *p.Framework
	}
	if p.Include != nil {
		cfg.Include = p.Include
	}
	if p.Exclude != nil {
		cfg.Exclude = p.Exclude
	}
	if p.Hints != nil {
		cfg.Hints = *p.Hints
	}
	for id, rc := range p.Rules {
		cfg.Rules[id] = rc
	}
	if p.Scoring != nil {
		if p.Scoring.Start != nil {
			cfg.Scoring.Start = *p.Scoring.Start
		}
		for sev, n := range p.Scoring.Penalties {
			cfg.Scoring.Penalties[sev] = n
		}
	}
	if p.CI != nil {
		if p.CI.FailOn != nil {
			cfg.CI.FailOn = *p.CI.FailOn
		}
		if p.CI.MinConfidence != nil {
			cfg.CI.MinConfidence = *p.CI.MinConfidence
		}
		if p.CI.MinScore != nil {
			cfg.CI.MinScore = *p.CI.MinScore
		}
		if p.CI.MaxNewCritical != nil {
			cfg.CI.MaxNewCritical = *p.CI.MaxNewCritical
		}
		if p.CI.MaxNewHigh != nil {
			cfg.CI.MaxNewHigh = p.CI.MaxNewHigh
		}
	}
	if p.WaiversFile != nil {
		cfg.WaiversFile = *p.WaiversFile
	}
	if p.BaselineFile != nil {
		cfg.BaselineFile = *p.BaselineFile
	}
	if p.Governance != nil {
		cfg.Governance = p.Governance
	}
}

// Severity returns the configured severity for a rule ID, falling back to
// the rule's built-in default when the project config is silent.
func (c Config) Severity(ruleID string) model.Severity {
	if rc, ok := c.Rules[ruleID]; ok && rc.Severity != "" {
		return rc.Severity
	}
	if sev, ok := defaultRuleSeverities[ruleID]; ok {
		return sev
	}
	return model.SeverityMedium
}

// Save writes cfg as pretty-printed JSON to path relative to root.
func Save(root, path string, cfg Config) error {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(full, data, 0o644)
}
