package output

import (
	"testing"

	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

func TestEvaluateGate_Pass(t *testing.T) {
	ci := config.Default().CI
	findings := []model.Finding{{Severity: model.SeverityLow, Confidence: model.ConfidenceLow}}
	got := EvaluateGate(ci, findings, 95, 0, 0)
	if !got.Pass {
		t.Fatalf("expected pass, got %+v", got)
	}
}

func TestEvaluateGate_SeverityGate(t *testing.T) {
	ci := config.Default().CI // failOn high, minConfidence medium
	findings := []model.Finding{{RuleID: "auth-missing", File: "a.ts", Severity: model.SeverityHigh, Confidence: model.ConfidenceHigh}}
	got := EvaluateGate(ci, findings, 85, 0, 0)
	if got.Pass || got.ExitCode != ExitSeverityGate {
		t.Fatalf("expected severity gate failure, got %+v", got)
	}
}

func TestEvaluateGate_BelowMinConfidenceIsAdvisory(t *testing.T) {
	ci := config.Default().CI
	findings := []model.Finding{{RuleID: "auth-missing", File: "a.ts", Severity: model.SeverityCritical, Confidence: model.ConfidenceLow}}
	got := EvaluateGate(ci, findings, 85, 0, 0)
	if !got.Pass {
		t.Fatalf("low-confidence finding below ci.minConfidence must not gate, got %+v", got)
	}
}

func TestEvaluateGate_MinScore(t *testing.T) {
	ci := config.Default().CI
	ci.MinScore = 90
	got := EvaluateGate(ci, nil, 85, 0, 0)
	if got.Pass || got.ExitCode != ExitScoreBelowMin {
		t.Fatalf("expected min-score gate failure, got %+v", got)
	}
}

func TestEvaluateGate_NewCritical(t *testing.T) {
	ci := config.Default().CI
	got := EvaluateGate(ci, nil, 100, 1, 0)
	if got.Pass || got.ExitCode != ExitNewCriticalGate {
		t.Fatalf("expected new-critical gate failure, got %+v", got)
	}
}

func TestEvaluateGate_NewHigh_OnlyWhenConfigured(t *testing.T) {
	ci := config.Default().CI
	got := EvaluateGate(ci, nil, 100, 0, 5)
	if !got.Pass {
		t.Fatalf("maxNewHigh unset should not gate, got %+v", got)
	}

	max := 2
	ci.MaxNewHigh = &max
	got = EvaluateGate(ci, nil, 100, 0, 5)
	if got.Pass || got.ExitCode != ExitNewHighGate {
		t.Fatalf("expected new-high gate failure once configured, got %+v", got)
	}
}
