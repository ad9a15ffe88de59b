package score

import (
	"testing"

	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

func TestCompute_OrderIndependent(t *testing.T) {
	scoring := config.Default().Scoring
	a := []model.Finding{{Severity: model.SeverityHigh}, {Severity: model.SeverityCritical}}
	b := []model.Finding{{Severity: model.SeverityCritical}, {Severity: model.SeverityHigh}}

	if Compute(scoring, a) != Compute(scoring, b) {
		t.Fatal("score must not depend on finding order")
	}
}

func TestCompute_ClampsAtZero(t *testing.T) {
	scoring := config.ScoringConfig{
		Start:     10,
		Penalties: map[model.Severity]int{model.SeverityCritical: 30},
	}
	findings := []model.Finding{{Severity: model.SeverityCritical}}
	if got := Compute(scoring, findings); got != 0 {
		t.Fatalf("expected score clamped to 0, got %d", got)
	}
}

func TestCompute_NoFindingsIsStart(t *testing.T) {
	scoring := config.Default().Scoring
	if got := Compute(scoring, nil); got != scoring.Start {
		t.Fatalf("expected %d with no findings, got %d", scoring.Start, got)
	}
}
