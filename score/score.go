// Package score computes the deterministic, order-independent posture
// score for a set of active findings.
package score

import (
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

// Compute returns max(0, scoring.start - sum of penalties[f.severity] over
// active findings). Waived findings never contribute. Integer arithmetic
// only, and the result does not depend on finding order.
func Compute(scoring config.ScoringConfig, active []model.Finding) int {
	total := 0
	for _, f := range active {
		total += scoring.Penalties[f.Severity]
	}
	s := scoring.Start - total
	if s < 0 {
		return 0
	}
	return s
}
