package output

import (
	"fmt"

	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

// Exit codes the CLI surfaces, per the gate that produced them.
const (
	ExitSuccess         = 0
	ExitConfigError     = 2
	ExitDetectorError   = 3
	ExitScoreBelowMin   = 10
	ExitSeverityGate    = 11
	ExitNewCriticalGate = 12
	ExitNewHighGate     = 13
)

// GateDecision is the result of evaluating the CI gate against a scored
// result: either the run passes, or it fails with the exit code and
// message to surface to the caller.
type GateDecision struct {
	Pass     bool
	ExitCode int
	Message  string
}

func pass() GateDecision {
	return GateDecision{Pass: true, ExitCode: ExitSuccess}
}

// EvaluateGate applies the CI gate in the order the spec defines it:
// severity/confidence gate, then min score, then new-critical, then
// new-high. The first failing check wins.
func EvaluateGate(ci config.CIConfig, active []model.Finding, scoreVal int, newCritical, newHigh int) GateDecision {
	for _, f := range active {
		if f.Severity.AtLeast(ci.FailOn) && f.Confidence.AtLeast(ci.MinConfidence) {
			return GateDecision{
				ExitCode: ExitSeverityGate,
				Message:  fmt.Sprintf("%s: %s (severity %s) meets the fail-on threshold", f.RuleID, f.File, f.Severity),
			}
		}
	}

	if scoreVal < ci.MinScore {
		return GateDecision{
			ExitCode: ExitScoreBelowMin,
			Message:  fmt.Sprintf("score %d is below the minimum %d", scoreVal, ci.MinScore),
		}
	}

	if newCritical > ci.MaxNewCritical {
		return GateDecision{
			ExitCode: ExitNewCriticalGate,
			Message:  fmt.Sprintf("%d new critical finding(s) exceed the allowed %d", newCritical, ci.MaxNewCritical),
		}
	}

	if ci.MaxNewHigh != nil && newHigh > *ci.MaxNewHigh {
		return GateDecision{
			ExitCode: ExitNewHighGate,
			Message:  fmt.Sprintf("%d new high finding(s) exceed the allowed %d", newHigh, *ci.MaxNewHigh),
		}
	}

	return pass()
}
