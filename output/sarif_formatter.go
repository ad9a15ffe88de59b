package output

import (
	"bytes"
	"encoding/json"

	sarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/shipguard/shipguard/model"
)

// SARIFVersion is the build-time version constant stamped into the SARIF
// tool.driver.version field.
var SARIFVersion = "dev"

func severityToLevel(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical:
		return "error"
	case model.SeverityHigh:
		return "warning"
	default:
		return "note"
	}
}

// RenderSARIF builds a SARIF 2.1.0 document for a scan result. Only active
// findings are included — waived findings never surface in the report.
// Output is pretty-printed JSON with 2-space indent, so repeated runs over
// the same input are byte-identical.
func RenderSARIF(result model.ScanResult) ([]byte, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}

	run := sarif.NewRunWithInformationURI("shipguard", "https://github.com/shipguard/shipguard")
	run.Tool.Driver.Version = &SARIFVersion

	buildRules(result.Findings, run)
	for _, f := range result.Findings {
		buildResult(f, run)
	}

	report.AddRun(run)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildRules(findings []model.Finding, run *sarif.Run) {
	seen := make(map[string]bool, len(findings))
	for _, f := range findings {
		if seen[f.RuleID] {
			continue
		}
		seen[f.RuleID] = true

		rule := run.AddRule(f.RuleID).
			WithDescription(f.Message).
			WithHelpURI("https://github.com/shipguard/shipguard")
		rule.WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel(severityToLevel(f.Severity)))
	}
}

func buildResult(f model.Finding, run *sarif.Run) {
	result := run.CreateResultForRule(f.RuleID).
		WithLevel(severityToLevel(f.Severity)).
		WithMessage(sarif.NewTextMessage(f.Message))

	region := sarif.NewRegion()
	hasRegion := false
	if f.Line > 0 {
		region.WithStartLine(f.Line)
		hasRegion = true
		if f.Column > 0 {
			region.WithStartColumn(f.Column)
		}
	}

	location := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.File))
	if hasRegion {
		location.WithRegion(region)
	}
	result.AddLocation(sarif.NewLocation().WithPhysicalLocation(location))

	result.WithProperties(map[string]interface{}{
		"confidence":  string(f.Confidence),
		"evidence":    f.Evidence,
		"remediation": f.Remediation,
	})
}
