package rule

import (
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/probe"
)

var ssrfUserURLRule = Rule{
	ID: "ssrf-user-url",
	AppliesTo: func(_ config.Config, f File) bool {
		return IsRouteHandler(f.RelPath) || IsServerAction(f)
	},
	Run: func(_ config.Config, f File) []model.Finding {
		out := probe.DetectOutboundFetcher(f.Source)
		if !out.IsRisky {
			return nil
		}

		return []model.Finding{{
			RuleID:     "ssrf-user-url",
			Confidence: model.ConfidenceHigh,
			Message:    "Outbound request URL is influenced by request input",
			File:       f.RelPath,
			Evidence:   out.Evidence,
			Remediation: []string{
				"Validate the destination against an allowlist before issuing the outbound request",
			},
			Tags: []string{"ssrf"},
		}}
	},
}
