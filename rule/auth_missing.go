package rule

import (
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/probe"
)

var authMissingRule = Rule{
	ID: "auth-missing",
	AppliesTo: func(_ config.Config, f File) bool {
		return IsRouteHandler(f.RelPath)
	},
	Run: func(cfg config.Config, f File) []model.Finding {
		if !authMissing(cfg, f) {
			return nil
		}

		confidence := model.ConfidenceMedium
		if probe.HasMutation(f.Source) {
			confidence = model.ConfidenceHigh
		}

		return []model.Finding{{
			RuleID:     "auth-missing",
			Confidence: confidence,
			Message:    "Route handler has no authentication check",
			File:       f.RelPath,
			Evidence:   []string{"no configured auth function referenced", "no middleware file covers this route"},
			Remediation: []string{
				"Call a session/auth check (e.g. auth(), getServerSession()) before handling the request",
				"Or add this route's prefix to hints.auth.middlewareFiles if it is protected by middleware",
			},
			Tags: []string{"auth"},
		}}
	},
}
