package rule

import (
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/probe"
)

var rateLimitMissingRule = Rule{
	ID: "rate-limit-missing",
	AppliesTo: func(_ config.Config, f File) bool {
		return IsRouteHandler(f.RelPath) && probe.HasMutation(f.Source)
	},
	Run: func(cfg config.Config, f File) []model.Finding {
		if probe.HasRateLimitCall(f.Source, cfg.Hints.RateLimit.Wrappers) {
			return nil
		}

		return []model.Finding{{
			RuleID:     "rate-limit-missing",
			Confidence: model.ConfidenceMedium,
			Message:    "Mutating route handler has no rate limiting",
			File:       f.RelPath,
			Evidence:   []string{"performs a data-store mutation", "no configured rate-limit wrapper referenced"},
			Remediation: []string{
				"Wrap the handler with a rate limiter (e.g. rateLimit(), withRateLimit()) before the mutation runs",
			},
			Tags: []string{"rate-limit"},
		}}
	},
}
