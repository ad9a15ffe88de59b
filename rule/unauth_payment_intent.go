package rule

import (
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

var unauthPaymentIntentRule = Rule{
	ID: "unauth-payment-intent",
	AppliesTo: func(_ config.Config, f File) bool {
		return IsPaymentPath(f.RelPath)
	},
	Run: func(cfg config.Config, f File) []model.Finding {
		if !authMissing(cfg, f) {
			return nil
		}

		return []model.Finding{{
			RuleID:     "unauth-payment-intent",
			Confidence: model.ConfidenceHigh,
			Message:    "Payment/checkout endpoint has no authentication check",
			File:       f.RelPath,
			Evidence:   []string{"path matches a payment/checkout route", "no configured auth function referenced", "no middleware file covers this route"},
			Remediation: []string{
				"Require an authenticated session before creating or mutating a payment intent",
			},
			Tags: []string{"auth", "payment"},
		}}
	},
}
