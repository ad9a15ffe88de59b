package rule

import (
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/probe"
)

var tenancyMissingRule = Rule{
	ID: "tenancy-missing",
	AppliesTo: func(_ config.Config, f File) bool {
		return IsRouteHandler(f.RelPath) && probe.HasWhereClause(f.Source)
	},
	Run: func(cfg config.Config, f File) []model.Finding {
		if probe.HasTenantScope(f.Source, cfg.Hints.Tenancy.OrgFieldNames) {
			return nil
		}

		return []model.Finding{{
			RuleID:     "tenancy-missing",
			Confidence: model.ConfidenceHigh,
			Message:    "Query has no tenant scoping field in its where clause",
			File:       f.RelPath,
			Evidence:   []string{"where clause present", "no configured tenant field referenced inside it"},
			Remediation: []string{
				"Scope the query by the caller's tenant (e.g. where: { orgId: session.orgId, ... })",
			},
			Tags: []string{"tenancy"},
		}}
	},
}
