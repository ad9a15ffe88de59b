// Package rule combines the source probes into named rules producing
// findings with evidence. Rules are pure functions of a file's text and
// the shared, immutable config.
package rule

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/detect"
	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/probe"
)

// File is the unit of work a rule evaluates.
type File struct {
	RelPath string // project-relative, forward-slash path
	Source  string
}

// Rule evaluates a single file and returns zero or more findings. Severity
// on returned findings is left unset — the caller fills it in from
// cfg.Severity(ID), the sole source of severity authority.
type Rule struct {
	ID        string
	AppliesTo func(cfg config.Config, f File) bool
	Run       func(cfg config.Config, f File) []model.Finding
}

// All returns the full rule set in fixed lexical order on ruleId, as the
// spec requires for deterministic output.
func All() []Rule {
	rules := []Rule{
		authMissingRule,
		rateLimitMissingRule,
		ssrfUserURLRule,
		tenancyMissingRule,
		unauthPaymentIntentRule,
	}
	return rules
}

var routeHandlerRe = regexp.MustCompile(`(?:^|/)route\.(ts|tsx|js|jsx)$`)

// IsRouteHandler reports whether path is a route handler file.
func IsRouteHandler(path string) bool {
	return routeHandlerRe.MatchString(path)
}

// IsServerAction reports whether f is a server-invocable action: its
// leading directive is "use server".
func IsServerAction(f File) bool {
	return detect.HasUseServerDirective(f.Source)
}

var paymentPathRe = regexp.MustCompile(`(?:^|/)api/(?:.*/)?(?:checkout|payment)(?:/|$)`)

// IsPaymentPath reports whether path falls under api/**/checkout/** or
// api/**/payment/**.
func IsPaymentPath(path string) bool {
	return paymentPathRe.MatchString(path)
}

// coveredByMiddleware reports whether one of the configured middleware
// files covers the URL prefix of routePath. A middleware file at
// "app/api/_middleware.ts" is treated as covering every route beneath
// "app/api/".
func coveredByMiddleware(routePath string, middlewareFiles []string) bool {
	for _, mw := range middlewareFiles {
		if mw == "" {
			continue
		}
		prefix := strings.TrimSuffix(filepath.ToSlash(mw), filepath.Base(mw))
		if strings.HasPrefix(routePath, prefix) {
			return true
		}
	}
	return false
}

// authMissing reports whether a file fails the auth-covered check: no
// hinted auth call and no middleware file covering its prefix.
func authMissing(cfg config.Config, f File) bool {
	if probe.HasAuthCall(f.Source, cfg.Hints.Auth.Functions) {
		return false
	}
	return !coveredByMiddleware(f.RelPath, cfg.Hints.Auth.MiddlewareFiles)
}
