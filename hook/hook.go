// Package hook implements the extension host: an ordered set of phase
// callbacks that can veto a scan by returning a failing GateResult.
package hook

import (
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

// GateResult is returned by every phase hook. A zero-value GateResult is
// not valid on its own — use Ok() for success.
type GateResult struct {
	OK       bool
	ExitCode int
	Message  string
	Details  string
}

// Ok is the canonical passing result.
func Ok() GateResult {
	return GateResult{OK: true}
}

// Fail builds a non-ok GateResult carrying the exit code the orchestrator
// should surface.
func Fail(exitCode int, message string) GateResult {
	return GateResult{ExitCode: exitCode, Message: message}
}

// Extension is implemented by plugins. Every phase method is optional —
// an extension that only cares about one phase embeds Base and overrides
// just that method.
type Extension interface {
	OnConfigLoaded(cfg config.Config) GateResult
	OnFindings(findings []model.Finding) GateResult
	OnScored(result model.ScanResult) GateResult
	OnReport(result model.ScanResult) GateResult
	OnInit(root string)
}

// Base is a no-op Extension. Embed it so implementations only need to
// define the phases they act on.
type Base struct{}

func (Base) OnConfigLoaded(config.Config) GateResult { return Ok() }
func (Base) OnFindings([]model.Finding) GateResult   { return Ok() }
func (Base) OnScored(model.ScanResult) GateResult    { return Ok() }
func (Base) OnReport(model.ScanResult) GateResult    { return Ok() }
func (Base) OnInit(string)                           {}

// Host dispatches phases to registered extensions in registration order.
type Host struct {
	extensions []Extension
	initLog    []string
}

// NewHost builds a host with the given extensions, dispatched in the
// order given.
func NewHost(extensions ...Extension) *Host {
	return &Host{extensions: extensions}
}

// Register appends an extension to the dispatch order.
func (h *Host) Register(e Extension) {
	h.extensions = append(h.extensions, e)
}

// DispatchConfigLoaded runs onConfigLoaded on every extension, stopping at
// the first failing GateResult.
func (h *Host) DispatchConfigLoaded(cfg config.Config) GateResult {
	for _, e := range h.extensions {
		if r := e.OnConfigLoaded(cfg); !r.OK {
			return r
		}
	}
	return Ok()
}

// DispatchFindings runs onFindings on every extension, stopping at the
// first failing GateResult.
func (h *Host) DispatchFindings(findings []model.Finding) GateResult {
	for _, e := range h.extensions {
		if r := e.OnFindings(findings); !r.OK {
			return r
		}
	}
	return Ok()
}

// DispatchScored runs onScored on every extension, stopping at the first
// failing GateResult. This is the phase after which the orchestrator
// applies the CI gate.
func (h *Host) DispatchScored(result model.ScanResult) GateResult {
	for _, e := range h.extensions {
		if r := e.OnScored(result); !r.OK {
			return r
		}
	}
	return Ok()
}

// DispatchReport runs onReport on every extension, stopping at the first
// failing GateResult.
func (h *Host) DispatchReport(result model.ScanResult) GateResult {
	for _, e := range h.extensions {
		if r := e.OnReport(result); !r.OK {
			return r
		}
	}
	return Ok()
}

// DispatchInit runs onInit on every extension. It is fire-and-forget: no
// extension can short-circuit it, and any messages an extension wants
// surfaced must be appended via Log.
func (h *Host) DispatchInit(root string) []string {
	h.initLog = nil
	for _, e := range h.extensions {
		e.OnInit(root)
	}
	return h.initLog
}

// Log appends a message to the shared onInit log. Extensions call this
// from within OnInit to surface progress without a return value.
func (h *Host) Log(message string) {
	h.initLog = append(h.initLog, message)
}
