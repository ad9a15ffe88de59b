package probe

import "regexp"

// OutboundFetch summarizes what detectOutboundFetcher observed in one file.
type OutboundFetch struct {
	HasOutboundFetch      bool
	HasUserInfluencedURL   bool
	IsRisky                bool
	Evidence               []string
}

// outboundCallPatterns name the call forms that count as an outbound HTTP
// request, each paired with the evidence string recorded when it matches.
var outboundCallPatterns = []struct {
	re       *regexp.Regexp
	evidence string
}{
	{regexp.MustCompile(`\bfetch\s*\(`), "fetch("},
	{regexp.MustCompile(`\baxios\.\w+\s*\(`), "axios.*("},
	{regexp.MustCompile(`\bgot\s*\(`), "got("},
	{regexp.MustCompile(`\bundici\.request\s*\(`), "undici.request("},
}

// undiciImportRe matches a named import bound from the undici module, e.g.
// `import { request } from "undici"` or `import { request as r } from 'undici'`.
var undiciImportRe = regexp.MustCompile(`import\s*\{([^}]*)\}\s*from\s*['"]undici['"]`)

// taint source patterns: each names the literal substring recorded as
// evidence when the pattern matches somewhere in the file.
var taintSourcePatterns = []struct {
	re       *regexp.Regexp
	evidence string
}{
	{regexp.MustCompile(`\brequest\.url\b`), "request.url"},
	{regexp.MustCompile(`\breq\.url\b`), "req.url"},
	{regexp.MustCompile(`\bawait\s+request\.json\s*\(\s*\)`), "await request.json()"},
	{regexp.MustCompile(`\bawait\s+req\.json\s*\(\s*\)`), "await req.json()"},
}

var assignRe = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*([^;\n]*)`)
var destructureAssignRe = regexp.MustCompile(`(?:const|let|var)\s*\{\s*([^}]*)\s*\}\s*=\s*([^;\n]*)`)
var paramsDestructureRe = regexp.MustCompile(`\{\s*[^}]*\bparams\b[^}]*\}`)

// DetectOutboundFetcher is the C3 SSRF probe: it reports whether src makes
// an outbound HTTP call whose URL argument is influenced by user input.
func DetectOutboundFetcher(src string) OutboundFetch {
	var result OutboundFetch
	var callEvidence []string

	for _, p := range outboundCallPatterns {
		if p.re.MatchString(src) {
			result.HasOutboundFetch = true
			callEvidence = append(callEvidence, p.evidence)
		}
	}

	if m := undiciImportRe.FindStringSubmatch(src); m != nil {
		for _, name := range splitImportNames(m[1]) {
			if callTarget(name).MatchString(src) {
				result.HasOutboundFetch = true
				callEvidence = append(callEvidence, name+"(")
			}
		}
	}

	if !result.HasOutboundFetch {
		return result
	}

	taintedVars, sourceEvidence := taintedBindings(src)
	urlTainted := len(sourceEvidence) > 0 && referencesTaintInCall(src, taintedVars, sourceEvidence)

	if urlTainted {
		result.HasUserInfluencedURL = true
	}

	result.IsRisky = result.HasOutboundFetch && result.HasUserInfluencedURL
	if result.IsRisky {
		result.Evidence = append(result.Evidence, callEvidence...)
		result.Evidence = append(result.Evidence, sourceEvidence...)
	}
	return result
}

func splitImportNames(body string) []string {
	var names []string
	for _, part := range regexpSplitComma(body) {
		part = trimSpace(part)
		if part == "" {
			continue
		}
		if idx := indexOf(part, " as "); idx >= 0 {
			part = trimSpace(part[idx+4:])
		}
		names = append(names, part)
	}
	return names
}

// taintedBindings scans src for direct taint-source references and variable
// assignments derived from them, returning the tainted variable names
// (always including the literal "params" binding when destructured) plus
// the evidence strings for whichever source patterns were observed.
func taintedBindings(src string) (vars []string, evidence []string) {
	seenEvidence := map[string]bool{}
	for _, p := range taintSourcePatterns {
		if p.re.MatchString(src) {
			if !seenEvidence[p.evidence] {
				evidence = append(evidence, p.evidence)
				seenEvidence[p.evidence] = true
			}
		}
	}
	if len(evidence) == 0 && !paramsDestructureRe.MatchString(src) {
		return nil, nil
	}
	if paramsDestructureRe.MatchString(src) {
		vars = append(vars, "params")
		if !seenEvidence["params"] {
			evidence = append(evidence, "destructured route params")
		}
	}

	for _, m := range assignRe.FindAllStringSubmatch(src, -1) {
		name, rhs := m[1], m[2]
		if matchesAnyTaintSource(rhs) {
			vars = append(vars, name)
		}
	}
	for _, m := range destructureAssignRe.FindAllStringSubmatch(src, -1) {
		names, rhs := m[1], m[2]
		if matchesAnyTaintSource(rhs) {
			for _, n := range regexpSplitComma(names) {
				vars = append(vars, trimSpace(n))
			}
		}
	}
	return vars, evidence
}

func matchesAnyTaintSource(s string) bool {
	for _, p := range taintSourcePatterns {
		if p.re.MatchString(s) {
			return true
		}
	}
	return false
}

// referencesTaintInCall reports whether any outbound call's argument list
// references a taint source directly or through a tainted variable binding.
func referencesTaintInCall(src string, vars, directEvidence []string) bool {
	for _, call := range outboundCallArgSpans(src) {
		for _, p := range taintSourcePatterns {
			if p.re.MatchString(call) {
				return true
			}
		}
		for _, v := range vars {
			if v == "" {
				continue
			}
			if regexp.MustCompile(`\b`+regexp.QuoteMeta(v)+`\b`).MatchString(call) {
				return true
			}
		}
	}
	return false
}

// outboundCallArgSpans extracts the text inside the parentheses of every
// outbound call site, a same-scope heuristic stand-in for real argument
// binding.
func outboundCallArgSpans(src string) []string {
	var spans []string
	for _, p := range outboundCallPatterns {
		for _, loc := range p.re.FindAllStringIndex(src, -1) {
			spans = append(spans, extractParenSpan(src, loc[1]-1))
		}
	}
	if m := undiciImportRe.FindStringSubmatch(src); m != nil {
		for _, name := range splitImportNames(m[1]) {
			for _, loc := range callTarget(name).FindAllStringIndex(src, -1) {
				spans = append(spans, extractParenSpan(src, loc[1]-1))
			}
		}
	}
	return spans
}

// extractParenSpan returns the text between a matching pair of parentheses
// starting at openIdx (which must point at '(').
func extractParenSpan(src string, openIdx int) string {
	if openIdx < 0 || openIdx >= len(src) || src[openIdx] != '(' {
		return ""
	}
	depth := 0
	for i := openIdx; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return src[openIdx+1 : i]
			}
		}
	}
	return src[openIdx+1:]
}

func regexpSplitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
