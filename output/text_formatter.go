package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/shipguard/shipguard/model"
)

// RenderText writes a human-readable summary of a scan result to w: one
// line per finding, followed by a severity roll-up and the score.
func RenderText(w io.Writer, result model.ScanResult) {
	for _, f := range result.Findings {
		loc := f.File
		if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		fmt.Fprintf(w, "[%s] %s %s — %s\n", f.Severity, f.RuleID, loc, f.Message)
	}

	if len(result.WaivedFindings) > 0 {
		fmt.Fprintf(w, "\n%d finding(s) waived\n", len(result.WaivedFindings))
	}

	fmt.Fprintln(w, strings.Repeat("-", dividerWidth(w)))

	s := result.Summary
	fmt.Fprintf(w, "%d finding(s): %d critical, %d high, %d med, %d low\n", s.Total, s.Critical, s.High, s.Med, s.Low)
	fmt.Fprintf(w, "score: %d\n", result.Score)
}

// dividerWidth sizes the summary divider to the terminal, capped so a very
// wide terminal doesn't produce an absurd line.
func dividerWidth(w io.Writer) int {
	width := GetTerminalWidth(w)
	if width > 72 {
		width = 72
	}
	return width
}
