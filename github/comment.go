package github

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shipguard/shipguard/model"
)

// summaryMarker is an invisible HTML comment embedded in every summary comment.
// Used to find and update existing comments instead of creating duplicates.
const summaryMarker = "<!-- shipguard-summary -->"

// ScanMetrics captures aggregate scan statistics for the summary comment.
type ScanMetrics struct {
	FilesScanned int
	RulesRun     int
	BlobBaseURL  string // e.g. "https://github.com/owner/repo/blob/sha" — enables file links.
}

// CommentManager handles creating and updating PR summary comments.
type CommentManager struct {
	client   *Client
	prNumber int
}

// NewCommentManager creates a comment manager for the given PR.
func NewCommentManager(client *Client, prNumber int) *CommentManager {
	return &CommentManager{client: client, prNumber: prNumber}
}

// PostOrUpdate posts a new summary comment or updates the existing one.
// It searches for a comment containing the marker to avoid duplicates.
func (cm *CommentManager) PostOrUpdate(ctx context.Context, markdown string) error {
	body := summaryMarker + "\n" + markdown

	existingID, err := cm.findExisting(ctx)
	if err != nil {
		return fmt.Errorf("find existing comment: %w", err)
	}

	if existingID != 0 {
		if _, err := cm.client.UpdateComment(ctx, existingID, body); err != nil {
			return fmt.Errorf("update summary comment: %w", err)
		}
		return nil
	}

	if _, err := cm.client.CreateComment(ctx, cm.prNumber, body); err != nil {
		return fmt.Errorf("create summary comment: %w", err)
	}
	return nil
}

// findExisting returns the ID of an existing summary comment, or 0 if none.
func (cm *CommentManager) findExisting(ctx context.Context) (int64, error) {
	comments, err := cm.client.ListComments(ctx, cm.prNumber)
	if err != nil {
		return 0, err
	}
	for _, c := range comments {
		if strings.Contains(c.Body, summaryMarker) {
			return c.ID, nil
		}
	}
	return 0, nil
}

// sortBySeverity returns a copy of findings sorted by severity (critical first).
func sortBySeverity(findings []model.Finding) []model.Finding {
	sorted := make([]model.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})
	return sorted
}

// FormatSummaryComment builds the markdown body for a PR summary comment.
func FormatSummaryComment(findings []model.Finding, metrics ScanMetrics) string {
	counts := model.BuildSummary(findings, nil)
	sorted := sortBySeverity(findings)
	var sb strings.Builder

	sb.WriteString("## Shipguard Security Scan\n\n")

	if counts.Total == 0 {
		sb.WriteString(statusBadge("Pass", "success"))
	} else {
		sb.WriteString(statusBadge("Issues Found", "critical"))
	}
	sb.WriteString(" ")
	sb.WriteString(severityBadge("Critical", counts.Critical))
	sb.WriteString(" ")
	sb.WriteString(severityBadge("High", counts.High))
	sb.WriteString(" ")
	sb.WriteString(severityBadge("Med", counts.Med))
	sb.WriteString(" ")
	sb.WriteString(severityBadge("Low", counts.Low))
	sb.WriteString("\n\n")

	if len(sorted) == 0 {
		sb.WriteString("**No security issues detected.**\n\n")
	} else {
		writeFindingsTable(&sb, sorted, metrics.BlobBaseURL)
		if counts.Critical > 0 {
			sb.WriteString(fmt.Sprintf("> **%d critical issue(s)** require attention.\n\n", counts.Critical))
		}
	}

	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|:-------|------:|\n")
	sb.WriteString(fmt.Sprintf("| Files Scanned | %d |\n", metrics.FilesScanned))
	sb.WriteString(fmt.Sprintf("| Rules | %d |\n", metrics.RulesRun))

	sb.WriteString("\n---\n")
	sb.WriteString("<sub>Powered by shipguard</sub>\n")

	return sb.String()
}

func statusBadge(label, color string) string {
	safe := strings.ReplaceAll(label, " ", "_")
	return fmt.Sprintf("![%s](https://img.shields.io/badge/Security-%s-%s?style=flat-square)", label, safe, color)
}

func severityBadge(label string, count int) string {
	color := "lightgrey"
	switch label {
	case "Critical":
		if count > 0 {
			color = "critical"
		} else {
			color = "success"
		}
	case "High":
		if count > 0 {
			color = "orange"
		} else {
			color = "success"
		}
	case "Med":
		if count > 0 {
			color = "yellow"
		} else {
			color = "success"
		}
	case "Low":
		if count > 0 {
			color = "blue"
		} else {
			color = "success"
		}
	}
	return fmt.Sprintf("![%s](https://img.shields.io/badge/%s-%d-%s?style=flat-square)", label, label, count, color)
}

func severityEmoji(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "\xf0\x9f\x94\xb4" // red circle
	case model.SeverityHigh:
		return "\xf0\x9f\x9f\xa0" // orange circle
	case model.SeverityMedium:
		return "\xf0\x9f\x9f\xa1" // yellow circle
	case model.SeverityLow:
		return "\xf0\x9f\x94\xb5" // blue circle
	default:
		return ""
	}
}

func severityLabel(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return severityEmoji(severity) + " **Critical**"
	case model.SeverityHigh:
		return severityEmoji(severity) + " High"
	case model.SeverityMedium:
		return severityEmoji(severity) + " Med"
	case model.SeverityLow:
		return severityEmoji(severity) + " Low"
	default:
		return string(severity)
	}
}

func writeFindingsTable(sb *strings.Builder, findings []model.Finding, blobBaseURL string) {
	sb.WriteString("### Findings\n\n")
	if blobBaseURL != "" {
		sb.WriteString("| Severity | File | Line | Issue | |\n")
		sb.WriteString("|:---------|:-----|-----:|:------|:-:|\n")
	} else {
		sb.WriteString("| Severity | File | Line | Issue |\n")
		sb.WriteString("|:---------|:-----|-----:|:------|\n")
	}
	for _, f := range findings {
		if blobBaseURL != "" {
			link := fmt.Sprintf("[%s](%s/%s#L%d)", "\xf0\x9f\x94\x97", blobBaseURL, f.File, f.Line)
			sb.WriteString(fmt.Sprintf("| %s | `%s` | %d | %s | %s |\n",
				severityLabel(f.Severity), f.File, f.Line, f.Message, link))
		} else {
			sb.WriteString(fmt.Sprintf("| %s | `%s` | %d | %s |\n",
				severityLabel(f.Severity), f.File, f.Line, f.Message))
		}
	}
	sb.WriteString("\n")
}
