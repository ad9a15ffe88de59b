package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shipguard/shipguard/model"
)

// PRCommentOptions holds configuration for PR commenting.
type PRCommentOptions struct {
	PRNumber int
	Comment  bool // Post summary comment.
}

// Enabled returns true if PR commenting is requested.
func (o *PRCommentOptions) Enabled() bool {
	return o.Comment
}

// Validate checks that required fields are present when commenting is enabled.
func (o *PRCommentOptions) Validate() error {
	if !o.Enabled() {
		return nil
	}
	if o.PRNumber <= 0 {
		return fmt.Errorf("--github-pr must be a positive number")
	}
	return nil
}

// ParseRepo splits "owner/repo" into owner and repo.
func ParseRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("--github-repo must be in owner/repo format, got %q", repo)
	}
	return parts[0], parts[1], nil
}

// ProgressFunc is a callback for reporting progress messages.
type ProgressFunc func(format string, args ...any)

// PostPRComments posts a summary comment on a GitHub PR with the scan's
// active findings.
func PostPRComments(
	client *Client,
	opts PRCommentOptions,
	findings []model.Finding,
	metrics ScanMetrics,
	progress ProgressFunc,
) error {
	if !opts.Comment {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pr, err := client.GetPullRequest(ctx, opts.PRNumber)
	if err != nil {
		return fmt.Errorf("get PR metadata: %w", err)
	}
	metrics.BlobBaseURL = fmt.Sprintf("https://github.com/%s/%s/blob/%s", client.owner, client.repo, pr.Head.SHA)

	progress("Posting PR summary comment...")
	markdown := FormatSummaryComment(findings, metrics)
	cm := NewCommentManager(client, opts.PRNumber)
	if err := cm.PostOrUpdate(ctx, markdown); err != nil {
		return fmt.Errorf("post summary comment: %w", err)
	}
	progress("PR summary comment posted")

	return nil
}
