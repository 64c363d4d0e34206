package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/knqyf263/gh-test-with/internal/prref"
	"github.com/knqyf263/gh-test-with/internal/validate"
	"go.uber.org/zap"
)

// ErrNoPullRequest is returned when no open pull request matches a branch
var ErrNoPullRequest = errors.New("no open pull request found")

const pullsPerPage = 100

// RESTClient is the subset of go-gh's api.RESTClient used here
type RESTClient interface {
	DoWithContext(ctx context.Context, method string, path string, body io.Reader, response interface{}) error
}

// Fetcher reads pull requests through the GitHub REST API
type Fetcher struct {
	client RESTClient
	logger *zap.Logger
}

// NewFetcher creates a fetcher, a nil logger discards output
func NewFetcher(client RESTClient, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// NewDefaultFetcher uses go-gh's default client, authenticated from GH_TOKEN,
// GITHUB_TOKEN or the gh config
func NewDefaultFetcher(logger *zap.Logger) (*Fetcher, error) {
	client, err := api.DefaultRESTClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}
	return NewFetcher(client, logger), nil
}

// PullRequest fetches a single pull request
func (f *Fetcher) PullRequest(ctx context.Context, sel Selector) (*PullRequest, error) {
	if err := validate.Repository(sel.Repo); err != nil {
		return nil, err
	}
	if err := validate.PRNumber(sel.Number); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%s/pulls/%d", sel.Repo, sel.Number)
	f.logger.Debug("Fetching pull request", zap.String("path", path))

	var pr PullRequest
	if err := f.client.DoWithContext(ctx, http.MethodGet, path, nil, &pr); err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("pull request %s not found", sel)
		}
		return nil, fmt.Errorf("failed to get PR details for %s: %w", sel, err)
	}
	return &pr, nil
}

// PullRequestsForBranch lists open pull requests whose head branch is named
// branch, walking every page. Forks are included, so more than one PR may match
func (f *Fetcher) PullRequestsForBranch(ctx context.Context, repo, branch string) ([]PullRequest, error) {
	if err := validate.Repository(repo); err != nil {
		return nil, err
	}
	if err := validate.BranchName(branch); err != nil {
		return nil, err
	}

	var matched []PullRequest
	for page := 1; ; page++ {
		path := fmt.Sprintf("repos/%s/pulls?state=open&per_page=%d&page=%d", repo, pullsPerPage, page)
		f.logger.Debug("Listing pull requests", zap.String("path", path), zap.String("branch", branch))

		var prs []PullRequest
		if err := f.client.DoWithContext(ctx, http.MethodGet, path, nil, &prs); err != nil {
			return nil, fmt.Errorf("failed to get PRs: %w", err)
		}
		for _, pr := range prs {
			if pr.Head.Ref == branch {
				matched = append(matched, pr)
			}
		}
		// A short page is the last one
		if len(prs) < pullsPerPage {
			break
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w for branch %s in %s", ErrNoPullRequest, branch, repo)
	}

	f.logger.Debug("Matched pull requests", zap.Int("count", len(matched)))
	return matched, nil
}

// References fetches a pull request and extracts its "Test with" references
func (f *Fetcher) References(ctx context.Context, sel Selector) ([]prref.Reference, error) {
	pr, err := f.PullRequest(ctx, sel)
	if err != nil {
		return nil, err
	}
	if pr.Body == nil {
		f.logger.Debug("Pull request has no description", zap.Stringer("pr", sel))
	}
	return pr.References(), nil
}
