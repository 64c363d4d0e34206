package github

import (
	"context"
	"fmt"

	"github.com/knqyf263/gh-test-with/internal/prref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolved pairs a reference with the pull request it points at
type Resolved struct {
	Reference   prref.Reference
	PullRequest *PullRequest
}

// Resolve fetches the pull request behind every reference, at most
// concurrency at a time. Results keep the order of refs. The first failed
// lookup cancels the rest and is returned
func (f *Fetcher) Resolve(ctx context.Context, refs []prref.Reference, concurrency int) ([]Resolved, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Resolved, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			sel, err := selectorFromReference(ref)
			if err != nil {
				return fmt.Errorf("invalid reference %s: %w", ref, err)
			}
			pr, err := f.PullRequest(ctx, sel)
			if err != nil {
				return err
			}
			results[i] = Resolved{Reference: ref, PullRequest: pr}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.logger.Debug("Resolved references", zap.Int("count", len(results)), zap.Int("concurrency", concurrency))
	return results, nil
}
