package edgar

import (
	"context"
	"time"

	"github.com/kailas-cloud/tenqd/internal/domain/filing"
)

// Locator composes ticker resolution and submissions lookup into a
// single "find the latest 10-Q" operation.
type Locator struct {
	resolver    *Resolver
	submissions *Submissions
}

// NewLocator creates a filing locator.
func NewLocator(resolver *Resolver, submissions *Submissions) *Locator {
	return &Locator{resolver: resolver, submissions: submissions}
}

// LatestTenQ resolves the ticker and selects its newest 10-Q, optionally
// constrained to an exact period of report.
func (l *Locator) LatestTenQ(ctx context.Context, ticker string, targetPeriod time.Time) (filing.Descriptor, error) {
	id, err := l.resolver.Resolve(ctx, ticker)
	if err != nil {
		return filing.Descriptor{}, err
	}
	return l.submissions.LatestTenQ(ctx, id, targetPeriod)
}
