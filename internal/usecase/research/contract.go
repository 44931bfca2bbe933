package research

import (
	"context"

	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	"github.com/kailas-cloud/tenqd/internal/domain/report"
	"github.com/kailas-cloud/tenqd/internal/repository/chunkstore"
	"github.com/kailas-cloud/tenqd/internal/usecase/reconcile"
)

// Reconciler brings the index for a ticker up to date before analysis.
type Reconciler interface {
	Reconcile(ctx context.Context, req reconcile.Request) (reconcile.Outcome, error)
}

// Searcher runs similarity queries against the chunk store.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int, filter chunkstore.Filter) ([]fragment.Scored, error)
}

// Analyst generates the two report stages from prompts. The insights
// stage may retrieve filing text; the decision stage is conditioned
// only on the prompt.
type Analyst interface {
	Insights(ctx context.Context, ticker, prompt string) (report.Insights, error)
	Decision(ctx context.Context, prompt string) (report.Decision, error)
}
