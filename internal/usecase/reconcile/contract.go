package reconcile

import (
	"context"
	"time"

	"github.com/kailas-cloud/tenqd/internal/domain/filing"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	"github.com/kailas-cloud/tenqd/internal/domain/freshness"
)

// Consumer interfaces (ISP): the service names only the operations it
// uses; concrete implementations live in repository and transport.

// FreshnessCache persists the latest-known ingested filing per ticker.
type FreshnessCache interface {
	Get(ctx context.Context, ticker string) (freshness.Record, error)
	Set(ctx context.Context, ticker string, rec freshness.Record) error
}

// ChunkStore is the indexed fragment store side of the gate.
type ChunkStore interface {
	Upsert(ctx context.Context, frags []fragment.Fragment, embeddings [][]float32) error
	HasDocument(ctx context.Context, ticker, accession string) (bool, error)
}

// FilingSource locates the newest 10-Q for a ticker on EDGAR.
type FilingSource interface {
	LatestTenQ(ctx context.Context, ticker string, targetPeriod time.Time) (filing.Descriptor, error)
}

// ContentFetcher returns the primary document bytes for a filing.
type ContentFetcher interface {
	FetchPrimary(ctx context.Context, desc filing.Descriptor) ([]byte, error)
}

// Parser turns filing HTML into fragments.
type Parser interface {
	Parse(doc string, d filing.Descriptor) []fragment.Fragment
}
