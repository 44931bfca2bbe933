// Package reconcile decides, per ticker, whether the indexed filing is
// current and ingests a newer one when it is not. The expensive path
// (download, parse, embed) runs only when the freshness gate fails.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/filing"
	"github.com/kailas-cloud/tenqd/internal/domain/freshness"
	"github.com/kailas-cloud/tenqd/internal/metrics"
)

// State is the terminal state of one reconciliation run.
type State string

// Terminal states.
const (
	// StateReadyCached: cache hit plus indexed document, no EDGAR calls made.
	StateReadyCached State = "ready_cached"
	// StateReadyUnchanged: EDGAR consulted, resolved filing equivalent to cached.
	StateReadyUnchanged State = "ready_unchanged"
	// StateIngested: a new or missing filing was downloaded, parsed and indexed.
	StateIngested State = "ingested"
)

// Outcome reports how a reconciliation run ended and which filing is
// now current.
type Outcome struct {
	State     State
	Filing    filing.Descriptor
	Fragments int // fragments upserted; zero unless State is StateIngested
}

// Request parameterizes one reconciliation run.
type Request struct {
	Ticker       string
	TargetPeriod time.Time // zero: newest filing regardless of period
	ForceRefresh bool      // skip both gate stages, always ingest
}

// Service runs the freshness gate and ingestion pipeline. Runs for the
// same ticker are serialized; different tickers proceed concurrently.
type Service struct {
	cache    FreshnessCache
	store    ChunkStore
	source   FilingSource
	fetcher  ContentFetcher
	parser   Parser
	embedder domain.BatchEmbedder
	locks    keyedMutex
	logger   *zap.Logger
}

// New creates a reconciliation service.
func New(
	cache FreshnessCache,
	store ChunkStore,
	source FilingSource,
	fetcher ContentFetcher,
	parser Parser,
	embedder domain.BatchEmbedder,
	logger *zap.Logger,
) *Service {
	return &Service{
		cache:    cache,
		store:    store,
		source:   source,
		fetcher:  fetcher,
		parser:   parser,
		embedder: embedder,
		logger:   logger,
	}
}

// Reconcile brings the index for a ticker up to date and reports how.
func (s *Service) Reconcile(ctx context.Context, req Request) (Outcome, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return Outcome{}, fmt.Errorf("ticker is required: %w", domain.ErrInvalidInput)
	}

	unlock := s.locks.lock(ticker)
	defer unlock()

	start := time.Now()
	outcome, err := s.run(ctx, ticker, req)
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ReconcileOutcomesTotal.WithLabelValues("failed").Inc()
		return Outcome{}, err
	}
	metrics.ReconcileOutcomesTotal.WithLabelValues(string(outcome.State)).Inc()
	return outcome, nil
}

func (s *Service) run(ctx context.Context, ticker string, req Request) (Outcome, error) {
	cached, haveCached := s.cachedRecord(ctx, ticker)

	// Stage one: cached record plus indexed document means no EDGAR
	// traffic at all.
	if haveCached && !req.ForceRefresh {
		ok, err := s.store.HasDocument(ctx, ticker, cached.AccessionNumber)
		if err != nil {
			return Outcome{}, fmt.Errorf("check indexed document: %w", err)
		}
		if ok {
			s.logger.Debug("Freshness gate passed from cache",
				zap.String("ticker", ticker),
				zap.String("accession", cached.AccessionNumber))
			return Outcome{State: StateReadyCached, Filing: cached.Descriptor(ticker)}, nil
		}
	}

	desc, err := s.source.LatestTenQ(ctx, ticker, req.TargetPeriod)
	if err != nil {
		return Outcome{}, err
	}

	// Stage two: the resolved filing may be the one already indexed.
	// Equivalence compares dates only, so re-checking membership with
	// the resolved accession still catches a same-period amendment
	// that was never ingested.
	if haveCached && !req.ForceRefresh && cached.Equivalent(desc) {
		ok, err := s.store.HasDocument(ctx, ticker, desc.AccessionNumber())
		if err != nil {
			return Outcome{}, fmt.Errorf("check indexed document: %w", err)
		}
		if ok {
			return Outcome{State: StateReadyUnchanged, Filing: desc}, nil
		}
	}

	count, err := s.ingest(ctx, ticker, desc)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{State: StateIngested, Filing: desc, Fragments: count}, nil
}

// ingest runs download, parse, embed and upsert, then records the new
// filing as current. The cache write happens last: a failed ingestion
// must leave the previous record in place so the next run retries.
func (s *Service) ingest(ctx context.Context, ticker string, desc filing.Descriptor) (int, error) {
	data, err := s.fetcher.FetchPrimary(ctx, desc)
	if err != nil {
		return 0, err
	}

	frags := s.parser.Parse(string(data), desc)
	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Text
	}

	res, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, err
	}

	if err := s.store.Upsert(ctx, frags, res.Embeddings); err != nil {
		return 0, fmt.Errorf("index fragments: %w", err)
	}

	if err := s.cache.Set(ctx, ticker, freshness.FromDescriptor(desc)); err != nil {
		return 0, fmt.Errorf("record freshness: %w", err)
	}

	metrics.IngestedFragmentsTotal.Add(float64(len(frags)))
	s.logger.Info("Ingested filing",
		zap.String("ticker", ticker),
		zap.String("accession", desc.AccessionNumber()),
		zap.Int("fragments", len(frags)),
		zap.Int("embedding_tokens", res.TotalTokens))
	return len(frags), nil
}

// cachedRecord treats any cache failure other than a clean miss as a
// miss too, with a warning: a broken cache degrades to extra EDGAR
// calls, never to a hard failure.
func (s *Service) cachedRecord(ctx context.Context, ticker string) (freshness.Record, bool) {
	rec, err := s.cache.Get(ctx, ticker)
	if err != nil {
		if !errors.Is(err, domain.ErrNotCached) {
			s.logger.Warn("Freshness cache read failed", zap.String("ticker", ticker), zap.Error(err))
		}
		return freshness.Record{}, false
	}
	return rec, true
}
