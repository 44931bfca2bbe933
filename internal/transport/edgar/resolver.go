package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/tenqd/internal/domain"
)

const resolverTTL = 6 * time.Hour

// Identity is a resolved ticker: the zero-padded CIK plus company name.
type Identity struct {
	Ticker      string
	CIK         string // zero-padded to 10 digits
	CompanyName string
}

// fetcher is the consumer interface the resolver needs from the client.
type fetcher interface {
	GetJSON(ctx context.Context, path string, dataHost bool) ([]byte, error)
}

// Resolver maps ticker symbols to CIKs via the SEC company_tickers.json
// directory, cached in memory with a TTL.
type Resolver struct {
	client fetcher

	mu          sync.Mutex
	byTicker    map[string]Identity
	lastRefresh time.Time
	now         func() time.Time
}

// NewResolver creates a ticker-to-CIK resolver.
func NewResolver(client fetcher) *Resolver {
	return &Resolver{
		client:   client,
		byTicker: make(map[string]Identity),
		now:      time.Now,
	}
}

// Resolve returns the identity for a ticker, refreshing the directory
// when the cached copy is older than the TTL. Unknown tickers map to
// domain.ErrUnknownTicker.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return Identity{}, err
	}

	id, ok := r.byTicker[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return Identity{}, fmt.Errorf("resolve %q: %w", ticker, domain.ErrUnknownTicker)
	}
	return id, nil
}

func (r *Resolver) ensureLoaded(ctx context.Context) error {
	if !r.lastRefresh.IsZero() && r.now().Sub(r.lastRefresh) < resolverTTL {
		return nil
	}

	body, err := r.client.GetJSON(ctx, "files/company_tickers.json", false)
	if err != nil {
		return fmt.Errorf("fetch company tickers: %w", err)
	}

	// SEC format: {"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ...}
	var raw map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("parse company tickers: %w", err)
	}

	cache := make(map[string]Identity, len(raw))
	for _, entry := range raw {
		ticker := strings.ToUpper(entry.Ticker)
		cache[ticker] = Identity{
			Ticker:      ticker,
			CIK:         fmt.Sprintf("%010d", entry.CIK),
			CompanyName: entry.Title,
		}
	}

	r.byTicker = cache
	r.lastRefresh = r.now()
	return nil
}
