package chunkstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/tenqd/internal/db"
	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
)

// store is the consumer interface for the Redis chunk store (ISP).
type store interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SCard(ctx context.Context, key string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Redis is the durable chunk store. Fragments live in hashes keyed by a
// zero-padded per-ticker sequence, so lexical key order equals insertion
// order; membership sets per (ticker, accession) back HasDocument.
type Redis struct {
	store store
}

// NewRedis creates a Redis-backed chunk store.
func NewRedis(s store) *Redis {
	return &Redis{store: s}
}

// Upsert stores fragments paired one-to-one with embeddings.
// Duplicate upserts get fresh sequence numbers and therefore append.
func (r *Redis) Upsert(ctx context.Context, fragments []fragment.Fragment, embeddings [][]float32) error {
	if len(fragments) != len(embeddings) {
		return fmt.Errorf("%d fragments vs %d embeddings: %w",
			len(fragments), len(embeddings), domain.ErrArityMismatch)
	}
	if len(fragments) == 0 {
		return nil
	}

	ticker := strings.ToUpper(fragments[0].Ticker)
	items := make([]db.HashSetItem, 0, len(fragments))
	byAccession := make(map[string][]string)
	allKeys := make([]string, 0, len(fragments))

	for i, f := range fragments {
		seq, err := r.store.IncrBy(ctx, seqKey(ticker), 1)
		if err != nil {
			return fmt.Errorf("next fragment sequence: %w", err)
		}
		key := fragKey(ticker, seq)
		items = append(items, db.HashSetItem{Key: key, Fields: buildHashFields(f, embeddings[i])})
		byAccession[f.AccessionNumber] = append(byAccession[f.AccessionNumber], key)
		allKeys = append(allKeys, key)
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store fragments: %w", err)
	}
	if err := r.store.SAdd(ctx, tickerSetKey(ticker), allKeys...); err != nil {
		return fmt.Errorf("index ticker set: %w", err)
	}
	for accession, keys := range byAccession {
		if err := r.store.SAdd(ctx, docSetKey(ticker, accession), keys...); err != nil {
			return fmt.Errorf("index document set %s: %w", accession, err)
		}
	}
	return nil
}

// Search scores candidate fragments client-side with cosine similarity.
func (r *Redis) Search(
	ctx context.Context, query []float32, topK int, f Filter,
) ([]fragment.Scored, error) {
	keys, err := r.candidateKeys(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	// Sequence-ordered keys restore insertion order for stable tie-breaks.
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load fragments: %w", err)
	}

	scored := make([]fragment.Scored, 0, len(hashes))
	for _, m := range hashes {
		if len(m) == 0 {
			continue
		}
		item := parseHashFields(m)
		if !matches(item.Fragment, f) {
			continue
		}
		scored = append(scored, fragment.Scored{
			Fragment: item.Fragment,
			Score:    cosine(query, item.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if topK >= 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// HasDocument reports whether any fragment for (ticker, accession) was upserted.
func (r *Redis) HasDocument(ctx context.Context, ticker, accessionNumber string) (bool, error) {
	n, err := r.store.SCard(ctx, docSetKey(strings.ToUpper(ticker), accessionNumber))
	if err != nil {
		return false, fmt.Errorf("document membership: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) candidateKeys(ctx context.Context, f Filter) ([]string, error) {
	if f.Ticker != "" {
		keys, err := r.store.SMembers(ctx, tickerSetKey(strings.ToUpper(f.Ticker)))
		if err != nil {
			return nil, fmt.Errorf("ticker fragment set: %w", err)
		}
		return keys, nil
	}

	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"frag:*")
	if err != nil {
		return nil, fmt.Errorf("scan fragments: %w", err)
	}
	return keys, nil
}

func fragKey(ticker string, seq int64) string {
	return fmt.Sprintf("%sfrag:%s:%012d", domain.KeyPrefix, ticker, seq)
}

func seqKey(ticker string) string {
	return fmt.Sprintf("%sseq:%s", domain.KeyPrefix, ticker)
}

func tickerSetKey(ticker string) string {
	return fmt.Sprintf("%sfrags:%s", domain.KeyPrefix, ticker)
}

func docSetKey(ticker, accession string) string {
	return fmt.Sprintf("%sdoc:%s:%s", domain.KeyPrefix, ticker, accession)
}
