package freshness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/tenqd/internal/db"
	"github.com/kailas-cloud/tenqd/internal/domain"
	domfresh "github.com/kailas-cloud/tenqd/internal/domain/freshness"
)

// kvStore is the consumer interface for the Redis freshness cache (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisStore keeps one key per ticker, no TTL: staleness is decided by
// reconciliation, never by expiry.
type RedisStore struct {
	store kvStore
}

// NewRedisStore creates a Redis-backed freshness cache.
func NewRedisStore(s kvStore) *RedisStore {
	return &RedisStore{store: s}
}

// Get returns the cached record for a ticker, or domain.ErrNotCached.
func (s *RedisStore) Get(ctx context.Context, ticker string) (domfresh.Record, error) {
	data, err := s.store.Get(ctx, key(ticker))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domfresh.Record{}, domain.ErrNotCached
		}
		return domfresh.Record{}, fmt.Errorf("get freshness %s: %w", ticker, err)
	}

	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domfresh.Record{}, fmt.Errorf("parse freshness %s: %w", ticker, err)
	}
	return fromDTO(dto)
}

// Set overwrites the cached record for a ticker.
func (s *RedisStore) Set(ctx context.Context, ticker string, rec domfresh.Record) error {
	data, err := json.Marshal(toDTO(rec))
	if err != nil {
		return fmt.Errorf("marshal freshness %s: %w", ticker, err)
	}
	if err := s.store.Set(ctx, key(ticker), data); err != nil {
		return fmt.Errorf("set freshness %s: %w", ticker, err)
	}
	return nil
}

func key(ticker string) string {
	return domain.KeyPrefix + "freshness:" + strings.ToUpper(ticker)
}
