package chunkstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
)

// Memory is the in-process reference chunk store. Contents disappear on
// restart; used for tests and the memory database driver.
type Memory struct {
	mu    sync.RWMutex
	items []fragment.Indexed
}

// NewMemory creates an empty in-memory chunk store.
func NewMemory() *Memory {
	return &Memory{}
}

// Upsert appends fragments paired one-to-one with embeddings.
// Duplicate upserts append duplicates; re-ingestion is gated upstream.
func (m *Memory) Upsert(_ context.Context, fragments []fragment.Fragment, embeddings [][]float32) error {
	if len(fragments) != len(embeddings) {
		return fmt.Errorf("%d fragments vs %d embeddings: %w",
			len(fragments), len(embeddings), domain.ErrArityMismatch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range fragments {
		m.items = append(m.items, fragment.Indexed{Fragment: f, Embedding: embeddings[i]})
	}
	return nil
}

// Search returns at most topK fragments ordered by cosine similarity
// descending, ties broken by insertion order.
func (m *Memory) Search(
	_ context.Context, query []float32, topK int, f Filter,
) ([]fragment.Scored, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]fragment.Scored, 0, len(m.items))
	for _, item := range m.items {
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

// HasDocument reports whether at least one fragment for the
// (ticker, accession) pair has been upserted.
func (m *Memory) HasDocument(_ context.Context, ticker, accessionNumber string) (bool, error) {
	t := strings.ToUpper(ticker)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if strings.EqualFold(item.Fragment.Ticker, t) &&
			item.Fragment.AccessionNumber == accessionNumber {
			return true, nil
		}
	}
	return false, nil
}

func matches(fr fragment.Fragment, f Filter) bool {
	if f.Ticker != "" && !strings.EqualFold(fr.Ticker, f.Ticker) {
		return false
	}
	if f.CIK != "" && fr.CIK != f.CIK {
		return false
	}
	if f.Section != "" && fr.SectionName != f.Section {
		return false
	}
	return true
}
