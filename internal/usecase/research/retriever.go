package research

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	"github.com/kailas-cloud/tenqd/internal/repository/chunkstore"
)

// Retriever exposes bounded similarity retrieval to the analyst layer.
// Both bounds exist to protect the model context window: the fragment
// count is capped and each fragment's text is truncated.
type Retriever struct {
	embedder domain.Embedder
	searcher Searcher
	maxTopK  int
	maxChars int
}

// NewRetriever creates a bounded retriever.
func NewRetriever(embedder domain.Embedder, searcher Searcher, maxTopK, maxChars int) *Retriever {
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		maxTopK:  maxTopK,
		maxChars: maxChars,
	}
}

// Retrieve embeds the query and returns the closest fragments for a
// ticker. topK values above the cap (or non-positive) collapse to the cap.
func (r *Retriever) Retrieve(ctx context.Context, ticker, query string, topK int) ([]fragment.Fragment, error) {
	if topK <= 0 || topK > r.maxTopK {
		topK = r.maxTopK
	}

	res, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.searcher.Search(ctx, res.Embedding, topK, chunkstore.Filter{Ticker: ticker})
	if err != nil {
		return nil, fmt.Errorf("search fragments: %w", err)
	}

	frags := make([]fragment.Fragment, len(scored))
	for i, s := range scored {
		frags[i] = s.Fragment.Truncated(r.maxChars)
	}
	return frags, nil
}
