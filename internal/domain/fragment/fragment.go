// Package fragment defines the unit of indexing and retrieval: a bounded
// span of extracted filing text.
package fragment

import "github.com/kailas-cloud/tenqd/internal/domain/filing"

// Fragment is one chunk of extracted filing text. Immutable once created.
// ChunkIndex values are contiguous per (section, document) pair starting at 0.
type Fragment struct {
	SectionName string
	SectionItem string // item code such as "1A"; empty when the section has none
	ChunkIndex  int
	Text        string

	// Back-reference to the originating filing; (Ticker, AccessionNumber)
	// is the membership-test key of the chunk store.
	Ticker          string
	CIK             string
	AccessionNumber string
}

// FromSection builds a fragment for one chunk of a named section.
func FromSection(d filing.Descriptor, sectionName, sectionItem string, chunkIndex int, text string) Fragment {
	return Fragment{
		SectionName:     sectionName,
		SectionItem:     sectionItem,
		ChunkIndex:      chunkIndex,
		Text:            text,
		Ticker:          d.Ticker(),
		CIK:             d.CIK(),
		AccessionNumber: d.AccessionNumber(),
	}
}

// Truncated returns a copy with Text cut to at most maxChars characters.
// All other fields are unchanged; a fragment at or under the cap is
// returned as is.
func (f Fragment) Truncated(maxChars int) Fragment {
	if maxChars <= 0 || len(f.Text) <= maxChars {
		return f
	}
	out := f
	out.Text = f.Text[:maxChars]
	return out
}

// Indexed pairs a fragment with its embedding vector. Owned exclusively by
// the chunk store once upserted; embedding dimensions are uniform across a
// store (producer-enforced).
type Indexed struct {
	Fragment  Fragment
	Embedding []float32
}

// Scored is the ephemeral result of a similarity query. Score is cosine
// similarity in [-1, 1]. Not persisted.
type Scored struct {
	Fragment Fragment
	Score    float64
}
