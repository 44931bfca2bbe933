package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
)

type mockRetriever struct {
	frags   []fragment.Fragment
	err     error
	queries []string
}

func (m *mockRetriever) Retrieve(_ context.Context, _, query string, _ int) ([]fragment.Fragment, error) {
	m.queries = append(m.queries, query)
	return m.frags, m.err
}

func TestGatherContextFormatsFragments(t *testing.T) {
	retriever := &mockRetriever{frags: []fragment.Fragment{
		{SectionName: "Risk Factors", SectionItem: "1A", ChunkIndex: 2, Text: "Competition is intense."},
	}}
	a := &Analyst{retriever: retriever, logger: zap.NewNop()}

	got := a.gatherContext(context.Background(), "AAPL")
	if !strings.Contains(got, "[Risk Factors (Item 1A) #2]") {
		t.Errorf("missing section header in context:\n%s", got)
	}
	if !strings.Contains(got, "Competition is intense.") {
		t.Errorf("missing fragment text in context:\n%s", got)
	}
	if len(retriever.queries) != len(groundingQueries) {
		t.Errorf("ran %d queries, want %d", len(retriever.queries), len(groundingQueries))
	}
}

func TestGatherContextToleratesRetrievalFailure(t *testing.T) {
	retriever := &mockRetriever{err: errors.New("store down")}
	a := &Analyst{retriever: retriever, logger: zap.NewNop()}

	if got := a.gatherContext(context.Background(), "AAPL"); got != "" {
		t.Errorf("context = %q, want empty on total failure", got)
	}
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: `{"a":`}, {Text: `1}`},
			}},
		}},
	}
	got, err := extractText(resp)
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"a":1}` {
		t.Errorf("text = %q", got)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	if _, err := extractText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("expected error for empty response")
	}
}
