package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/filing"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	"github.com/kailas-cloud/tenqd/internal/domain/report"
	"github.com/kailas-cloud/tenqd/internal/repository/chunkstore"
	"github.com/kailas-cloud/tenqd/internal/usecase/reconcile"
)

type mockReconciler struct {
	outcome reconcile.Outcome
	err     error
	reqs    []reconcile.Request
}

func (m *mockReconciler) Reconcile(_ context.Context, req reconcile.Request) (reconcile.Outcome, error) {
	m.reqs = append(m.reqs, req)
	return m.outcome, m.err
}

type mockAnalyst struct {
	insights        report.Insights
	insightsErr     error
	decision        report.Decision
	decisionErr     error
	insightsPrompts []string
	decisionPrompts []string
}

func (m *mockAnalyst) Insights(_ context.Context, _, prompt string) (report.Insights, error) {
	m.insightsPrompts = append(m.insightsPrompts, prompt)
	return m.insights, m.insightsErr
}

func (m *mockAnalyst) Decision(_ context.Context, prompt string) (report.Decision, error) {
	m.decisionPrompts = append(m.decisionPrompts, prompt)
	return m.decision, m.decisionErr
}

func testOutcome() reconcile.Outcome {
	return reconcile.Outcome{
		State: reconcile.StateReadyCached,
		Filing: filing.Reconstruct("AAPL", "0000320193", "Apple Inc.", "10-Q",
			time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
			"0000320193-25-000073", "aapl.htm"),
	}
}

func TestSummarizeHappyPath(t *testing.T) {
	rec := &mockReconciler{outcome: testOutcome()}
	analyst := &mockAnalyst{
		insights: report.Insights{HighLevelSummary: "Solid quarter."},
		decision: report.Decision{Decision: report.StanceHold, Disclaimer: report.DefaultDisclaimer},
	}
	svc := New(rec, analyst, zap.NewNop())

	sum, err := svc.Summarize(context.Background(), SummarizeRequest{Ticker: "aapl", Thesis: "AI growth"})
	if err != nil {
		t.Fatal(err)
	}

	if sum.ID == "" {
		t.Error("summary ID is empty")
	}
	if sum.Ticker != "AAPL" {
		t.Errorf("ticker = %q", sum.Ticker)
	}
	if sum.ReconcileState != reconcile.StateReadyCached {
		t.Errorf("state = %q", sum.ReconcileState)
	}
	if sum.Decision.Decision != report.StanceHold {
		t.Errorf("decision = %q", sum.Decision.Decision)
	}

	// The insights prompt carries the caller's framing.
	if len(analyst.insightsPrompts) != 1 || !strings.Contains(analyst.insightsPrompts[0], "AI growth") {
		t.Errorf("insights prompt missing thesis: %v", analyst.insightsPrompts)
	}
	// The decision prompt carries the serialized insights, not filing text.
	if len(analyst.decisionPrompts) != 1 || !strings.Contains(analyst.decisionPrompts[0], "Solid quarter.") {
		t.Errorf("decision prompt missing insights JSON: %v", analyst.decisionPrompts)
	}
}

func TestSummarizeDefaultsThesisAndGoal(t *testing.T) {
	rec := &mockReconciler{outcome: testOutcome()}
	analyst := &mockAnalyst{decision: report.Decision{Decision: report.StanceHold}}
	svc := New(rec, analyst, zap.NewNop())

	if _, err := svc.Summarize(context.Background(), SummarizeRequest{Ticker: "AAPL"}); err != nil {
		t.Fatal(err)
	}
	prompt := analyst.insightsPrompts[0]
	if !strings.Contains(prompt, "Infer a reasonable investment thesis") {
		t.Errorf("prompt missing default thesis:\n%s", prompt)
	}
}

func TestSummarizeReconcileFailureShortCircuits(t *testing.T) {
	rec := &mockReconciler{err: domain.ErrUnknownTicker}
	analyst := &mockAnalyst{}
	svc := New(rec, analyst, zap.NewNop())

	_, err := svc.Summarize(context.Background(), SummarizeRequest{Ticker: "ZZZZ"})
	if !errors.Is(err, domain.ErrUnknownTicker) {
		t.Fatalf("err = %v, want ErrUnknownTicker", err)
	}
	if len(analyst.insightsPrompts) != 0 {
		t.Error("analyst called despite reconcile failure")
	}
}

func TestSummarizeEmptyTicker(t *testing.T) {
	svc := New(&mockReconciler{}, &mockAnalyst{}, zap.NewNop())
	_, err := svc.Summarize(context.Background(), SummarizeRequest{Ticker: ""})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

type mockSearcher struct {
	scored []fragment.Scored
	topKs  []int
}

func (m *mockSearcher) Search(_ context.Context, _ []float32, topK int, _ chunkstore.Filter) ([]fragment.Scored, error) {
	m.topKs = append(m.topKs, topK)
	return m.scored, nil
}

func TestRetrieverCapsTopKAndTruncates(t *testing.T) {
	long := strings.Repeat("a", 2000)
	searcher := &mockSearcher{scored: []fragment.Scored{
		{Fragment: fragment.Fragment{Text: long}, Score: 0.9},
	}}
	r := NewRetriever(&mockEmbedder{vec: []float32{1, 0}}, searcher, 5, 1500)

	frags, err := r.Retrieve(context.Background(), "AAPL", "risks", 20)
	if err != nil {
		t.Fatal(err)
	}
	if searcher.topKs[0] != 5 {
		t.Errorf("topK = %d, want capped to 5", searcher.topKs[0])
	}
	if len(frags[0].Text) != 1500 {
		t.Errorf("fragment length = %d, want truncated to 1500", len(frags[0].Text))
	}

	// Zero collapses to the cap as well.
	if _, err := r.Retrieve(context.Background(), "AAPL", "risks", 0); err != nil {
		t.Fatal(err)
	}
	if searcher.topKs[1] != 5 {
		t.Errorf("topK = %d, want 5 for zero input", searcher.topKs[1])
	}
}

func TestRetrieverEmbedFailure(t *testing.T) {
	r := NewRetriever(&mockEmbedder{err: errors.New("provider down")}, &mockSearcher{}, 5, 1500)
	if _, err := r.Retrieve(context.Background(), "AAPL", "risks", 3); err == nil {
		t.Fatal("expected error")
	}
}
