// Package research orchestrates the full summary flow: reconcile the
// index, generate structured insights, then derive a decision view.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/filing"
	"github.com/kailas-cloud/tenqd/internal/domain/report"
	"github.com/kailas-cloud/tenqd/internal/usecase/reconcile"
)

// SummarizeRequest parameterizes one summary run. Thesis and Goal are
// optional caller framing for the analysis.
type SummarizeRequest struct {
	Ticker       string
	FilingPeriod time.Time // zero: newest filing
	ForceRefresh bool
	Thesis       string
	Goal         string
}

// Summary is the complete result of one summary run.
type Summary struct {
	ID             string
	Ticker         string
	Filing         filing.Descriptor
	ReconcileState reconcile.State
	Insights       report.Insights
	Decision       report.Decision
}

// Service runs the research pipeline.
type Service struct {
	reconciler Reconciler
	analyst    Analyst
	logger     *zap.Logger
}

// New creates a research service.
func New(reconciler Reconciler, analyst Analyst, logger *zap.Logger) *Service {
	return &Service{reconciler: reconciler, analyst: analyst, logger: logger}
}

// Summarize reconciles the ticker's index and generates both report
// stages. The decision stage sees only the serialized insights, never
// the filing text directly.
func (s *Service) Summarize(ctx context.Context, req SummarizeRequest) (Summary, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return Summary{}, fmt.Errorf("ticker is required: %w", domain.ErrInvalidInput)
	}

	outcome, err := s.reconciler.Reconcile(ctx, reconcile.Request{
		Ticker:       ticker,
		TargetPeriod: req.FilingPeriod,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		return Summary{}, err
	}

	s.logger.Info("Index reconciled, generating reports",
		zap.String("ticker", ticker),
		zap.String("state", string(outcome.State)),
		zap.String("accession", outcome.Filing.AccessionNumber()))

	insights, err := s.analyst.Insights(ctx, ticker, insightsPrompt(ticker, req.Thesis, req.Goal))
	if err != nil {
		return Summary{}, fmt.Errorf("generate insights: %w", err)
	}

	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return Summary{}, fmt.Errorf("serialize insights: %w", err)
	}

	decision, err := s.analyst.Decision(ctx, decisionPrompt(string(insightsJSON)))
	if err != nil {
		return Summary{}, fmt.Errorf("generate decision: %w", err)
	}

	return Summary{
		ID:             uuid.NewString(),
		Ticker:         ticker,
		Filing:         outcome.Filing,
		ReconcileState: outcome.State,
		Insights:       insights,
		Decision:       decision,
	}, nil
}
