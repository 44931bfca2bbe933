package chi

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/tenqd/internal/domain/filing"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	"github.com/kailas-cloud/tenqd/internal/domain/report"
	"github.com/kailas-cloud/tenqd/internal/usecase/reconcile"
	"github.com/kailas-cloud/tenqd/internal/usecase/research"
)

// errCode identifies an error class on the wire.
type errCode string

const (
	codeBadRequest             errCode = "bad_request"
	codeValidationFailed       errCode = "validation_failed"
	codeUnknownTicker          errCode = "unknown_ticker"
	codeNoMatchingFiling       errCode = "no_matching_filing"
	codeRateLimited            errCode = "rate_limited"
	codeUpstreamUnavailable    errCode = "upstream_unavailable"
	codeEmbeddingProviderError errCode = "embedding_provider_error"
	codeAnalystProviderError   errCode = "analyst_provider_error"
	codeInternalError          errCode = "internal_error"
)

type errorResponse struct {
	Code    errCode `json:"code"`
	Message string  `json:"message"`
}

type summaryRequest struct {
	Ticker       string `json:"ticker"`
	FilingPeriod string `json:"filing_period,omitempty"` // ISO date, empty for newest
	ForceRefresh bool   `json:"force_refresh,omitempty"`
	Thesis       string `json:"thesis,omitempty"`
	Goal         string `json:"goal,omitempty"`
}

type filingResponse struct {
	Ticker          string  `json:"ticker"`
	CIK             string  `json:"cik"`
	CompanyName     string  `json:"company_name"`
	FormType        string  `json:"form_type"`
	FilingDate      string  `json:"filing_date"`
	PeriodOfReport  *string `json:"period_of_report"`
	AccessionNumber string  `json:"accession_number"`
	PrimaryDocument string  `json:"primary_document"`
}

type summaryResponse struct {
	SummaryID      string          `json:"summary_id"`
	Ticker         string          `json:"ticker"`
	ReconcileState string          `json:"reconcile_state"`
	Filing         filingResponse  `json:"filing"`
	Insights       report.Insights `json:"insights"`
	Decision       report.Decision `json:"decision"`
}

type reconcileRequest struct {
	Ticker       string `json:"ticker"`
	FilingPeriod string `json:"filing_period,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

type reconcileResponse struct {
	State     string         `json:"state"`
	Filing    filingResponse `json:"filing"`
	Fragments int            `json:"fragments"`
}

type searchItem struct {
	SectionName string `json:"section_name"`
	SectionItem string `json:"section_item,omitempty"`
	ChunkIndex  int    `json:"chunk_index"`
	Text        string `json:"text"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func filingToResponse(d filing.Descriptor) filingResponse {
	var period *string
	if d.HasPeriod() {
		p := d.PeriodOfReport().Format(filing.DateFormat)
		period = &p
	}
	return filingResponse{
		Ticker:          d.Ticker(),
		CIK:             d.CIK(),
		CompanyName:     d.CompanyName(),
		FormType:        d.FormType(),
		FilingDate:      d.FilingDate().Format(filing.DateFormat),
		PeriodOfReport:  period,
		AccessionNumber: d.AccessionNumber(),
		PrimaryDocument: d.PrimaryDocument(),
	}
}

func summaryToResponse(sum research.Summary) summaryResponse {
	return summaryResponse{
		SummaryID:      sum.ID,
		Ticker:         sum.Ticker,
		ReconcileState: string(sum.ReconcileState),
		Filing:         filingToResponse(sum.Filing),
		Insights:       sum.Insights,
		Decision:       sum.Decision,
	}
}

func outcomeToResponse(out reconcile.Outcome) reconcileResponse {
	return reconcileResponse{
		State:     string(out.State),
		Filing:    filingToResponse(out.Filing),
		Fragments: out.Fragments,
	}
}

func fragmentsToResponse(frags []fragment.Fragment) searchResponse {
	items := make([]searchItem, len(frags))
	for i, f := range frags {
		items[i] = searchItem{
			SectionName: f.SectionName,
			SectionItem: f.SectionItem,
			ChunkIndex:  f.ChunkIndex,
			Text:        f.Text,
		}
	}
	return searchResponse{Items: items}
}

// parsePeriod parses an optional ISO date. Empty means no target period.
func parsePeriod(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(filing.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("filing_period must be YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
