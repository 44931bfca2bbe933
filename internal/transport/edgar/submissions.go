package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/filing"
)

// Submissions reads the per-company filing index from the EDGAR data host.
type Submissions struct {
	client fetcher
}

// NewSubmissions creates a submissions reader.
func NewSubmissions(client fetcher) *Submissions {
	return &Submissions{client: client}
}

// recentFilings mirrors the parallel-array layout of the EDGAR
// submissions feed: index i across all arrays describes one filing.
type recentFilings struct {
	Form            []string `json:"form"`
	FilingDate      []string `json:"filingDate"`
	AccessionNumber []string `json:"accessionNumber"`
	PrimaryDocument []string `json:"primaryDocument"`
	PeriodOfReport  []string `json:"periodOfReport"`
}

type submissionsDoc struct {
	Name    string `json:"name"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

// LatestTenQ fetches the submissions feed for an identity and selects
// the newest 10-Q or 10-Q/A by filing date. When targetPeriod is
// non-zero only filings covering exactly that period qualify. No match
// maps to domain.ErrNoMatchingFiling.
func (s *Submissions) LatestTenQ(ctx context.Context, id Identity, targetPeriod time.Time) (filing.Descriptor, error) {
	body, err := s.client.GetJSON(ctx, fmt.Sprintf("submissions/CIK%s.json", id.CIK), true)
	if err != nil {
		return filing.Descriptor{}, fmt.Errorf("fetch submissions for %s: %w", id.Ticker, err)
	}

	var doc submissionsDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return filing.Descriptor{}, fmt.Errorf("parse submissions for %s: %w", id.Ticker, err)
	}

	return selectLatestTenQ(id, doc, targetPeriod)
}

func selectLatestTenQ(id Identity, doc submissionsDoc, targetPeriod time.Time) (filing.Descriptor, error) {
	recent := doc.Filings.Recent

	type candidate struct {
		idx   int
		filed time.Time
	}
	var candidates []candidate

	for i, form := range recent.Form {
		if form != "10-Q" && form != "10-Q/A" {
			continue
		}
		if i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			continue
		}
		filed, err := time.Parse(filing.DateFormat, recent.FilingDate[i])
		if err != nil {
			continue
		}
		if !targetPeriod.IsZero() && !periodAt(recent, i).Equal(targetPeriod) {
			continue
		}
		candidates = append(candidates, candidate{idx: i, filed: filed})
	}

	if len(candidates) == 0 {
		return filing.Descriptor{}, fmt.Errorf("no 10-Q for %s: %w", id.Ticker, domain.ErrNoMatchingFiling)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].filed.After(candidates[b].filed)
	})
	best := candidates[0]

	name := doc.Name
	if name == "" {
		name = id.CompanyName
	}

	return filing.New(
		id.Ticker, id.CIK, name,
		recent.Form[best.idx],
		best.filed, periodAt(recent, best.idx),
		recent.AccessionNumber[best.idx],
		recent.PrimaryDocument[best.idx],
	)
}

// periodAt tolerates a short or absent reportDate array.
func periodAt(recent recentFilings, i int) time.Time {
	if i >= len(recent.PeriodOfReport) || recent.PeriodOfReport[i] == "" {
		return time.Time{}
	}
	t, err := time.Parse(filing.DateFormat, recent.PeriodOfReport[i])
	if err != nil {
		return time.Time{}
	}
	return t
}
