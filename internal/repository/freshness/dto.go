// Package freshness persists the latest-known ingested filing per ticker.
package freshness

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/tenqd/internal/domain/filing"
	domfresh "github.com/kailas-cloud/tenqd/internal/domain/freshness"
)

// recordDTO is the serialized form of a freshness record.
// Dates are ISO-8601 strings; a missing period is null.
type recordDTO struct {
	CIK             string  `json:"cik"`
	AccessionNumber string  `json:"accession_number"`
	FilingDate      string  `json:"filing_date"`
	PeriodOfReport  *string `json:"period_of_report"`
	PrimaryDocument string  `json:"primary_document"`
}

func toDTO(r domfresh.Record) recordDTO {
	dto := recordDTO{
		CIK:             r.CIK,
		AccessionNumber: r.AccessionNumber,
		FilingDate:      r.FilingDate.Format(filing.DateFormat),
		PrimaryDocument: r.PrimaryDocument,
	}
	if !r.PeriodOfReport.IsZero() {
		p := r.PeriodOfReport.Format(filing.DateFormat)
		dto.PeriodOfReport = &p
	}
	return dto
}

func fromDTO(dto recordDTO) (domfresh.Record, error) {
	filed, err := time.Parse(filing.DateFormat, dto.FilingDate)
	if err != nil {
		return domfresh.Record{}, fmt.Errorf("parse filing date %q: %w", dto.FilingDate, err)
	}

	var period time.Time
	if dto.PeriodOfReport != nil && *dto.PeriodOfReport != "" {
		period, err = time.Parse(filing.DateFormat, *dto.PeriodOfReport)
		if err != nil {
			return domfresh.Record{}, fmt.Errorf("parse period %q: %w", *dto.PeriodOfReport, err)
		}
	}

	return domfresh.Record{
		CIK:             dto.CIK,
		AccessionNumber: dto.AccessionNumber,
		FilingDate:      filed,
		PeriodOfReport:  period,
		PrimaryDocument: dto.PrimaryDocument,
	}, nil
}
