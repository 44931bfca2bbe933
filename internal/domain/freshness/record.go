// Package freshness defines the cached snapshot of the latest-known
// ingested filing per ticker.
package freshness

import (
	"time"

	"github.com/kailas-cloud/tenqd/internal/domain/filing"
)

// Record is the per-ticker cached snapshot of the latest filing known to be
// fully ingested. Created or overwritten only after a successful ingestion.
type Record struct {
	CIK             string
	AccessionNumber string
	FilingDate      time.Time
	PeriodOfReport  time.Time // zero when the filing reported no period
	PrimaryDocument string
}

// FromDescriptor builds a Record from a filing descriptor.
func FromDescriptor(d filing.Descriptor) Record {
	return Record{
		CIK:             d.CIK(),
		AccessionNumber: d.AccessionNumber(),
		FilingDate:      d.FilingDate(),
		PeriodOfReport:  d.PeriodOfReport(),
		PrimaryDocument: d.PrimaryDocument(),
	}
}

// Equivalent reports whether the cached record and a freshly resolved
// descriptor describe the same underlying filing for gating purposes.
// Only filing date and period-of-report participate: accession number and
// form type are excluded so a same-period amendment does not force a
// re-crawl unless the dates changed.
func (r Record) Equivalent(d filing.Descriptor) bool {
	return r.FilingDate.Equal(d.FilingDate()) && r.PeriodOfReport.Equal(d.PeriodOfReport())
}

// Descriptor reconstructs a minimal filing descriptor for the given ticker.
// Company name and form type are not cached and come back empty.
func (r Record) Descriptor(ticker string) filing.Descriptor {
	return filing.Reconstruct(
		ticker, r.CIK, "", "",
		r.FilingDate, r.PeriodOfReport,
		r.AccessionNumber, r.PrimaryDocument,
	)
}
