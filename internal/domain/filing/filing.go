// Package filing defines the immutable descriptor of one SEC filing instance.
package filing

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 date layout used on every wire and storage surface.
const DateFormat = "2006-01-02"

var accessionRegex = regexp.MustCompile(`^\d{10}-\d{2}-\d{6}$`)

// Descriptor is the immutable record of one regulatory document instance
// as reported by the EDGAR submissions API. Never mutated after creation.
type Descriptor struct {
	ticker          string
	cik             string
	companyName     string
	formType        string
	filingDate      time.Time
	periodOfReport  time.Time // zero when EDGAR reports no period
	accessionNumber string
	primaryDocument string
}

// New validates and creates a Descriptor.
// CIK must be the zero-padded 10-digit form, accession the dashed EDGAR form.
func New(
	ticker, cik, companyName, formType string,
	filingDate, periodOfReport time.Time,
	accessionNumber, primaryDocument string,
) (Descriptor, error) {
	if ticker == "" {
		return Descriptor{}, fmt.Errorf("ticker is required")
	}
	if len(cik) != 10 {
		return Descriptor{}, fmt.Errorf("cik must be 10 digits, got %q", cik)
	}
	if formType == "" {
		return Descriptor{}, fmt.Errorf("form type is required")
	}
	if filingDate.IsZero() {
		return Descriptor{}, fmt.Errorf("filing date is required")
	}
	if !accessionRegex.MatchString(accessionNumber) {
		return Descriptor{}, fmt.Errorf("malformed accession number %q", accessionNumber)
	}
	if primaryDocument == "" {
		return Descriptor{}, fmt.Errorf("primary document is required")
	}

	return Descriptor{
		ticker:          strings.ToUpper(ticker),
		cik:             cik,
		companyName:     companyName,
		formType:        formType,
		filingDate:      filingDate,
		periodOfReport:  periodOfReport,
		accessionNumber: accessionNumber,
		primaryDocument: primaryDocument,
	}, nil
}

// Reconstruct creates a Descriptor without validation (storage hydration).
func Reconstruct(
	ticker, cik, companyName, formType string,
	filingDate, periodOfReport time.Time,
	accessionNumber, primaryDocument string,
) Descriptor {
	return Descriptor{
		ticker:          ticker,
		cik:             cik,
		companyName:     companyName,
		formType:        formType,
		filingDate:      filingDate,
		periodOfReport:  periodOfReport,
		accessionNumber: accessionNumber,
		primaryDocument: primaryDocument,
	}
}

// Ticker returns the uppercased ticker symbol.
func (d Descriptor) Ticker() string { return d.ticker }

// CIK returns the zero-padded 10-digit CIK.
func (d Descriptor) CIK() string { return d.cik }

// CompanyName returns the registrant name.
func (d Descriptor) CompanyName() string { return d.companyName }

// FormType returns the EDGAR form type (10-Q or 10-Q/A).
func (d Descriptor) FormType() string { return d.formType }

// FilingDate returns the date the document was filed.
func (d Descriptor) FilingDate() time.Time { return d.filingDate }

// PeriodOfReport returns the period covered; zero when EDGAR reports none.
func (d Descriptor) PeriodOfReport() time.Time { return d.periodOfReport }

// HasPeriod reports whether a period-of-report date is present.
func (d Descriptor) HasPeriod() bool { return !d.periodOfReport.IsZero() }

// AccessionNumber returns the globally unique accession number.
func (d Descriptor) AccessionNumber() string { return d.accessionNumber }

// PrimaryDocument returns the filename of the primary content artifact.
func (d Descriptor) PrimaryDocument() string { return d.primaryDocument }
