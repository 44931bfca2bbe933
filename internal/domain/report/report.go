// Package report defines the structured analyst artifacts produced from an
// indexed 10-Q: an insight report and a buy/sell/hold style decision.
// Both are advisory and approximate by design.
package report

// CompanyProfile identifies the analyzed company.
type CompanyProfile struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	CIK      string `json:"cik"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// FinancialSummary holds key metrics and a narrative, as disclosed in the filing.
type FinancialSummary struct {
	KeyMetrics map[string]float64 `json:"key_metrics,omitempty"`
	Narrative  string             `json:"narrative"`
}

// RiskItem is one risk factor surfaced by the filing.
type RiskItem struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	ChangedSincePrior bool   `json:"changed_since_prior"`
}

// NotableEvent is a discrete event mentioned in the filing (M&A, litigation, ...).
type NotableEvent struct {
	Category string `json:"category"`
	Summary  string `json:"summary"`
}

// LiquiditySummary covers liquidity and capital structure.
type LiquiditySummary struct {
	Narrative       string             `json:"narrative"`
	LeverageMetrics map[string]float64 `json:"leverage_metrics,omitempty"`
}

// GuidanceSummary covers forward-looking statements.
type GuidanceSummary struct {
	Narrative   string `json:"narrative"`
	TimeHorizon string `json:"time_horizon,omitempty"`
}

// Insights is the structured analyst insight report grounded in retrieved
// filing text.
type Insights struct {
	CompanyProfile      CompanyProfile   `json:"company_profile"`
	HighLevelSummary    string           `json:"high_level_summary"`
	FinancialSummary    FinancialSummary `json:"financial_summary"`
	RiskSummary         []RiskItem       `json:"risk_summary,omitempty"`
	NotableEvents       []NotableEvent   `json:"notable_events,omitempty"`
	LiquidityAndCapital LiquiditySummary `json:"liquidity_and_capital_structure"`
	GuidanceAndOutlook  GuidanceSummary  `json:"guidance_and_outlook"`
	OpenQuestions       []string         `json:"open_questions,omitempty"`
}

// Stance is the direction of a decision.
type Stance string

// Decision stances.
const (
	StanceBuy  Stance = "buy"
	StanceSell Stance = "sell"
	StanceHold Stance = "hold"
)

// Valid reports whether the stance is one of buy/sell/hold.
func (s Stance) Valid() bool {
	switch s {
	case StanceBuy, StanceSell, StanceHold:
		return true
	}
	return false
}

// DefaultDisclaimer accompanies every decision.
const DefaultDisclaimer = "This is an automated, heuristic assessment based on the latest " +
	"10-Q filing and does not constitute investment advice. Do your own research."

// Decision is the buy/sell/hold style view derived from the insights.
type Decision struct {
	Decision      Stance   `json:"decision"`
	Confidence    float64  `json:"confidence"`
	TimeHorizon   string   `json:"time_horizon"`
	Positives     []string `json:"positives"`
	Negatives     []string `json:"negatives"`
	Uncertainties []string `json:"uncertainties"`
	RiskProfile   string   `json:"risk_profile"`
	Disclaimer    string   `json:"disclaimer"`
}
