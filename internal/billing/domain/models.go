package domain

import "time"

// Visit provenance.
const (
	SourceElectronic = "electronic"
	SourceManual     = "manual"
)

// LedgerLine bills one (client, service type) pair. Hourly lines charge
// the resolved quantity regardless of observed visits; unit lines charge
// per observed visit. A line without a resolvable rate is kept in the
// ledger flagged MissingRate with zero amounts and stays out of totals.
type LedgerLine struct {
	ClientName    string   `json:"client_name"`
	ServiceType   string   `json:"service_type"`
	BillingMethod string   `json:"billing_method,omitempty"`
	UnitType      string   `json:"unit_type,omitempty"`
	Visits        int      `json:"visits"`
	Quantity      float64  `json:"quantity"`
	RateCents     int64    `json:"rate_cents"`
	TotalCents    int64    `json:"total_cents"`
	Sources       []string `json:"sources"`
	RateSource    string   `json:"rate_source,omitempty"`
	MissingRate   bool     `json:"missing_rate,omitempty"`
}

type ClientStatement struct {
	ClientName       string       `json:"client_name"`
	Lines            []LedgerLine `json:"lines"`
	TotalVisits      int          `json:"total_visits"`
	TotalChargeCents int64        `json:"total_charge_cents"`
}

type Ledger struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	AsOf             time.Time         `json:"as_of"`
	Clients          []ClientStatement `json:"clients"`
	TotalVisits      int               `json:"total_visits"`
	GrandTotalCents  int64             `json:"grand_total_cents"`
	MissingRateLines int               `json:"missing_rate_lines"`
}
