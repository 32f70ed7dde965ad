// Package weather acquires the two-part NWS text dataset for a location,
// with retries and a snapshot-backed stale fallback.
package weather

import "time"

// Report is the typed weather record handed to narration generation.
type Report struct {
	Location   string           `json:"location"`
	Summary    string           `json:"summary"`
	Discussion string           `json:"discussion"`
	Periods    []ForecastPeriod `json:"periods,omitempty"`
	IssuedAt   *time.Time       `json:"issued_at,omitempty"`
	FetchedAt  time.Time        `json:"fetched_at"`

	// Staleness accounting: set only when the report was served from the
	// snapshot fallback rather than a fresh fetch.
	Stale      bool `json:"stale"`
	StaleHours int  `json:"stale_hours,omitempty"`
}

// ForecastPeriod is one row of the tabular digital forecast.
type ForecastPeriod struct {
	Name      string `json:"name"`
	TempHighF *int   `json:"temp_high_f,omitempty"`
	TempLowF  *int   `json:"temp_low_f,omitempty"`
	Sky       string `json:"sky,omitempty"`
	Wind      string `json:"wind,omitempty"`
	PrecipPct *int   `json:"precip_pct,omitempty"`
}
