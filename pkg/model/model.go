package model

import (
	"time"
)

// QSO is one logged contact, imported from ADIF.
type QSO struct {
	ID      int64   `json:"id"`      // Primary Key
	Call    string  `json:"call"`    // Worked station callsign
	Grid    string  `json:"grid"`    // Maidenhead locator of the worked station, may be empty
	Band    string  `json:"band"`    // e.g. "20m"
	Mode    string  `json:"mode"`    // e.g. "SSB", "FT8"
	FreqMHz float64 `json:"freq_mhz"`

	// Coordinates derived from Grid, or from ADIF lat/lon when present
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	HasPosition bool    `json:"has_position"`

	Time       time.Time `json:"time"` // qso_date + time_on, UTC
	ImportedAt time.Time `json:"imported_at"`

	// Raw ADIF fields (lowercase names) that do not map to a column
	Fields map[string]string `json:"fields,omitempty"`

	// Filled per request relative to the station, not persisted
	BearingDeg float64 `json:"bearing_deg,omitempty"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

// DisplayName returns the callsign with its grid, when known.
func (q *QSO) DisplayName() string {
	if q.Grid != "" {
		return q.Call + " (" + q.Grid + ")"
	}
	return q.Call
}
