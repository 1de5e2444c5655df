package telemetry

import (
	"os"
	"time"
)

// Alert kinds.
const (
	AlertWarning = "warning"
	AlertFailure = "failure"
)

// AlertTableName returns the GreptimeDB table for alert rows. Override
// with the AIRBORNE_ALERT_TABLE environment variable.
func AlertTableName() string {
	if t := os.Getenv("AIRBORNE_ALERT_TABLE"); t != "" {
		return t
	}
	return "flight_alerts"
}

// AlertRow records one warning or failure the moment it appeared.
type AlertRow struct {
	FlightID string `json:"flight_id"` // TAG
	System   string `json:"system"`    // TAG

	Kind       string  `json:"kind"`         // FIELD: warning or failure
	AlertID    string  `json:"alert_id"`     // FIELD, e.g. LOW_FUEL
	SimTimeSec float64 `json:"sim_time_sec"` // FIELD

	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// TableName returns the storage table for this row type.
func (AlertRow) TableName() string { return AlertTableName() }
