// Package telemetry defines the rows the simulator emits: one flight
// row per tick plus alert rows for warnings and failures.
package telemetry

import (
	"os"
	"time"
)

// FlightTableName returns the GreptimeDB table for flight telemetry.
// Override with the AIRBORNE_FLIGHT_TABLE environment variable.
func FlightTableName() string {
	if t := os.Getenv("AIRBORNE_FLIGHT_TABLE"); t != "" {
		return t
	}
	return "flight_telemetry"
}

// FlightRow is one tick of aircraft state, flattened for storage.
type FlightRow struct {
	FlightID string `json:"flight_id"` // TAG
	Aircraft string `json:"aircraft"`  // TAG

	SimTimeSec float64 `json:"sim_time_sec"` // FIELD
	Tick       uint64  `json:"tick"`         // FIELD

	PosEastM         float64 `json:"pos_east_m"`         // FIELD
	PosNorthM        float64 `json:"pos_north_m"`        // FIELD
	AltitudeM        float64 `json:"altitude_m"`         // FIELD
	AltitudeAGLM     float64 `json:"altitude_agl_m"`     // FIELD
	AirspeedKt       float64 `json:"airspeed_kt"`        // FIELD
	VerticalSpeedFpm float64 `json:"vertical_speed_fpm"` // FIELD
	HeadingDeg       float64 `json:"heading_deg"`        // FIELD
	PitchDeg         float64 `json:"pitch_deg"`          // FIELD
	RollDeg          float64 `json:"roll_deg"`           // FIELD
	OnGround         bool    `json:"on_ground"`          // FIELD
	Stalled          bool    `json:"stalled"`            // FIELD

	EngineRunning bool    `json:"engine_running"` // FIELD
	RPM           float64 `json:"rpm"`            // FIELD
	FuelFlowGPH   float64 `json:"fuel_flow_gph"`  // FIELD
	OilTempC      float64 `json:"oil_temp_c"`     // FIELD
	CHTDegC       float64 `json:"cht_deg_c"`      // FIELD

	BusVoltage    float64 `json:"bus_voltage"`     // FIELD
	StateOfCharge float64 `json:"state_of_charge"` // FIELD

	FuelUsableGal  float64 `json:"fuel_usable_gal"`  // FIELD
	TotalWeightLbs float64 `json:"total_weight_lbs"` // FIELD
	CGIn           float64 `json:"cg_in"`            // FIELD

	// Active warning/failure identifiers, comma-joined. Empty when the
	// aircraft is healthy.
	Warnings string `json:"warnings,omitempty"` // FIELD
	Failures string `json:"failures,omitempty"` // FIELD

	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// TableName returns the storage table for this row type.
func (FlightRow) TableName() string { return FlightTableName() }
