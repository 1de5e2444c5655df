// Shared contract between the aircraft subsystem simulators: control
// inputs, published state snapshots, and the failure vocabulary.
package systems

import (
	"airborne-sim/internal/bus"
	"airborne-sim/internal/config"
)

// Fuel selector positions.
const (
	SelectorOff   = "off"
	SelectorLeft  = "left"
	SelectorRight = "right"
	SelectorBoth  = "both"
)

// Magneto switch positions.
const (
	MagnetosOff   = 0
	MagnetosLeft  = 1
	MagnetosRight = 2
	MagnetosBoth  = 3
)

// Failure identifiers carried in snapshot Failures slices. A failure is
// irreversible for the flight unless the owning system accepts an
// explicit repair message.
const (
	FailureBatteryDead   = "BATTERY_DEAD"
	FailureAlternator    = "ALTERNATOR_FAILURE"
	FailureBusFailure    = "ELECTRICAL_BUS_FAILURE"
	FailureFuelExhausted = "FUEL_EXHAUSTED"
	FailureEngineSeized  = "ENGINE_SEIZED"
	FailureEngineStopped = "ENGINE_STOPPED"
	FailureOilStarvation = "OIL_STARVATION"
)

// Warning identifiers carried in snapshot Warnings slices.
const (
	WarningLowBattery    = "LOW_BATTERY"
	WarningBrownout      = "ELECTRICAL_BROWNOUT"
	WarningLowFuel       = "LOW_FUEL"
	WarningCriticalFuel  = "CRITICAL_FUEL"
	WarningFuelImbalance = "FUEL_IMBALANCE"
	WarningHighCHT       = "HIGH_CHT"
	WarningHighOilTemp   = "HIGH_OIL_TEMP"
	WarningLowOilPress   = "LOW_OIL_PRESSURE"
	WarningOverweight    = "OVER_GROSS_WEIGHT"
	WarningCGOutOfRange  = "CG_OUT_OF_ENVELOPE"
	WarningStationOver   = "STATION_OVERLOADED"
)

// ControlInputs is the cockpit state for one tick. One value arrives
// per tick on the control-input topic; subsystems sample it, never
// mutate it.
type ControlInputs struct {
	Throttle float64 `json:"throttle" yaml:"throttle"` // 0..1
	Mixture  float64 `json:"mixture" yaml:"mixture"`   // 0..1
	Elevator float64 `json:"elevator" yaml:"elevator"` // -1..1, positive = nose up
	Aileron  float64 `json:"aileron" yaml:"aileron"`   // -1..1, positive = right roll
	Rudder   float64 `json:"rudder" yaml:"rudder"`     // -1..1
	Flaps    float64 `json:"flaps" yaml:"flaps"`       // 0..1

	Magnetos       int     `json:"magnetos" yaml:"magnetos"`
	StarterEngaged bool    `json:"starter_engaged" yaml:"starter_engaged"`
	MasterSwitch   bool    `json:"master_switch" yaml:"master_switch"`
	FuelSelector   string  `json:"fuel_selector" yaml:"fuel_selector"`
	GearDown       bool    `json:"gear_down" yaml:"gear_down"`
	Brakes         float64 `json:"brakes" yaml:"brakes"` // 0..1
}

// ElectricalState is the electrical system snapshot published every tick.
type ElectricalState struct {
	BusVoltage         float64  `json:"bus_voltage"`
	BatteryVoltage     float64  `json:"battery_voltage"`
	StateOfCharge      float64  `json:"state_of_charge"` // 0..1
	AlternatorOnline   bool     `json:"alternator_online"`
	AlternatorCurrentA float64  `json:"alternator_current_a"`
	LoadCurrentA       float64  `json:"load_current_a"`
	NetCurrentA        float64  `json:"net_current_a"`
	ShedLoads          []string `json:"shed_loads,omitempty"`
	Warnings           []string `json:"warnings,omitempty"`
	Failures           []string `json:"failures,omitempty"`
}

// FuelState is the fuel system snapshot published every tick.
type FuelState struct {
	Selector      string             `json:"selector"`
	TankLevelsGal map[string]float64 `json:"tank_levels_gal"`
	UsableGal     float64            `json:"usable_gal"`
	TotalGal      float64            `json:"total_gal"`
	FlowGPH       float64            `json:"flow_gph"`
	WeightLbs     float64            `json:"weight_lbs"`
	Warnings      []string           `json:"warnings,omitempty"`
	Failures      []string           `json:"failures,omitempty"`
}

// EngineState is the engine snapshot published every tick.
type EngineState struct {
	Running        bool     `json:"running"`
	Cranking       bool     `json:"cranking"`
	RPM            float64  `json:"rpm"`
	PowerW         float64  `json:"power_w"`
	FuelFlowGPH    float64  `json:"fuel_flow_gph"`
	OilTempC       float64  `json:"oil_temp_c"`
	OilPressurePSI float64  `json:"oil_pressure_psi"`
	CHTDegC        float64  `json:"cht_deg_c"`
	WarmupFactor   float64  `json:"warmup_factor"` // 0..1
	Warnings       []string `json:"warnings,omitempty"`
	Failures       []string `json:"failures,omitempty"`
}

// StationLoad reports one weight-and-balance station in a snapshot.
type StationLoad struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	ArmIn      float64 `json:"arm_in"`
	WeightLbs  float64 `json:"weight_lbs"`
	MomentLbIn float64 `json:"moment_lb_in"`
}

// WeightBalanceState is the mass-properties snapshot published every
// tick and consumed by the flight model one tick later.
type WeightBalanceState struct {
	TotalWeightLbs float64       `json:"total_weight_lbs"`
	MassKg         float64       `json:"mass_kg"`
	CGIn           float64       `json:"cg_in"`
	WithinEnvelope bool          `json:"within_envelope"`
	Stations       []StationLoad `json:"stations,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
	Failures       []string      `json:"failures,omitempty"`
}

// System is the contract every subsystem simulator implements. Snapshot
// returns an immutable copy of the published state; SimulateFailure
// injects a named fault for training scenarios.
type System interface {
	Initialize(cfg *config.AircraftConfig) error
	Update(dt float64, in ControlInputs)
	Snapshot() any
	SimulateFailure(kind string) error
}

// CloneStrings copies a warning or failure slice so snapshots stay
// immutable after publication.
func CloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// PoundsToKg converts the imperial weight-and-balance units to the SI
// mass the flight model integrates with.
func PoundsToKg(lbs float64) float64 { return lbs * 0.45359237 }

// NewEntries returns the entries of cur that are absent from prev, for
// publishing warnings and failures exactly once on appearance.
func NewEntries(prev, cur []string) []string {
	if len(cur) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(prev))
	for _, p := range prev {
		seen[p] = true
	}
	var out []string
	for _, c := range cur {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// PublishAlerts raises one event per warning or failure that appeared
// since the previous snapshot.
func PublishAlerts(events *bus.EventBus, system string, prevWarn, curWarn, prevFail, curFail []string) {
	for _, id := range NewEntries(prevWarn, curWarn) {
		events.Publish(bus.WarningEvent{BaseEvent: bus.NewBaseEvent(), System: system, ID: id})
	}
	for _, id := range NewEntries(prevFail, curFail) {
		events.Publish(bus.FailureEvent{BaseEvent: bus.NewBaseEvent(), System: system, ID: id})
	}
}
