// 12-volt lead-acid electrical system: battery, engine-driven
// alternator, and a sheddable load roster.
package electrical

import (
	"fmt"
	"sort"

	"airborne-sim/internal/config"
	"airborne-sim/internal/systems"
)

const (
	internalResistanceOhm = 0.012
	regulatedBusVoltage   = 13.8
	lowChargeWarnRatio    = 0.25
)

// socCurvePoint anchors the non-linear lead-acid open-circuit voltage.
type socCurvePoint struct {
	soc, volts float64
}

// Discharge curve for a 12V lead-acid battery. Mostly flat through the
// middle, falling off a cliff below 20%.
var dischargeCurve = []socCurvePoint{
	{1.0, 12.7},
	{0.8, 12.5},
	{0.5, 12.2},
	{0.2, 11.6},
	{0.1, 11.0},
	{0.05, 10.5},
	{0.0, 9.5},
}

type load struct {
	name      string
	currentA  float64
	essential bool
	shed      bool
}

// System simulates the aircraft electrical bus. Not safe for concurrent
// use; the simulation loop owns it.
type System struct {
	cfg config.Electrical

	soc          float64
	busVoltage   float64
	altOnline    bool
	altCurrentA  float64
	loadCurrentA float64
	netCurrentA  float64
	loads        []load

	batteryDead bool
	altFailed   bool
	warnings    []string
}

func New() *System { return &System{} }

// Initialize applies the battery, alternator, and load configuration.
func (s *System) Initialize(cfg *config.AircraftConfig) error {
	s.cfg = cfg.Electrical
	if s.cfg.Battery.CapacityAh <= 0 {
		return fmt.Errorf("electrical: battery capacity must be positive")
	}
	s.soc = s.cfg.Battery.InitialChargeRatio
	s.loads = make([]load, 0, len(s.cfg.Loads))
	for _, l := range s.cfg.Loads {
		s.loads = append(s.loads, load{name: l.Name, currentA: l.CurrentA, essential: l.Essential})
	}
	s.busVoltage = s.openCircuitVoltage()
	return nil
}

// openCircuitVoltage interpolates the discharge curve at the current
// state of charge.
func (s *System) openCircuitVoltage() float64 {
	if s.soc >= 1 {
		return dischargeCurve[0].volts
	}
	for i := 1; i < len(dischargeCurve); i++ {
		hi, lo := dischargeCurve[i-1], dischargeCurve[i]
		if s.soc >= lo.soc {
			frac := (s.soc - lo.soc) / (hi.soc - lo.soc)
			return lo.volts + frac*(hi.volts-lo.volts)
		}
	}
	return dischargeCurve[len(dischargeCurve)-1].volts
}

// Update advances the electrical state by dt seconds. engineRPM and
// starterCurrentA come from the engine's last published state.
func (s *System) Update(dt float64, in systems.ControlInputs, engineRPM, starterCurrentA float64) {
	s.warnings = s.warnings[:0]

	if !in.MasterSwitch {
		// Everything off the bus; the battery still self-discharges.
		s.drain(s.cfg.Battery.SelfDischargeAmps, dt)
		s.busVoltage = 0
		s.altOnline = false
		s.altCurrentA = 0
		s.loadCurrentA = 0
		s.netCurrentA = 0
		return
	}

	demand := starterCurrentA
	for i := range s.loads {
		if !s.loads[i].shed {
			demand += s.loads[i].currentA
		}
	}
	s.loadCurrentA = demand

	s.altOnline = !s.altFailed && engineRPM >= s.cfg.Alternator.MinRPM
	s.altCurrentA = 0
	if s.altOnline {
		// Alternator covers the loads and tops the battery up with
		// whatever headroom is left.
		chargeHeadroom := (1 - s.soc) * s.cfg.Battery.CapacityAh // amp-hours short of full
		chargeA := 0.0
		if chargeHeadroom > 0 {
			chargeA = s.cfg.Alternator.MaxCurrentA * 0.25
		}
		s.altCurrentA = minf(demand+chargeA, s.cfg.Alternator.MaxCurrentA)
	}

	net := s.altCurrentA - demand
	s.netCurrentA = net
	if net < 0 {
		if s.batteryDead {
			// Nothing left to cover the deficit.
			s.busVoltage = 0
		} else {
			s.drain(-net, dt)
			s.busVoltage = s.openCircuitVoltage() + net*internalResistanceOhm
		}
	} else {
		s.charge(net, dt)
		if s.altOnline {
			s.busVoltage = regulatedBusVoltage
		} else {
			s.busVoltage = s.openCircuitVoltage()
		}
	}

	s.manageShedding()

	if s.batteryDead {
		return
	}
	if s.soc < lowChargeWarnRatio {
		s.warnings = append(s.warnings, systems.WarningLowBattery)
	}
	if s.busVoltage > 0 && s.busVoltage < s.cfg.BrownoutVoltage {
		s.warnings = append(s.warnings, systems.WarningBrownout)
	}
}

// manageShedding drops the heaviest non-essential loads while the bus
// is in brownout, and restores them once voltage recovers to nominal.
func (s *System) manageShedding() {
	if s.busVoltage > 0 && s.busVoltage < s.cfg.BrownoutVoltage {
		candidates := make([]int, 0, len(s.loads))
		for i := range s.loads {
			l := &s.loads[i]
			if !l.essential && !l.shed && l.currentA > s.cfg.ShedThresholdAmp {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return
		}
		sort.Slice(candidates, func(a, b int) bool {
			return s.loads[candidates[a]].currentA > s.loads[candidates[b]].currentA
		})
		s.loads[candidates[0]].shed = true
		return
	}
	if s.busVoltage >= s.cfg.Battery.NominalVoltage {
		for i := range s.loads {
			s.loads[i].shed = false
		}
	}
}

func (s *System) drain(amps, dt float64) {
	if amps <= 0 || s.batteryDead {
		return
	}
	s.soc -= amps * dt / 3600 / s.cfg.Battery.CapacityAh
	if s.soc <= 0 {
		s.soc = 0
		s.batteryDead = true
	}
}

func (s *System) charge(amps, dt float64) {
	if amps <= 0 || s.batteryDead {
		return
	}
	s.soc = minf(s.soc+amps*dt/3600/s.cfg.Battery.CapacityAh, 1)
}

// SwapBattery installs a fresh battery. The only way back from
// BATTERY_DEAD.
func (s *System) SwapBattery() {
	s.soc = 1
	s.batteryDead = false
}

// SimulateFailure injects a named fault.
func (s *System) SimulateFailure(kind string) error {
	switch kind {
	case "alternator":
		s.altFailed = true
	case "battery":
		s.soc = 0
		s.batteryDead = true
	default:
		return fmt.Errorf("electrical: unknown failure kind %q", kind)
	}
	return nil
}

// StarterAvailable reports whether the bus can support the starter's
// draw at the given voltage floor.
func (s *System) StarterAvailable(minVoltage float64) bool {
	return !s.batteryDead && s.busVoltage >= minVoltage
}

// Snapshot returns the published electrical state.
func (s *System) Snapshot() systems.ElectricalState {
	var shed []string
	for _, l := range s.loads {
		if l.shed {
			shed = append(shed, l.name)
		}
	}
	var failures []string
	if s.batteryDead {
		failures = append(failures, systems.FailureBatteryDead)
	}
	if s.altFailed {
		failures = append(failures, systems.FailureAlternator)
	}
	return systems.ElectricalState{
		BusVoltage:         s.busVoltage,
		BatteryVoltage:     s.openCircuitVoltage(),
		StateOfCharge:      s.soc,
		AlternatorOnline:   s.altOnline,
		AlternatorCurrentA: s.altCurrentA,
		LoadCurrentA:       s.loadCurrentA,
		NetCurrentA:        s.netCurrentA,
		ShedLoads:          shed,
		Warnings:           systems.CloneStrings(s.warnings),
		Failures:           failures,
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
