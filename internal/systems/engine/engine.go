// Simple piston engine: electric start, magneto ignition, mixture
// cutoff, and first-order thermal behavior.
package engine

import (
	"fmt"
	"math"

	"airborne-sim/internal/config"
	"airborne-sim/internal/systems"
)

const (
	mixtureCutoff   = 0.05
	starterSpinRate = 250.0 // RPM per second while cranking
	rpmTimeConstant = 0.8   // seconds, throttle response
	spinDownRate    = 600.0 // RPM per second after shutdown

	ambientTempC      = 15.0
	oilTempTargetC    = 90.0
	oilTempTauSec     = 300.0
	chtTargetC        = 190.0
	chtTauSec         = 180.0
	coolDownTauSec    = 600.0
	oilTempRedlineC   = 118.0
	chtRedlineC       = 230.0
	oilPressMinPSI    = 25.0
	oilStarvationSecs = 30.0

	coldPowerFactor = 0.75
	idleFlowGPH     = 1.2
)

// System simulates the engine. Fuel availability and electrical support
// are sampled from the other systems' latest snapshots each update; the
// engine dies in the same update that either vanishes.
type System struct {
	cfg config.Engine

	running  bool
	cranking bool
	rpm      float64
	powerW   float64
	flowGPH  float64

	runTime     float64
	oilTempC    float64
	chtC        float64
	oilPressPSI float64

	seized        bool
	oilStarved    bool
	starvedFor    float64
	stoppedReason string
	warnings      []string
}

func New() *System {
	return &System{oilTempC: ambientTempC, chtC: ambientTempC}
}

func (s *System) Initialize(cfg *config.AircraftConfig) error {
	s.cfg = cfg.Engine
	if s.cfg.MaxPowerW <= 0 || s.cfg.MaxRPM <= 0 {
		return fmt.Errorf("engine: power and RPM limits must be positive")
	}
	return nil
}

// Update advances the engine by dt. fuelAvailable means the selected
// tanks can feed right now; busVoltage powers the starter only, a
// running engine keeps itself alive through its magnetos.
func (s *System) Update(dt float64, in systems.ControlInputs, fuelAvailable bool, busVoltage float64) {
	s.warnings = s.warnings[:0]

	ignition := in.Magnetos != systems.MagnetosOff
	mixtureOpen := in.Mixture > mixtureCutoff

	if s.seized {
		s.stop(dt)
		s.updateTemps(dt)
		return
	}

	switch {
	case s.running:
		// No grace period: fuel, ignition, or mixture gone means the
		// engine is gone this same tick.
		if !fuelAvailable || !ignition || !mixtureOpen {
			s.running = false
			s.stoppedReason = reason(fuelAvailable, ignition)
			s.stop(dt)
			break
		}
		s.runTime += dt
		target := s.cfg.IdleRPM + in.Throttle*(s.cfg.MaxRPM-s.cfg.IdleRPM)
		s.rpm += (target - s.rpm) * minf(dt/rpmTimeConstant, 1)
		s.powerW = in.Throttle * s.cfg.MaxPowerW * s.warmupFactor() * mixturePowerFactor(in.Mixture)
		s.flowGPH = idleFlowGPH + (s.cfg.MaxFuelFlowGPH-idleFlowGPH)*in.Throttle
	case in.StarterEngaged && busVoltage >= s.cfg.StarterMinVoltage:
		s.cranking = true
		s.rpm = minf(s.rpm+starterSpinRate*dt, s.cfg.CrankingRPM)
		s.powerW = 0
		s.flowGPH = 0
		if s.rpm >= s.cfg.CrankingRPM && ignition && mixtureOpen && fuelAvailable {
			s.running = true
			s.cranking = false
			s.stoppedReason = ""
			s.rpm = s.cfg.IdleRPM
			s.flowGPH = idleFlowGPH
		}
	default:
		s.stop(dt)
	}

	if s.oilStarved && s.running {
		s.starvedFor += dt
		if s.starvedFor >= oilStarvationSecs {
			s.seized = true
			s.running = false
			s.stoppedReason = systems.FailureEngineSeized
		}
	}

	s.updateOilPressure()
	s.updateTemps(dt)

	if s.running {
		if s.oilTempC > oilTempRedlineC {
			s.warnings = append(s.warnings, systems.WarningHighOilTemp)
		}
		if s.chtC > chtRedlineC {
			s.warnings = append(s.warnings, systems.WarningHighCHT)
		}
		if s.oilPressPSI < oilPressMinPSI {
			s.warnings = append(s.warnings, systems.WarningLowOilPress)
		}
	}
}

func reason(fuelAvailable, ignition bool) string {
	if !fuelAvailable {
		return systems.FailureFuelExhausted
	}
	if !ignition {
		return "MAGNETOS_OFF"
	}
	return "MIXTURE_CUTOFF"
}

func (s *System) stop(dt float64) {
	s.cranking = false
	s.powerW = 0
	s.flowGPH = 0
	s.rpm = math.Max(s.rpm-spinDownRate*dt, 0)
	s.runTime = 0
}

// warmupFactor ramps power from the cold factor to full over the
// configured warmup period.
func (s *System) warmupFactor() float64 {
	if s.cfg.WarmupSeconds <= 0 {
		return 1
	}
	frac := minf(s.runTime/s.cfg.WarmupSeconds, 1)
	return coldPowerFactor + (1-coldPowerFactor)*frac
}

func mixturePowerFactor(mixture float64) float64 {
	// Peak power rich of 0.8; leaning past it costs power.
	if mixture >= 0.8 {
		return 1
	}
	return 0.6 + 0.5*mixture
}

func (s *System) updateOilPressure() {
	if s.oilStarved || s.seized {
		s.oilPressPSI = 5 * s.rpm / s.cfg.MaxRPM
		return
	}
	if s.rpm <= 0 {
		s.oilPressPSI = 0
		return
	}
	s.oilPressPSI = 20 + 45*s.rpm/s.cfg.MaxRPM
}

func (s *System) updateTemps(dt float64) {
	if s.running {
		load := 0.5 + 0.5*s.powerW/s.cfg.MaxPowerW
		s.oilTempC += (oilTempTargetC*load - s.oilTempC) * minf(dt/oilTempTauSec, 1)
		s.chtC += (chtTargetC*load - s.chtC) * minf(dt/chtTauSec, 1)
		return
	}
	s.oilTempC += (ambientTempC - s.oilTempC) * minf(dt/coolDownTauSec, 1)
	s.chtC += (ambientTempC - s.chtC) * minf(dt/coolDownTauSec, 1)
}

// Repair clears injected failures. Accepted on the ground only; the
// plugin wrapper enforces that.
func (s *System) Repair() {
	s.seized = false
	s.oilStarved = false
	s.starvedFor = 0
	s.stoppedReason = ""
}

// SimulateFailure injects a named fault.
func (s *System) SimulateFailure(kind string) error {
	switch kind {
	case "seizure":
		s.seized = true
		s.running = false
		s.stoppedReason = systems.FailureEngineSeized
	case "oil_starvation":
		s.oilStarved = true
	default:
		return fmt.Errorf("engine: unknown failure kind %q", kind)
	}
	return nil
}

// Running reports whether the engine is producing power.
func (s *System) Running() bool { return s.running }

// Snapshot returns the published engine state.
func (s *System) Snapshot() systems.EngineState {
	var failures []string
	if s.seized {
		failures = append(failures, systems.FailureEngineSeized)
	} else if s.stoppedReason == systems.FailureFuelExhausted {
		failures = append(failures, systems.FailureEngineStopped)
	}
	if s.oilStarved {
		failures = append(failures, systems.FailureOilStarvation)
	}
	return systems.EngineState{
		Running:        s.running,
		Cranking:       s.cranking,
		RPM:            s.rpm,
		PowerW:         s.powerW,
		FuelFlowGPH:    s.flowGPH,
		OilTempC:       s.oilTempC,
		OilPressurePSI: s.oilPressPSI,
		CHTDegC:        s.chtC,
		WarmupFactor:   s.warmupFactor(),
		Warnings:       systems.CloneStrings(s.warnings),
		Failures:       failures,
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
