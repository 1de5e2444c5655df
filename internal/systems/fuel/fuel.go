// Dual-tank gravity-feed fuel system with a selector valve.
package fuel

import (
	"fmt"
	"math"

	"airborne-sim/internal/config"
	"airborne-sim/internal/systems"
)

type tank struct {
	name        string
	capacityGal float64
	unusableGal float64
	levelGal    float64
}

func (t *tank) usable() float64 { return math.Max(t.levelGal-t.unusableGal, 0) }

// System simulates the fuel tanks. Flow demand comes from the engine's
// last published state; the selector from the control inputs.
type System struct {
	cfg      config.Fuel
	tanks    []tank
	selector string
	flowGPH  float64

	exhausted bool
	leakGPH   float64
	warnings  []string
}

func New() *System { return &System{selector: systems.SelectorBoth} }

// Initialize fills the tanks to capacity.
func (s *System) Initialize(cfg *config.AircraftConfig) error {
	s.cfg = cfg.Fuel
	if len(s.cfg.Tanks) == 0 {
		return fmt.Errorf("fuel: no tanks configured")
	}
	s.tanks = make([]tank, 0, len(s.cfg.Tanks))
	for _, tc := range s.cfg.Tanks {
		s.tanks = append(s.tanks, tank{
			name:        tc.Name,
			capacityGal: tc.CapacityGal,
			unusableGal: tc.UnusableGal,
			levelGal:    tc.CapacityGal,
		})
	}
	return nil
}

// feeding returns the tanks the selector currently draws from.
func (s *System) feeding() []*tank {
	var out []*tank
	for i := range s.tanks {
		t := &s.tanks[i]
		switch s.selector {
		case systems.SelectorBoth:
			out = append(out, t)
		case t.name:
			out = append(out, t)
		}
	}
	return out
}

// Available reports whether the selected tanks can feed the engine
// right now.
func (s *System) Available() bool {
	if s.selector == systems.SelectorOff {
		return false
	}
	for _, t := range s.feeding() {
		if t.usable() > 0 {
			return true
		}
	}
	return false
}

// Update drains the selected tanks by the demanded flow. demandGPH is
// the engine's fuel flow; the delivered flow appears in the snapshot.
func (s *System) Update(dt float64, in systems.ControlInputs, demandGPH float64) {
	s.warnings = s.warnings[:0]
	if in.FuelSelector != "" {
		s.selector = in.FuelSelector
	}

	demand := demandGPH + s.leakGPH
	s.flowGPH = 0
	if demand > 0 && s.selector != systems.SelectorOff {
		feeding := s.feeding()
		live := feeding[:0]
		for _, t := range feeding {
			if t.usable() > 0 {
				live = append(live, t)
			}
		}
		if len(live) > 0 {
			perTank := demand / float64(len(live)) * dt / 3600
			delivered := 0.0
			for _, t := range live {
				draw := math.Min(perTank, t.usable())
				t.levelGal -= draw
				delivered += draw
			}
			s.flowGPH = delivered / dt * 3600
		}
	}

	usable := s.totalUsable()
	if usable <= 0 {
		s.exhausted = true
	}
	if s.exhausted {
		return
	}
	if usable < s.cfg.CriticalGal {
		s.warnings = append(s.warnings, systems.WarningCriticalFuel)
	} else if usable < s.cfg.LowWarningGal {
		s.warnings = append(s.warnings, systems.WarningLowFuel)
	}
	if len(s.tanks) == 2 {
		if diff := math.Abs(s.tanks[0].levelGal - s.tanks[1].levelGal); diff > s.cfg.ImbalanceLimitGal {
			s.warnings = append(s.warnings, systems.WarningFuelImbalance)
		}
	}
}

func (s *System) totalUsable() float64 {
	total := 0.0
	for i := range s.tanks {
		total += s.tanks[i].usable()
	}
	return total
}

func (s *System) total() float64 {
	total := 0.0
	for i := range s.tanks {
		total += s.tanks[i].levelGal
	}
	return total
}

// Refuel tops the named tank up to the given level, clamped to
// capacity. An empty name fills every tank. Clears FUEL_EXHAUSTED.
func (s *System) Refuel(tankName string, gal float64) error {
	matched := false
	for i := range s.tanks {
		t := &s.tanks[i]
		if tankName != "" && t.name != tankName {
			continue
		}
		matched = true
		t.levelGal = math.Min(math.Max(gal, t.levelGal), t.capacityGal)
	}
	if !matched {
		return fmt.Errorf("fuel: unknown tank %q", tankName)
	}
	if s.totalUsable() > 0 {
		s.exhausted = false
	}
	return nil
}

// SimulateFailure injects a named fault.
func (s *System) SimulateFailure(kind string) error {
	switch kind {
	case "leak":
		s.leakGPH = 20
	case "exhaustion":
		for i := range s.tanks {
			s.tanks[i].levelGal = s.tanks[i].unusableGal
		}
		s.exhausted = true
	default:
		return fmt.Errorf("fuel: unknown failure kind %q", kind)
	}
	return nil
}

// TankLevel reports one tank's level in gallons.
func (s *System) TankLevel(name string) float64 {
	for i := range s.tanks {
		if s.tanks[i].name == name {
			return s.tanks[i].levelGal
		}
	}
	return 0
}

// Snapshot returns the published fuel state.
func (s *System) Snapshot() systems.FuelState {
	levels := make(map[string]float64, len(s.tanks))
	for i := range s.tanks {
		levels[s.tanks[i].name] = s.tanks[i].levelGal
	}
	var failures []string
	if s.exhausted {
		failures = append(failures, systems.FailureFuelExhausted)
	}
	return systems.FuelState{
		Selector:      s.selector,
		TankLevelsGal: levels,
		UsableGal:     s.totalUsable(),
		TotalGal:      s.total(),
		FlowGPH:       s.flowGPH,
		WeightLbs:     s.total() * s.cfg.DensityLbsPerGal,
		Warnings:      systems.CloneStrings(s.warnings),
		Failures:      failures,
	}
}
