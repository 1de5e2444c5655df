// Weight and balance: load stations, moment sums, and the CG envelope.
// Limits are advisory; an out-of-envelope aircraft still flies, badly.
package weightbalance

import (
	"fmt"

	"airborne-sim/internal/config"
	"airborne-sim/internal/systems"
)

type station struct {
	name      string
	kind      string
	armIn     float64
	maxLbs    float64
	weightLbs float64
}

// System recomputes total weight and center of gravity from the static
// load stations plus the latest fuel weight.
type System struct {
	cfg      config.WeightBalance
	fuelCfg  config.Fuel
	stations []station

	fuelLevelsGal map[string]float64
	densityLbsGal float64
	warnings      []string
}

func New() *System { return &System{} }

func (s *System) Initialize(cfg *config.AircraftConfig) error {
	s.cfg = cfg.WeightBalance
	s.fuelCfg = cfg.Fuel
	s.densityLbsGal = cfg.Fuel.DensityLbsPerGal
	if s.cfg.EmptyWeightLbs <= 0 {
		return fmt.Errorf("weightbalance: empty weight must be positive")
	}
	s.stations = make([]station, 0, len(s.cfg.Stations))
	for _, sc := range s.cfg.Stations {
		s.stations = append(s.stations, station{
			name:      sc.Name,
			kind:      sc.Kind,
			armIn:     sc.ArmIn,
			maxLbs:    sc.MaxWeightLbs,
			weightLbs: sc.WeightLbs,
		})
	}
	// Start from full tanks until the first fuel snapshot arrives.
	s.fuelLevelsGal = make(map[string]float64, len(s.fuelCfg.Tanks))
	for _, t := range s.fuelCfg.Tanks {
		s.fuelLevelsGal[t.Name] = t.CapacityGal
	}
	return nil
}

// SetFuel applies the latest fuel snapshot.
func (s *System) SetFuel(levelsGal map[string]float64) {
	for name, gal := range levelsGal {
		s.fuelLevelsGal[name] = gal
	}
}

// SetStationWeight loads or unloads a station. Overloading a station is
// accepted and flagged, like the real world.
func (s *System) SetStationWeight(name string, lbs float64) error {
	if lbs < 0 {
		return fmt.Errorf("weightbalance: negative weight for station %s", name)
	}
	for i := range s.stations {
		if s.stations[i].name == name {
			s.stations[i].weightLbs = lbs
			return nil
		}
	}
	return fmt.Errorf("weightbalance: unknown station %q", name)
}

// Update recomputes the snapshot inputs. The work happens in Snapshot;
// Update exists to refresh the warning set once per tick.
func (s *System) Update(dt float64, in systems.ControlInputs) {
	s.warnings = s.warnings[:0]
	snap := s.compute()
	if snap.TotalWeightLbs > s.cfg.MaxGrossLbs {
		s.warnings = append(s.warnings, systems.WarningOverweight)
	}
	if !snap.WithinEnvelope {
		s.warnings = append(s.warnings, systems.WarningCGOutOfRange)
	}
	for i := range s.stations {
		if s.stations[i].weightLbs > s.stations[i].maxLbs {
			s.warnings = append(s.warnings, systems.WarningStationOver)
			break
		}
	}
}

func (s *System) compute() systems.WeightBalanceState {
	weight := s.cfg.EmptyWeightLbs
	moment := s.cfg.EmptyWeightLbs * s.cfg.EmptyArmIn

	loads := make([]systems.StationLoad, 0, len(s.stations)+len(s.fuelCfg.Tanks))
	for i := range s.stations {
		st := &s.stations[i]
		m := st.weightLbs * st.armIn
		weight += st.weightLbs
		moment += m
		loads = append(loads, systems.StationLoad{
			Name: st.name, Kind: st.kind, ArmIn: st.armIn,
			WeightLbs: st.weightLbs, MomentLbIn: m,
		})
	}
	for _, t := range s.fuelCfg.Tanks {
		lbs := s.fuelLevelsGal[t.Name] * s.densityLbsGal
		m := lbs * t.ArmIn
		weight += lbs
		moment += m
		loads = append(loads, systems.StationLoad{
			Name: "fuel_" + t.Name, Kind: "fuel", ArmIn: t.ArmIn,
			WeightLbs: lbs, MomentLbIn: m,
		})
	}

	cg := 0.0
	if weight > 0 {
		cg = moment / weight
	}
	within := cg >= s.cfg.CGForwardIn && cg <= s.cfg.CGAftIn &&
		weight <= s.cfg.MaxGrossLbs

	return systems.WeightBalanceState{
		TotalWeightLbs: weight,
		MassKg:         systems.PoundsToKg(weight),
		CGIn:           cg,
		WithinEnvelope: within,
		Stations:       loads,
	}
}

// SimulateFailure exists to satisfy the subsystem contract; a moment
// sum has no failure modes to inject.
func (s *System) SimulateFailure(kind string) error {
	return fmt.Errorf("weightbalance: unknown failure kind %q", kind)
}

// Snapshot returns the published mass-properties state.
func (s *System) Snapshot() systems.WeightBalanceState {
	snap := s.compute()
	snap.Warnings = systems.CloneStrings(s.warnings)
	return snap
}
