package weightbalance

import (
	"math"
	"testing"

	"airborne-sim/internal/config"
	"airborne-sim/internal/systems"
)

func testConfig() *config.AircraftConfig {
	return &config.AircraftConfig{
		Fuel: config.Fuel{
			Tanks: []config.Tank{
				{Name: "left", CapacityGal: 28, UnusableGal: 1.5, ArmIn: 48},
				{Name: "right", CapacityGal: 28, UnusableGal: 1.5, ArmIn: 48},
			},
			DensityLbsPerGal: 6.0,
		},
		WeightBalance: config.WeightBalance{
			EmptyWeightLbs: 1691,
			EmptyArmIn:     38.5,
			MaxGrossLbs:    2550,
			CGForwardIn:    35,
			CGAftIn:        47.3,
			Stations: []config.Station{
				{Name: "pilot", Kind: "seat", ArmIn: 37, MaxWeightLbs: 300, WeightLbs: 170},
				{Name: "baggage", Kind: "cargo", ArmIn: 95, MaxWeightLbs: 120, WeightLbs: 20},
			},
		},
	}
}

func newSystem(t *testing.T) *System {
	t.Helper()
	s := New()
	if err := s.Initialize(testConfig()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWeightBalance_MomentSum(t *testing.T) {
	s := newSystem(t)
	s.Update(1.0/60, systems.ControlInputs{})
	snap := s.Snapshot()

	fuelLbs := 56 * 6.0
	wantWeight := 1691 + 170 + 20 + fuelLbs
	if math.Abs(snap.TotalWeightLbs-wantWeight) > 0.01 {
		t.Errorf("total weight = %v, want %v", snap.TotalWeightLbs, wantWeight)
	}

	wantMoment := 1691*38.5 + 170*37.0 + 20*95.0 + fuelLbs*48.0
	wantCG := wantMoment / wantWeight
	if math.Abs(snap.CGIn-wantCG) > 0.01 {
		t.Errorf("CG = %v, want %v", snap.CGIn, wantCG)
	}
	if !snap.WithinEnvelope {
		t.Errorf("standard loading out of envelope (CG %v)", snap.CGIn)
	}
}

func TestWeightBalance_FuelBurnMovesWeight(t *testing.T) {
	s := newSystem(t)
	s.Update(1.0/60, systems.ControlInputs{})
	full := s.Snapshot().TotalWeightLbs

	s.SetFuel(map[string]float64{"left": 10, "right": 10})
	s.Update(1.0/60, systems.ControlInputs{})
	burned := s.Snapshot().TotalWeightLbs

	wantDrop := 36 * 6.0
	if math.Abs((full-burned)-wantDrop) > 0.01 {
		t.Errorf("weight drop = %v, want %v", full-burned, wantDrop)
	}
}

func TestWeightBalance_OverGrossAdvisoryOnly(t *testing.T) {
	s := newSystem(t)
	if err := s.SetStationWeight("pilot", 300); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStationWeight("baggage", 400); err != nil {
		t.Fatal(err)
	}
	s.Update(1.0/60, systems.ControlInputs{})
	snap := s.Snapshot()

	if snap.TotalWeightLbs <= 2550 {
		t.Fatalf("setup: weight %v not over gross", snap.TotalWeightLbs)
	}
	if snap.WithinEnvelope {
		t.Error("over-gross loading reported within envelope")
	}
	if len(snap.Failures) != 0 {
		t.Errorf("failures = %v, limits are advisory", snap.Failures)
	}
	wantWarns := map[string]bool{}
	for _, w := range snap.Warnings {
		wantWarns[w] = true
	}
	if !wantWarns[systems.WarningOverweight] {
		t.Error("missing over-gross warning")
	}
	if !wantWarns[systems.WarningStationOver] {
		t.Error("missing station-overload warning")
	}
}

func TestWeightBalance_AftCGFlagged(t *testing.T) {
	s := newSystem(t)
	s.SetStationWeight("baggage", 120)
	s.SetStationWeight("pilot", 0)
	s.SetFuel(map[string]float64{"left": 0, "right": 0})
	s.Update(1.0/60, systems.ControlInputs{})
	snap := s.Snapshot()

	// With everything in the baggage bay the CG may still sit inside;
	// this guards the computation direction rather than a fixed value.
	aftOfEmpty := snap.CGIn > 38.5
	if !aftOfEmpty {
		t.Errorf("CG %v did not move aft with baggage-only loading", snap.CGIn)
	}
}

func TestWeightBalance_UnknownStationRejected(t *testing.T) {
	s := newSystem(t)
	if err := s.SetStationWeight("jump_seat", 50); err == nil {
		t.Error("unknown station accepted")
	}
	if err := s.SetStationWeight("pilot", -10); err == nil {
		t.Error("negative weight accepted")
	}
}
