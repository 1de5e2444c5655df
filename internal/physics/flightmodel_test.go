package physics

import (
	"math"
	"testing"

	"airborne-sim/internal/config"
	"airborne-sim/internal/systems"
)

func testAircraftConfig() *config.AircraftConfig {
	return &config.AircraftConfig{
		Physics: config.Physics{
			WingAreaSqm:     16.2,
			LiftCoefficient: 0.31,
			LiftSlopePerDeg: 0.1,
			DragCoefficient: 0.031,
			StallAngleDeg:   16.0,
		},
		Propeller: config.Propeller{
			DiameterM:        1.905,
			EfficiencyStatic: 0.5,
			EfficiencyCruise: 0.8,
			EfficiencyFloor:  0.3,
			BreakpointLow:    0.1,
			BreakpointHigh:   0.8,
		},
		WeightBalance: config.WeightBalance{
			EmptyWeightLbs: 1691,
			EmptyArmIn:     38.5,
		},
	}
}

const dt = 1.0 / 60.0

func TestFlightModel_StartsOnGround(t *testing.T) {
	m := NewFlightModel(testAircraftConfig(), FlatTerrain{ElevationM: 120})
	s := m.Snapshot()
	if !s.OnGround {
		t.Error("fresh model not on ground")
	}
	if s.Position.Y != 120 {
		t.Errorf("initial elevation = %v, want 120", s.Position.Y)
	}
}

func TestFlightModel_FreeFallAcceleration(t *testing.T) {
	m := NewFlightModel(testAircraftConfig(), FlatTerrain{})
	m.SetState(AircraftState{Position: Vector3{Y: 1000}})

	s, _ := m.Update(dt, systems.ControlInputs{}, 0, 0)

	want := -gravity * dt
	if math.Abs(s.Velocity.Y-want) > 0.01 {
		t.Errorf("vertical velocity after one tick = %v, want about %v", s.Velocity.Y, want)
	}
	if s.OnGround {
		t.Error("airborne state flagged on ground")
	}
}

func TestFlightModel_TerrainContactReported(t *testing.T) {
	m := NewFlightModel(testAircraftConfig(), FlatTerrain{})
	m.SetState(AircraftState{
		Position: Vector3{Y: 2},
		Velocity: Vector3{Y: -10},
	})

	var contact TerrainContact
	for i := 0; i < 60; i++ {
		var c TerrainContact
		_, c = m.Update(dt, systems.ControlInputs{}, 0, 0)
		if c.Contact {
			contact = c
			break
		}
	}

	if !contact.Contact {
		t.Fatal("no terrain contact reported during descent into ground")
	}
	if contact.ImpactSpeedMps < 9 {
		t.Errorf("impact speed = %v, want about 10", contact.ImpactSpeedMps)
	}
	s := m.Snapshot()
	if !s.OnGround {
		t.Error("not on ground after contact")
	}
	if s.Position.Y != 0 {
		t.Errorf("position clamped to %v, want 0", s.Position.Y)
	}
	if s.Velocity.Y != 0 {
		t.Errorf("vertical velocity after contact = %v, want 0", s.Velocity.Y)
	}
}

func TestFlightModel_ContactReportedOnceUntilAirborneAgain(t *testing.T) {
	m := NewFlightModel(testAircraftConfig(), FlatTerrain{})
	m.SetState(AircraftState{Position: Vector3{Y: 1}, Velocity: Vector3{Y: -5}})

	contacts := 0
	for i := 0; i < 120; i++ {
		if _, c := m.Update(dt, systems.ControlInputs{}, 0, 0); c.Contact {
			contacts++
		}
	}
	if contacts != 1 {
		t.Errorf("contact reported %d times, want 1", contacts)
	}
}

func TestFlightModel_ThrustAcceleratesTakeoffRoll(t *testing.T) {
	m := NewFlightModel(testAircraftConfig(), FlatTerrain{})

	prev := 0.0
	for i := 0; i < 60*60; i++ {
		s, _ := m.Update(dt, systems.ControlInputs{Throttle: 1}, 134000, 2700)
		if s.AirspeedMps+1e-9 < prev {
			t.Fatalf("airspeed decreased during takeoff roll at tick %d", i)
		}
		prev = s.AirspeedMps
	}

	if s := m.Snapshot(); s.AirspeedMps < 12 {
		t.Errorf("airspeed after 60s full power = %.1f m/s, want > 12", s.AirspeedMps)
	}
}

func TestFlightModel_StallFlagAndLiftLoss(t *testing.T) {
	m := NewFlightModel(testAircraftConfig(), FlatTerrain{})
	m.SetState(AircraftState{
		Position: Vector3{Y: 500},
		Velocity: Vector3{Z: 30},
		PitchDeg: 20, // beyond the 16 degree stall angle
	})
	s, _ := m.Update(dt, systems.ControlInputs{}, 0, 0)
	if !s.Stalled {
		t.Error("stall not flagged past critical angle of attack")
	}

	m2 := NewFlightModel(testAircraftConfig(), FlatTerrain{})
	m2.SetState(AircraftState{
		Position: Vector3{Y: 500},
		Velocity: Vector3{Z: 30},
		PitchDeg: 10,
	})
	s2, _ := m2.Update(dt, systems.ControlInputs{}, 0, 0)
	if s.Velocity.Y >= s2.Velocity.Y {
		t.Errorf("stalled sink (%v) not worse than unstalled (%v)", s.Velocity.Y, s2.Velocity.Y)
	}
}

func TestFlightModel_HeavierAircraftClimbsWorse(t *testing.T) {
	cfg := testAircraftConfig()

	climbRate := func(massLbs float64) float64 {
		m := NewFlightModel(cfg, FlatTerrain{})
		m.SetMassProperties(systems.PoundsToKg(massLbs), 40)
		m.SetState(AircraftState{
			Position: Vector3{Y: 300},
			Velocity: Vector3{Z: 35},
			PitchDeg: 5,
		})
		var s AircraftState
		for i := 0; i < 60*5; i++ {
			s, _ = m.Update(dt, systems.ControlInputs{Throttle: 1}, 134000, 2700)
		}
		return s.VerticalSpeedMps
	}

	light := climbRate(1700)
	heavy := climbRate(2550)
	if heavy >= light {
		t.Errorf("heavy climb %v not worse than light climb %v", heavy, light)
	}
}

func TestFlightModel_HeadingNormalized(t *testing.T) {
	m := NewFlightModel(testAircraftConfig(), FlatTerrain{})
	m.SetState(AircraftState{Position: Vector3{Y: 500}, Velocity: Vector3{Z: 40}, HeadingDeg: 359})

	var s AircraftState
	for i := 0; i < 60; i++ {
		s, _ = m.Update(dt, systems.ControlInputs{Rudder: 1}, 50000, 2400)
	}
	if s.HeadingDeg < 0 || s.HeadingDeg >= 360 {
		t.Errorf("heading %v outside [0,360)", s.HeadingDeg)
	}
}

func TestAirDensity_DecreasesWithAltitude(t *testing.T) {
	if AirDensity(0) != 1.225 {
		t.Errorf("sea level density = %v", AirDensity(0))
	}
	if !(AirDensity(3000) < AirDensity(0)) {
		t.Error("density did not decrease with altitude")
	}
	if AirDensity(-100) != 1.225 {
		t.Errorf("below-sea-level density = %v, want clamped to 1.225", AirDensity(-100))
	}
}
