package analysis

import (
	"strings"
	"testing"

	"airborne-sim/internal/systems"
)

func airborneSnapshot(t float64) FailureSnapshot {
	return FailureSnapshot{
		SimTimeSec:    t,
		AirspeedKnots: 95,
		AltitudeAGLM:  800,
		Controls:      systems.ControlInputs{GearDown: true, FuelSelector: systems.SelectorBoth},
		Engine:        systems.EngineState{Running: true, RPM: 2300},
		Fuel:          systems.FuelState{Selector: systems.SelectorBoth, UsableGal: 20},
		Electrical:    systems.ElectricalState{BusVoltage: 13.8, StateOfCharge: 0.9},
	}
}

func TestAnalyzer_FuelExhaustionOutranksEngineFailure(t *testing.T) {
	a := NewAnalyzer("test-flight")
	failure := airborneSnapshot(600)
	failure.Engine = systems.EngineState{Failures: []string{systems.FailureEngineStopped}}
	failure.Fuel = systems.FuelState{UsableGal: 0, Failures: []string{systems.FailureFuelExhausted}}

	impact := airborneSnapshot(750)
	impact.OnGround = true
	impact.AltitudeAGLM = 0
	impact.VerticalSpeedFpm = -900
	impact.Engine = systems.EngineState{Failures: []string{systems.FailureEngineStopped}}
	impact.Fuel = failure.Fuel

	result, err := a.Analyze(failure, impact)
	if err != nil {
		t.Fatal(err)
	}
	if result.Class != ClassFuelExhaustion {
		t.Errorf("class = %s, want fuel_exhaustion despite engine failure present", result.Class)
	}
}

func TestAnalyzer_EngineFailureAtAltitude(t *testing.T) {
	a := NewAnalyzer("")
	failure := airborneSnapshot(300)
	failure.Engine = systems.EngineState{Failures: []string{systems.FailureEngineSeized}}

	impact := airborneSnapshot(420)
	impact.OnGround = true
	impact.VerticalSpeedFpm = -500
	impact.Engine = failure.Engine

	result, err := a.Analyze(failure, impact)
	if err != nil {
		t.Fatal(err)
	}
	if result.Class != ClassEngineFailure {
		t.Errorf("class = %s, want engine_failure", result.Class)
	}
	if result.FlightID == "" {
		t.Error("empty flight id not defaulted")
	}
}

func TestAnalyzer_CFITWithHealthyAircraft(t *testing.T) {
	a := NewAnalyzer("x")
	failure := airborneSnapshot(100)
	impact := airborneSnapshot(100)
	impact.OnGround = true
	impact.VerticalSpeedFpm = -400
	impact.PitchDeg = -3
	impact.Engine.Running = true

	result, err := a.Analyze(failure, impact)
	if err != nil {
		t.Fatal(err)
	}
	if result.Class != ClassCFIT {
		t.Errorf("class = %s, want controlled_flight_into_terrain", result.Class)
	}
}

func TestAnalyzer_HardLandingUnderPower(t *testing.T) {
	// A steep, fast powered arrival is a hard landing, not CFIT: the
	// descent rate and nose-down pitch rule out controlled flight.
	a := NewAnalyzer("x")
	failure := airborneSnapshot(1800)
	failure.AltitudeAGLM = 50
	failure.AirspeedKnots = 65
	failure.VerticalSpeedFpm = -720
	failure.PitchDeg = -8
	failure.Engine = systems.EngineState{Running: true, RPM: 2000}

	impact := failure
	impact.OnGround = true
	impact.AltitudeAGLM = 0

	result, err := a.Analyze(failure, impact)
	if err != nil {
		t.Fatal(err)
	}
	if result.Class != ClassHardLanding {
		t.Errorf("class = %s, want hard_landing", result.Class)
	}
}

func TestAnalyzer_StallSpinBeforeHardLanding(t *testing.T) {
	a := NewAnalyzer("x")
	failure := airborneSnapshot(200)
	failure.Stalled = true
	failure.Engine.Running = false
	impact := airborneSnapshot(210)
	impact.Stalled = true
	impact.Engine.Running = false
	impact.VerticalSpeedFpm = -2000

	result, err := a.Analyze(failure, impact)
	if err != nil {
		t.Fatal(err)
	}
	if result.Class != ClassStallSpin {
		t.Errorf("class = %s, want stall_spin", result.Class)
	}
}

func TestAnalyzer_SeverityBuckets(t *testing.T) {
	cases := []struct {
		g    float64
		want Severity
	}{
		{1.5, SeveritySurvivable},
		{3.5, SeverityMinorInjury},
		{7, SeveritySeriousInjury},
		{15, SeverityLikelyFatal},
		{25, SeverityUnsurvivable},
	}
	for _, c := range cases {
		if got := severityFor(c.g); got != c.want {
			t.Errorf("severityFor(%v) = %s, want %s", c.g, got, c.want)
		}
	}
}

func TestAnalyzer_GearUpHitsHarder(t *testing.T) {
	down := airborneSnapshot(0)
	down.VerticalSpeedFpm = -1000
	down.Controls.GearDown = true

	up := down
	up.Controls.GearDown = false

	if impactG(up) <= impactG(down) {
		t.Errorf("gear-up impact %.1f G not harder than gear-down %.1f G", impactG(up), impactG(down))
	}
}

func TestAnalyzer_AnalyzeOnlyOnce(t *testing.T) {
	a := NewAnalyzer("x")
	f := airborneSnapshot(10)
	if _, err := a.Analyze(f, f); err != nil {
		t.Fatal(err)
	}
	if a.State() != StateReported {
		t.Errorf("state = %s, want reported", a.State())
	}
	if _, err := a.Analyze(f, f); err == nil {
		t.Error("second Analyze accepted")
	}
	// Recording after the report is a no-op.
	a.RecordWarning(11, "fuel", systems.WarningLowFuel)
	if len(a.timeline) != 0 {
		t.Error("timeline grew after report")
	}
}

func TestAnalyzer_ContributingFactorsFromTimeline(t *testing.T) {
	a := NewAnalyzer("x")
	a.RecordWarning(100, "fuel", systems.WarningLowFuel)
	a.RecordWarning(200, "fuel", systems.WarningCriticalFuel)
	a.RecordEvent(250, "engine", "power_loss", "rpm decay observed")

	failure := airborneSnapshot(300)
	failure.Fuel = systems.FuelState{UsableGal: 1.2}
	impact := airborneSnapshot(400)
	impact.VerticalSpeedFpm = -800
	impact.Controls.GearDown = false

	result, err := a.Analyze(failure, impact)
	if err != nil {
		t.Fatal(err)
	}

	var unresolvedWarnings, lowFuel, gearUp bool
	for _, f := range result.ContributingFactors {
		if strings.Contains(f, "LOW_FUEL") {
			unresolvedWarnings = true
		}
		if strings.Contains(f, "usable fuel") {
			lowFuel = true
		}
		if strings.Contains(f, "gear up") {
			gearUp = true
		}
	}
	if !unresolvedWarnings {
		t.Errorf("ignored warnings not flagged: %v", result.ContributingFactors)
	}
	if !lowFuel {
		t.Errorf("low fuel state not flagged: %v", result.ContributingFactors)
	}
	if !gearUp {
		t.Errorf("gear up not flagged: %v", result.ContributingFactors)
	}
	if len(result.Timeline) != 3 {
		t.Errorf("timeline entries = %d, want 3", len(result.Timeline))
	}
}

func TestReport_ContainsHeaderAndLessons(t *testing.T) {
	a := NewAnalyzer("report-flight")
	failure := airborneSnapshot(600)
	failure.Fuel = systems.FuelState{Failures: []string{systems.FailureFuelExhausted}}
	impact := airborneSnapshot(700)
	impact.VerticalSpeedFpm = -1200
	impact.Fuel = failure.Fuel

	result, err := a.Analyze(failure, impact)
	if err != nil {
		t.Fatal(err)
	}
	text := Report(result)

	for _, want := range []string{
		"FLIGHT FAILURE ANALYSIS",
		"Lessons Learned",
		"report-flight",
		"fuel_exhaustion",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
