// Post-failure flight analysis: classify what went wrong, how hard the
// arrival was, and what contributed.
package analysis

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"airborne-sim/internal/physics"
	"airborne-sim/internal/systems"
)

// State is the analyzer lifecycle. It records until a failure sequence
// completes, analyzes once, and holds the report.
type State string

const (
	StateRecording State = "recording"
	StateAnalyzing State = "analyzing"
	StateReported  State = "reported"
)

// FailureClass identifies the primary cause of a flight failure.
type FailureClass string

const (
	ClassFuelExhaustion FailureClass = "fuel_exhaustion"
	ClassEngineFailure  FailureClass = "engine_failure"
	ClassCFIT           FailureClass = "controlled_flight_into_terrain"
	ClassStallSpin      FailureClass = "stall_spin"
	ClassHardLanding    FailureClass = "hard_landing"
	ClassUnknown        FailureClass = "unknown"
)

// Severity buckets the impact G into expected survivability.
type Severity int

const (
	SeveritySurvivable Severity = iota
	SeverityMinorInjury
	SeveritySeriousInjury
	SeverityLikelyFatal
	SeverityUnsurvivable
)

func (s Severity) String() string {
	switch s {
	case SeveritySurvivable:
		return "Survivable"
	case SeverityMinorInjury:
		return "Minor Injury"
	case SeveritySeriousInjury:
		return "Serious Injury"
	case SeverityLikelyFatal:
		return "Likely Fatal"
	default:
		return "Unsurvivable"
	}
}

// Impact deceleration intervals. A gear-up arrival has no struts to
// absorb the hit.
const (
	gearDownImpactSec = 0.25
	gearUpImpactSec   = 0.1
	gravityMps2       = 9.80665

	// Engine failures below this height leave no meaningful glide;
	// they classify by what happened at the surface instead.
	engineFailureMinAGLM = 15.0

	hardLandingFpm = 600.0

	// A CFIT arrival is a controlled one: modest descent rate, wings
	// near level in pitch, engine still making power.
	cfitMaxDescentFpm = 500.0
	cfitLevelPitchDeg = 5.0
)

// FailureSnapshot freezes the whole aircraft at one instant: once when
// the failure begins and once at impact.
type FailureSnapshot struct {
	SimTimeSec float64 `json:"sim_time_sec"`

	Position         physics.Vector3 `json:"position"`
	AirspeedKnots    float64         `json:"airspeed_knots"`
	VerticalSpeedFpm float64         `json:"vertical_speed_fpm"`
	AltitudeAGLM     float64         `json:"altitude_agl_m"`
	HeadingDeg       float64         `json:"heading_deg"`
	PitchDeg         float64         `json:"pitch_deg"`
	RollDeg          float64         `json:"roll_deg"`
	OnGround         bool            `json:"on_ground"`
	Stalled          bool            `json:"stalled"`

	Engine     systems.EngineState     `json:"engine"`
	Electrical systems.ElectricalState `json:"electrical"`
	Fuel       systems.FuelState       `json:"fuel"`
	Controls   systems.ControlInputs   `json:"control_inputs"`
}

// SnapshotFrom assembles a FailureSnapshot from the latest published
// states.
func SnapshotFrom(simTime float64, ac physics.AircraftState, eng systems.EngineState,
	elec systems.ElectricalState, fuel systems.FuelState, in systems.ControlInputs) FailureSnapshot {
	return FailureSnapshot{
		SimTimeSec:       simTime,
		Position:         ac.Position,
		AirspeedKnots:    ac.AirspeedMps * physics.MpsToKnots,
		VerticalSpeedFpm: ac.VerticalSpeedMps * physics.MpsToFpm,
		AltitudeAGLM:     ac.AltitudeAGLM,
		HeadingDeg:       ac.HeadingDeg,
		PitchDeg:         ac.PitchDeg,
		RollDeg:          ac.RollDeg,
		OnGround:         ac.OnGround,
		Stalled:          ac.Stalled,
		Engine:           eng,
		Electrical:       elec,
		Fuel:             fuel,
		Controls:         in,
	}
}

// TimelineEntry is one recorded event on the flight timeline.
type TimelineEntry struct {
	SimTimeSec float64 `json:"sim_time_sec"`
	Kind       string  `json:"kind"` // event, warning, failure
	System     string  `json:"system"`
	ID         string  `json:"id"`
	Detail     string  `json:"detail,omitempty"`
}

// FailureAnalysis is the immutable analysis result. It is fully
// reconstructable from the two snapshots and the timeline.
type FailureAnalysis struct {
	FlightID string       `json:"flight_id"`
	Class    FailureClass `json:"class"`
	Severity Severity     `json:"severity"`
	ImpactG  float64      `json:"impact_g"`

	Failure FailureSnapshot `json:"failure"`
	Impact  FailureSnapshot `json:"impact"`

	ContributingFactors []string        `json:"contributing_factors,omitempty"`
	Timeline            []TimelineEntry `json:"timeline,omitempty"`
	Lessons             []string        `json:"lessons,omitempty"`
}

// Analyzer records the flight timeline and produces one analysis.
type Analyzer struct {
	flightID string
	state    State
	timeline []TimelineEntry
}

func NewAnalyzer(flightID string) *Analyzer {
	if flightID == "" {
		flightID = uuid.NewString()
	}
	return &Analyzer{flightID: flightID, state: StateRecording}
}

func (a *Analyzer) State() State { return a.state }

// RecordEvent adds a plain event to the timeline.
func (a *Analyzer) RecordEvent(simTime float64, system, id, detail string) {
	a.record(TimelineEntry{SimTimeSec: simTime, Kind: "event", System: system, ID: id, Detail: detail})
}

// RecordWarning adds a warning to the timeline. Warnings feed the
// ignored-warning contributing factors.
func (a *Analyzer) RecordWarning(simTime float64, system, id string) {
	a.record(TimelineEntry{SimTimeSec: simTime, Kind: "warning", System: system, ID: id})
}

// RecordFailure adds a subsystem failure to the timeline.
func (a *Analyzer) RecordFailure(simTime float64, system, id string) {
	a.record(TimelineEntry{SimTimeSec: simTime, Kind: "failure", System: system, ID: id})
}

func (a *Analyzer) record(e TimelineEntry) {
	if a.state != StateRecording {
		return
	}
	a.timeline = append(a.timeline, e)
}

// Analyze produces the analysis from the failure-onset and impact
// snapshots. The analyzer stops recording and will not analyze twice.
func (a *Analyzer) Analyze(failure, impact FailureSnapshot) (FailureAnalysis, error) {
	if a.state != StateRecording {
		return FailureAnalysis{}, fmt.Errorf("analysis: already %s", a.state)
	}
	a.state = StateAnalyzing

	g := impactG(impact)
	result := FailureAnalysis{
		FlightID:            a.flightID,
		Class:               classify(failure, impact),
		Severity:            severityFor(g),
		ImpactG:             g,
		Failure:             failure,
		Impact:              impact,
		ContributingFactors: contributingFactors(failure, impact, a.timeline),
		Timeline:            append([]TimelineEntry(nil), a.timeline...),
	}
	result.Lessons = lessons(result)

	a.state = StateReported
	return result, nil
}

// classify picks the primary cause. Priority order is fixed: fuel
// exhaustion, engine failure at altitude, CFIT, stall/spin, hard
// landing. First match wins.
func classify(failure, impact FailureSnapshot) FailureClass {
	if hasFailure(failure.Fuel.Failures, systems.FailureFuelExhausted) ||
		hasFailure(impact.Fuel.Failures, systems.FailureFuelExhausted) {
		return ClassFuelExhaustion
	}
	if len(failure.Engine.Failures) > 0 && failure.AltitudeAGLM > engineFailureMinAGLM {
		return ClassEngineFailure
	}
	if impact.Engine.Running && !impact.Stalled && !failure.Stalled &&
		math.Abs(impact.VerticalSpeedFpm) <= cfitMaxDescentFpm &&
		math.Abs(impact.PitchDeg) <= cfitLevelPitchDeg {
		return ClassCFIT
	}
	if impact.Stalled || failure.Stalled {
		return ClassStallSpin
	}
	if math.Abs(impact.VerticalSpeedFpm) > hardLandingFpm {
		return ClassHardLanding
	}
	return ClassUnknown
}

// impactG estimates deceleration from the vertical speed absorbed over
// a short impact interval.
func impactG(impact FailureSnapshot) float64 {
	vsMps := math.Abs(impact.VerticalSpeedFpm) / physics.MpsToFpm
	interval := gearDownImpactSec
	if !impact.Controls.GearDown {
		interval = gearUpImpactSec
	}
	return vsMps / interval / gravityMps2
}

// severityFor buckets impact G into survivability.
func severityFor(g float64) Severity {
	switch {
	case g <= 3:
		return SeveritySurvivable
	case g <= 5:
		return SeverityMinorInjury
	case g <= 10:
		return SeveritySeriousInjury
	case g <= 20:
		return SeverityLikelyFatal
	default:
		return SeverityUnsurvivable
	}
}

func contributingFactors(failure, impact FailureSnapshot, timeline []TimelineEntry) []string {
	var factors []string

	// Warnings that fired before the failure and were still active.
	for _, e := range timeline {
		if e.Kind == "warning" && e.SimTimeSec < failure.SimTimeSec {
			factors = append(factors,
				fmt.Sprintf("warning %s from %s at t=%.0fs went unresolved", e.ID, e.System, e.SimTimeSec))
		}
	}

	if failure.Fuel.UsableGal > 0 && failure.Fuel.UsableGal < 5 {
		factors = append(factors,
			fmt.Sprintf("flight continued with %.1f gal usable fuel", failure.Fuel.UsableGal))
	}
	if failure.Electrical.StateOfCharge < 0.25 {
		factors = append(factors,
			fmt.Sprintf("battery at %.0f%% charge before failure", failure.Electrical.StateOfCharge*100))
	}
	if !impact.Controls.GearDown {
		factors = append(factors, "gear up at impact")
	}
	if impact.Stalled {
		factors = append(factors, "aircraft stalled at impact")
	}
	return factors
}

func hasFailure(failures []string, id string) bool {
	for _, f := range failures {
		if f == id {
			return true
		}
	}
	return false
}
