package physics

import (
	"math"

	"airborne-sim/internal/config"
	"airborne-sim/internal/systems"
)

const (
	gravity            = 9.80665
	seaLevelDensity    = 1.225
	densityScaleHeight = 8500.0

	maxPitchRateDeg = 20.0
	maxRollRateDeg  = 40.0
	maxYawRateDeg   = 8.0

	pitchLimitDeg = 35.0
	rollLimitDeg  = 70.0

	// Simplified drag polar: Cd = Cd0 + k·Cl², plus flat increments for
	// flaps and extended gear.
	inducedDragFactor = 0.055
	flapsDragDelta    = 0.04
	gearDragDelta     = 0.015
	flapsLiftDelta    = 0.5

	postStallLiftFactor = 0.4

	rollingFrictionCoeff = 0.02
	brakingFrictionCoeff = 0.45
)

// Unit conversions for instrument-facing consumers.
const (
	MpsToKnots = 1.943844
	MpsToFpm   = 196.8504
)

// AircraftState is the immutable flight snapshot published every tick.
type AircraftState struct {
	Position Vector3 `json:"position"`
	Velocity Vector3 `json:"velocity"`

	AirspeedMps      float64 `json:"airspeed_mps"`
	VerticalSpeedMps float64 `json:"vertical_speed_mps"`
	AltitudeAGLM     float64 `json:"altitude_agl_m"`

	HeadingDeg float64 `json:"heading_deg"`
	PitchDeg   float64 `json:"pitch_deg"`
	RollDeg    float64 `json:"roll_deg"`
	AlphaDeg   float64 `json:"alpha_deg"`

	OnGround bool `json:"on_ground"`
	Stalled  bool `json:"stalled"`
}

// TerrainContact reports a ground touch on the tick it happens.
// ImpactSpeedMps is the downward velocity absorbed at contact.
type TerrainContact struct {
	Contact        bool    `json:"contact"`
	ImpactSpeedMps float64 `json:"impact_speed_mps"`
	ElevationM     float64 `json:"elevation_m"`
}

// FlightModel integrates a point-mass 6-DoF state with explicit Euler
// steps at a fixed dt. Mass and CG come from the weight-and-balance
// snapshot of the previous tick; the one-tick staleness is accepted.
type FlightModel struct {
	cfg     config.Physics
	prop    *FixedPitchPropeller
	terrain TerrainProvider

	state  AircraftState
	massKg float64
	cgIn   float64
}

// NewFlightModel builds a flight model resting on the ground at the
// configured elevation.
func NewFlightModel(cfg *config.AircraftConfig, terrain TerrainProvider) *FlightModel {
	if terrain == nil {
		terrain = FlatTerrain{ElevationM: cfg.Physics.GroundElevationM}
	}
	m := &FlightModel{
		cfg:     cfg.Physics,
		prop:    NewFixedPitchPropeller(cfg.Propeller),
		terrain: terrain,
		massKg:  systems.PoundsToKg(cfg.WeightBalance.EmptyWeightLbs),
		cgIn:    cfg.WeightBalance.EmptyArmIn,
	}
	elev := terrain.ElevationAt(0, 0)
	m.state.Position = Vector3{Y: elev}
	m.state.OnGround = true
	return m
}

// SetMassProperties applies the latest weight-and-balance result.
func (m *FlightModel) SetMassProperties(massKg, cgIn float64) {
	if massKg > 0 {
		m.massKg = massKg
	}
	m.cgIn = cgIn
}

// SetState overrides the kinematic state, for scenario starts and replays.
func (m *FlightModel) SetState(s AircraftState) { m.state = s }

// Snapshot returns a copy of the current state.
func (m *FlightModel) Snapshot() AircraftState { return m.state }

// AirDensity is the ISA-like exponential density at altitude.
func AirDensity(altitudeM float64) float64 {
	return seaLevelDensity * math.Exp(-math.Max(altitudeM, 0)/densityScaleHeight)
}

// Update advances the state by dt seconds under the given controls and
// engine output, returning the new snapshot and any terrain contact.
func (m *FlightModel) Update(dt float64, in systems.ControlInputs, powerW, rpm float64) (AircraftState, TerrainContact) {
	s := &m.state
	v := s.Velocity.Length()

	// Attitude from control rates. Heading follows the bank in a
	// coordinated turn, with rudder as a direct yaw input.
	s.RollDeg = clamp(s.RollDeg+in.Aileron*maxRollRateDeg*dt, -rollLimitDeg, rollLimitDeg)
	s.PitchDeg = clamp(s.PitchDeg+in.Elevator*maxPitchRateDeg*dt, -pitchLimitDeg, pitchLimitDeg)
	if v > 1 {
		turnRateRad := gravity * math.Tan(rad(s.RollDeg)) / v
		s.HeadingDeg += deg(turnRateRad) * dt
	}
	s.HeadingDeg += in.Rudder * maxYawRateDeg * dt
	s.HeadingDeg = normalizeHeading(s.HeadingDeg)

	rho := AirDensity(s.Position.Y)

	// Angle of attack: pitch minus flight-path angle.
	gammaDeg := 0.0
	if v > 1 {
		gammaDeg = deg(math.Asin(clamp(s.Velocity.Y/v, -1, 1)))
	}
	alpha := s.PitchDeg - gammaDeg
	s.AlphaDeg = alpha

	cl := m.cfg.LiftCoefficient + m.cfg.LiftSlopePerDeg*alpha + flapsLiftDelta*in.Flaps
	stalled := m.cfg.StallAngleDeg > 0 && alpha > m.cfg.StallAngleDeg
	if stalled {
		cl *= postStallLiftFactor
	}
	cd := m.cfg.DragCoefficient + inducedDragFactor*cl*cl + flapsDragDelta*in.Flaps
	if in.GearDown {
		cd += gearDragDelta
	}

	qS := 0.5 * rho * v * v * m.cfg.WingAreaSqm
	lift := qS * cl
	drag := qS * cd
	thrust := m.prop.Thrust(powerW, rpm, v, rho)

	var f Vector3
	f.Y -= m.massKg * gravity
	f.Y += lift * math.Cos(rad(s.RollDeg))

	tdir := s.Velocity.Normalize()
	if v <= 1 {
		h := rad(s.HeadingDeg)
		p := rad(s.PitchDeg)
		tdir = Vector3{math.Sin(h) * math.Cos(p), math.Sin(p), math.Cos(h) * math.Cos(p)}
	}
	f = f.Add(tdir.Scale(thrust))
	if v > 0 {
		f = f.Add(s.Velocity.Normalize().Scale(-drag))
	}

	if s.OnGround {
		normal := math.Max(m.massKg*gravity-lift, 0)
		mu := rollingFrictionCoeff + in.Brakes*brakingFrictionCoeff
		if hv := s.Velocity.Horizontal(); hv > 0.01 {
			friction := mu * normal
			hdir := Vector3{X: s.Velocity.X / hv, Z: s.Velocity.Z / hv}
			f = f.Add(hdir.Scale(-friction))
		}
	}

	accel := f.Scale(1 / m.massKg)
	s.Velocity = s.Velocity.Add(accel.Scale(dt))
	s.Position = s.Position.Add(s.Velocity.Scale(dt))

	elev := m.terrain.ElevationAt(s.Position.X, s.Position.Z)
	var contact TerrainContact
	if s.Position.Y <= elev {
		impact := math.Max(-s.Velocity.Y, 0)
		s.Position.Y = elev
		if s.Velocity.Y < 0 {
			s.Velocity.Y = 0
		}
		if !s.OnGround {
			contact = TerrainContact{Contact: true, ImpactSpeedMps: impact, ElevationM: elev}
		}
		s.OnGround = true
	} else if s.Position.Y > elev+0.05 {
		s.OnGround = false
	}

	s.AirspeedMps = s.Velocity.Length()
	s.VerticalSpeedMps = s.Velocity.Y
	s.AltitudeAGLM = s.Position.Y - elev
	s.Stalled = stalled
	return *s, contact
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
