package physics

import (
	"math"

	"airborne-sim/internal/config"
)

// Propeller efficiency degrades past the high breakpoint over this much
// additional advance ratio before hitting the floor.
const degradeSpan = 0.4

// minDynamicAirspeed keeps the power/velocity thrust term finite near
// the static regime; below this speed the static term governs anyway.
const minDynamicAirspeed = 0.1

// FixedPitchPropeller converts shaft power into thrust through a
// three-segment efficiency curve over advance ratio.
type FixedPitchPropeller struct {
	diameterM float64
	areaSqm   float64

	etaStatic float64
	etaCruise float64
	etaFloor  float64
	jLow      float64
	jHigh     float64
}

// NewFixedPitchPropeller builds a propeller from config. The config
// loader guarantees breakpoint ordering.
func NewFixedPitchPropeller(cfg config.Propeller) *FixedPitchPropeller {
	r := cfg.DiameterM / 2
	return &FixedPitchPropeller{
		diameterM: cfg.DiameterM,
		areaSqm:   math.Pi * r * r,
		etaStatic: cfg.EfficiencyStatic,
		etaCruise: cfg.EfficiencyCruise,
		etaFloor:  cfg.EfficiencyFloor,
		jLow:      cfg.BreakpointLow,
		jHigh:     cfg.BreakpointHigh,
	}
}

// AdvanceRatio is J = v / (n · D) with n in revolutions per second.
// Zero at or below zero RPM.
func (p *FixedPitchPropeller) AdvanceRatio(airspeedMps, rpm float64) float64 {
	n := rpm / 60
	if n <= 0 {
		return 0
	}
	return airspeedMps / (n * p.diameterM)
}

// Efficiency evaluates the curve at advance ratio j: static below the
// low breakpoint, linear rise to cruise at the high breakpoint, then
// linear degradation floored so a windmilling prop never goes negative.
func (p *FixedPitchPropeller) Efficiency(j float64) float64 {
	switch {
	case j <= p.jLow:
		return p.etaStatic
	case j <= p.jHigh:
		frac := (j - p.jLow) / (p.jHigh - p.jLow)
		return p.etaStatic + frac*(p.etaCruise-p.etaStatic)
	default:
		eta := p.etaCruise - (j-p.jHigh)*(p.etaCruise-p.etaFloor)/degradeSpan
		return math.Max(eta, p.etaFloor)
	}
}

// Thrust returns propeller thrust in newtons. The static regime bounds
// thrust by disk loading, T = sqrt(η·P·ρ·A); the dynamic regime by
// power over velocity, T = η·P/v. Taking the lower of the two keeps
// thrust finite, non-negative, and continuous across the regime
// boundary. Zero or negative power or RPM produces no thrust; there is
// no reverse.
func (p *FixedPitchPropeller) Thrust(powerW, rpm, airspeedMps, rhoKgM3 float64) float64 {
	if powerW <= 0 || rpm <= 0 {
		return 0
	}
	eta := p.Efficiency(p.AdvanceRatio(airspeedMps, rpm))
	static := math.Sqrt(eta * powerW * rhoKgM3 * p.areaSqm)
	dynamic := eta * powerW / math.Max(airspeedMps, minDynamicAirspeed)
	return math.Min(static, dynamic)
}
