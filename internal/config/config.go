// YAML aircraft configuration with CUE schema validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Aircraft names the airframe and selects the simulator plugins to load.
type Aircraft struct {
	Name    string   `yaml:"name"`
	Plugins []string `yaml:"plugins"`
}

// Simulation holds the loop parameters.
type Simulation struct {
	TickRateHz       float64 `yaml:"tick_rate_hz"`
	MessageBudget    int     `yaml:"message_budget"`
	MaxTicksPerFrame int     `yaml:"max_ticks_per_frame"`
}

// Physics describes the airframe aerodynamics. SI units.
type Physics struct {
	WingAreaSqm      float64 `yaml:"wing_area_sqm"`
	LiftCoefficient  float64 `yaml:"lift_coefficient"`
	LiftSlopePerDeg  float64 `yaml:"lift_slope_per_deg"`
	DragCoefficient  float64 `yaml:"drag_coefficient"`
	StallAngleDeg    float64 `yaml:"stall_angle_deg"`
	StallSpeedMps    float64 `yaml:"stall_speed_mps"`
	GroundElevationM float64 `yaml:"ground_elevation_m"`
}

// Propeller describes a fixed-pitch propeller and its efficiency curve.
type Propeller struct {
	DiameterM        float64 `yaml:"diameter_m"`
	EfficiencyStatic float64 `yaml:"efficiency_static"`
	EfficiencyCruise float64 `yaml:"efficiency_cruise"`
	EfficiencyFloor  float64 `yaml:"efficiency_floor"`
	BreakpointLow    float64 `yaml:"breakpoint_low"`
	BreakpointHigh   float64 `yaml:"breakpoint_high"`
}

// Engine describes a simple piston engine.
type Engine struct {
	MaxPowerW         float64 `yaml:"max_power_w"`
	MaxRPM            float64 `yaml:"max_rpm"`
	IdleRPM           float64 `yaml:"idle_rpm"`
	CrankingRPM       float64 `yaml:"cranking_rpm"`
	StarterMinVoltage float64 `yaml:"starter_min_voltage"`
	StarterCurrentA   float64 `yaml:"starter_current_a"`
	MaxFuelFlowGPH    float64 `yaml:"max_fuel_flow_gph"`
	WarmupSeconds     float64 `yaml:"warmup_seconds"`
}

// Battery is a 12V-class lead-acid battery.
type Battery struct {
	CapacityAh         float64 `yaml:"capacity_ah"`
	NominalVoltage     float64 `yaml:"nominal_voltage"`
	SelfDischargeAmps  float64 `yaml:"self_discharge_amps"`
	InitialChargeRatio float64 `yaml:"initial_charge_ratio"`
}

// Alternator is the engine-driven charging source.
type Alternator struct {
	MaxCurrentA float64 `yaml:"max_current_a"`
	MinRPM      float64 `yaml:"min_rpm"`
}

// BusLoad is a named electrical consumer on the bus.
type BusLoad struct {
	Name      string  `yaml:"name"`
	CurrentA  float64 `yaml:"current_a"`
	Essential bool    `yaml:"essential"`
}

// Electrical groups battery, alternator, and the load roster.
type Electrical struct {
	Battery          Battery    `yaml:"battery"`
	Alternator       Alternator `yaml:"alternator"`
	Loads            []BusLoad  `yaml:"loads"`
	BrownoutVoltage  float64    `yaml:"brownout_voltage"`
	ShedThresholdAmp float64    `yaml:"shed_threshold_amp"`
}

// Tank is one gravity-feed fuel tank. Imperial units, matching the
// weight-and-balance paperwork the numbers come from.
type Tank struct {
	Name        string  `yaml:"name"`
	CapacityGal float64 `yaml:"capacity_gal"`
	UnusableGal float64 `yaml:"unusable_gal"`
	ArmIn       float64 `yaml:"arm_in"`
}

// Fuel groups the tanks and the warning thresholds.
type Fuel struct {
	Tanks             []Tank  `yaml:"tanks"`
	DensityLbsPerGal  float64 `yaml:"density_lbs_per_gal"`
	LowWarningGal     float64 `yaml:"low_warning_gal"`
	CriticalGal       float64 `yaml:"critical_gal"`
	ImbalanceLimitGal float64 `yaml:"imbalance_limit_gal"`
}

// Station is one load station on the weight-and-balance sheet.
type Station struct {
	Name         string  `yaml:"name"`
	Kind         string  `yaml:"kind"` // seat, cargo, fuel
	ArmIn        float64 `yaml:"arm_in"`
	MaxWeightLbs float64 `yaml:"max_weight_lbs"`
	WeightLbs    float64 `yaml:"weight_lbs"`
}

// WeightBalance holds the empty-airframe datum and the CG envelope.
type WeightBalance struct {
	EmptyWeightLbs float64   `yaml:"empty_weight_lbs"`
	EmptyArmIn     float64   `yaml:"empty_arm_in"`
	MaxGrossLbs    float64   `yaml:"max_gross_lbs"`
	CGForwardIn    float64   `yaml:"cg_forward_in"`
	CGAftIn        float64   `yaml:"cg_aft_in"`
	Stations       []Station `yaml:"stations"`
}

// AircraftConfig is the root configuration for one simulated aircraft.
type AircraftConfig struct {
	Aircraft      Aircraft      `yaml:"aircraft"`
	Simulation    Simulation    `yaml:"simulation"`
	Physics       Physics       `yaml:"physics"`
	Propeller     Propeller     `yaml:"propeller"`
	Engine        Engine        `yaml:"engine"`
	Electrical    Electrical    `yaml:"electrical"`
	Fuel          Fuel          `yaml:"fuel"`
	WeightBalance WeightBalance `yaml:"weight_balance"`
}

// Load reads a YAML config, validates it against the CUE schema, and
// unmarshals it. A schema violation is fatal; there is no partial load.
func Load(configPath, cueSchemaPath string) (*AircraftConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg AircraftConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AircraftConfig) applyDefaults() {
	if c.Simulation.TickRateHz == 0 {
		c.Simulation.TickRateHz = 60
	}
	if c.Simulation.MessageBudget == 0 {
		c.Simulation.MessageBudget = 100
	}
	if c.Simulation.MaxTicksPerFrame == 0 {
		c.Simulation.MaxTicksPerFrame = 5
	}
	if c.Propeller.EfficiencyStatic == 0 {
		c.Propeller.EfficiencyStatic = 0.5
	}
	if c.Propeller.EfficiencyCruise == 0 {
		c.Propeller.EfficiencyCruise = 0.8
	}
	if c.Propeller.EfficiencyFloor == 0 {
		c.Propeller.EfficiencyFloor = 0.3
	}
	if c.Propeller.BreakpointLow == 0 {
		c.Propeller.BreakpointLow = 0.1
	}
	if c.Propeller.BreakpointHigh == 0 {
		c.Propeller.BreakpointHigh = 0.8
	}
	if c.Fuel.DensityLbsPerGal == 0 {
		c.Fuel.DensityLbsPerGal = 6.0
	}
	if c.Electrical.Battery.InitialChargeRatio == 0 {
		c.Electrical.Battery.InitialChargeRatio = 1.0
	}
}

// Validate checks cross-field constraints the CUE schema cannot express
// per-document.
func (c *AircraftConfig) Validate() error {
	if c.Aircraft.Name == "" {
		return fmt.Errorf("config: aircraft.name is required")
	}
	if len(c.Aircraft.Plugins) == 0 {
		return fmt.Errorf("config: aircraft %s selects no plugins", c.Aircraft.Name)
	}
	if c.Propeller.BreakpointLow >= c.Propeller.BreakpointHigh {
		return fmt.Errorf("config: propeller breakpoints inverted (%v >= %v)",
			c.Propeller.BreakpointLow, c.Propeller.BreakpointHigh)
	}
	for _, t := range c.Fuel.Tanks {
		if t.UnusableGal > t.CapacityGal {
			return fmt.Errorf("config: tank %s unusable fuel exceeds capacity", t.Name)
		}
	}
	if c.WeightBalance.CGForwardIn > c.WeightBalance.CGAftIn && c.WeightBalance.CGAftIn != 0 {
		return fmt.Errorf("config: CG envelope inverted (%v > %v)",
			c.WeightBalance.CGForwardIn, c.WeightBalance.CGAftIn)
	}
	return nil
}
