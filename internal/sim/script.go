package sim

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"airborne-sim/internal/systems"
)

// ScriptStep sets the full cockpit state from a sim time onward. The
// state holds until the next step's time is reached.
type ScriptStep struct {
	AtSec    float64               `yaml:"at_sec"`
	Controls systems.ControlInputs `yaml:"controls"`
}

// FlightScript replays a scripted sequence of cockpit states, for
// repeatable training flights and tests.
type FlightScript struct {
	steps   []ScriptStep
	idx     int
	current systems.ControlInputs
}

// NewFlightScript builds a script from steps; ordering by time is
// handled here.
func NewFlightScript(steps []ScriptStep) *FlightScript {
	sorted := append([]ScriptStep(nil), steps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AtSec < sorted[j].AtSec })
	return &FlightScript{steps: sorted}
}

// LoadFlightScript reads a YAML flight script from disk.
func LoadFlightScript(path string) (*FlightScript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flight script: %w", err)
	}
	var doc struct {
		Steps []ScriptStep `yaml:"steps"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse flight script: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("flight script %s: no steps", path)
	}
	return NewFlightScript(doc.Steps), nil
}

// Controls returns the cockpit state for the given sim time.
func (f *FlightScript) Controls(simTime float64) systems.ControlInputs {
	for f.idx < len(f.steps) && f.steps[f.idx].AtSec <= simTime {
		f.current = f.steps[f.idx].Controls
		f.idx++
	}
	return f.current
}

// Done reports whether the script has played every step.
func (f *FlightScript) Done() bool { return f.idx >= len(f.steps) }

// StaticControls holds one cockpit state for the whole flight.
type StaticControls struct {
	In systems.ControlInputs
}

// Controls implements InputSource.
func (s StaticControls) Controls(float64) systems.ControlInputs { return s.In }
