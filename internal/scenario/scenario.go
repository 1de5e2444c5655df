// Package scenario defines training scenarios: timed failure
// injections played against a flight for emergency-procedure practice.
package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Injection schedules one fault against a subsystem at a sim time.
type Injection struct {
	AtSec  float64 `yaml:"at_sec"`
	System string  `yaml:"system"`
	Kind   string  `yaml:"kind"`
}

// Scenario is a named training scenario with an ordered injection
// schedule and a briefing for the trainee.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Injections  []Injection `yaml:"injections"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Injections) == 0 {
		return nil, fmt.Errorf("scenario %s: no injections", path)
	}
	return &s, nil
}

// Runner plays a scenario's injections in time order, each exactly
// once.
type Runner struct {
	injections []Injection
	idx        int
}

// NewRunner creates a runner over the scenario's schedule.
func NewRunner(s *Scenario) *Runner {
	inj := append([]Injection(nil), s.Injections...)
	sort.SliceStable(inj, func(i, j int) bool { return inj[i].AtSec < inj[j].AtSec })
	return &Runner{injections: inj}
}

// Due returns the injections whose time has arrived and advances past
// them.
func (r *Runner) Due(simTime float64) []Injection {
	start := r.idx
	for r.idx < len(r.injections) && r.injections[r.idx].AtSec <= simTime {
		r.idx++
	}
	return r.injections[start:r.idx]
}

// Done reports whether every injection has been delivered.
func (r *Runner) Done() bool { return r.idx >= len(r.injections) }
