package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunnerDeliversInTimeOrder(t *testing.T) {
	s := &Scenario{
		Name: "test",
		Injections: []Injection{
			{AtSec: 30, System: "fuel", Kind: "leak"},
			{AtSec: 10, System: "electrical", Kind: "alternator"},
		},
	}
	r := NewRunner(s)

	if due := r.Due(5); len(due) != 0 {
		t.Fatalf("nothing should be due at t=5, got %v", due)
	}
	due := r.Due(15)
	if len(due) != 1 || due[0].System != "electrical" {
		t.Fatalf("expected alternator injection at t=15, got %v", due)
	}
	due = r.Due(60)
	if len(due) != 1 || due[0].Kind != "leak" {
		t.Fatalf("expected leak injection at t=60, got %v", due)
	}
	if !r.Done() {
		t.Error("runner not done after all injections delivered")
	}
	if due := r.Due(120); len(due) != 0 {
		t.Errorf("injections delivered twice: %v", due)
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `
name: test-scenario
description: engine trouble in cruise
injections:
  - at_sec: 45
    system: engine
    kind: seizure
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "test-scenario" || len(s.Injections) != 1 {
		t.Fatalf("unexpected scenario: %+v", s)
	}
	if s.Injections[0].Kind != "seizure" {
		t.Errorf("kind = %q", s.Injections[0].Kind)
	}
}

func TestLoadRejectsEmptySchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: empty\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("empty scenario accepted")
	}
}

func TestBuiltInScenariosAreWellFormed(t *testing.T) {
	for key, s := range BuiltIn() {
		if s.Name == "" || len(s.Injections) == 0 {
			t.Errorf("scenario %s incomplete: %+v", key, s)
		}
		for _, in := range s.Injections {
			if in.System == "" || in.Kind == "" {
				t.Errorf("scenario %s has blank injection: %+v", key, in)
			}
		}
	}
}
