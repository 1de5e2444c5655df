package sim

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"airborne-sim/internal/telemetry"
)

type collectWriter struct{ rows []telemetry.FlightRow }

func (c *collectWriter) Write(r telemetry.FlightRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func TestReplayLog(t *testing.T) {
	rows := []telemetry.FlightRow{
		{FlightID: "f1", Tick: 1, SimTimeSec: 0.1, Timestamp: time.Unix(0, 0)},
		{FlightID: "f1", Tick: 2, SimTimeSec: 0.2, Timestamp: time.Unix(1, 0)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	if err := ReplayLog(&buf, cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].Tick != r.Tick {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.jsonl")
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(sampleRow()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	cw := &collectWriter{}
	if err := ReplayLogFile(path, cw, 0); err != nil {
		t.Fatalf("ReplayLogFile: %v", err)
	}
	if len(cw.rows) != 1 || cw.rows[0].FlightID != "flight-1" {
		t.Fatalf("replayed rows = %+v", cw.rows)
	}
}
