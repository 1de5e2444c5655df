package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"airborne-sim/internal/analysis"
	"airborne-sim/internal/telemetry"
)

func TestFileWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	flightPath := filepath.Join(dir, "flight.jsonl")
	alertPath := filepath.Join(dir, "alerts.jsonl")
	reportPath := filepath.Join(dir, "report.txt")

	fw, err := NewFileWriter(flightPath, alertPath, reportPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	if err := fw.Write(sampleRow()); err != nil {
		t.Fatal(err)
	}
	if err := fw.WriteBatch([]telemetry.FlightRow{sampleRow(), sampleRow()}); err != nil {
		t.Fatal(err)
	}
	if err := fw.WriteAlert(telemetry.AlertRow{
		FlightID: "flight-1", System: "fuel", AlertID: "LOW_FUEL", Kind: telemetry.AlertWarning,
	}); err != nil {
		t.Fatal(err)
	}
	if err := fw.WriteReport(analysis.FailureAnalysis{FlightID: "flight-1", Class: analysis.ClassFuelExhaustion}); err != nil {
		t.Fatal(err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows := decodeFlightLog(t, flightPath)
	if len(rows) != 3 {
		t.Fatalf("flight log has %d rows, want 3", len(rows))
	}
	if rows[0].FlightID != "flight-1" {
		t.Errorf("row = %+v", rows[0])
	}

	ab, err := os.ReadFile(alertPath)
	if err != nil {
		t.Fatal(err)
	}
	var alert telemetry.AlertRow
	if err := json.Unmarshal(ab, &alert); err != nil {
		t.Fatalf("alert log not JSON: %v", err)
	}
	if alert.AlertID != "LOW_FUEL" {
		t.Errorf("alert = %+v", alert)
	}

	rb, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rb), "FLIGHT FAILURE ANALYSIS") {
		t.Errorf("report = %q", rb)
	}
}

func TestFileWriterOptionalOutputs(t *testing.T) {
	flightPath := filepath.Join(t.TempDir(), "flight.jsonl")
	fw, err := NewFileWriter(flightPath, "", "")
	if err != nil {
		t.Fatal(err)
	}
	defer fw.Close()

	// Disabled outputs are silent no-ops.
	if err := fw.WriteAlert(telemetry.AlertRow{AlertID: "LOW_FUEL"}); err != nil {
		t.Errorf("WriteAlert without alert file: %v", err)
	}
	if err := fw.WriteReport(analysis.FailureAnalysis{}); err != nil {
		t.Errorf("WriteReport without report path: %v", err)
	}
}

func decodeFlightLog(t *testing.T, path string) []telemetry.FlightRow {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var rows []telemetry.FlightRow
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r telemetry.FlightRow
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad JSONL line: %v", err)
		}
		rows = append(rows, r)
	}
	return rows
}
