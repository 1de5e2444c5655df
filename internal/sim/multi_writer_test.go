package sim

import (
	"testing"

	"airborne-sim/internal/analysis"
	"airborne-sim/internal/telemetry"
)

// rowOnlyWriter implements just TelemetryWriter, no optional interfaces.
type rowOnlyWriter struct {
	rows []telemetry.FlightRow
}

func (w *rowOnlyWriter) Write(row telemetry.FlightRow) error {
	w.rows = append(w.rows, row)
	return nil
}

// batchingWriter counts batch calls to verify the batch upgrade path.
type batchingWriter struct {
	MockWriter
	batches int
}

func (w *batchingWriter) WriteBatch(rows []telemetry.FlightRow) error {
	w.batches++
	w.rows = append(w.rows, rows...)
	return nil
}

func TestMultiWriterFansOutRows(t *testing.T) {
	plain := &rowOnlyWriter{}
	full := &MockWriter{}
	mw := NewMultiWriter(plain, full)

	if err := mw.Write(sampleRow()); err != nil {
		t.Fatal(err)
	}
	if len(plain.rows) != 1 || len(full.rows) != 1 {
		t.Errorf("rows = %d/%d, want 1/1", len(plain.rows), len(full.rows))
	}
}

func TestMultiWriterBatchUpgrade(t *testing.T) {
	plain := &rowOnlyWriter{}
	batcher := &batchingWriter{}
	mw := NewMultiWriter(plain, batcher)

	rows := []telemetry.FlightRow{sampleRow(), sampleRow(), sampleRow()}
	if err := mw.WriteBatch(rows); err != nil {
		t.Fatal(err)
	}
	if len(plain.rows) != 3 {
		t.Errorf("plain writer got %d rows via per-row fallback, want 3", len(plain.rows))
	}
	if batcher.batches != 1 || len(batcher.rows) != 3 {
		t.Errorf("batch writer got %d batches / %d rows, want 1/3", batcher.batches, len(batcher.rows))
	}
}

func TestMultiWriterSelectiveAlertDelivery(t *testing.T) {
	plain := &rowOnlyWriter{}
	full := &MockWriter{}
	mw := NewMultiWriter(plain, full)

	if err := mw.WriteAlert(telemetry.AlertRow{System: "fuel", AlertID: "LOW_FUEL"}); err != nil {
		t.Fatal(err)
	}
	if len(full.alerts) != 1 {
		t.Errorf("alert-capable writer got %d alerts, want 1", len(full.alerts))
	}

	if err := mw.WriteReport(analysis.FailureAnalysis{FlightID: "flight-1"}); err != nil {
		t.Fatal(err)
	}
	if len(full.reports) != 1 {
		t.Errorf("report-capable writer got %d reports, want 1", len(full.reports))
	}
}
