package sim

import (
	"airborne-sim/internal/analysis"
	"airborne-sim/internal/telemetry"
)

// MultiWriter fans flight rows, alerts, and reports out to multiple
// writers. Alert and report delivery follows each writer's optional
// interfaces.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a MultiWriter over the given writers.
func NewMultiWriter(writers ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write sends a flight row to all writers.
func (mw *MultiWriter) Write(row telemetry.FlightRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple flight rows to all writers, using batch
// where supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.FlightRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteAlert sends an alert row to every writer that records alerts.
func (mw *MultiWriter) WriteAlert(row telemetry.AlertRow) error {
	for _, w := range mw.writers {
		if aw, ok := w.(AlertWriter); ok {
			if err := aw.WriteAlert(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteReport sends the failure analysis to every writer that records
// reports.
func (mw *MultiWriter) WriteReport(a analysis.FailureAnalysis) error {
	for _, w := range mw.writers {
		if rw, ok := w.(ReportWriter); ok {
			if err := rw.WriteReport(a); err != nil {
				return err
			}
		}
	}
	return nil
}
