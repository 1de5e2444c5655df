package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"airborne-sim/internal/analysis"
	"airborne-sim/internal/telemetry"
)

// JSONStdoutWriter emits one JSON object per row, suitable for piping
// into jq or capturing as a replayable log.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a single flight row as JSON.
func (w *JSONStdoutWriter) Write(row telemetry.FlightRow) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(b))
	return err
}

// WriteBatch outputs multiple flight rows.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.FlightRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert outputs an alert row as JSON.
func (w *JSONStdoutWriter) WriteAlert(row telemetry.AlertRow) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(b))
	return err
}

// WriteReport outputs the failure analysis as JSON.
func (w *JSONStdoutWriter) WriteReport(a analysis.FailureAnalysis) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(b))
	return err
}
