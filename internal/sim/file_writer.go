package sim

import (
	"encoding/json"
	"os"

	"airborne-sim/internal/analysis"
	"airborne-sim/internal/telemetry"
)

// FileWriter writes flight and alert rows to JSONL files and, when a
// flight fails, the analysis debrief to a text file.
type FileWriter struct {
	flightFile *os.File
	alertFile  *os.File
	flightEnc  *json.Encoder
	alertEnc   *json.Encoder
	reportPath string
}

// NewFileWriter creates a FileWriter. alertPath and reportPath may be
// empty to skip those outputs.
func NewFileWriter(flightPath, alertPath, reportPath string) (*FileWriter, error) {
	ff, err := os.Create(flightPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{flightFile: ff, flightEnc: json.NewEncoder(ff), reportPath: reportPath}
	if alertPath != "" {
		af, err := os.Create(alertPath)
		if err != nil {
			ff.Close()
			return nil, err
		}
		fw.alertFile = af
		fw.alertEnc = json.NewEncoder(af)
	}
	return fw, nil
}

// Write logs a single flight row.
func (f *FileWriter) Write(row telemetry.FlightRow) error {
	return f.flightEnc.Encode(row)
}

// WriteBatch logs multiple flight rows.
func (f *FileWriter) WriteBatch(rows []telemetry.FlightRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert logs a single alert row, if enabled.
func (f *FileWriter) WriteAlert(row telemetry.AlertRow) error {
	if f.alertEnc == nil {
		return nil
	}
	return f.alertEnc.Encode(row)
}

// WriteReport renders the analysis debrief to the report path, if
// enabled.
func (f *FileWriter) WriteReport(a analysis.FailureAnalysis) error {
	if f.reportPath == "" {
		return nil
	}
	return os.WriteFile(f.reportPath, []byte(analysis.Report(a)), 0o644)
}

// Close closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.flightFile != nil {
		if e := f.flightFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.alertFile != nil {
		if e := f.alertFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
