package main

import (
	"os"

	"airborne-sim/internal/config"
	"airborne-sim/internal/sim"
)

// newWriters sets up the telemetry writer chain from flags and env vars.
// It returns the writer and a cleanup function to close any resources.
func newWriters(cfg *config.AircraftConfig, printOnly bool, logFile string, useTUI bool) (sim.TelemetryWriter, func(), error) {
	cleanup := func() {}

	writer, err := baseWriter(cfg, printOnly, useTUI)
	if err != nil {
		return nil, nil, err
	}
	if tui, ok := writer.(*sim.TUIWriter); ok {
		cleanup = func() { tui.Close() }
	}
	if logFile == "" {
		return writer, cleanup, nil
	}

	fw, err := sim.NewFileWriter(logFile, logFile+".alerts", logFile+".report")
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	prev := cleanup
	cleanup = func() {
		fw.Close()
		prev()
	}
	return sim.NewMultiWriter(writer, fw), cleanup, nil
}

// baseWriter chooses the primary writer based on the flags and env vars.
func baseWriter(cfg *config.AircraftConfig, printOnly, useTUI bool) (sim.TelemetryWriter, error) {
	if useTUI {
		return sim.NewTUIWriter(cfg), nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if printOnly || endpoint == "" {
		return sim.NewColorStdoutWriter(cfg), nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	return sim.NewGreptimeDBWriter(endpoint, database)
}

// newReplayWriter creates the writer chain for replaying recorded logs.
func newReplayWriter(printOnly bool) (sim.TelemetryWriter, error) {
	return baseWriter(nil, printOnly, false)
}
