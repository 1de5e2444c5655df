package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"golang.org/x/term"

	"airborne-sim/internal/analysis"
	"airborne-sim/internal/config"
	"airborne-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints flight rows using ANSI colors. Colors are
// suppressed automatically when STDOUT is not a terminal.
type ColorStdoutWriter struct {
	cfg    *config.AircraftConfig
	out    io.Writer
	once   sync.Once
	colors bool
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.AircraftConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{
		cfg:    cfg,
		out:    os.Stdout,
		colors: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (w *ColorStdoutWriter) c(code string) string {
	if !w.colors {
		return ""
	}
	return code
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Aircraft Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Aircraft:\t%s\n", w.cfg.Aircraft.Name)
	fmt.Fprintf(tw, "Tick Rate (Hz):\t%.0f\n", w.cfg.Simulation.TickRateHz)
	fmt.Fprintf(tw, "Engine Power (kW):\t%.0f\n", w.cfg.Engine.MaxPowerW/1000)
	fmt.Fprintf(tw, "Fuel Capacity (gal):\t%.1f\n", totalCapacityGal(w.cfg))
	fmt.Fprintf(tw, "Max Gross (lbs):\t%.0f\n", w.cfg.WeightBalance.MaxGrossLbs)
	tw.Flush()
	fmt.Fprintln(w.out)
}

func totalCapacityGal(cfg *config.AircraftConfig) float64 {
	var total float64
	for _, t := range cfg.Fuel.Tanks {
		total += t.CapacityGal
	}
	return total
}

// Write outputs a single flight row in colorized format.
func (w *ColorStdoutWriter) Write(row telemetry.FlightRow) error {
	w.once.Do(w.printOverview)

	stateColor := colorGreen
	state := "ok"
	switch {
	case row.Failures != "":
		stateColor, state = colorRed, row.Failures
	case row.Warnings != "":
		stateColor, state = colorYellow, row.Warnings
	}

	fmt.Fprintf(w.out, "%s[t=%7.1fs]%s ", w.c(colorGray), row.SimTimeSec, w.c(colorReset))
	fmt.Fprintf(w.out, "%salt=%.0fm%s ", w.c(colorMagenta), row.AltitudeM, w.c(colorReset))
	fmt.Fprintf(w.out, "%sias=%.0fkt%s ", w.c(colorGreen), row.AirspeedKt, w.c(colorReset))
	fmt.Fprintf(w.out, "%svs=%+.0ffpm%s ", w.c(colorYellow), row.VerticalSpeedFpm, w.c(colorReset))
	fmt.Fprintf(w.out, "%shdg=%03.0f%s ", w.c(colorCyan), row.HeadingDeg, w.c(colorReset))
	fmt.Fprintf(w.out, "%srpm=%.0f%s ", w.c(colorBlue), row.RPM, w.c(colorReset))
	fmt.Fprintf(w.out, "%sfuel=%.1fgal%s ", w.c(colorCyan), row.FuelUsableGal, w.c(colorReset))
	fmt.Fprintf(w.out, "%sbus=%.1fV%s ", w.c(colorBlue), row.BusVoltage, w.c(colorReset))
	if row.OnGround {
		fmt.Fprintf(w.out, "%sground%s ", w.c(colorGray), w.c(colorReset))
	}
	if row.Stalled {
		fmt.Fprintf(w.out, "%sSTALL%s ", w.c(colorRed), w.c(colorReset))
	}
	fmt.Fprintf(w.out, "%s%s%s", w.c(stateColor), state, w.c(colorReset))
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple flight rows.
func (w *ColorStdoutWriter) WriteBatch(rows []telemetry.FlightRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert prints a warning or failure the moment it appears.
func (w *ColorStdoutWriter) WriteAlert(row telemetry.AlertRow) error {
	w.once.Do(w.printOverview)
	col := colorYellow
	label := "WARNING"
	if row.Kind == telemetry.AlertFailure {
		col = colorRed
		label = "FAILURE"
	}
	fmt.Fprintf(w.out, "%s[t=%7.1fs]%s %s%s%s %s/%s\n",
		w.c(colorGray), row.SimTimeSec, w.c(colorReset),
		w.c(col), label, w.c(colorReset), row.System, row.AlertID)
	return nil
}

// WriteReport prints the failure analysis debrief.
func (w *ColorStdoutWriter) WriteReport(a analysis.FailureAnalysis) error {
	fmt.Fprintln(w.out)
	fmt.Fprint(w.out, analysis.Report(a))
	return nil
}
