package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"airborne-sim/internal/analysis"
	"airborne-sim/internal/config"
	"airborne-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// rowMsg carries the latest flight row for the instrument panel.
type rowMsg struct{ telemetry.FlightRow }

// alertMsg carries one warning or failure line.
type alertMsg struct{ telemetry.AlertRow }

// reportMsg carries the rendered failure analysis.
type reportMsg struct{ text string }

// TUIWriter renders an instrument panel and alert log using bubbletea.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.AircraftConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_ = p.Start()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.FlightRow) error {
	w.program.Send(rowMsg{row})
	return nil
}

// WriteBatch outputs multiple flight rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.FlightRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert implements AlertWriter.
func (w *TUIWriter) WriteAlert(row telemetry.AlertRow) error {
	w.program.Send(alertMsg{row})
	return nil
}

// WriteReport implements ReportWriter.
func (w *TUIWriter) WriteReport(a analysis.FailureAnalysis) error {
	w.program.Send(reportMsg{text: analysis.Report(a)})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	reportStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

type tuiModel struct {
	cfg        *config.AircraftConfig
	table      table.Model
	alertVP    viewport.Model
	row        telemetry.FlightRow
	alerts     []string
	report     string
	showReport bool
	wrap       bool
	width      int
	height     int
}

func newTUIModel(cfg *config.AircraftConfig) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 22},
		{Title: "Value", Width: 14},
	}
	rows := []table.Row{
		{"Aircraft", cfg.Aircraft.Name},
		{"Tick Rate (Hz)", fmt.Sprintf("%.0f", cfg.Simulation.TickRateHz)},
		{"Engine Power (kW)", fmt.Sprintf("%.0f", cfg.Engine.MaxPowerW/1000)},
		{"Fuel Capacity (gal)", fmt.Sprintf("%.1f", totalCapacityGal(cfg))},
		{"Max Gross (lbs)", fmt.Sprintf("%.0f", cfg.WeightBalance.MaxGrossLbs)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{cfg: cfg, table: t, alertVP: viewport.New(0, 0)}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.alertVP.Width = msg.Width
		m.resize()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshAlerts()
		case "r":
			if m.report != "" {
				m.showReport = !m.showReport
			}
		}
	case rowMsg:
		m.row = msg.FlightRow
	case alertMsg:
		m.alerts = append(m.alerts, renderAlert(msg.AlertRow))
		if len(m.alerts) > 500 {
			m.alerts = m.alerts[len(m.alerts)-500:]
		}
		m.refreshAlerts()
	case reportMsg:
		m.report = msg.text
		m.showReport = true
	}
	return m, nil
}

func renderAlert(a telemetry.AlertRow) string {
	style := warnStyle
	label := "WARN"
	if a.Kind == telemetry.AlertFailure {
		style = failStyle
		label = "FAIL"
	}
	return fmt.Sprintf("%s %s %s/%s",
		labelStyle.Render(fmt.Sprintf("[t=%7.1fs]", a.SimTimeSec)),
		style.Render(label), a.System, a.AlertID)
}

func (m *tuiModel) resize() {
	headerHeight := lipgloss.Height(m.renderInstruments()) + m.table.Height() + 3
	h := m.height - headerHeight
	if h < 1 {
		h = 1
	}
	m.alertVP.Height = h
}

func (m *tuiModel) refreshAlerts() {
	var lines []string
	for _, l := range m.alerts {
		if m.wrap && m.alertVP.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.alertVP.Width))
		} else {
			lines = append(lines, l)
		}
	}
	content := "none"
	if len(lines) > 0 {
		content = strings.Join(lines, "\n")
	}
	m.alertVP.SetContent(content)
	m.alertVP.GotoBottom()
}

func gauge(label, value string) string {
	return labelStyle.Render(label) + " " + valueStyle.Render(value)
}

func (m tuiModel) renderInstruments() string {
	r := m.row
	top := strings.Join([]string{
		gauge("ALT", fmt.Sprintf("%6.0f m", r.AltitudeM)),
		gauge("AGL", fmt.Sprintf("%6.0f m", r.AltitudeAGLM)),
		gauge("IAS", fmt.Sprintf("%4.0f kt", r.AirspeedKt)),
		gauge("VS", fmt.Sprintf("%+6.0f fpm", r.VerticalSpeedFpm)),
		gauge("HDG", fmt.Sprintf("%03.0f", r.HeadingDeg)),
	}, "  ")
	mid := strings.Join([]string{
		gauge("RPM", fmt.Sprintf("%4.0f", r.RPM)),
		gauge("FUEL", fmt.Sprintf("%5.1f gal", r.FuelUsableGal)),
		gauge("FLOW", fmt.Sprintf("%4.1f gph", r.FuelFlowGPH)),
		gauge("BUS", fmt.Sprintf("%4.1f V", r.BusVoltage)),
		gauge("BATT", fmt.Sprintf("%3.0f%%", r.StateOfCharge*100)),
	}, "  ")

	status := okStyle.Render("all systems nominal")
	switch {
	case r.Failures != "":
		status = failStyle.Render(r.Failures)
	case r.Warnings != "":
		status = warnStyle.Render(r.Warnings)
	}
	flags := make([]string, 0, 3)
	if r.OnGround {
		flags = append(flags, "GROUND")
	}
	if r.Stalled {
		flags = append(flags, failStyle.Render("STALL"))
	}
	if r.EngineRunning {
		flags = append(flags, okStyle.Render("ENG RUN"))
	}
	bottom := fmt.Sprintf("%s  %s  %s",
		gauge("T", fmt.Sprintf("%7.1f s", r.SimTimeSec)), strings.Join(flags, " "), status)

	return strings.Join([]string{top, mid, bottom}, "\n")
}

func (m tuiModel) View() string {
	divider := strings.Repeat("─", max(m.width, 1))
	if m.showReport {
		text := m.report
		if m.wrap && m.width > 0 {
			text = wordwrap.String(text, m.width)
		}
		return strings.Join([]string{
			reportStyle.Render(text),
			divider,
			labelStyle.Render("r back to panel | q quit"),
		}, "\n")
	}
	sections := []string{
		m.table.View(),
		divider,
		m.renderInstruments(),
		divider,
		"Alerts:",
		m.alertVP.View(),
		divider,
		labelStyle.Render("q quit | w wrap | r report"),
	}
	return strings.Join(sections, "\n")
}
