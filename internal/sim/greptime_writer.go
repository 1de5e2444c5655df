package sim

import (
	"context"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"airborne-sim/internal/telemetry"
)

// Retention hint sent with every write; GreptimeDB applies it when it
// auto-creates the table on first ingest.
const greptimeTTLHint = "ttl=30d"

// greptimeClient is the slice of the ingester client the writer uses,
// kept narrow for testing.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes flight telemetry and alerts to GreptimeDB via
// the ingester client. Tables are created by the server on first write.
type GreptimeDBWriter struct {
	client      greptimeClient
	flightTable string
	alertTable  string
}

// NewGreptimeDBWriter connects to a GreptimeDB endpoint ("host" or
// "host:port", gRPC port 4001 by default).
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port := splitEndpoint(endpoint)
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if port != 0 {
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client:      client,
		flightTable: telemetry.FlightTableName(),
		alertTable:  telemetry.AlertTableName(),
	}, nil
}

func splitEndpoint(endpoint string) (host string, port int) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, 0
	}
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return endpoint, 0
	}
	return host, port
}

func writeContext() context.Context {
	return ingesterContext.New(context.Background(),
		ingesterContext.WithHints(greptimeTTLHint))
}

// flightFields mirrors telemetry.FlightRow; AddRow inputs must follow
// this order, after the two tag columns and before the time index.
var flightFields = []struct {
	name string
	typ  types.ColumnType
}{
	{"sim_time_sec", types.FLOAT64},
	{"pos_east_m", types.FLOAT64},
	{"pos_north_m", types.FLOAT64},
	{"altitude_m", types.FLOAT64},
	{"altitude_agl_m", types.FLOAT64},
	{"airspeed_kt", types.FLOAT64},
	{"vertical_speed_fpm", types.FLOAT64},
	{"heading_deg", types.FLOAT64},
	{"pitch_deg", types.FLOAT64},
	{"roll_deg", types.FLOAT64},
	{"on_ground", types.BOOLEAN},
	{"stalled", types.BOOLEAN},
	{"engine_running", types.BOOLEAN},
	{"rpm", types.FLOAT64},
	{"fuel_flow_gph", types.FLOAT64},
	{"oil_temp_c", types.FLOAT64},
	{"cht_deg_c", types.FLOAT64},
	{"bus_voltage", types.FLOAT64},
	{"state_of_charge", types.FLOAT64},
	{"fuel_usable_gal", types.FLOAT64},
	{"total_weight_lbs", types.FLOAT64},
	{"cg_in", types.FLOAT64},
	{"warnings", types.STRING},
	{"failures", types.STRING},
}

func (w *GreptimeDBWriter) newFlightTable() (*table.Table, error) {
	tbl, err := table.New(w.flightTable)
	if err != nil {
		return nil, err
	}
	for _, tag := range []string{"flight_id", "aircraft"} {
		if err := tbl.AddTagColumn(tag, types.STRING); err != nil {
			return nil, err
		}
	}
	for _, f := range flightFields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP); err != nil {
		return nil, err
	}
	return tbl, nil
}

// Write inserts a single flight row.
func (w *GreptimeDBWriter) Write(row telemetry.FlightRow) error {
	return w.WriteBatch([]telemetry.FlightRow{row})
}

// WriteBatch inserts multiple flight rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.FlightRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := w.newFlightTable()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(
			r.FlightID, r.Aircraft,
			r.SimTimeSec, r.PosEastM, r.PosNorthM,
			r.AltitudeM, r.AltitudeAGLM,
			r.AirspeedKt, r.VerticalSpeedFpm,
			r.HeadingDeg, r.PitchDeg, r.RollDeg,
			r.OnGround, r.Stalled, r.EngineRunning,
			r.RPM, r.FuelFlowGPH, r.OilTempC, r.CHTDegC,
			r.BusVoltage, r.StateOfCharge, r.FuelUsableGal,
			r.TotalWeightLbs, r.CGIn,
			r.Warnings, r.Failures,
			r.Timestamp,
		); err != nil {
			return err
		}
	}
	_, err = w.client.Write(writeContext(), tbl)
	return err
}

// WriteAlert inserts a single alert row.
func (w *GreptimeDBWriter) WriteAlert(row telemetry.AlertRow) error {
	tbl, err := table.New(w.alertTable)
	if err != nil {
		return err
	}
	for _, tag := range []string{"flight_id", "system"} {
		if err := tbl.AddTagColumn(tag, types.STRING); err != nil {
			return err
		}
	}
	for _, field := range []string{"kind", "alert_id"} {
		if err := tbl.AddFieldColumn(field, types.STRING); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("sim_time_sec", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP); err != nil {
		return err
	}
	if err := tbl.AddRow(row.FlightID, row.System, row.Kind, row.AlertID,
		row.SimTimeSec, row.Timestamp); err != nil {
		return err
	}
	_, err = w.client.Write(writeContext(), tbl)
	return err
}
