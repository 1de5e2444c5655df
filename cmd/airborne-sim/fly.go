package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"airborne-sim/internal/admin"
	"airborne-sim/internal/config"
	"airborne-sim/internal/logging"
	"airborne-sim/internal/scenario"
	"airborne-sim/internal/sim"
)

var (
	flyConfigPath string
	flySchemaPath string
	flyPrintOnly  bool
	flyLogFile    string
	flyScript     string
	flyScenario   string
	flyTicks      int
	flyTUI        bool
	flyDebug      bool
	flyFlightID   string
	flyAdminAddr  string
)

var flyCmd = &cobra.Command{
	Use:   "fly",
	Short: "Run the real-time flight simulator",
	Long:  "fly starts a flight with the configured aircraft, optionally driven by a flight script and a training scenario.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flyConfigPath, flySchemaPath)
		if err != nil {
			return err
		}
		log := logging.New(flyDebug)

		writer, cleanup, err := newWriters(cfg, flyPrintOnly, flyLogFile, flyTUI)
		if err != nil {
			return err
		}
		defer cleanup()

		var inputs sim.InputSource
		if flyScript != "" {
			script, err := sim.LoadFlightScript(flyScript)
			if err != nil {
				return err
			}
			inputs = script
		}

		flightID := flyFlightID
		if flightID == "" {
			flightID = os.Getenv("FLIGHT_ID")
		}

		simulator, err := sim.NewSimulator(flightID, cfg, writer, inputs, log)
		if err != nil {
			return err
		}
		defer simulator.Shutdown()

		if flyScenario != "" {
			sc, err := resolveScenario(flyScenario)
			if err != nil {
				return err
			}
			simulator.SetScenario(sc)
			log.Info("scenario armed", "scenario", sc.Name)
		}

		if flyTicks > 0 {
			simulator.RunTicks(flyTicks)
			return nil
		}

		srv := admin.NewServer(simulator)
		go func() {
			log.Info("admin API listening", "addr", flyAdminAddr)
			if err := srv.Start(flyAdminAddr); err != nil && err != http.ErrServerClosed {
				log.Error("admin server failed", "err", err)
			}
		}()

		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()
		go simulator.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		log.Info("flight ended", "flight", simulator.FlightID(), "sim_time", simulator.SimTime())
		return nil
	},
}

// resolveScenario accepts a built-in scenario key or a YAML file path.
func resolveScenario(name string) (*scenario.Scenario, error) {
	if sc, ok := scenario.BuiltIn()[name]; ok {
		return &sc, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("scenario %q: not a built-in scenario or readable file", name)
	}
	return scenario.Load(name)
}

func init() {
	flyCmd.Flags().StringVar(&flyConfigPath, "config", "config/c172.yaml", "Path to aircraft configuration YAML")
	flyCmd.Flags().StringVar(&flySchemaPath, "schema", "schemas/aircraft.cue", "Path to CUE schema file")
	flyCmd.Flags().BoolVar(&flyPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	flyCmd.Flags().StringVar(&flyLogFile, "log-file", "", "Path to export flight/alert logs (JSONL)")
	flyCmd.Flags().StringVar(&flyScript, "script", "", "Path to a YAML flight script for the cockpit controls")
	flyCmd.Flags().StringVar(&flyScenario, "scenario", "", "Training scenario: built-in name or YAML file path")
	flyCmd.Flags().IntVar(&flyTicks, "ticks", 0, "Run N ticks as fast as possible and exit (0 = real time)")
	flyCmd.Flags().BoolVar(&flyTUI, "tui", false, "Render an interactive instrument panel")
	flyCmd.Flags().BoolVar(&flyDebug, "debug", false, "Enable debug logging")
	flyCmd.Flags().StringVar(&flyFlightID, "flight-id", "", "Flight identifier (default: generated)")
	flyCmd.Flags().StringVar(&flyAdminAddr, "admin-addr", ":8080", "Admin API listen address")
}
