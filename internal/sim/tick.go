package sim

import (
	"context"
	"time"

	"airborne-sim/internal/logging"
)

// Run drives the simulation in real time until the context is done.
// The physics advance on a fixed timestep; wall-clock time is
// accumulated and consumed in whole steps, capped per frame so a
// stalled host cannot trigger a catch-up spiral.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)

	hz := s.cfg.Simulation.TickRateHz
	dt := 1.0 / hz
	interval := time.Duration(float64(time.Second) / hz)
	maxSteps := s.cfg.Simulation.MaxTicksPerFrame

	log.Info("starting flight loop", "tick_rate_hz", hz, "max_ticks_per_frame", maxSteps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	var acc float64
	for {
		select {
		case now := <-ticker.C:
			acc += now.Sub(last).Seconds()
			last = now

			steps := 0
			s.mu.Lock()
			for acc >= dt && steps < maxSteps {
				s.step(dt)
				acc -= dt
				steps++
			}
			if acc >= dt {
				// Frame budget exhausted: drop the backlog, stay real-time.
				acc = 0
			}
			s.mu.Unlock()
		case <-ctx.Done():
			log.Info("stopping flight loop", "sim_time_sec", s.SimTime())
			return
		}
	}
}
