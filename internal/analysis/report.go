package analysis

import (
	"fmt"
	"strings"
)

var classLessons = map[FailureClass][]string{
	ClassFuelExhaustion: {
		"Plan fuel reserves before departure and verify them at every checkpoint.",
		"Treat LOW_FUEL as a divert trigger, not an advisory.",
	},
	ClassEngineFailure: {
		"Establish best-glide speed immediately after a power loss.",
		"Pick the landing site first; troubleshoot second.",
	},
	ClassCFIT: {
		"Maintain terrain awareness whenever descending.",
		"A functioning aircraft flown into the ground is a briefing failure, not a mechanical one.",
	},
	ClassStallSpin: {
		"Respect the stall margin, especially in turns close to the ground.",
		"Recover by reducing angle of attack before adding power.",
	},
	ClassHardLanding: {
		"Stabilize the approach early; go around when the sink rate builds.",
	},
	ClassUnknown: {
		"Review the timeline; the recorded data did not match a known failure pattern.",
	},
}

// lessons derives the lessons-learned list from the classification and
// the contributing factors.
func lessons(a FailureAnalysis) []string {
	out := append([]string(nil), classLessons[a.Class]...)
	for _, f := range a.ContributingFactors {
		if strings.Contains(f, "went unresolved") {
			out = append(out, "Act on warnings when they appear; every one of them was earned.")
			break
		}
	}
	if !a.Impact.Controls.GearDown {
		out = append(out, "Confirm gear position on every approach, including forced landings.")
	}
	return out
}

// Report renders the analysis as a human-readable debrief.
func Report(a FailureAnalysis) string {
	var b strings.Builder
	line := strings.Repeat("=", 52)

	b.WriteString(line + "\n")
	b.WriteString("              FLIGHT FAILURE ANALYSIS\n")
	b.WriteString(line + "\n\n")

	fmt.Fprintf(&b, "Flight:          %s\n", a.FlightID)
	fmt.Fprintf(&b, "Classification:  %s\n", a.Class)
	fmt.Fprintf(&b, "Severity:        %s (%.1f G at impact)\n\n", a.Severity, a.ImpactG)

	b.WriteString("Failure onset:\n")
	writeSnapshot(&b, a.Failure)
	b.WriteString("\nImpact:\n")
	writeSnapshot(&b, a.Impact)

	if len(a.Timeline) > 0 {
		b.WriteString("\nTimeline:\n")
		for _, e := range a.Timeline {
			fmt.Fprintf(&b, "  [t=%7.1fs] %-7s %s/%s", e.SimTimeSec, e.Kind, e.System, e.ID)
			if e.Detail != "" {
				fmt.Fprintf(&b, " (%s)", e.Detail)
			}
			b.WriteString("\n")
		}
	}

	if len(a.ContributingFactors) > 0 {
		b.WriteString("\nContributing factors:\n")
		for _, f := range a.ContributingFactors {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}

	b.WriteString("\nLessons Learned:\n")
	for _, l := range a.Lessons {
		fmt.Fprintf(&b, "  - %s\n", l)
	}
	b.WriteString("\n" + line + "\n")
	return b.String()
}

func writeSnapshot(b *strings.Builder, s FailureSnapshot) {
	fmt.Fprintf(b, "  t=%.1fs  %.0f kt  %+.0f fpm  AGL %.0f m  hdg %03.0f  pitch %+.0f  roll %+.0f\n",
		s.SimTimeSec, s.AirspeedKnots, s.VerticalSpeedFpm, s.AltitudeAGLM,
		s.HeadingDeg, s.PitchDeg, s.RollDeg)
	fmt.Fprintf(b, "  engine: running=%t rpm=%.0f  fuel: %.1f gal usable (%s)  bus: %.1f V\n",
		s.Engine.Running, s.Engine.RPM, s.Fuel.UsableGal, s.Fuel.Selector, s.Electrical.BusVoltage)
	if len(s.Engine.Failures)+len(s.Fuel.Failures)+len(s.Electrical.Failures) > 0 {
		fmt.Fprintf(b, "  failures: %s\n",
			strings.Join(append(append(append([]string{}, s.Engine.Failures...), s.Fuel.Failures...), s.Electrical.Failures...), ", "))
	}
}
