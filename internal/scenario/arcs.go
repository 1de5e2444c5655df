package scenario

// BuiltIn returns the predefined training scenarios. The plugin and
// fault names match the subsystem simulators' failure modes.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"fuel-starvation": {
			Name:        "Fuel Starvation",
			Description: "A slow leak drains the tanks en route. Expect LOW_FUEL, then CRITICAL_FUEL, then a dead engine. Practice the divert decision.",
			Injections: []Injection{
				{AtSec: 60, System: "fuel", Kind: "leak"},
			},
		},
		"alternator-failure": {
			Name:        "Alternator Failure",
			Description: "The alternator drops offline in cruise. The battery carries the bus until it browns out; manage electrical load and land.",
			Injections: []Injection{
				{AtSec: 120, System: "electrical", Kind: "alternator"},
			},
		},
		"oil-starvation": {
			Name:        "Oil Starvation",
			Description: "Oil pressure collapses in cruise. The engine seizes about thirty seconds later; establish best glide and pick a field.",
			Injections: []Injection{
				{AtSec: 180, System: "engine", Kind: "oil_starvation"},
			},
		},
		"cascading-electrics": {
			Name:        "Cascading Electrics",
			Description: "Alternator failure followed by a fuel leak while the battery drains. Two problems, one cockpit.",
			Injections: []Injection{
				{AtSec: 90, System: "electrical", Kind: "alternator"},
				{AtSec: 150, System: "fuel", Kind: "leak"},
			},
		},
	}
}
