package bus

// Well-known topics. Keeping them in one place avoids typo'd strings
// scattered across subsystems.
const (
	// Subsystem state snapshots, published every tick.
	TopicElectricalState Topic = "system.electrical.state"
	TopicFuelState       Topic = "system.fuel.state"
	TopicEngineState     Topic = "system.engine.state"
	TopicWeightBalance   Topic = "system.weightbalance.state"

	// Flight dynamics.
	TopicPositionUpdated Topic = "flight.position_updated"
	TopicControlInput    Topic = "flight.control_input"

	// Terrain and collision.
	TopicTerrainContact Topic = "physics.terrain_contact"

	// Maintenance actions accepted by the owning subsystem.
	TopicRefuel       Topic = "action.refuel"
	TopicBatterySwap  Topic = "action.battery_swap"
	TopicEngineRepair Topic = "action.engine_repair"

	// Failure analysis output.
	TopicFailureAnalysis Topic = "analysis.failure_report"
)
