package bus

// Event types shared by the subsystem simulators.
const (
	EventSystemFailure EventType = "system.failure"
	EventSystemWarning EventType = "system.warning"
)

// FailureEvent announces a subsystem failure, published once when the
// failure first appears. Failures are irreversible for the flight
// unless the owning system accepts a repair.
type FailureEvent struct {
	BaseEvent
	System string
	ID     string
}

func (FailureEvent) Type() EventType { return EventSystemFailure }

// WarningEvent announces a subsystem warning, published once when the
// warning first appears.
type WarningEvent struct {
	BaseEvent
	System string
	ID     string
}

func (WarningEvent) Type() EventType { return EventSystemWarning }
