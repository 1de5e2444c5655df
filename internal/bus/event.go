// Synchronous priority event dispatch for in-tick notifications.
package bus

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Priority orders handler execution and message delivery.
// Critical runs first, Low last.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow

	numPriorities = 4
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// EventType identifies a concrete event kind. Components subscribe to
// the type, never to a specific producer.
type EventType string

// Event is an immutable value dispatched synchronously to subscribers.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent supplies the timestamp half of the Event contract; concrete
// events embed it and implement Type themselves.
type BaseEvent struct {
	At time.Time
}

// Timestamp returns the event creation time.
func (e BaseEvent) Timestamp() time.Time { return e.At }

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent { return BaseEvent{At: time.Now().UTC()} }

// EventHandler processes a dispatched event. A returned error is logged
// by the bus and never aborts dispatch to the remaining handlers.
type EventHandler func(Event) error

// Subscription is the handle returned by Subscribe, used to remove the
// handler again.
type Subscription struct {
	eventType EventType
	id        uint64
}

type eventEntry struct {
	id       uint64
	priority Priority
	seq      uint64
	handler  EventHandler
	owner    string
}

// EventBus dispatches events synchronously, in handler priority order.
// It is not safe for concurrent use; the simulation advances on a
// single goroutine per tick.
type EventBus struct {
	handlers map[EventType][]eventEntry
	owners   map[EventType]map[string]bool
	nextID   uint64
	nextSeq  uint64
	log      *slog.Logger
}

// NewEventBus creates an empty event bus.
func NewEventBus(log *slog.Logger) *EventBus {
	if log == nil {
		log = slog.Default()
	}
	return &EventBus{
		handlers: make(map[EventType][]eventEntry),
		owners:   make(map[EventType]map[string]bool),
		log:      log,
	}
}

// Subscribe registers handler for events of the given type. The owner
// string identifies the registrant; registering the same owner twice
// for one event type is an error. Handlers run in priority order,
// insertion order within a tier.
func (b *EventBus) Subscribe(t EventType, owner string, h EventHandler, p Priority) (Subscription, error) {
	if h == nil {
		return Subscription{}, fmt.Errorf("subscribe %s: nil handler", t)
	}
	if b.owners[t] == nil {
		b.owners[t] = make(map[string]bool)
	}
	if b.owners[t][owner] {
		return Subscription{}, fmt.Errorf("subscribe %s: handler %q already registered", t, owner)
	}
	b.owners[t][owner] = true

	b.nextID++
	b.nextSeq++
	entry := eventEntry{id: b.nextID, priority: p, seq: b.nextSeq, handler: h, owner: owner}
	list := append(b.handlers[t], entry)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	b.handlers[t] = list
	return Subscription{eventType: t, id: b.nextID}, nil
}

// Unsubscribe removes a previously registered handler. Unknown handles
// are a no-op.
func (b *EventBus) Unsubscribe(s Subscription) {
	list := b.handlers[s.eventType]
	for i, e := range list {
		if e.id == s.id {
			delete(b.owners[s.eventType], e.owner)
			b.handlers[s.eventType] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// UnsubscribeOwner removes every handler registered under owner, across
// all event types. Used by the plugin runtime during unload.
func (b *EventBus) UnsubscribeOwner(owner string) {
	for t, list := range b.handlers {
		kept := list[:0]
		for _, e := range list {
			if e.owner == owner {
				delete(b.owners[t], owner)
				continue
			}
			kept = append(kept, e)
		}
		b.handlers[t] = kept
	}
}

// Publish dispatches the event synchronously to all current subscribers
// of its type, highest priority first. Handler errors and panics are
// isolated per handler: logged, then dispatch continues.
func (b *EventBus) Publish(ev Event) {
	for _, e := range b.handlers[ev.Type()] {
		b.dispatch(e, ev)
	}
}

func (b *EventBus) dispatch(entry eventEntry, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panic", "event", string(ev.Type()), "owner", entry.owner, "panic", r)
		}
	}()
	if err := entry.handler(ev); err != nil {
		b.log.Error("event handler failed", "event", string(ev.Type()), "owner", entry.owner, "err", err)
	}
}

// SubscriberCount reports how many handlers are registered for t.
func (b *EventBus) SubscriberCount(t EventType) int {
	return len(b.handlers[t])
}
