package bus

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultTickBudget is the number of queued messages delivered per
// ProcessTick call unless configured otherwise. The cap bounds
// worst-case tick latency; overflow defers to the next tick.
const DefaultTickBudget = 100

// MessageHandler consumes a delivered message. Errors are logged by the
// queue and never abort delivery to other subscribers.
type MessageHandler func(Message) error

type topicEntry struct {
	owner   string
	handler MessageHandler
}

// MessageQueue buffers topic-addressed messages and delivers them in
// priority order, FIFO within a tier, up to a per-tick budget.
// Producers on other goroutines must hand messages to the simulation
// goroutine; the queue itself is single-threaded by design.
type MessageQueue struct {
	tiers       [numPriorities][]Message
	subscribers map[Topic][]topicEntry
	budget      int
	log         *slog.Logger
}

// NewMessageQueue creates a queue with the given per-tick budget;
// budget <= 0 selects DefaultTickBudget.
func NewMessageQueue(budget int, log *slog.Logger) *MessageQueue {
	if budget <= 0 {
		budget = DefaultTickBudget
	}
	if log == nil {
		log = slog.Default()
	}
	return &MessageQueue{
		subscribers: make(map[Topic][]topicEntry),
		budget:      budget,
		log:         log,
	}
}

// SubscribeTopic registers a handler for a topic under the given owner
// name. Multiple owners per topic are fine; the same owner twice on one
// topic is an error.
func (q *MessageQueue) SubscribeTopic(t Topic, owner string, h MessageHandler) error {
	if h == nil {
		return fmt.Errorf("subscribe topic %s: nil handler", t)
	}
	for _, e := range q.subscribers[t] {
		if e.owner == owner {
			return fmt.Errorf("subscribe topic %s: %q already subscribed", t, owner)
		}
	}
	q.subscribers[t] = append(q.subscribers[t], topicEntry{owner: owner, handler: h})
	return nil
}

// UnsubscribeTopic removes the owner's handler from a topic. Unknown
// owner or topic is a no-op.
func (q *MessageQueue) UnsubscribeTopic(t Topic, owner string) {
	list := q.subscribers[t]
	for i, e := range list {
		if e.owner == owner {
			q.subscribers[t] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// UnsubscribeOwner removes every topic handler registered under owner.
func (q *MessageQueue) UnsubscribeOwner(owner string) {
	for t, list := range q.subscribers {
		kept := list[:0]
		for _, e := range list {
			if e.owner != owner {
				kept = append(kept, e)
			}
		}
		q.subscribers[t] = kept
	}
}

// Publish enqueues a message for the next ProcessTick. Publishing to a
// topic nobody subscribes to is not an error; subscribers may attach
// later, and delivery is evaluated at processing time.
func (q *MessageQueue) Publish(m Message) {
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}
	p := m.Priority
	if p < PriorityCritical || p > PriorityLow {
		p = PriorityNormal
		m.Priority = p
	}
	q.tiers[p] = append(q.tiers[p], m)
}

// ProcessTick delivers up to the per-tick budget of queued messages in
// priority order, FIFO within each tier, and returns the number
// delivered. Undelivered messages stay queued in order for the next
// tick; nothing is dropped.
func (q *MessageQueue) ProcessTick() int {
	processed := 0
	for p := 0; p < numPriorities; p++ {
		for processed < q.budget && len(q.tiers[p]) > 0 {
			m := q.tiers[p][0]
			q.tiers[p] = q.tiers[p][1:]
			q.deliver(m)
			processed++
		}
		if processed >= q.budget {
			break
		}
	}
	return processed
}

func (q *MessageQueue) deliver(m Message) {
	for _, e := range q.subscribers[m.Topic] {
		if !m.AddressedTo(e.owner) {
			continue
		}
		q.dispatch(e, m)
	}
}

func (q *MessageQueue) dispatch(e topicEntry, m Message) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("message handler panic", "topic", string(m.Topic), "owner", e.owner, "panic", r)
		}
	}()
	if err := e.handler(m); err != nil {
		q.log.Error("message handler failed", "topic", string(m.Topic), "owner", e.owner, "err", err)
	}
}

// Pending reports the number of messages waiting across all tiers.
func (q *MessageQueue) Pending() int {
	n := 0
	for p := 0; p < numPriorities; p++ {
		n += len(q.tiers[p])
	}
	return n
}

// SubscriberCount reports how many handlers are attached to a topic.
func (q *MessageQueue) SubscriberCount(t Topic) int {
	return len(q.subscribers[t])
}
