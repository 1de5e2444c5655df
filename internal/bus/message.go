package bus

import "time"

// Topic addresses a message stream. Well-known topics live in
// topics.go; plugins may also mint their own.
type Topic string

// Broadcast is the recipient marker delivering a message to every
// subscriber of its topic.
const Broadcast = "*"

// Message is a queued, topic-addressed value exchanged between
// subsystems. Payload is opaque to the queue; by convention it is the
// publishing subsystem's immutable snapshot.
type Message struct {
	Sender     string
	Recipients []string
	Topic      Topic
	Priority   Priority
	Payload    any
	SentAt     time.Time
}

// IsBroadcast reports whether the message is addressed to everyone.
func (m Message) IsBroadcast() bool {
	for _, r := range m.Recipients {
		if r == Broadcast {
			return true
		}
	}
	return len(m.Recipients) == 0
}

// AddressedTo reports whether the message targets the named subscriber.
func (m Message) AddressedTo(name string) bool {
	if m.IsBroadcast() {
		return true
	}
	for _, r := range m.Recipients {
		if r == name {
			return true
		}
	}
	return false
}
