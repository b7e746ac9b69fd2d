package session

import "sync"

// EventLog keeps the most recent events, oldest first, so late subscribers
// can replay what they missed. Once full, each append evicts the oldest
// event.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
	head   int // index of the oldest event
	size   int
}

// NewEventLog creates a log holding at most limit events.
func NewEventLog(limit int) *EventLog {
	if limit < 1 {
		limit = 1
	}
	return &EventLog{events: make([]Event, limit)}
}

// Append records an event.
func (l *EventLog) Append(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := len(l.events)
	if l.size < limit {
		l.events[(l.head+l.size)%limit] = event
		l.size++
		return
	}
	l.events[l.head] = event
	l.head = (l.head + 1) % limit
}

// Len returns the number of events held.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Events returns every held event.
func (l *EventLog) Events() []Event {
	return l.filter(func(Event) bool { return true })
}

// Session returns the held events of one session.
func (l *EventLog) Session(sessionID string) []Event {
	return l.filter(func(e Event) bool { return e.SessionID == sessionID })
}

func (l *EventLog) filter(keep func(Event) bool) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, l.size)
	for i := 0; i < l.size; i++ {
		if e := l.events[(l.head+i)%len(l.events)]; keep(e) {
			out = append(out, e)
		}
	}
	return out
}
