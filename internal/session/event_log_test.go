package session

import (
	"fmt"
	"testing"
)

func outputEvent(sessionID string, n int) Event {
	return Event{SessionID: sessionID, Type: EventOutput, Data: fmt.Sprintf("chunk-%d", n)}
}

func eventData(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Data
	}
	return out
}

func TestEventLog_Events(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		writes int
		want   []string
	}{
		{"empty", 4, 0, []string{}},
		{"partial", 4, 2, []string{"chunk-0", "chunk-1"}},
		{"exactly full", 3, 3, []string{"chunk-0", "chunk-1", "chunk-2"}},
		{"evicts oldest", 3, 5, []string{"chunk-2", "chunk-3", "chunk-4"}},
		{"zero limit keeps latest", 0, 2, []string{"chunk-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewEventLog(tt.limit)
			for i := 0; i < tt.writes; i++ {
				l.Append(outputEvent("s", i))
			}
			got := eventData(l.Events())
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Events() = %v, want %v", got, tt.want)
			}
			if l.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", l.Len(), len(tt.want))
			}
		})
	}
}

func TestEventLog_Session(t *testing.T) {
	l := NewEventLog(3)
	l.Append(outputEvent("a", 0))
	l.Append(outputEvent("b", 1))
	l.Append(outputEvent("a", 2))
	l.Append(outputEvent("a", 3))

	got := eventData(l.Session("a"))
	if fmt.Sprint(got) != "[chunk-2 chunk-3]" {
		t.Errorf("Session(a) = %v", got)
	}
	if n := len(l.Session("missing")); n != 0 {
		t.Errorf("Session(missing) returned %d events", n)
	}
}
