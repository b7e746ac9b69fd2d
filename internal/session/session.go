package session

import "time"

// Status is the lifecycle state of a session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusSignaled  Status = "signaled"
	StatusTimedOut  Status = "timed_out"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSignaled || s == StatusTimedOut
}

// Session is one invocation of the external tool.
type Session struct {
	ID          string    `json:"id"`
	CommandLine string    `json:"commandLine"`
	Status      Status    `json:"status"`
	WorkDir     string    `json:"workDir,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	EndedAt     time.Time `json:"endedAt,omitempty"`
	ExitCode    int       `json:"exitCode"`
	Signal      string    `json:"signal,omitempty"`
	// Message is the terminal status line shown to the user.
	Message string `json:"message,omitempty"`
}

// Elapsed returns the run time so far, or the total once ended.
func (s Session) Elapsed() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// EventType distinguishes lifecycle and output events.
type EventType string

const (
	EventStarted EventType = "started"
	EventOutput  EventType = "output"
	EventTimeout EventType = "timeout"
	EventStopped EventType = "stopped"
	EventExit    EventType = "exit"
)

// Event is a lifecycle change or a raw output chunk of a session.
type Event struct {
	SessionID string    `json:"sessionId"`
	Type      EventType `json:"type"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
