package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a server-originated message with the current timestamp.
func NewMessage(msgType string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewErrorMessage creates an error message.
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorPayload{Code: code, Message: message})
}

// Server → Client message types.
const (
	TypeSessionUpdate     = "session.update"
	TypeSessionOutput     = "session.output"
	TypeSessionTimeout    = "session.timeout"
	TypeSessionTerminated = "session.terminated"
	TypeError             = "error"
)

// Client → Server message types.
const (
	TypeSessionStart = "session.start"
	TypeSessionStop  = "session.stop"
)

// Error codes.
const (
	ErrNoSession       = "NO_SESSION"
	ErrInvalidMessage  = "INVALID_MESSAGE"
	ErrUnknownCommand  = "UNKNOWN_COMMAND"
	ErrStartRefused    = "START_REFUSED"
	ErrConfirmRequired = "CONFIRM_REQUIRED"
	ErrSpawnFailed     = "SPAWN_FAILED"
)

// Server → Client payloads.

type SessionUpdatePayload struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CommandLine string `json:"commandLine"`
	WorkDir     string `json:"workDir,omitempty"`
	StartedAt   string `json:"startedAt"`
}

type SessionOutputPayload struct {
	SessionID string `json:"sessionId"`
	Data      string `json:"data"`
}

type SessionTimeoutPayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type SessionTerminatedPayload struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	ExitCode  int    `json:"exitCode"`
	Signal    string `json:"signal,omitempty"`
	Message   string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Client → Server payloads.

// SessionStartPayload names a registered subcommand path such as
// "lint package". A null argument is omitted from the command line.
type SessionStartPayload struct {
	Command string    `json:"command"`
	Args    []*string `json:"args,omitempty"`
	// Replace stops a running session first.
	Replace bool `json:"replace,omitempty"`
}

// SessionStopPayload must carry Confirm to stop the running session.
type SessionStopPayload struct {
	Confirm bool `json:"confirm"`
}
