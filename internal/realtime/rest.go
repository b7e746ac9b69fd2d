package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/emacsmirror/easky/internal/protocol"
	"github.com/emacsmirror/easky/internal/session"
)

type startSessionRequest = protocol.SessionStartPayload

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, protocol.ErrorPayload{Code: code, Message: message})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sup.Last()
	if !ok {
		writeError(w, http.StatusNotFound, protocol.ErrNoSession, "no session started")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidMessage, "invalid request body")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidMessage, "command is required")
		return
	}

	sess, err := s.start(req)
	if err != nil {
		code := errorCode(err)
		status := http.StatusInternalServerError
		switch code {
		case protocol.ErrUnknownCommand:
			status = http.StatusNotFound
		case protocol.ErrStartRefused:
			status = http.StatusConflict
		}
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusPreconditionRequired, protocol.ErrConfirmRequired, session.StopPrompt)
		return
	}

	stopped, err := s.sup.Stop(session.ConfirmAlways)
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.ErrSpawnFailed, err.Error())
		return
	}
	if !stopped {
		writeError(w, http.StatusNotFound, protocol.ErrNoSession, "no session is running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.sup.History()
	if id := r.URL.Query().Get("session"); id != "" {
		filtered := events[:0:0]
		for _, e := range events {
			if e.SessionID == id {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events == nil {
		events = []session.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
