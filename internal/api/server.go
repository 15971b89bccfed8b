// Package api exposes the engine to the presentation client over HTTP
// JSON. Handlers are thin: decode, call the engine, translate error kinds
// to status codes. No session state lives here.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/s86039924-byte/stress-dost-engine/internal/catalog"
	"github.com/s86039924-byte/stress-dost-engine/internal/meter"
	"github.com/s86039924-byte/stress-dost-engine/internal/personality"
	"github.com/s86039924-byte/stress-dost-engine/internal/questions"
	"github.com/s86039924-byte/stress-dost-engine/internal/session"
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #region server

// Server routes presentation-client requests to the engine.
type Server struct {
	engine *session.Engine
	bank   questions.Bank // may be nil when no question bank is configured
	mux    *http.ServeMux
}

// NewServer wires the routes.
func NewServer(engine *session.Engine, bank questions.Bank) *Server {
	s := &Server{engine: engine, bank: bank, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /api/session", s.handleStartSession)
	s.mux.HandleFunc("GET /api/session/{id}", s.handleGetSession)
	s.mux.HandleFunc("POST /api/session/end", s.handleEndSession)
	s.mux.HandleFunc("GET /api/personality/questions", s.handlePersonalityQuestions)
	s.mux.HandleFunc("POST /api/personality/submit", s.handleSubmitPersonality)
	s.mux.HandleFunc("POST /api/trigger", s.handleRequestTrigger)
	s.mux.HandleFunc("POST /api/trigger/response", s.handleSubmitResponse)
	s.mux.HandleFunc("POST /api/check-answer", s.handleCheckAnswer)
	s.mux.HandleFunc("GET /api/healthz", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// #endregion

// #region shapes

type startSessionRequest struct {
	UserID             string `json:"user_id"`
	TotalQuestions     int    `json:"total_questions"`
	IncludePersonality bool   `json:"include_personality_questions"`
}

type startSessionResponse struct {
	SessionID   string                 `json:"session_id"`
	Session     session.Snapshot       `json:"session_snapshot"`
	NextStep    string                 `json:"next_step"`
	Personality []personality.Question `json:"personality_assessment,omitempty"`
}

type submitPersonalityRequest struct {
	SessionID string               `json:"session_id"`
	Answers   []personality.Answer `json:"answers"`
}

type requestTriggerRequest struct {
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
	Label         string `json:"label"`
}

type submitResponseRequest struct {
	SessionID string           `json:"session_id"`
	Trigger   trigger.Trigger  `json:"trigger"`
	Response  trigger.Response `json:"response"`
}

type sessionIDRequest struct {
	SessionID string `json:"session_id"`
}

type checkAnswerRequest struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

type pendingPersonalityResponse struct {
	Status  string           `json:"status"`
	Session session.Snapshot `json:"session_snapshot"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// #endregion

// #region handlers

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !readJSON(w, r, &req) {
		return
	}

	snap, err := s.engine.Start(req.UserID, req.TotalQuestions, req.IncludePersonality)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := startSessionResponse{
		SessionID: snap.SessionID,
		Session:   snap,
		NextStep:  "request_trigger",
	}
	if snap.State == session.StateAwaitingPersonality {
		resp.NextStep = "personality_assessment"
		resp.Personality = s.engine.PersonalityQuestions()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	history, err := s.engine.History(snap.SessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Session session.Snapshot `json:"session_snapshot"`
		History []trigger.Record `json:"history_summary"`
	}{snap, history})
}

func (s *Server) handlePersonalityQuestions(w http.ResponseWriter, _ *http.Request) {
	qs := s.engine.PersonalityQuestions()
	if qs == nil {
		qs = []personality.Question{}
	}
	writeJSON(w, http.StatusOK, struct {
		Questions []personality.Question `json:"questions"`
	}{qs})
}

func (s *Server) handleSubmitPersonality(w http.ResponseWriter, r *http.Request) {
	var req submitPersonalityRequest
	if !readJSON(w, r, &req) {
		return
	}
	snap, err := s.engine.SubmitPersonality(req.SessionID, req.Answers)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Session session.Snapshot `json:"session_snapshot"`
	}{snap})
}

func (s *Server) handleRequestTrigger(w http.ResponseWriter, r *http.Request) {
	var req requestTriggerRequest
	if !readJSON(w, r, &req) {
		return
	}

	label := trigger.Category(req.Label)
	if !label.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("unknown category label %q", req.Label),
			Kind:  "invalid_label",
		})
		return
	}

	offer, err := s.engine.RequestTrigger(r.Context(), req.SessionID, req.QuestionIndex, label)
	if errors.Is(err, session.ErrPendingPersonality) {
		// Not a failure: the client is told what to do next.
		snap, getErr := s.engine.Get(req.SessionID)
		if getErr != nil {
			s.writeError(w, getErr)
			return
		}
		writeJSON(w, http.StatusOK, pendingPersonalityResponse{
			Status:  "pending_personality",
			Session: snap,
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req submitResponseRequest
	if !readJSON(w, r, &req) {
		return
	}
	snap, err := s.engine.SubmitResponse(req.SessionID, req.Trigger, req.Response)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Session session.Snapshot `json:"session_snapshot"`
	}{snap})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req sessionIDRequest
	if !readJSON(w, r, &req) {
		return
	}
	report, err := s.engine.End(req.SessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Report session.Report `json:"final_report"`
	}{report})
}

func (s *Server) handleCheckAnswer(w http.ResponseWriter, r *http.Request) {
	if s.bank == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: "no question bank configured",
			Kind:  "question_not_found",
		})
		return
	}
	var req checkAnswerRequest
	if !readJSON(w, r, &req) {
		return
	}
	correct, err := s.bank.Check(req.QuestionID, req.Answer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Correct bool `json:"correct"`
	}{correct})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// #endregion

// #region errors

// writeError translates engine error kinds to HTTP statuses. The kind is
// always named in the payload so clients can branch without string
// matching on messages.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	var kind string

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status, kind = http.StatusNotFound, "session_not_found"
	case errors.Is(err, questions.ErrQuestionNotFound):
		status, kind = http.StatusNotFound, "question_not_found"
	case errors.Is(err, session.ErrSessionClosed):
		status, kind = http.StatusConflict, "session_closed"
	case errors.Is(err, session.ErrTriggerMismatch):
		status, kind = http.StatusConflict, "trigger_mismatch"
	case errors.Is(err, session.ErrAlreadyFinalized):
		status, kind = http.StatusConflict, "already_finalized"
	case errors.Is(err, session.ErrRequestInFlight):
		status, kind = http.StatusConflict, "request_in_flight"
	case errors.Is(err, session.ErrPendingPersonality):
		status, kind = http.StatusBadRequest, "pending_personality"
	case errors.Is(err, meter.ErrInvalidOption):
		status, kind = http.StatusBadRequest, "invalid_option"
	case errors.Is(err, session.ErrUserRequired):
		status, kind = http.StatusBadRequest, "user_required"
	case errors.Is(err, catalog.ErrCategoryEmpty):
		status, kind = http.StatusInternalServerError, "category_empty"
		log.Printf("[API] catalog misconfiguration surfaced: %v", err)
	default:
		status, kind = http.StatusBadRequest, "bad_request"
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

// #endregion

// #region json

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("invalid JSON: %v", err),
			Kind:  "bad_request",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encoding response: %v", err)
	}
}

// #endregion
