package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/OmprakashShyamalan/QueryBench/evaluator"
	"github.com/OmprakashShyamalan/QueryBench/internal/rand"
)

// evaluateRequest is the wire shape of one submission.
type evaluateRequest struct {
	UserID         string `json:"user_id"`
	QuestionID     string `json:"question_id"`
	ParticipantSQL string `json:"participant_sql"`
	SolutionSQL    string `json:"solution_sql"`
	ForcePrimary   bool   `json:"force_primary,omitempty"`
}

type evaluateHandler struct {
	ev     *evaluator.Evaluator
	logger *slog.Logger
}

func newEvaluateHandler(ev *evaluator.Evaluator, logger *slog.Logger) *evaluateHandler {
	return &evaluateHandler{ev: ev, logger: logger}
}

func (h *evaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ParticipantSQL == "" || req.SolutionSQL == "" {
		http.Error(w, "user_id, participant_sql and solution_sql are required", http.StatusBadRequest)
		return
	}

	requestID := rand.AlphanumString(12)
	h.logger.Info("evaluate request", "request", requestID, "user", req.UserID, "question", req.QuestionID)

	verdict := h.ev.Evaluate(r.Context(), evaluator.Submission{
		UserID:         req.UserID,
		QuestionID:     req.QuestionID,
		ParticipantSQL: req.ParticipantSQL,
		SolutionSQL:    req.SolutionSQL,
		Target:         evaluator.Target{ForcePrimary: req.ForcePrimary},
	})
	writeJSON(w, verdict)
}

type schemaHandler struct {
	ev *evaluator.Evaluator
}

func newSchemaHandler(ev *evaluator.Evaluator) *schemaHandler { return &schemaHandler{ev: ev} }

// ServeHTTP returns the schema snapshot of the primary target. Schema
// inspection always pins the primary: the snapshot backs the authoring
// surface and must reflect the source of truth.
func (h *schemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.ev.InspectSchema(r.Context(), evaluator.Target{ForcePrimary: true}))
}

type healthHandler struct {
	ev *evaluator.Evaluator
}

func newHealthHandler(ev *evaluator.Evaluator) *healthHandler { return &healthHandler{ev: ev} }

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats := h.ev.Stats()
	writeJSON(w, struct {
		Status   string          `json:"status"`
		Replicas map[string]bool `json:"replicas"`
		InFlight int             `json:"in_flight_queries"`
	}{
		Status:   "ok",
		Replicas: h.ev.ReplicaHealth(),
		InFlight: stats.InFlightQueries,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("write response", "error", err)
	}
}
