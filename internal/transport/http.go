package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/luminacoach/sessionsync/internal/api"
	"github.com/luminacoach/sessionsync/internal/domain/feedback"
	"github.com/luminacoach/sessionsync/internal/domain/session"
)

// Server wires HTTP handlers for the session store API.
type Server struct {
	sessions *session.Service
	feedback *feedback.Service
	logger   *slog.Logger
}

// NewServer creates an HTTP router with middleware. All session endpoints are
// JSON POST and require an authenticated owner.
func NewServer(sessions *session.Service, fb *feedback.Service, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{sessions: sessions, feedback: fb, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", srv.handleHealth)

	r.Route("/api/sessions", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/check", srv.handleCheck)
		r.Post("/register", srv.handleRegister)
		r.Post("/update", srv.handleUpdate)
		r.Post("/list", srv.handleList)
		r.Post("/feedback", srv.handleFeedback)
		r.Post("/feedback/list", srv.handleFeedbackList)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner", http.StatusUnauthorized)
		return
	}

	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.CheckResponse{Error: "invalid request body"})
		return
	}

	exists, err := s.sessions.Check(r.Context(), ownerID, req.ProjectID, req.VoiceflowUserID)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, api.CheckResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, api.CheckResponse{Exists: exists})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner", http.StatusUnauthorized)
		return
	}

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.GenericResponse{Error: "invalid request body"})
		return
	}

	result, err := s.sessions.Register(r.Context(), ownerID, session.RegisterRequest{
		ProjectID:  req.ProjectID,
		Value:      req.SessionData.LastTurn,
		Provenance: session.Provenance(req.SessionData.Source),
		Name:       req.SessionName,
	})
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, api.GenericResponse{Error: msg})
		return
	}

	if !result.Created {
		s.logger.Debug("register raced an existing record",
			"owner_id", ownerID,
			"project_id", req.ProjectID)
	}
	writeJSON(w, http.StatusOK, api.GenericResponse{Success: true})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner", http.StatusUnauthorized)
		return
	}

	var req api.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.GenericResponse{Error: "invalid request body"})
		return
	}

	err := s.sessions.Update(r.Context(), ownerID, session.UpdateRequest{
		ProjectID:  req.ProjectID,
		Value:      req.SessionData.LastTurn,
		Provenance: session.Provenance(req.SessionData.Source),
	})
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, api.GenericResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, api.GenericResponse{Success: true})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner", http.StatusUnauthorized)
		return
	}

	records, err := s.sessions.List(r.Context(), ownerID)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, api.ListResponse{Error: msg})
		return
	}

	sessions := make(map[string]api.SessionRecord, len(records))
	for id, rec := range records {
		sessions[id] = api.RecordFromDomain(rec)
	}
	writeJSON(w, http.StatusOK, api.ListResponse{Sessions: sessions})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner", http.StatusUnauthorized)
		return
	}

	var req api.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.GenericResponse{Error: "invalid request body"})
		return
	}

	_, err := s.feedback.Submit(r.Context(), ownerID, req.SessionID, feedback.Rating(req.Rating), req.Comment)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, api.GenericResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, api.GenericResponse{Success: true})
}

func (s *Server) handleFeedbackList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner", http.StatusUnauthorized)
		return
	}

	var req api.FeedbackListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.FeedbackListResponse{Error: "invalid request body"})
		return
	}

	entries, err := s.feedback.ListBySession(r.Context(), ownerID, req.SessionID)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, api.FeedbackListResponse{Error: msg})
		return
	}

	out := make([]api.FeedbackEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, api.FeedbackFromDomain(entry))
	}
	writeJSON(w, http.StatusOK, api.FeedbackListResponse{Feedback: out})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, session.ErrNoConversation),
		errors.Is(err, feedback.ErrInvalidInput),
		errors.Is(err, feedback.ErrInvalidRating):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
