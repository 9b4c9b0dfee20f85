package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"citabot/internal/core"
	"citabot/internal/db"
	"citabot/pkg"
)

// Server bundles the dependencies the HTTP handlers need.  The chat
// endpoints wrap the core engine; the lookup endpoints expose the same
// collaborator reads the engine uses, for non-conversational clients.
type Server struct {
	Sessions *core.SessionStore
	Engine   *core.Engine
	Repo     *db.Repository
	Logger   *zap.Logger
}

// NewServer constructs a Server.
func NewServer(sessions *core.SessionStore, engine *core.Engine, repo *db.Repository, logger *zap.Logger) *Server {
	return &Server{Sessions: sessions, Engine: engine, Repo: repo, Logger: logger}
}

// Router builds the chi router with recovery, request ids, and CORS.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/sessions", s.handleCreateSession)
	r.Post("/api/sessions/{id}/messages", s.handlePostMessage)
	r.Get("/api/patients/{dni}", s.handleGetPatient)
	r.Get("/api/specialties", s.handleListSpecialties)
	r.Get("/api/appointments/{specialtyID}", s.handleListAppointments)
	return r
}

type messageRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateSession starts a conversation and returns the greeting.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.Sessions.Create()
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": id,
		"reply":      s.Engine.Greeting(),
	})
}

// handlePostMessage runs one conversation turn.  Collaborator failures are
// logged in full and answered with the generic apologetic message; the
// conversation never stalls without feedback.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	reply, err := s.Sessions.Turn(sessionID, func(session *pkg.Session) (string, error) {
		return s.Engine.HandleTurn(r.Context(), session, req.Content)
	})
	if err != nil {
		if errors.Is(err, pkg.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		s.Logger.Error("turn failed",
			zap.String("session_id", sessionID),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		reply = core.MsgSystemError
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Reply: reply})
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	dni := chi.URLParam(r, "dni")
	patient, err := s.Repo.FindByDNI(r.Context(), dni)
	if err != nil {
		if errors.Is(err, pkg.ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		s.internalError(w, r, "patient lookup failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, patient)
}

func (s *Server) handleListSpecialties(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.Repo.ListActive(r.Context())
	if err != nil {
		s.internalError(w, r, "specialty catalog failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	specialtyID, err := strconv.Atoi(chi.URLParam(r, "specialtyID"))
	if err != nil {
		http.Error(w, "invalid specialty id", http.StatusBadRequest)
		return
	}
	slots, err := s.Repo.ListAvailable(r.Context(), specialtyID)
	if err != nil {
		s.internalError(w, r, "availability lookup failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, slots)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.Logger.Error(msg,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
