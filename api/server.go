package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/padlink/padlink/session"
	"github.com/padlink/padlink/transport/websocket"
)

// Server represents the REST API server.
type Server struct {
	registry    *session.Registry
	hub         *websocket.Hub
	router      *mux.Router
	displayPort int
	logger      zerolog.Logger
}

// Config carries the server's dependencies.
type Config struct {
	Registry *session.Registry
	Hub      *websocket.Hub
	// DisplayPort is where the desktop display client is reachable,
	// independent of the relay's own listening port.
	DisplayPort int
	Logger      *zerolog.Logger
}

// CreateSessionResponse is the body returned by POST /api/session.
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		registry:    cfg.Registry,
		hub:         cfg.Hub,
		router:      mux.NewRouter(),
		displayPort: cfg.DisplayPort,
		logger:      cfg.Logger.With().Str("component", "api-server").Logger(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/session", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler. Every response is CORS-open because
// both clients run on other origins (the display app and the phone).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.registry.Create()

	s.logger.Info().Str("sessionID", sess.ID).Msg("session created")

	respondJSON(w, http.StatusOK, CreateSessionResponse{
		SessionID: sess.ID,
		IP:        session.LocalIP(),
		Port:      s.displayPort,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.registry.List()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, sess)
}

// WebSocket handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// No session check here: clients bind to a session with their join
	// event, and unknown session IDs are accepted at that layer too.
	s.hub.ServeWS(w, r)
}

// Health check

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
