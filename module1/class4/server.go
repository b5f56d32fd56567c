package main

import (
	"encoding/json"
	"net/http"

	"github.com/Rafi99769/ai-agent-development-course/log"
)

// Server exposes the chat agent over HTTP.
type Server struct {
	cfg   Config
	agent *ChatAgent
}

// NewServer creates the HTTP server around an agent.
func NewServer(cfg Config, agent *ChatAgent) *Server {
	return &Server{cfg: cfg, agent: agent}
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the POST /chat reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/agent/info", s.handleAgentInfo)
	mux.HandleFunc("/agent/history", s.handleAgentHistory)
	mux.HandleFunc("/agent/clear-history", s.handleClearHistory)
	return mux
}

// Start runs the server until it fails.
func (s *Server) Start() error {
	addr := s.cfg.Host + ":" + s.cfg.Port
	log.Info("Starting chat agent server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sendJSONResponse(w, map[string]any{
		"message": "Chat Agent API is running!",
		"version": "0.1.0",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, map[string]any{
		"status":  "healthy",
		"message": "Chat Agent API is running",
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		sendJSONError(w, "message is required", http.StatusBadRequest)
		return
	}

	log.Debug("chat request: %s", req.Message)
	response, err := s.agent.GenerateResponse(r.Context(), req.Message)
	if err != nil {
		log.Error("chat failed: %v", err)
		sendJSONError(w, "Error generating response: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sendJSONResponse(w, ChatResponse{Response: response})
}

func (s *Server) handleAgentInfo(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, s.agent.Info())
}

func (s *Server) handleAgentHistory(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, map[string]any{
		"history": s.agent.History(),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.agent.ClearHistory()
	sendJSONResponse(w, map[string]any{
		"message": "Conversation history cleared",
	})
}

// sendJSONResponse sends a JSON response.
func sendJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// sendJSONError sends a JSON error response.
func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": message,
	})
}
