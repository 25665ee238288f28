// Package server exposes the support chat and the business catalog over
// HTTP.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/m2tx/solarshine/assets"
	"github.com/m2tx/solarshine/internal/catalog"
	"github.com/m2tx/solarshine/internal/chat"
	"github.com/m2tx/solarshine/internal/model"
	"github.com/m2tx/solarshine/internal/repository"
	"golang.org/x/time/rate"
)

const maxMessageBytes = 16 << 10

// RateLimitedReply is shown when visitors send messages faster than the
// chat allows.
const RateLimitedReply = "Too many messages at once. Give the sun a moment ☀️"

type Config struct {
	// AdminToken is the bearer token required by the operator endpoints.
	// Empty hides them.
	AdminToken string
	// RateLimit is the sustained number of chat messages per second accepted
	// across all visitors; RateBurst is the bucket size.
	RateLimit float64
	RateBurst int
}

type Server struct {
	exchanger   *chat.Exchanger
	catalog     *catalog.Catalog
	transcripts repository.TranscriptRepository
	limiter     *rate.Limiter
	logger      *slog.Logger
	adminToken  string
}

func New(cfg Config, exchanger *chat.Exchanger, c *catalog.Catalog, transcripts repository.TranscriptRepository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		exchanger:   exchanger,
		catalog:     c,
		transcripts: transcripts,
		limiter:     rate.NewLimiter(limit, burst),
		logger:      logger,
		adminToken:  cfg.AdminToken,
	}
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/transcripts", s.handleTranscripts)
	mux.HandleFunc("/healthz", s.handleHealth)

	return s.recoverPanics(s.logRequests(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	http.ServeFileFS(w, r, assets.Dir, "chat.html")
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, model.ChatMessage{
			Role:    model.RoleModel,
			Text:    RateLimitedReply,
			IsError: true,
		})
		return
	}

	text := s.exchanger.Exchange(r.Context(), message)

	writeJSON(w, http.StatusOK, model.ChatMessage{
		Role:    model.RoleModel,
		Text:    text,
		IsError: chat.IsFallback(text),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.catalog)
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" {
		http.NotFound(w, r)
		return
	}

	if !s.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="operator"`)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	transcripts, err := s.transcripts.Recent(r.Context(), repository.RecentQuery{
		Limit:      limit,
		FailedOnly: r.URL.Query().Get("failed") == "true",
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "server.transcripts.failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "list transcripts")
		return
	}

	writeJSON(w, http.StatusOK, transcripts)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ok"
	if !s.exchanger.Configured() {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"model":  s.exchanger.Model(),
	})
}

// authorized checks the request's bearer token against the operator token.
func (s *Server) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.adminToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
