// Package server is the thin inbound HTTP surface: one submit operation, a
// health probe, and an optional shared-password check. Page rendering and
// sessions live elsewhere; this surface speaks JSON only.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrlearner1606/memory-bot/internal/bot"
)

// Submitter is the pipeline behind the surface.
type Submitter interface {
	Submit(ctx context.Context, raw string) bot.Result
}

type Server struct {
	bot      Submitter
	password string
	log      zerolog.Logger
	srv      *http.Server
}

func New(addr string, b Submitter, password string, log zerolog.Logger) *Server {
	s := &Server{bot: b, password: password, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("listening")
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type askRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	log := s.log.With().Str("request_id", reqID).Logger()

	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, bot.Result{Status: bot.StatusFailed, Message: "unauthorized"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bot.Result{Status: bot.StatusFailed, Message: "body must be JSON with a query field"})
		return
	}

	start := time.Now()
	result := s.bot.Submit(r.Context(), req.Query)
	log.Info().Str("status", string(result.Status)).Dur("elapsed", time.Since(start)).Msg("submit handled")

	code := http.StatusOK
	if result.Status == bot.StatusFailed {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorized checks the shared password as a bearer token. Constant-time to
// keep the single credential unguessable through timing.
func (s *Server) authorized(r *http.Request) bool {
	if s.password == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.password)) == 1
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
