package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"medcite/internal/domain"
)

const maxRequestBytes = 1 << 20

type indexResponse struct {
	Message string `json:"message"`
	Usage   string `json:"usage"`
}

var banner = indexResponse{
	Message: "medcite RAG service",
	Usage:   `POST /ask with {"query": "..."} to ask a question`,
}

// Answerer answers one question from the indexed corpus.
type Answerer interface {
	Answer(question string) (domain.AnswerBundle, error)
}

// Server exposes an Answerer over HTTP.
type Server struct {
	answerer Answerer
	logger   *log.Logger
	mux      *http.ServeMux
}

type askRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(answerer Answerer, logger *log.Logger) *Server {
	s := &Server{
		answerer: answerer,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /ask", s.handleAsk)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, banner)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.Warn("request body too large", "request_id", requestID, "limit", tooLarge.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		s.logger.Warn("invalid request body", "request_id", requestID, "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	bundle, err := s.answerer.Answer(req.Query)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			s.logger.Warn("rejected question", "request_id", requestID, "err", err)
			writeJSON(w, status, errorResponse{Error: "No query provided"})
			return
		}
		s.logger.Error("answer failed", "request_id", requestID, "kind", domain.KindOf(err), "err", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("answered",
		"request_id", requestID,
		"sources", len(bundle.Sources),
		"passages", len(bundle.RAGContext),
		"duration", time.Since(start),
	)
	writeJSON(w, http.StatusOK, bundle)
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
