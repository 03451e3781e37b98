package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"audioscore/internal/analysis"
	"audioscore/internal/config"
	"audioscore/internal/logging"
	"audioscore/internal/services"
)

// UploadField is the multipart form field carrying the audio file.
const UploadField = "audioFile"

// Client-facing error messages. Internal detail stays in the logs.
const (
	msgNoFile    = "No file uploaded"
	msgEmptyFile = "Uploaded file is empty"
	msgTooLarge  = "Uploaded file is too large"
	msgFailed    = "Audio analysis failed"
	msgTimedOut  = "Audio analysis timed out"
)

// Analyzer runs one analysis. *analysis.Pipeline satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, blob analysis.AudioBlob) (analysis.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// Server is the HTTP front end for the analysis pipeline.
type Server struct {
	bind           string
	maxUpload      int64
	analyzer       Analyzer
	logger         *slog.Logger
	metricsHandler http.Handler

	listener net.Listener
	server   *http.Server
}

// New builds a Server bound to cfg.Paths.APIBind.
func New(cfg *config.Config, analyzer Analyzer, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "", "config required", nil)
	}
	if analyzer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "", "analyzer required", nil)
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "server", "", "paths.api_bind is empty", nil)
	}

	srv := &Server{
		bind:      bind,
		maxUpload: cfg.MaxUploadBytes(),
		analyzer:  analyzer,
		logger:    logging.NewComponentLogger(logger, "api-server"),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		// Responses are only written once whisper finishes.
		WriteTimeout: cfg.TranscriptionTimeout() + time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/health", s.handleHealth)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	return mux
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or the configured bind before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	requestID := uuid.NewString()
	ctx := services.WithRequestID(r.Context(), requestID)
	logger := logging.WithContext(ctx, s.logger)
	w.Header().Set("X-Request-ID", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile(UploadField)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("upload rejected", logging.String("reason", "too large"),
				logging.String("limit", humanize.IBytes(uint64(s.maxUpload))))
			s.writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		logger.Debug("upload rejected", logging.Error(err))
		s.writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Warn("upload read failed", logging.Error(err))
		s.writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}

	logger.Info("analysis requested",
		logging.String("filename", header.Filename),
		logging.String("size", humanize.Bytes(uint64(len(data)))),
	)

	result, err := s.analyzer.Analyze(ctx, analysis.AudioBlob{Data: data, Filename: header.Filename})
	if err != nil {
		status, message := errorResponse(err)
		s.writeError(w, status, message)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// errorResponse maps a pipeline failure onto a status code and a message
// safe to show clients.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, msgEmptyFile
	case errors.Is(err, services.ErrTranscriptionTimeout):
		return http.StatusGatewayTimeout, msgTimedOut
	default:
		return http.StatusInternalServerError, msgFailed
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
