package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ogulcanaydogan/binwatch/internal/ingest"
	"github.com/ogulcanaydogan/binwatch/pkg/model"
	"github.com/ogulcanaydogan/binwatch/pkg/monitor"
	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

// Server provides the bin, reading and notification API endpoints.
type Server struct {
	storage  storage.Storage
	monitor  *monitor.Monitor
	ingest   *ingest.Handler
	location *time.Location
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer creates an API server. Readings posted to the API wake m.
func NewServer(store storage.Storage, m *monitor.Monitor, loc *time.Location, maxBodySize int64, logger *slog.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		storage:  store,
		monitor:  m,
		ingest:   ingest.NewHandler(store, m, maxBodySize, logger),
		location: loc,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v1/bins", s.handleListBins)
	s.mux.HandleFunc("POST /api/v1/bins", s.handleCreateBin)
	s.mux.HandleFunc("DELETE /api/v1/bins/{id}", s.handleDeleteBin)
	s.mux.HandleFunc("GET /api/v1/readings", s.handleListReadings)
	s.mux.Handle("POST /api/v1/readings", s.ingest)
	s.mux.HandleFunc("GET /api/v1/notifications", s.handleListNotifications)
	s.mux.HandleFunc("DELETE /api/v1/notifications", s.handleResetNotifications)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Status())
}

func (s *Server) handleListBins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	bins, err := s.storage.ListBins(ctx)
	if err != nil {
		s.logger.Error("list bins", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bins == nil {
		bins = []model.Bin{}
	}
	writeJSON(w, http.StatusOK, bins)
}

func (s *Server) handleCreateBin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" {
		writeError(w, http.StatusBadRequest, "name and type are required")
		return
	}

	bin := &model.Bin{Name: req.Name, Type: req.Type, Location: req.Location}
	if err := s.storage.CreateBin(ctx, bin); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "a bin with this name is already registered")
			return
		}
		s.logger.Error("create bin", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("bin registered", "bin", bin.ID, "name", bin.Name)
	writeJSON(w, http.StatusCreated, bin)
}

func (s *Server) handleDeleteBin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := r.PathValue("id")
	if err := s.storage.DeleteBin(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bin not found")
			return
		}
		s.logger.Error("delete bin", "bin", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := model.ReadingFilter{BinID: r.URL.Query().Get("bin")}
	if r.URL.Query().Get("today") == "true" {
		filter.StartTime, filter.EndTime = model.DayBounds(time.Now(), s.location)
	}

	readings, err := s.storage.QueryReadings(ctx, filter)
	if err != nil {
		s.logger.Error("query readings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if readings == nil {
		readings = []model.FillReading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := model.NotificationFilter{UnreadOnly: r.URL.Query().Get("unread") == "true"}
	if r.URL.Query().Get("today") == "true" {
		filter.StartTime, filter.EndTime = model.DayBounds(time.Now(), s.location)
	}

	notifications, err := s.storage.QueryNotifications(ctx, filter)
	if err != nil {
		s.logger.Error("query notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleResetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	deleted, err := s.monitor.ResetNotifications(ctx)
	if errors.Is(err, monitor.ErrNothingToReset) {
		writeError(w, http.StatusNotFound, "no data found to reset")
		return
	}
	if err != nil {
		s.logger.Error("reset notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset the notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
