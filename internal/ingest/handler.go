package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

// Trigger wakes a consumer that should re-read stored readings.
type Trigger interface {
	Trigger()
}

// Handler accepts fill-level telemetry over HTTP and stores it.
type Handler struct {
	storage     storage.Storage
	trigger     Trigger
	maxBodySize int64
	logger      *slog.Logger
}

// NewHandler creates an ingest handler. trigger may be nil.
func NewHandler(store storage.Storage, trigger Trigger, maxBodySize int64, logger *slog.Logger) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &Handler{
		storage:     store,
		trigger:     trigger,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// ServeHTTP handles POSTed readings. The batch is stored atomically and
// readings whose ID is already stored are accepted without change.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	format := DetectFormat(r.Header.Get("Content-Type"), body)
	readings, err := ExtractReadings(body, format)
	if err != nil {
		h.logger.Warn("rejected telemetry", "format", format, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inserted, err := h.storage.RecordReadings(r.Context(), readings)
	if err != nil {
		h.logger.Error("store readings", "count", len(readings), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Debug("telemetry ingested",
		"format", format,
		"count", len(readings),
		"new", inserted,
	)

	if inserted > 0 && h.trigger != nil {
		h.trigger.Trigger()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(readings)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
