package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/skillmatch-auth/internal/domain"
	"github.com/msomdec/skillmatch-auth/internal/service"
)

// StorageHandler serves stored profile photos.
type StorageHandler struct {
	auth *service.AuthService
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(auth *service.AuthService) *StorageHandler {
	return &StorageHandler{auth: auth}
}

// HandlePhoto streams a stored file.
// GET /storage/{key...}
func (h *StorageHandler) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" || strings.Contains(key, "..") {
		writeEnvelope(w, http.StatusNotFound, "File not found", nil)
		return
	}

	data, contentType, err := h.auth.Photo(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeEnvelope(w, http.StatusNotFound, "File not found", nil)
			return
		}
		slog.ErrorContext(r.Context(), "get photo", "key", key, "error", err)
		writeEnvelope(w, http.StatusInternalServerError, msgInternal, nil)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
