package catalogue

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds catalogue HTTP handlers.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnknownKind) {
		http.Error(w, `{"error":"unknown kind"}`, http.StatusNotFound)
		return
	}
	h.log.WithError(err).Error("catalogue lookup failed")
	http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
}

// List returns every show of a kind.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	shows, err := h.svc.List(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

// Get returns a single show, or its placeholder.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	show, err := h.svc.Get(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "title"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

// Cover streams a cover image from MinIO.
func (h *Handler) Cover(w http.ResponseWriter, r *http.Request) {
	obj, err := h.svc.Cover(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			h.fail(w, err)
			return
		}
		h.log.WithError(err).Warn("cover unavailable")
		http.Error(w, `{"error":"cover not available"}`, http.StatusNotFound)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.WithError(err).Debug("cover stream interrupted")
	}
}
