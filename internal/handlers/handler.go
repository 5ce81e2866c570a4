package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/BigOtis/Polylogue/internal/cache"
	"github.com/BigOtis/Polylogue/internal/store"
)

// Room name validation: alphanumeric, hyphens, underscores, 1-50 chars
var roomNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// maxMessageBytes caps a single message body.
const maxMessageBytes = 4096

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store  store.MessageStore
	cache  cache.QueryCache
	logger zerolog.Logger
}

// NewHandler creates a new Handler with the given store and cache.
func NewHandler(st store.MessageStore, qc cache.QueryCache, logger zerolog.Logger) *Handler {
	return &Handler{store: st, cache: qc, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
