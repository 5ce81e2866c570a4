package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BigOtis/Polylogue/internal/cache"
	"github.com/BigOtis/Polylogue/internal/metrics"
	"github.com/BigOtis/Polylogue/internal/models"
	"github.com/BigOtis/Polylogue/internal/store"
)

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// PostMessageResponse represents the post message response.
type PostMessageResponse struct {
	Status string `json:"status"`
	Seq    int64  `json:"seq"`
}

// ListRooms handles GET /rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListRooms(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("room listing failed")
		h.Error(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	if rooms == nil {
		rooms = []string{}
	}
	h.JSON(w, http.StatusOK, rooms)
}

// GetMessages handles GET /rooms/{room}/messages.
// Results are served through the query cache: a hit is returned as-is, a
// miss is fetched from the store and cached under the normalized query key.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if !roomNameRegex.MatchString(room) {
		h.Error(w, http.StatusBadRequest, "room must be 1-50 characters, alphanumeric with hyphens and underscores only")
		return
	}

	limit := store.DefaultQueryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > store.MaxQueryLimit {
		limit = store.MaxQueryLimit
	}

	var sinceSeq int64
	if sinceStr := r.URL.Query().Get("since_seq"); sinceStr != "" {
		if s, err := strconv.ParseInt(sinceStr, 10, 64); err == nil && s > 0 {
			sinceSeq = s
		}
	}

	key := cache.Key(limit, sinceSeq)
	if msgs, ok := h.cache.Lookup(r.Context(), room, key); ok {
		metrics.CacheHits.Inc()
		h.JSON(w, http.StatusOK, msgs)
		return
	}
	metrics.CacheMisses.Inc()

	// Captured before the store read. A write that invalidates the room
	// while the query is in flight advances the generation, so the snapshot
	// below is recognized as pre-write and never cached.
	gen := h.cache.Generation(r.Context(), room)

	msgs, err := h.store.RoomMessages(r.Context(), room, limit, sinceSeq)
	if err != nil {
		h.logger.Error().Err(err).Str("room", room).Msg("message query failed")
		h.Error(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	h.cache.Store(r.Context(), room, key, gen, msgs)
	h.JSON(w, http.StatusOK, msgs)
}

// PostMessage handles POST /rooms/{room}/messages. Rooms are implicit:
// the first write to a name creates it. The cache is invalidated only after
// the append has durably succeeded.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if !roomNameRegex.MatchString(room) {
		h.Error(w, http.StatusBadRequest, "room must be 1-50 characters, alphanumeric with hyphens and underscores only")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Message == "" {
		h.Error(w, http.StatusBadRequest, "name and message are required")
		return
	}
	if len(req.Message) > maxMessageBytes {
		h.Error(w, http.StatusUnprocessableEntity, "message too long (max 4096 bytes)")
		return
	}

	msg, err := h.store.Append(r.Context(), room, req.Name, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Str("room", room).Msg("message append failed")
		h.Error(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	h.cache.InvalidateRoom(r.Context(), room)
	metrics.CacheInvalidations.Inc()
	metrics.MessagesPosted.WithLabelValues(room).Inc()

	h.JSON(w, http.StatusCreated, PostMessageResponse{Status: "ok", Seq: msg.Seq})
}
