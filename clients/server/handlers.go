// handlers.go — Event, flyer, QR and artifact endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/xob0t/eventdp/pkg/compose"
	"github.com/xob0t/eventdp/pkg/event"
	"github.com/xob0t/eventdp/pkg/store"
)

const (
	maxEventBody  = 1 << 20
	maxFlyerBytes = 20 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.events.Ping(ctx); err != nil {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "event store unavailable",
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "eventdp"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit, err := queryInt(r, "limit")
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}

	events, err := s.events.List(ctx, limit, offset)
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	e, err := s.events.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var e event.Event
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBody)).Decode(&e); err != nil {
		s.respondWithFailure(w, fmt.Errorf("decode event: %w: %w", compose.ErrValidation, err))
		return
	}
	e.ID = ""
	e.FlyerURL = ""
	e.OrganizerID = organizerID(r.Context())
	e.CreatedAt = time.Time{}

	if err := event.Validate(&e); err != nil {
		s.respondWithFailure(w, err)
		return
	}
	if err := s.events.Create(ctx, &e); err != nil {
		s.respondWithFailure(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUploadFlyer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]
	e, err := s.events.Get(ctx, id)
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	if e.OrganizerID != organizerID(r.Context()) {
		respondWithError(w, http.StatusForbidden, "only the event organizer can change the flyer")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFlyerBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		s.respondWithFailure(w, fmt.Errorf("flyer upload: %w: %w", compose.ErrValidation, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondWithFailure(w, fmt.Errorf("read flyer: %w: %w", compose.ErrValidation, err))
		return
	}
	if err := s.flyers.Save(id, data); err != nil {
		s.respondWithFailure(w, fmt.Errorf("%w: %w", compose.ErrImageLoad, err))
		return
	}

	url := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/api/v1/events/" + id + "/flyer"
	if err := s.events.SetFlyerURL(ctx, id, url); err != nil {
		s.respondWithFailure(w, err)
		return
	}
	e.FlyerURL = url
	respondWithJSON(w, http.StatusOK, e)
}

func (s *Server) handleGetFlyer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	size := r.URL.Query().Get("size")
	switch size {
	case "", store.SizeFull, store.SizeThumb, store.SizeMedium:
	default:
		s.respondWithFailure(w, fmt.Errorf("size %q: %w", size, compose.ErrValidation))
		return
	}

	data, err := s.flyers.Variant(id, size)
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(data)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]
	if _, err := s.events.Get(ctx, id); err != nil {
		s.respondWithFailure(w, err)
		return
	}

	pngBytes, err := qrcode.Encode(s.shareURL(id), qrcode.Medium, 256)
	if err != nil {
		s.respondWithFailure(w, fmt.Errorf("encode QR: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(pngBytes)
}

// shareURL is the public page attendees open to make their DP.
func (s *Server) shareURL(eventID string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/events/" + eventID
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		s.respondWithFailure(w, fmt.Errorf("artifact storage: %w", compose.ErrCapabilityUnavailable))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	data, mime, err := s.artifacts.Open(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Write(data)
}

// ── Helpers ──

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", key, compose.ErrValidation)
	}
	return n, nil
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithFailure maps err to a status code and writes {"error","kind"}.
func (s *Server) respondWithFailure(w http.ResponseWriter, err error) {
	kind := compose.KindOf(err)
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code, kind = http.StatusNotFound, "not_found"
	case kind == compose.KindValidation:
		code = http.StatusBadRequest
	case kind == compose.KindImageLoad:
		code = http.StatusUnprocessableEntity
	case kind == compose.KindCapabilityUnavailable:
		code = http.StatusConflict
	case kind == compose.KindStale:
		code = http.StatusConflict
	}
	if kind == "" {
		kind = "internal"
	}
	if code >= 500 {
		s.log.Error("request failed", "kind", kind, "error", err)
	}
	respondWithJSON(w, code, map[string]string{"error": err.Error(), "kind": kind})
}
