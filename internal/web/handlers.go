package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/gomoku/internal/app"
	"github.com/jaminalder/gomoku/internal/domain"
)

type handlers struct {
	svc       *app.Service
	heartbeat time.Duration
}

type errorBody struct {
	Error string         `json:"error"`
	State *app.GameState `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// errorStatus maps a rejected command to a status code and a short message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, "Game not found"
	case errors.Is(err, app.ErrUnknownCommand):
		return http.StatusBadRequest, "Unknown command"
	case errors.Is(err, domain.ErrOutOfBounds):
		return http.StatusUnprocessableEntity, "Out of bounds"
	case errors.Is(err, domain.ErrInvalidSize):
		return http.StatusUnprocessableEntity, "Board too small"
	case errors.Is(err, domain.ErrOccupied):
		return http.StatusConflict, "Cell is occupied"
	case errors.Is(err, domain.ErrGameOver):
		return http.StatusConflict, "Game is over"
	case errors.Is(err, domain.ErrNoHistory):
		return http.StatusConflict, "Nothing to undo"
	case errors.Is(err, domain.ErrResigned):
		return http.StatusConflict, "Game was resigned"
	case errors.Is(err, domain.ErrIllegalMove):
		return http.StatusConflict, "Invalid move"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeError(w http.ResponseWriter, err error, gs *app.GameState) {
	code, msg := errorStatus(err)
	writeJSON(w, code, errorBody{Error: msg, State: gs})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size int `json:"size"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Malformed request"})
			return
		}
	}
	if req.Size != 0 && (req.Size < domain.MinSize || req.Size > domain.MaxSize) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: fmt.Sprintf("Board size must be %d-%d", domain.MinSize, domain.MaxSize)})
		return
	}
	gs, err := h.svc.CreateGame(req.Size)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	w.Header().Set("Location", "/game/"+gs.ID)
	writeJSON(w, http.StatusCreated, gs)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, app.ErrNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *handlers) place(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Row *int `json:"row"`
		Col *int `json:"col"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Row == nil || req.Col == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Expected row and col"})
		return
	}
	h.dispatch(w, r, app.Command{Kind: app.CmdPlace, Row: *req.Row, Col: *req.Col})
}

func (h *handlers) command(kind app.CommandKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.dispatch(w, r, app.Command{Kind: kind})
	}
}

func (h *handlers) dispatch(w http.ResponseWriter, r *http.Request, cmd app.Command) {
	gs, err := h.svc.Dispatch(chi.URLParam(r, "id"), cmd)
	if err != nil {
		writeError(w, err, gs)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		writeError(w, app.ErrNotFound, nil)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// only EventSource clients get a stream; anything else just sees the headers
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	// read after subscribing: a move landing in between is in the snapshot
	// or on ch, never lost
	if gs, ok := h.svc.Get(id); ok {
		if b, err := json.Marshal(gs); err == nil {
			_, _ = fmt.Fprintf(w, "event: state\ndata: %s\n\n", b)
		}
	}
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: state\ndata: %s\n\n", b)
			flusher.Flush()
		}
	}
}
