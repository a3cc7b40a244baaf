package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/gomoku/internal/app"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// wsMessage is sent to WebSocket clients. Accepted commands are answered by
// the state broadcast that follows them; only rejections get a direct reply.
type wsMessage struct {
	T     string          `json:"t"` // "state" | "error"
	State json.RawMessage `json:"state,omitempty"`
	Error string          `json:"error,omitempty"`
}

// wsCommand is a client command as sent on the wire. Coordinates are
// pointers so a place without them is rejected instead of landing on (0,0).
type wsCommand struct {
	T   app.CommandKind `json:"t"`
	Row *int            `json:"row"`
	Col *int            `json:"col"`
}

func (m wsCommand) command() (app.Command, bool) {
	cmd := app.Command{Kind: m.T}
	if m.T != app.CmdPlace {
		return cmd, true
	}
	if m.Row == nil || m.Col == nil {
		return cmd, false
	}
	cmd.Row, cmd.Col = *m.Row, *m.Col
	return cmd, true
}

const wsWriteTimeout = 5 * time.Second

func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		writeError(w, app.ErrNotFound, nil)
		return
	}
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("ws accept %s: %v", id, err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		_ = c.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer unsub()

	gs, ok := h.svc.Get(id)
	if !ok {
		return
	}
	initial, _ := json.Marshal(gs)
	if err := h.wsWrite(ctx, c, wsMessage{T: "state", State: initial}); err != nil {
		return
	}

	// reader: client commands
	go func() {
		defer cancel()
		for {
			var in wsCommand
			if err := wsjson.Read(ctx, c, &in); err != nil {
				if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
					log.Printf("ws read %s: %v", id, err)
				}
				return
			}
			var (
				gs  *app.GameState
				msg string
			)
			if cmd, ok := in.command(); ok {
				var err error
				if gs, err = h.svc.Dispatch(id, cmd); err == nil {
					continue
				}
				_, msg = errorStatus(err)
			} else {
				gs, _ = h.svc.Get(id)
				msg = "Expected row and col"
			}
			reply := wsMessage{T: "error", Error: msg}
			if gs != nil {
				reply.State, _ = json.Marshal(gs)
			}
			if err := h.wsWrite(ctx, c, reply); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = c.Close(websocket.StatusNormalClosure, "bye")
			return
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		case b, ok := <-ch:
			if !ok {
				_ = c.Close(websocket.StatusTryAgainLater, "too slow")
				return
			}
			if err := h.wsWrite(ctx, c, wsMessage{T: "state", State: b}); err != nil {
				return
			}
		}
	}
}

func (h *handlers) wsWrite(ctx context.Context, c *websocket.Conn, m wsMessage) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, m)
}
