package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/steprace/backend/internal/hub"
	"github.com/steprace/backend/internal/room"
	"github.com/steprace/backend/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades GET /room/{room} and bridges the connection to the room
// actor: inbound frames become room messages, room broadcasts flow back out.
func Handler(log *zap.Logger, h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomName := chi.URLParam(r, "room")
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		requested := 0
		if v := r.URL.Query().Get("players"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "players must be an integer", http.StatusBadRequest)
				return
			}
			requested = n
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{Name: roomName, Reply: reply}
		rm := <-reply

		// Admit before upgrading so a rejected join stays a plain HTTP error.
		out := make(chan types.Event, 16)
		joinReply := make(chan room.JoinReply, 1)
		rm.Inbox() <- room.Join{Name: name, Requested: requested, Outbox: out, Reply: joinReply}
		jr := <-joinReply
		if jr.Err != nil {
			http.Error(w, jr.Err.Error(), http.StatusConflict)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			rm.Inbox() <- room.Leave{ID: jr.ID}
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		defer func() { rm.Inbox() <- room.Leave{ID: jr.ID} }()

		log.Debug("connection open",
			zap.String("room", roomName), zap.String("player", name))

		// Writer goroutine: drains the outbox until the room closes it. A
		// closed outbox means the room gave up on this client, so force the
		// reader loop to notice by closing the connection.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for ev := range out {
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			conn.Close(websocket.StatusPolicyViolation, "slow consumer")
		}()

		// Reader loop. No read deadline: a player who never chooses simply
		// holds the round open until they disconnect.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return // Leave in the defer
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				continue // malformed frames are dropped silently
			}

			switch cm.Type {
			case "choice":
				rm.Inbox() <- room.Choice{ID: jr.ID, Value: cm.Value}
			case "rematch":
				rm.Inbox() <- room.Rematch{ID: jr.ID}
			}
		}
	}
}
