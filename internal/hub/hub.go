package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/steprace/backend/internal/game"
	"github.com/steprace/backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type GetRoom struct {
	Name  string
	Reply chan *room.Room
}

// EnsureRoom returns the room for a name, creating it on first use. One
// instance per distinct name for the life of the process.
type EnsureRoom struct {
	Name  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Name string
}

type ShutdownHub struct{}

func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*room.Room
	settings game.Settings
	log      *zap.Logger
	recorder room.Recorder
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, s game.Settings, log *zap.Logger, rec room.Recorder) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*room.Room),
		settings: s,
		log:      log,
		recorder: rec,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetRoom:
				msg.Reply <- h.rooms[msg.Name] // may be nil

			case EnsureRoom:
				if rm := h.rooms[msg.Name]; rm != nil {
					msg.Reply <- rm
					break
				}
				rm := room.New(h.ctx, msg.Name, h.settings, h.log, h.recorder)
				h.rooms[msg.Name] = rm
				h.log.Info("room created", zap.String("room", msg.Name))
				msg.Reply <- rm

			case RemoveRoom:
				if rm := h.rooms[msg.Name]; rm != nil {
					rm.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.Name)
				}

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}
