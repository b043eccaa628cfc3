package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/seojinp/beatduel-backend/internal/match"
	"github.com/seojinp/beatduel-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	MatchID string
	State   match.State
	Reply   chan *room.Room
}

type GetRoom struct {
	MatchID string
	Reply   chan *room.Room
}

type EnsureRoom struct {
	MatchID string
	State   match.State // only used if creation happens
	Reply   chan *room.Room
}

type RemoveRoom struct {
	MatchID string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	store  room.Persister
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, store room.Persister, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		store:  store,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
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
			case CreateRoom:
				if r := h.rooms[msg.MatchID]; r != nil {
					msg.Reply <- r
					break
				}
				r := room.NewRoom(h.ctx, msg.State, h.store, h.log)
				h.rooms[msg.MatchID] = r
				msg.Reply <- r

			case GetRoom:
				msg.Reply <- h.rooms[msg.MatchID] // may be nil

			case EnsureRoom:
				if r := h.rooms[msg.MatchID]; r != nil {
					msg.Reply <- r
					break
				}
				r := room.NewRoom(h.ctx, msg.State, h.store, h.log)
				h.rooms[msg.MatchID] = r
				msg.Reply <- r

			case RemoveRoom:
				delete(h.rooms, msg.MatchID)

			case ShutdownHub:
				for _, r := range h.rooms {
					r.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}
