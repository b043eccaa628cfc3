// Package room hosts one live match. A room is an actor: a single goroutine
// owns the match state and everything else talks to it through its inbox,
// which also serializes ban writes per match.
package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/seojinp/beatduel-backend/internal/judge"
	"github.com/seojinp/beatduel-backend/internal/match"
)

type Msg interface{ isRoomMsg() }

type Join struct {
	ClientID string
	PlayerID string
	Outbox   chan Outbound
}

type Leave struct{ ClientID string }

// FromClient carries a match command from one connected client.
type FromClient struct {
	ClientID string
	Cmd      match.Command
	Reply    chan ApplyResult // optional; HTTP callers want the outcome
}

// Progress is an advisory scoreboard update for the opponent's live view.
// It settles nothing and may be dropped freely.
type Progress struct {
	ClientID string
	PlayerID string
	Game     judge.GameState
}

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Join) isRoomMsg()       {}
func (Leave) isRoomMsg()      {}
func (FromClient) isRoomMsg() {}
func (Progress) isRoomMsg()   {}
func (GetState) isRoomMsg()   {}
func (Shutdown) isRoomMsg()   {}

type ApplyResult struct {
	Events []match.Event
	State  match.State
	Err    error
}

// Outbound is what a client connection receives from its room.
type Outbound interface{ isOutbound() }

type Snapshot struct {
	Version int
	State   match.State
	Events  []match.Event
}

type PeerProgress struct {
	PlayerID string
	Game     judge.GameState
}

type CommandError struct{ Err error }

func (Snapshot) isOutbound()     {}
func (PeerProgress) isOutbound() {}
func (CommandError) isOutbound() {}

type View struct {
	Version    int
	NumClients int
	State      match.State
}

// Persister receives the durable side of room events. A nil Persister keeps
// the room fully in-memory (tests).
type Persister interface {
	RecordBan(matchID string, entryID int, playerID string) error
	RecordSubmission(matchID string, round int, sub match.Submission) error
	SyncMatch(st match.State) error
}

type Room struct {
	inbox   chan Msg
	state   match.State
	version int
	clients map[string]chan Outbound
	store   Persister
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRoom(parent context.Context, initial match.State, store Persister, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	r := &Room{
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan Outbound),
		store:   store,
		log:     log.With(zap.String("match_id", initial.ID)),
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: r.version, State: r.state}

			case Leave:
				// Closing the outbox releases the connection's writer
				// goroutine. Slow-dropped clients are already gone here.
				if out, ok := r.clients[msg.ClientID]; ok {
					close(out)
					delete(r.clients, msg.ClientID)
				}

			case FromClient:
				events, newState, err := match.Apply(r.state, msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- ApplyResult{Events: events, State: newState, Err: err}
				}
				if err != nil {
					// Rejected actions go back to the actor only.
					if out, ok := r.clients[msg.ClientID]; ok {
						r.send(msg.ClientID, out, CommandError{Err: err})
					}
					break
				}
				r.persist(events, newState)
				r.state = newState
				r.version++
				r.broadcast(Snapshot{Version: r.version, State: r.state, Events: events})

			case Progress:
				for id, out := range r.clients {
					if id == msg.ClientID {
						continue
					}
					// Advisory: drop the update, keep the client.
					select {
					case out <- PeerProgress{PlayerID: msg.PlayerID, Game: msg.Game}:
					default:
					}
				}

			case GetState:
				msg.Reply <- View{Version: r.version, NumClients: len(r.clients), State: r.state}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// persist writes the durable consequences of applied events. Failures are
// logged, not fatal: the actor state is authoritative for the live match and
// reconciliation happens on refetch.
func (r *Room) persist(events []match.Event, st match.State) {
	if r.store == nil {
		return
	}
	for _, e := range events {
		switch e.Type {
		case match.EvtEntryBanned:
			if err := r.store.RecordBan(st.ID, e.EntryID, e.PlayerID); err != nil {
				r.log.Error("record ban", zap.Int("entry_id", e.EntryID), zap.Error(err))
			}
		case match.EvtRoundSubmitted:
			if sub, ok := st.Submissions[e.PlayerID]; ok {
				if err := r.store.RecordSubmission(st.ID, e.Round, sub); err != nil {
					r.log.Error("record submission", zap.String("player_id", e.PlayerID), zap.Error(err))
				}
			}
		}
	}
	if err := r.store.SyncMatch(st); err != nil {
		r.log.Error("sync match", zap.Error(err))
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) broadcast(out Outbound) {
	for id, ch := range r.clients {
		r.send(id, ch, out)
	}
}

// send drops clients that cannot keep up with authoritative traffic.
func (r *Room) send(id string, ch chan Outbound, out Outbound) {
	select {
	case ch <- out:
	default:
		close(ch)
		delete(r.clients, id)
	}
}
