package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/seojinp/beatduel-backend/internal/hub"
	"github.com/seojinp/beatduel-backend/internal/judge"
	"github.com/seojinp/beatduel-backend/internal/match"
	"github.com/seojinp/beatduel-backend/internal/room"
	"github.com/seojinp/beatduel-backend/pkg/types"
)

// Clients are kept alive with server pings rather than an idle read deadline:
// a player in ban-pick legitimately sends nothing while the opponent decides.
var pingInterval = 30 * time.Second

const pingTimeout = 10 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("match_id")
		playerID := r.URL.Query().Get("player_id")
		if matchID == "" || playerID == "" {
			http.Error(w, "missing match_id or player_id", http.StatusBadRequest)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{MatchID: matchID, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan room.Outbound, 16)
		clientID := randID(6)

		rm.Inbox() <- room.Join{ClientID: clientID, PlayerID: playerID, Outbox: out}
		defer func() { rm.Inbox() <- room.Leave{ClientID: clientID} }()

		// Writer goroutine: outbound room traffic -> wire messages.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for o := range out {
				for _, msg := range translate(o, playerID) {
					payload, err := json.Marshal(msg)
					if err != nil {
						log.Error("marshal server message", zap.Error(err))
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		// Pinger: a failed ping closes the connection, which unblocks the
		// reader below.
		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-writeCtx.Done():
					return
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(writeCtx, pingTimeout)
					err := conn.Ping(ctx)
					cancel()
					if err != nil {
						conn.Close(websocket.StatusPolicyViolation, "ping timeout")
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}
			if !dispatch(rm, clientID, playerID, cm) {
				writeError(r.Context(), conn, "unknown message type")
			}
		}
	}
}

// dispatch routes one client message into the room. Only the closed message
// set is accepted.
func dispatch(rm *room.Room, clientID, playerID string, cm types.ClientMessage) bool {
	switch cm.Type {
	case types.MsgJoinMatch:
		// Joining happened at connect time; tolerated for older clients.
		return true

	case types.MsgBanSong:
		rm.Inbox() <- room.FromClient{ClientID: clientID, Cmd: match.Command{
			Type:     match.CmdBanEntry,
			PlayerID: playerID,
			EntryID:  cm.EntryID,
		}}
		return true

	case types.MsgGameProgress:
		game := judge.GameState{Score: cm.Score, Combo: cm.Combo, MaxCombo: cm.MaxCombo}
		if cm.Judgments != nil {
			game.Judgments = types.ToCounts(*cm.Judgments)
		}
		rm.Inbox() <- room.Progress{ClientID: clientID, PlayerID: playerID, Game: game}
		return true

	case types.MsgRoundComplete:
		sub := match.Submission{Score: cm.Score, MaxCombo: cm.MaxCombo}
		if cm.Judgments != nil {
			sub.Judgments = types.ToCounts(*cm.Judgments)
		}
		rm.Inbox() <- room.FromClient{ClientID: clientID, Cmd: match.Command{
			Type:       match.CmdSubmitRound,
			PlayerID:   playerID,
			Submission: sub,
		}}
		return true

	default:
		return false
	}
}

// translate turns one room outbound into the wire messages this client should
// see. A snapshot fans out into named notifications first (ban-updated,
// game-started, ...) and the versioned snapshot last.
func translate(o room.Outbound, playerID string) []types.ServerMessage {
	switch out := o.(type) {
	case room.Snapshot:
		var msgs []types.ServerMessage
		for _, e := range out.Events {
			switch e.Type {
			case match.EvtEntryBanned:
				msgs = append(msgs, types.ServerMessage{
					Type: types.MsgBanUpdated, V: types.ProtocolVersion,
					Round: e.Round, EntryID: e.EntryID,
				})
			case match.EvtRoundStarted:
				msgs = append(msgs, types.ServerMessage{
					Type: types.MsgGameStarted, V: types.ProtocolVersion,
					Round: e.Round, EntryID: e.EntryID,
				})
			case match.EvtRoundSubmitted:
				if e.PlayerID != playerID {
					msgs = append(msgs, types.ServerMessage{
						Type: types.MsgOpponentRoundComplete, V: types.ProtocolVersion,
						Round: e.Round,
					})
				}
			case match.EvtRoundFinalized:
				m := types.ServerMessage{Type: types.MsgRoundFinalized, V: types.ProtocolVersion, Round: e.Round}
				if e.Result != nil {
					m.WinnerID = e.Result.WinnerID
					m.Draw = e.Result.Draw
				}
				msgs = append(msgs, m)
			case match.EvtMatchCompleted:
				msgs = append(msgs, types.ServerMessage{
					Type: types.MsgMatchCompleted, V: types.ProtocolVersion,
					Round: e.Round, WinnerID: e.PlayerID,
				})
			}
		}
		view := types.FromMatch(out.State)
		msgs = append(msgs, types.ServerMessage{
			Type: types.MsgSnapshot, V: types.ProtocolVersion,
			Version: out.Version, Match: &view,
		})
		return msgs

	case room.PeerProgress:
		return []types.ServerMessage{{
			Type: types.MsgOpponentProgress, V: types.ProtocolVersion,
			Progress: &types.ProgressView{
				PlayerID:  out.PlayerID,
				Score:     out.Game.Score,
				Combo:     out.Game.Combo,
				MaxCombo:  out.Game.MaxCombo,
				Judgments: types.FromCounts(out.Game.Judgments),
			},
		}}

	case room.CommandError:
		return []types.ServerMessage{{
			Type: types.MsgError, V: types.ProtocolVersion, Error: out.Err.Error(),
		}}

	default:
		return nil
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: types.MsgError, V: types.ProtocolVersion, Error: msg})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
