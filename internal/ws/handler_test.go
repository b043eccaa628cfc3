package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/seojinp/beatduel-backend/internal/hub"
	"github.com/seojinp/beatduel-backend/internal/judge"
	"github.com/seojinp/beatduel-backend/internal/match"
	"github.com/seojinp/beatduel-backend/internal/room"
	"github.com/seojinp/beatduel-backend/pkg/types"
)

func TestTranslate_SnapshotFansOutNamedEvents(t *testing.T) {
	st := match.NewState("m1", "alice", "bob", match.DefaultRules)
	snap := room.Snapshot{
		Version: 3,
		State:   st,
		Events: []match.Event{
			{Type: match.EvtEntryBanned, PlayerID: "alice", EntryID: 2, Round: 1},
			{Type: match.EvtRoundStarted, EntryID: 5, Round: 1},
		},
	}

	msgs := translate(snap, "bob")
	if len(msgs) != 3 {
		t.Fatalf("want ban-updated, game-started, snapshot; got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Type != types.MsgBanUpdated || msgs[0].EntryID != 2 {
		t.Fatalf("msg0 = %+v", msgs[0])
	}
	if msgs[1].Type != types.MsgGameStarted || msgs[1].EntryID != 5 {
		t.Fatalf("msg1 = %+v", msgs[1])
	}
	if msgs[2].Type != types.MsgSnapshot || msgs[2].Version != 3 || msgs[2].Match == nil {
		t.Fatalf("msg2 = %+v", msgs[2])
	}
}

func TestTranslate_OpponentRoundCompleteSkipsSubmitter(t *testing.T) {
	st := match.NewState("m1", "alice", "bob", match.DefaultRules)
	snap := room.Snapshot{
		State:  st,
		Events: []match.Event{{Type: match.EvtRoundSubmitted, PlayerID: "alice", Round: 1}},
	}

	forBob := translate(snap, "bob")
	if len(forBob) != 2 || forBob[0].Type != types.MsgOpponentRoundComplete {
		t.Fatalf("bob should see opponent-round-complete, got %+v", forBob)
	}
	forAlice := translate(snap, "alice")
	if len(forAlice) != 1 || forAlice[0].Type != types.MsgSnapshot {
		t.Fatalf("alice should only see the snapshot, got %+v", forAlice)
	}
}

func TestTranslate_PeerProgress(t *testing.T) {
	msgs := translate(room.PeerProgress{
		PlayerID: "alice",
		Game:     judge.GameState{Score: 123, Combo: 7, Judgments: judge.Counts{Perfect: 3}},
	}, "bob")
	if len(msgs) != 1 || msgs[0].Type != types.MsgOpponentProgress {
		t.Fatalf("msgs = %+v", msgs)
	}
	p := msgs[0].Progress
	if p == nil || p.Score != 123 || p.Judgments.Perfect != 3 {
		t.Fatalf("progress = %+v", p)
	}
}

func TestTranslate_CommandError(t *testing.T) {
	msgs := translate(room.CommandError{Err: match.ErrEntryAlreadyBanned}, "alice")
	if len(msgs) != 1 || msgs[0].Type != types.MsgError || msgs[0].Error == "" {
		t.Fatalf("msgs = %+v", msgs)
	}
}

func TestHandler_IdleClientStaysConnected(t *testing.T) {
	old := pingInterval
	pingInterval = 20 * time.Millisecond
	defer func() { pingInterval = old }()

	h := hub.NewHub(context.Background(), nil, nil)
	st := match.NewState("M1", "alice", "bob", match.DefaultRules)
	pool := []match.PoolEntry{
		{ID: 1, SongID: 10, BeatmapID: 100},
		{ID: 2, SongID: 20, BeatmapID: 200},
		{ID: 3, SongID: 30, BeatmapID: 300},
	}
	_, st, err := match.Apply(st, match.Command{Type: match.CmdOpenBanPick, Pool: pool})
	if err != nil {
		t.Fatalf("open ban pick: %v", err)
	}
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.EnsureRoom{MatchID: "M1", State: st, Reply: reply}
	if <-reply == nil {
		t.Fatalf("no room created")
	}

	srv := httptest.NewServer(Handler(h, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?match_id=M1&player_id=alice"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("join snapshot: %v", err)
	}

	// Idle across several ping intervals, as a player waiting out the
	// opponent's bans would.
	time.Sleep(8 * pingInterval)

	payload, _ := json.Marshal(types.ClientMessage{Type: types.MsgBanSong, EntryID: 1})
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		t.Fatalf("write after idle: %v", err)
	}
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read after idle: %v", err)
	}
	var sm types.ServerMessage
	if err := json.Unmarshal(data, &sm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sm.Type != types.MsgBanUpdated || sm.EntryID != 1 {
		t.Fatalf("message after idle = %+v", sm)
	}
}
