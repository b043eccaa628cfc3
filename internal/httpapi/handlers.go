package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	mrand "math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seojinp/beatduel-backend/internal/config"
	"github.com/seojinp/beatduel-backend/internal/hub"
	"github.com/seojinp/beatduel-backend/internal/match"
	"github.com/seojinp/beatduel-backend/internal/room"
	"github.com/seojinp/beatduel-backend/internal/store"
	"github.com/seojinp/beatduel-backend/pkg/types"
)

const applyTimeout = 3 * time.Second

// MatchStore is the durable side of the HTTP boundary. *store.Store satisfies
// it; tests substitute a fake.
type MatchStore interface {
	CreateMatch(m *store.Match) error
	CreatePool(matchID string, round int, entries []store.SongPoolEntry) ([]store.SongPoolEntry, error)
	GetMatch(id string) (store.Match, []store.SongPoolEntry, error)
}

type api struct {
	hub   *hub.Hub
	store MatchStore
	cfg   config.Config
	log   *zap.Logger
}

type candidate struct {
	SongID    int `json:"song_id"`
	BeatmapID int `json:"beatmap_id"`
	KeyCount  int `json:"key_count,omitempty"`
}

// eligible keeps 4-key charts only; pools never mix key modes. A zero key
// count means the caller pre-filtered.
func eligible(cands []candidate) []candidate {
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.KeyCount == 0 || c.KeyCount == 4 {
			out = append(out, c)
		}
	}
	return out
}

type createMatchRequest struct {
	Player1ID  string      `json:"player1_id"`
	Player2ID  string      `json:"player2_id"`
	Candidates []candidate `json:"candidates"`
}

type submitRoundRequest struct {
	PlayerID  string          `json:"player_id"`
	Score     int             `json:"score"`
	MaxCombo  int             `json:"max_combo"`
	Judgments types.Judgments `json:"judgments"`
}

type banRequest struct {
	PlayerID string `json:"player_id"`
	EntryID  int    `json:"entry_id"`
}

type poolRequest struct {
	Candidates []candidate `json:"candidates"`
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 8)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// createMatch pairs two players: persists the match and its first song pool,
// opens ban-pick, and spins up the room.
func (a *api) createMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Player1ID == "" || req.Player2ID == "" || req.Player1ID == req.Player2ID {
		http.Error(w, "two distinct players required", http.StatusBadRequest)
		return
	}
	req.Candidates = eligible(req.Candidates)
	if len(req.Candidates) < 2 {
		http.Error(w, "at least two 4-key pool candidates required", http.StatusBadRequest)
		return
	}

	matchID, err := GenerateCode()
	if err != nil {
		http.Error(w, "failed to generate match id", http.StatusInternalServerError)
		return
	}

	pool, err := a.buildPool(matchID, 1, req.Candidates)
	if err != nil {
		a.log.Error("create pool", zap.Error(err))
		http.Error(w, "failed to create match", http.StatusInternalServerError)
		return
	}

	rules := match.Rules{BestOf: a.cfg.BestOf, BanBudget: a.cfg.BanBudget}
	st := match.NewState(matchID, req.Player1ID, req.Player2ID, rules)
	_, st, err = match.Apply(st, match.Command{Type: match.CmdOpenBanPick, Pool: pool})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if a.store != nil {
		// The pool rows were already inserted by buildPool; only the match
		// row is written here.
		row := &store.Match{
			ID:           matchID,
			Player1ID:    req.Player1ID,
			Player2ID:    req.Player2ID,
			Status:       string(st.Status),
			CurrentRound: st.Round,
		}
		if err := a.store.CreateMatch(row); err != nil {
			a.log.Error("persist match", zap.Error(err))
			http.Error(w, "failed to create match", http.StatusInternalServerError)
			return
		}
	}

	reply := make(chan *room.Room, 1)
	a.hub.Inbox() <- hub.EnsureRoom{MatchID: matchID, State: st, Reply: reply}
	if <-reply == nil {
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	view := types.FromMatch(st)
	writeJSON(w, http.StatusCreated, view)
}

// buildPool samples up to PoolSize candidates and assigns entry ids. With a
// store the database assigns them; without one they are sequential.
func (a *api) buildPool(matchID string, round int, cands []candidate) ([]match.PoolEntry, error) {
	picked := eligible(cands)
	mrand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > a.cfg.PoolSize {
		picked = picked[:a.cfg.PoolSize]
	}

	pool := make([]match.PoolEntry, len(picked))
	for i, c := range picked {
		pool[i] = match.PoolEntry{ID: i + 1, SongID: c.SongID, BeatmapID: c.BeatmapID}
	}
	if a.store == nil {
		return pool, nil
	}

	rows, err := a.store.CreatePool(matchID, round, poolRows(matchID, round, pool))
	if err != nil {
		return nil, err
	}
	for i := range pool {
		pool[i].ID = rows[i].ID
	}
	return pool, nil
}

func poolRows(matchID string, round int, pool []match.PoolEntry) []store.SongPoolEntry {
	rows := make([]store.SongPoolEntry, len(pool))
	for i, e := range pool {
		rows[i] = store.SongPoolEntry{MatchID: matchID, Round: round, SongID: e.SongID, BeatmapID: e.BeatmapID}
	}
	return rows
}

// getMatch serves the live room state when the match is hot, falling back to
// the database for finished or evicted matches. Reconnecting clients refetch
// through here idempotently.
func (a *api) getMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	if rm := a.getRoom(matchID); rm != nil {
		reply := make(chan room.View, 1)
		rm.Inbox() <- room.GetState{Reply: reply}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, types.FromMatch(v.State))
			return
		case <-time.After(applyTimeout):
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	if a.store == nil {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	row, pool, err := a.store.GetMatch(matchID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.log.Error("get match", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	view := types.MatchView{
		ID:           row.ID,
		Player1ID:    row.Player1ID,
		Player2ID:    row.Player2ID,
		Status:       row.Status,
		CurrentRound: row.CurrentRound,
		Player1Score: row.Player1Score,
		Player2Score: row.Player2Score,
		WinnerID:     row.WinnerID,
	}
	for _, e := range pool {
		view.Pool = append(view.Pool, types.PoolEntryView{
			ID: e.ID, SongID: e.SongID, BeatmapID: e.BeatmapID,
			IsBanned: e.IsBanned, BannedBy: e.BannedBy,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) banSong(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	a.applyToRoom(w, chi.URLParam(r, "matchID"), match.Command{
		Type:     match.CmdBanEntry,
		PlayerID: req.PlayerID,
		EntryID:  req.EntryID,
	})
}

func (a *api) submitRound(w http.ResponseWriter, r *http.Request) {
	var req submitRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	a.applyToRoom(w, chi.URLParam(r, "matchID"), match.Command{
		Type:     match.CmdSubmitRound,
		PlayerID: req.PlayerID,
		Submission: match.Submission{
			Score:     req.Score,
			MaxCombo:  req.MaxCombo,
			Judgments: types.ToCounts(req.Judgments),
		},
	})
}

func (a *api) finalizeRound(w http.ResponseWriter, r *http.Request) {
	a.applyToRoom(w, chi.URLParam(r, "matchID"), match.Command{Type: match.CmdFinalizeRound})
}

// nextPool opens ban-pick for the following round with a fresh candidate set.
func (a *api) nextPool(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	var req poolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	rm := a.getRoom(matchID)
	if rm == nil {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	reply := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: reply}
	var current room.View
	select {
	case current = <-reply:
	case <-time.After(applyTimeout):
		http.Error(w, "room unavailable", http.StatusServiceUnavailable)
		return
	}

	// Beatmaps from earlier rounds never reappear in a later pool.
	played := make(map[int]bool, len(current.State.Played))
	for _, id := range current.State.Played {
		played[id] = true
	}
	fresh := make([]candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if !played[c.BeatmapID] {
			fresh = append(fresh, c)
		}
	}

	pool, err := a.buildPool(matchID, current.State.Round+1, fresh)
	if err != nil {
		a.log.Error("create pool", zap.Error(err))
		http.Error(w, "failed to create pool", http.StatusInternalServerError)
		return
	}
	a.applyToRoom(w, matchID, match.Command{Type: match.CmdOpenBanPick, Pool: pool})
}

// applyToRoom pushes a command through the match's room and writes the
// resulting view or a mapped validation error.
func (a *api) applyToRoom(w http.ResponseWriter, matchID string, cmd match.Command) {
	rm := a.getRoom(matchID)
	if rm == nil {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}

	reply := make(chan room.ApplyResult, 1)
	rm.Inbox() <- room.FromClient{ClientID: "http", Cmd: cmd, Reply: reply}

	select {
	case res := <-reply:
		if res.Err != nil {
			http.Error(w, res.Err.Error(), statusFor(res.Err))
			return
		}
		writeJSON(w, http.StatusOK, types.FromMatch(res.State))
	case <-time.After(applyTimeout):
		http.Error(w, "room unavailable", http.StatusServiceUnavailable)
	}
}

func (a *api) getRoom(matchID string) *room.Room {
	reply := make(chan *room.Room, 1)
	a.hub.Inbox() <- hub.GetRoom{MatchID: matchID, Reply: reply}
	return <-reply
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, match.ErrUnknownPlayer), errors.Is(err, match.ErrUnknownEntry):
		return http.StatusNotFound
	case errors.Is(err, match.ErrEntryAlreadyBanned),
		errors.Is(err, match.ErrBanBudgetSpent),
		errors.Is(err, match.ErrDuplicateSubmission),
		errors.Is(err, match.ErrMatchCompleted):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
