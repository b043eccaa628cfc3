// Package match is the server-authoritative PvP state machine: ban-pick,
// synchronized rounds, and finalization. Apply is pure so a match can be
// driven identically from the websocket room, the HTTP boundary, and tests.
package match

import (
	"errors"

	"github.com/seojinp/beatduel-backend/internal/judge"
)

var ErrUnknownPlayer = errors.New("player not in this match")
var ErrNotBanPhase = errors.New("not in ban-pick phase")
var ErrNotPlaying = errors.New("round not in progress")
var ErrRoundNotComplete = errors.New("round not complete")
var ErrUnknownEntry = errors.New("unknown pool entry")
var ErrEntryAlreadyBanned = errors.New("entry already banned")
var ErrBanBudgetSpent = errors.New("ban budget spent")
var ErrDuplicateSubmission = errors.New("round already submitted by this player")
var ErrMatchCompleted = errors.New("match already completed")
var ErrPoolExhausted = errors.New("song pool needs at least two entries")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusQueued        Status = "QUEUED"
	StatusBanPick       Status = "BAN_PICK"
	StatusPlaying       Status = "PLAYING"
	StatusRoundComplete Status = "ROUND_COMPLETE"
	StatusCompleted     Status = "COMPLETED"
)

// PoolEntry is one candidate beatmap in a round's ban-pick pool.
type PoolEntry struct {
	ID        int
	SongID    int
	BeatmapID int
	Banned    bool
	BannedBy  string
}

// Submission is one player's authoritative end-of-round result.
type Submission struct {
	PlayerID  string
	Score     int
	MaxCombo  int
	Judgments judge.Counts
}

// RoundResult is the settled outcome of one round.
type RoundResult struct {
	Round    int
	WinnerID string // empty on a draw
	Draw     bool
}

type Rules struct {
	BestOf    int // first to BestOf/2+1 round wins takes the match
	BanBudget int // bans allowed per player per pool
}

var DefaultRules = Rules{BestOf: 3, BanBudget: 2}

// State is a full match. Transitions only move forward; COMPLETED is terminal.
type State struct {
	ID          string
	Player1ID   string
	Player2ID   string
	Status      Status
	Round       int
	Wins        map[string]int
	Pool        []PoolEntry
	Bans        map[string]int
	SelectedID  int // pool entry chosen for the current round
	Submissions map[string]Submission
	Result      *RoundResult // current round, set by finalization
	Played      []int        // beatmap ids from earlier rounds
	WinnerID    string
	Rules       Rules
}

// NewState pairs two players into a QUEUED match.
func NewState(id, player1, player2 string, rules Rules) State {
	return State{
		ID:          id,
		Player1ID:   player1,
		Player2ID:   player2,
		Status:      StatusQueued,
		Round:       1,
		Wins:        map[string]int{player1: 0, player2: 0},
		Bans:        map[string]int{},
		Submissions: map[string]Submission{},
		Rules:       rules,
	}
}

func (s State) hasPlayer(id string) bool {
	return id == s.Player1ID || id == s.Player2ID
}

func (s State) opponent(id string) string {
	if id == s.Player1ID {
		return s.Player2ID
	}
	return s.Player1ID
}

func (s State) entry(id int) (PoolEntry, bool) {
	for _, e := range s.Pool {
		if e.ID == id {
			return e, true
		}
	}
	return PoolEntry{}, false
}

func (s State) unbanned() []PoolEntry {
	var out []PoolEntry
	for _, e := range s.Pool {
		if !e.Banned {
			out = append(out, e)
		}
	}
	return out
}

func (s State) winsNeeded() int {
	return s.Rules.BestOf/2 + 1
}
