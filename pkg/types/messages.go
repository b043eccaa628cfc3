// Package types is the wire contract between clients and the match server.
// The message set is a closed union: anything outside it is rejected at the
// boundary, never silently forwarded.
package types

// ProtocolVersion is bumped on any breaking change to the message set.
const ProtocolVersion = 1

// Client -> server message types.
const (
	MsgJoinMatch     = "join-match"
	MsgBanSong       = "ban-song"
	MsgGameProgress  = "game-progress"
	MsgRoundComplete = "round-complete"
)

// Server -> client message types.
const (
	MsgSnapshot              = "match-snapshot"
	MsgBanUpdated            = "ban-updated"
	MsgGameStarted           = "game-started"
	MsgOpponentProgress      = "opponent-progress"
	MsgOpponentRoundComplete = "opponent-round-complete"
	MsgRoundFinalized        = "round-finalized"
	MsgMatchCompleted        = "match-completed"
	MsgError                 = "error"
)

type Judgments struct {
	Perfect int `json:"perfect"`
	Great   int `json:"great"`
	Good    int `json:"good"`
	Bad     int `json:"bad"`
	Miss    int `json:"miss"`
}

type ClientMessage struct {
	Type      string     `json:"type"`
	MatchID   string     `json:"match_id,omitempty"`
	PlayerID  string     `json:"player_id,omitempty"`
	EntryID   int        `json:"entry_id,omitempty"`
	Score     int        `json:"score,omitempty"`
	Combo     int        `json:"combo,omitempty"`
	MaxCombo  int        `json:"max_combo,omitempty"`
	Judgments *Judgments `json:"judgments,omitempty"`
}

type PoolEntryView struct {
	ID        int    `json:"id"`
	SongID    int    `json:"song_id"`
	BeatmapID int    `json:"beatmap_id"`
	IsBanned  bool   `json:"is_banned"`
	BannedBy  string `json:"banned_by,omitempty"`
}

type MatchView struct {
	ID           string          `json:"id"`
	Player1ID    string          `json:"player1_id"`
	Player2ID    string          `json:"player2_id"`
	Status       string          `json:"status"`
	CurrentRound int             `json:"current_round"`
	Player1Score int             `json:"player1_score"`
	Player2Score int             `json:"player2_score"`
	SelectedID   int             `json:"selected_entry_id,omitempty"`
	WinnerID     string          `json:"winner_id,omitempty"`
	Pool         []PoolEntryView `json:"pool"`
}

type ProgressView struct {
	PlayerID  string    `json:"player_id"`
	Score     int       `json:"score"`
	Combo     int       `json:"combo"`
	MaxCombo  int       `json:"max_combo"`
	Judgments Judgments `json:"judgments"`
}

type ServerMessage struct {
	Type     string        `json:"type"`
	V        int           `json:"v"`
	Version  int           `json:"version,omitempty"`
	Round    int           `json:"round,omitempty"`
	EntryID  int           `json:"entry_id,omitempty"`
	WinnerID string        `json:"winner_id,omitempty"`
	Draw     bool          `json:"draw,omitempty"`
	Match    *MatchView    `json:"match,omitempty"`
	Progress *ProgressView `json:"progress,omitempty"`
	Error    string        `json:"error,omitempty"`
}
