// Package store persists matches, song pools, and round submissions. The ban
// write is a compare-and-swap so two simultaneous bans can never both claim
// the same entry, whatever the in-memory layer is doing.
package store

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seojinp/beatduel-backend/internal/match"
)

var ErrNotFound = errors.New("store: match not found")
var ErrBanConflict = errors.New("store: entry already banned")

type Match struct {
	ID           string `gorm:"primaryKey"`
	Player1ID    string
	Player2ID    string
	Status       string
	CurrentRound int
	Player1Score int
	Player2Score int
	WinnerID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SongPoolEntry struct {
	ID        int    `gorm:"primaryKey"`
	MatchID   string `gorm:"index"`
	Round     int
	SongID    int
	BeatmapID int
	IsBanned  bool
	BannedBy  string
}

// RoundSubmission rows are unique per (match, round, player); a retried
// submission lands on the conflict target and is dropped, which is what makes
// the authoritative path safe to retry.
type RoundSubmission struct {
	ID        int    `gorm:"primaryKey"`
	MatchID   string `gorm:"uniqueIndex:uniq_round_player"`
	Round     int    `gorm:"uniqueIndex:uniq_round_player"`
	PlayerID  string `gorm:"uniqueIndex:uniq_round_player"`
	Score     int
	MaxCombo  int
	Perfect   int
	Great     int
	Good      int
	Bad       int
	Miss      int
	CreatedAt time.Time
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return New(db, log), nil
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Match{}, &SongPoolEntry{}, &RoundSubmission{})
}

// CreateMatch inserts the match row. Pool entries go through CreatePool only,
// so the database assigns each entry id exactly once.
func (s *Store) CreateMatch(m *Match) error {
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("store: create match: %w", err)
	}
	return nil
}

// CreatePool inserts one round's pool and returns the rows with their
// database-assigned ids.
func (s *Store) CreatePool(matchID string, round int, entries []SongPoolEntry) ([]SongPoolEntry, error) {
	for i := range entries {
		entries[i].MatchID = matchID
		entries[i].Round = round
	}
	if err := s.db.Create(&entries).Error; err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	return entries, nil
}

// GetMatch returns the match row with its current-round pool. Safe to call
// repeatedly; reconnecting clients refetch through this.
func (s *Store) GetMatch(id string) (Match, []SongPoolEntry, error) {
	var m Match
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Match{}, nil, ErrNotFound
		}
		return Match{}, nil, fmt.Errorf("store: get match: %w", err)
	}
	var pool []SongPoolEntry
	if err := s.db.Where("match_id = ? AND round = ?", id, m.CurrentRound).
		Order("id").Find(&pool).Error; err != nil {
		return Match{}, nil, fmt.Errorf("store: get pool: %w", err)
	}
	return m, pool, nil
}

// RecordBan claims a pool entry with a guarded update. Zero rows affected
// means someone else already banned it.
func (s *Store) RecordBan(matchID string, entryID int, playerID string) error {
	res := s.db.Model(&SongPoolEntry{}).
		Where("id = ? AND match_id = ? AND is_banned = ?", entryID, matchID, false).
		Updates(map[string]any{"is_banned": true, "banned_by": playerID})
	if res.Error != nil {
		return fmt.Errorf("store: record ban: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBanConflict
	}
	return nil
}

// RecordSubmission stores one player's round result, ignoring retries.
func (s *Store) RecordSubmission(matchID string, round int, sub match.Submission) error {
	row := RoundSubmission{
		MatchID:  matchID,
		Round:    round,
		PlayerID: sub.PlayerID,
		Score:    sub.Score,
		MaxCombo: sub.MaxCombo,
		Perfect:  sub.Judgments.Perfect,
		Great:    sub.Judgments.Great,
		Good:     sub.Judgments.Good,
		Bad:      sub.Judgments.Bad,
		Miss:     sub.Judgments.Miss,
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: record submission: %w", err)
	}
	return nil
}

// SyncMatch writes the authoritative engine state back to the match row.
func (s *Store) SyncMatch(st match.State) error {
	updates := map[string]any{
		"status":        string(st.Status),
		"current_round": st.Round,
		"player1_score": st.Wins[st.Player1ID],
		"player2_score": st.Wins[st.Player2ID],
		"winner_id":     st.WinnerID,
	}
	if err := s.db.Model(&Match{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("store: sync match: %w", err)
	}
	return nil
}
