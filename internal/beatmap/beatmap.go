// Package beatmap decodes and validates note data before a round may start.
// Malformed charts are rejected up front; the judgment engine never sees
// partial data.
package beatmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/seojinp/beatduel-backend/internal/judge"
)

var ErrEmptyChart = errors.New("beatmap: no notes")
var ErrNotArray = errors.New("beatmap: notes payload is not an array")

type Beatmap struct {
	KeyCount int
	Notes    []judge.Note
}

type rawNote struct {
	ID        int      `json:"id"`
	Lane      *int     `json:"lane"`
	Timestamp *float64 `json:"timestamp"`
	Type      string   `json:"type"`
	Duration  float64  `json:"duration"`
}

// Decode parses a notes payload for a chart with keyCount lanes.
func Decode(data []byte, keyCount int) (Beatmap, error) {
	var raw []rawNote
	if err := json.Unmarshal(data, &raw); err != nil {
		return Beatmap{}, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	notes := make([]judge.Note, 0, len(raw))
	for i, r := range raw {
		n, err := convert(r, keyCount)
		if err != nil {
			return Beatmap{}, fmt.Errorf("beatmap: note %d: %w", i, err)
		}
		notes = append(notes, n)
	}
	bm := Beatmap{KeyCount: keyCount, Notes: notes}
	if err := bm.Validate(); err != nil {
		return Beatmap{}, err
	}
	return bm, nil
}

func convert(r rawNote, keyCount int) (judge.Note, error) {
	if r.Lane == nil {
		return judge.Note{}, errors.New("missing lane")
	}
	if r.Timestamp == nil {
		return judge.Note{}, errors.New("missing timestamp")
	}
	nt := judge.NoteNormal
	switch r.Type {
	case "", "normal":
	case "long":
		nt = judge.NoteLong
	default:
		return judge.Note{}, fmt.Errorf("unknown note type %q", r.Type)
	}
	return judge.Note{
		ID:       r.ID,
		Lane:     *r.Lane,
		Time:     *r.Timestamp,
		Type:     nt,
		Duration: r.Duration,
	}, nil
}

// Validate enforces the structural invariants the engine relies on.
func (b Beatmap) Validate() error {
	if len(b.Notes) == 0 {
		return ErrEmptyChart
	}
	seen := make(map[int]bool, len(b.Notes))
	for i, n := range b.Notes {
		if seen[n.ID] {
			return fmt.Errorf("beatmap: duplicate note id %d", n.ID)
		}
		seen[n.ID] = true
		if n.Lane < 0 || n.Lane >= b.KeyCount {
			return fmt.Errorf("beatmap: note %d: lane %d out of range [0,%d)", i, n.Lane, b.KeyCount)
		}
		if !finite(n.Time) || n.Time < 0 {
			return fmt.Errorf("beatmap: note %d: bad timestamp %v", i, n.Time)
		}
		if n.Type == judge.NoteLong && (!finite(n.Duration) || n.Duration <= 0) {
			return fmt.Errorf("beatmap: note %d: long note needs a positive duration, got %v", i, n.Duration)
		}
		if n.Type == judge.NoteNormal && n.Duration != 0 {
			return fmt.Errorf("beatmap: note %d: duration on a normal note", i)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
