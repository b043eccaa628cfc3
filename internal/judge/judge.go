package judge

import (
	"errors"
	"sort"
)

var ErrNoNotes = errors.New("beatmap has no notes")
var ErrBadWindow = errors.New("judgment window not strictly increasing")

type Tier string

const (
	TierPerfect Tier = "perfect"
	TierGreat   Tier = "great"
	TierGood    Tier = "good"
	TierBad     Tier = "bad"
	TierMiss    Tier = "miss"
)

type NoteType string

const (
	NoteNormal NoteType = "normal"
	NoteLong   NoteType = "long"
)

// Note times are milliseconds relative to score start, not wall clock.
// Duration is meaningful only for long notes.
type Note struct {
	ID       int
	Lane     int
	Time     float64
	Type     NoteType
	Duration float64
}

// Window holds the four timing thresholds in ms. Anything past Bad is a miss.
type Window struct {
	Perfect float64
	Great   float64
	Good    float64
	Bad     float64
}

// DefaultWindow matches the stock beatmap settings.
var DefaultWindow = Window{Perfect: 40, Great: 80, Good: 120, Bad: 160}

// Classify maps an absolute time delta to a tier. A delta sitting exactly on
// a boundary resolves to the better tier.
func (w Window) Classify(diff float64) Tier {
	switch {
	case diff <= w.Perfect:
		return TierPerfect
	case diff <= w.Great:
		return TierGreat
	case diff <= w.Good:
		return TierGood
	case diff <= w.Bad:
		return TierBad
	default:
		return TierMiss
	}
}

func (w Window) valid() bool {
	return w.Perfect > 0 && w.Perfect < w.Great && w.Great < w.Good && w.Good < w.Bad
}

type Counts struct {
	Perfect int `json:"perfect"`
	Great   int `json:"great"`
	Good    int `json:"good"`
	Bad     int `json:"bad"`
	Miss    int `json:"miss"`
}

func (c Counts) Total() int {
	return c.Perfect + c.Great + c.Good + c.Bad + c.Miss
}

// GameState is the per-round scoreboard. Only the engine mutates it.
type GameState struct {
	Score     int    `json:"score"`
	Combo     int    `json:"combo"`
	MaxCombo  int    `json:"maxCombo"`
	Judgments Counts `json:"judgments"`
}

// Hold tracks an in-flight long-note press, at most one per lane.
type Hold struct {
	NoteIndex int
	PressTime float64
}

// KeyEvent is a normalized input event from the input port.
type KeyEvent struct {
	Lane    int
	Pressed bool
	Time    float64
}

// Event is one recorded judgment.
type Event struct {
	NoteID   int
	Lane     int
	Tier     Tier
	TimeDiff float64
	Release  bool
}

// State is the full engine state. Transitions return a new value and never
// mutate the receiver, so a round can be replayed deterministically from the
// same note list and input log.
type State struct {
	Notes     []Note
	Window    Window
	Game      GameState
	Processed map[int]bool
	Holds     map[int]Hold

	basePerNote float64
}

// NewState builds an engine over an already-validated note list. Notes are
// copied and ordered by hit time.
func NewState(notes []Note, w Window) (State, error) {
	if len(notes) == 0 {
		return State{}, ErrNoNotes
	}
	if !w.valid() {
		return State{}, ErrBadWindow
	}
	ordered := make([]Note, len(notes))
	copy(ordered, notes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time < ordered[j].Time })
	return State{
		Notes:       ordered,
		Window:      w,
		Processed:   map[int]bool{},
		Holds:       map[int]Hold{},
		basePerNote: 1_000_000 / float64(len(ordered)),
	}, nil
}

// Finished reports whether every note has been judged.
func (s State) Finished() bool {
	return len(s.Processed) == len(s.Notes) && len(s.Holds) == 0
}

func cloneBools(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneHolds(m map[int]Hold) map[int]Hold {
	out := make(map[int]Hold, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
