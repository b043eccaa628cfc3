// Package input normalizes raw key events into (lane, pressed, time) tuples.
// Keys are identified by physical key code so layout and IME never matter,
// and a held key emits exactly one press until it is released.
package input

import (
	"fmt"
	"strings"

	"github.com/seojinp/beatduel-backend/internal/judge"
)

// layouts maps a key-count configuration to its ordered physical key codes.
// Lane index is the position in the list.
var layouts = map[int][]string{
	4: {"KeyD", "KeyF", "KeyJ", "KeyK"},
	5: {"KeyD", "KeyF", "Space", "KeyJ", "KeyK"},
	6: {"KeyS", "KeyD", "KeyF", "KeyJ", "KeyK", "KeyL"},
	8: {"KeyA", "KeyS", "KeyD", "KeyF", "KeyJ", "KeyK", "KeyL", "Semicolon"},
}

// Port turns key codes into lane events for one player. Not safe for
// concurrent use; it lives on the round's input goroutine.
type Port struct {
	laneByCode map[string]int
	held       map[string]bool
	active     bool
}

func NewPort(keyCount int) (*Port, error) {
	layout, ok := layouts[keyCount]
	if !ok {
		return nil, fmt.Errorf("input: unsupported key count %d", keyCount)
	}
	m := make(map[string]int, len(layout))
	for lane, code := range layout {
		m[normalize(code)] = lane
	}
	return &Port{laneByCode: m, held: map[string]bool{}}, nil
}

// Layout returns the ordered key codes for a key count, for display.
func Layout(keyCount int) ([]string, bool) {
	l, ok := layouts[keyCount]
	return l, ok
}

// SetActive gates event production to the PLAYING state. Deactivating clears
// held keys so a key released during a pause never emits a stale event.
func (p *Port) SetActive(active bool) {
	p.active = active
	if !active {
		clear(p.held)
	}
}

// Keydown translates a physical key press. Repeats while held are suppressed.
func (p *Port) Keydown(code string, t float64) (judge.KeyEvent, bool) {
	key := normalize(code)
	lane, mapped := p.laneByCode[key]
	if !p.active || !mapped || p.held[key] {
		return judge.KeyEvent{}, false
	}
	p.held[key] = true
	return judge.KeyEvent{Lane: lane, Pressed: true, Time: t}, true
}

// Keyup translates a physical key release. The matching release is delivered
// even if the reported code differs in casing.
func (p *Port) Keyup(code string, t float64) (judge.KeyEvent, bool) {
	key := normalize(code)
	lane, mapped := p.laneByCode[key]
	wasHeld := p.held[key]
	delete(p.held, key)
	if !p.active || !mapped || !wasHeld {
		return judge.KeyEvent{}, false
	}
	return judge.KeyEvent{Lane: lane, Pressed: false, Time: t}, true
}

func normalize(code string) string {
	return strings.ToLower(code)
}
