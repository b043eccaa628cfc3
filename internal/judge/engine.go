package judge

import "math"

// Press judges a key press on lane at elapsed time t. The earliest unjudged
// note on that lane decides the outcome; a press with no note inside the bad
// window is absorbed with no state change. Returns the new state and the
// recorded judgment, if any.
func Press(s State, lane int, t float64) (State, *Event) {
	idx := -1
	for i, n := range s.Notes {
		if n.Lane != lane || s.Processed[i] {
			continue
		}
		if h, ok := s.Holds[lane]; ok && h.NoteIndex == i {
			continue
		}
		idx = i
		break
	}
	if idx < 0 {
		return s, nil
	}

	note := s.Notes[idx]
	diff := math.Abs(note.Time - t)
	if diff > s.Window.Bad {
		// Too far from any note. Not a miss; the sweep owns those.
		return s, nil
	}

	tier := s.Window.Classify(diff)
	ev := Event{NoteID: note.ID, Lane: lane, Tier: tier, TimeDiff: diff}

	next := s
	next.record(tier)
	if note.Type == NoteLong {
		next.Holds = cloneHolds(s.Holds)
		next.Holds[lane] = Hold{NoteIndex: idx, PressTime: t}
	} else {
		next.Processed = cloneBools(s.Processed)
		next.Processed[idx] = true
	}
	return next, &ev
}

// Release judges the end of a long-note hold on lane. The delta is measured
// against the note's intended end time, never the press time. A release with
// no active hold is a no-op.
func Release(s State, lane int, t float64) (State, *Event) {
	h, ok := s.Holds[lane]
	if !ok {
		return s, nil
	}

	note := s.Notes[h.NoteIndex]
	end := note.Time + note.Duration
	diff := math.Abs(t - end)
	tier := s.Window.Classify(diff)
	ev := Event{NoteID: note.ID, Lane: lane, Tier: tier, TimeDiff: diff, Release: true}

	next := s
	next.record(tier)
	// Hold bonus rewards the sustained press itself, independent of tier.
	next.bumpCombo(int(math.Floor(note.Duration / 10)))
	next.Processed = cloneBools(s.Processed)
	next.Processed[h.NoteIndex] = true
	next.Holds = cloneHolds(s.Holds)
	delete(next.Holds, lane)
	return next, &ev
}

// Sweep records misses for every note whose window has fully elapsed by t.
// Long notes under an active hold are exempt: a player holding a key is never
// auto-missed mid-hold.
func Sweep(s State, t float64) (State, []Event) {
	var events []Event
	next := s
	for i, n := range s.Notes {
		if next.Processed[i] {
			continue
		}
		if h, ok := next.Holds[n.Lane]; ok && h.NoteIndex == i {
			continue
		}
		deadline := n.Time + s.Window.Bad
		if n.Type == NoteLong {
			deadline = n.Time + n.Duration + s.Window.Bad
		}
		if t <= deadline {
			continue
		}
		next.record(TierMiss)
		next.Processed = cloneBools(next.Processed)
		next.Processed[i] = true
		events = append(events, Event{NoteID: n.ID, Lane: n.Lane, Tier: TierMiss, TimeDiff: t - deadline})
	}
	return next, events
}

// Step applies one frame: pending input events in arrival order, then the
// miss sweep at the frame's elapsed time. Input is judged before the sweep so
// a press can never be stolen by its own frame's timeout.
func Step(s State, keys []KeyEvent, elapsed float64) (State, []Event) {
	var events []Event
	next := s
	for _, k := range keys {
		var ev *Event
		if k.Pressed {
			next, ev = Press(next, k.Lane, k.Time)
		} else {
			next, ev = Release(next, k.Lane, k.Time)
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	next, swept := Sweep(next, elapsed)
	return next, append(events, swept...)
}

// AbandonHolds drops every active hold without judging it. Used on forced
// stops (quit, audio ended) where no partial-hold penalty applies.
func AbandonHolds(s State) State {
	if len(s.Holds) == 0 {
		return s
	}
	next := s
	next.Holds = map[int]Hold{}
	return next
}
