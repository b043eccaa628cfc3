package judge

import (
	"testing"
)

func fourNotes() []Note {
	return []Note{
		{ID: 1, Lane: 0, Time: 1000, Type: NoteNormal},
		{ID: 2, Lane: 1, Time: 2000, Type: NoteNormal},
		{ID: 3, Lane: 2, Time: 3000, Type: NoteNormal},
		{ID: 4, Lane: 3, Time: 4000, Type: NoteNormal},
	}
}

func mustState(t *testing.T, notes []Note) State {
	t.Helper()
	s, err := NewState(notes, DefaultWindow)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func TestClassify_BoundaryResolvesToBetterTier(t *testing.T) {
	w := DefaultWindow
	cases := []struct {
		name string
		diff float64
		want Tier
	}{
		{"zero", 0, TierPerfect},
		{"exact perfect boundary", 40, TierPerfect},
		{"just past perfect", 40.001, TierGreat},
		{"exact great boundary", 80, TierGreat},
		{"exact good boundary", 120, TierGood},
		{"exact bad boundary", 160, TierBad},
		{"past bad", 161, TierMiss},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.Classify(tc.diff); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.diff, got, tc.want)
			}
		})
	}
}

func TestPress_NoEligibleNoteIsNoOp(t *testing.T) {
	s := mustState(t, fourNotes())

	// Way before the first note's window.
	next, ev := Press(s, 0, 100)
	if ev != nil {
		t.Fatalf("expected no judgment, got %+v", ev)
	}
	if next.Game != (GameState{}) {
		t.Fatalf("expected untouched game state, got %+v", next.Game)
	}
	if len(next.Processed) != 0 {
		t.Fatalf("expected no processed notes, got %v", next.Processed)
	}
}

func TestPress_PicksEarliestUnprocessedNoteOnLane(t *testing.T) {
	notes := []Note{
		{ID: 1, Lane: 0, Time: 1000, Type: NoteNormal},
		{ID: 2, Lane: 0, Time: 1100, Type: NoteNormal},
	}
	s := mustState(t, notes)

	// 1050 is equidistant-ish but the earliest note wins regardless.
	next, ev := Press(s, 0, 1050)
	if ev == nil || ev.NoteID != 1 {
		t.Fatalf("want note 1 judged, got %+v", ev)
	}
	next, ev = Press(next, 0, 1100)
	if ev == nil || ev.NoteID != 2 || ev.Tier != TierPerfect {
		t.Fatalf("want note 2 perfect, got %+v", ev)
	}
}

func TestScenario_FourPerfectsScoresFullFormula(t *testing.T) {
	s := mustState(t, fourNotes())

	for i, n := range s.Notes {
		var ev *Event
		s, ev = Press(s, n.Lane, n.Time)
		if ev == nil || ev.Tier != TierPerfect {
			t.Fatalf("hit %d: want perfect, got %+v", i, ev)
		}
	}

	// base = 250000 per note, multiplier 1.00, 1.01, 1.02, 1.03.
	want := 250000 + 252500 + 255000 + 257500
	if s.Game.Score != want {
		t.Fatalf("score = %d, want %d", s.Game.Score, want)
	}
	if s.Game.MaxCombo != 4 {
		t.Fatalf("maxCombo = %d, want 4", s.Game.MaxCombo)
	}
	if s.Game.Judgments != (Counts{Perfect: 4}) {
		t.Fatalf("judgments = %+v", s.Game.Judgments)
	}
	if !s.Finished() {
		t.Fatalf("expected finished state")
	}
}

func TestCombo_ResetsOnBadAndMissOnly(t *testing.T) {
	cases := []struct {
		name      string
		tier      Tier
		fromCombo int
		want      int
	}{
		{"perfect increments", TierPerfect, 3, 4},
		{"great increments", TierGreat, 3, 4},
		{"good preserves and increments", TierGood, 3, 4},
		{"bad resets", TierBad, 3, 0},
		{"miss resets", TierMiss, 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := mustState(t, fourNotes())
			s.Game.Combo = tc.fromCombo
			s.Game.MaxCombo = tc.fromCombo
			s.record(tc.tier)
			if s.Game.Combo != tc.want {
				t.Fatalf("combo = %d, want %d", s.Game.Combo, tc.want)
			}
			if s.Game.Combo > s.Game.MaxCombo {
				t.Fatalf("combo %d exceeds maxCombo %d", s.Game.Combo, s.Game.MaxCombo)
			}
		})
	}
}

func TestScore_NeverDecreases(t *testing.T) {
	s := mustState(t, fourNotes())
	last := 0
	hits := []struct {
		lane int
		t    float64
	}{
		{0, 1000}, // perfect
		{1, 2150}, // bad, combo reset
		{3, 4500}, // no-op, out of window
	}
	for _, h := range hits {
		s, _ = Press(s, h.lane, h.t)
		if s.Game.Score < last {
			t.Fatalf("score decreased: %d -> %d", last, s.Game.Score)
		}
		last = s.Game.Score
	}
	s, _ = Sweep(s, 10000) // remaining notes miss, weight 0
	if s.Game.Score < last {
		t.Fatalf("score decreased on sweep: %d -> %d", last, s.Game.Score)
	}
}

func TestLongNote_ReleaseJudgedAgainstNoteEnd(t *testing.T) {
	notes := []Note{{ID: 1, Lane: 0, Time: 1000, Type: NoteLong, Duration: 500}}
	s := mustState(t, notes)

	s, ev := Press(s, 0, 1000)
	if ev == nil || ev.Tier != TierPerfect || ev.Release {
		t.Fatalf("press judgment = %+v", ev)
	}
	if _, ok := s.Holds[0]; !ok {
		t.Fatalf("expected active hold on lane 0")
	}
	if s.Processed[0] {
		t.Fatalf("long note must not be processed before release")
	}

	comboBefore := s.Game.Combo
	s, ev = Release(s, 0, 1500)
	if ev == nil || ev.Tier != TierPerfect || !ev.Release {
		t.Fatalf("release judgment = %+v", ev)
	}
	// +1 for the perfect, +floor(500/10) hold bonus.
	if want := comboBefore + 1 + 50; s.Game.Combo != want {
		t.Fatalf("combo = %d, want %d", s.Game.Combo, want)
	}
	if s.Game.MaxCombo != s.Game.Combo {
		t.Fatalf("maxCombo = %d, want %d", s.Game.MaxCombo, s.Game.Combo)
	}
	if !s.Processed[0] || len(s.Holds) != 0 {
		t.Fatalf("expected note processed and hold cleared")
	}
}

func TestRelease_WithoutHoldIsNoOp(t *testing.T) {
	s := mustState(t, fourNotes())
	next, ev := Release(s, 2, 3000)
	if ev != nil {
		t.Fatalf("expected no judgment, got %+v", ev)
	}
	if next.Game != s.Game {
		t.Fatalf("game state changed on stray release")
	}
}

func TestSweep_MissesElapsedNotes(t *testing.T) {
	s := mustState(t, fourNotes())
	s, events := Sweep(s, 2161) // notes at 1000 and 2000 are past their bad window
	if len(events) != 2 {
		t.Fatalf("want 2 misses, got %d (%+v)", len(events), events)
	}
	if s.Game.Judgments.Miss != 2 {
		t.Fatalf("miss count = %d, want 2", s.Game.Judgments.Miss)
	}
	if s.Game.Combo != 0 {
		t.Fatalf("combo = %d, want 0 after miss", s.Game.Combo)
	}
}

func TestSweep_ExemptsActiveHold(t *testing.T) {
	notes := []Note{{ID: 1, Lane: 0, Time: 1000, Type: NoteLong, Duration: 500}}
	s := mustState(t, notes)
	s, _ = Press(s, 0, 1000)

	// Far past the note's end window, but the key is still down.
	s, events := Sweep(s, 5000)
	if len(events) != 0 {
		t.Fatalf("held long note must not be swept, got %+v", events)
	}
	if s.Game.Judgments.Miss != 0 {
		t.Fatalf("unexpected miss while holding")
	}
}

func TestSweep_LongNoteDeadlineIncludesDuration(t *testing.T) {
	notes := []Note{{ID: 1, Lane: 0, Time: 1000, Type: NoteLong, Duration: 500}}
	s := mustState(t, notes)

	// End window is 1000+500+160; just inside must not miss.
	next, events := Sweep(s, 1660)
	if len(events) != 0 {
		t.Fatalf("swept before end window elapsed: %+v", events)
	}
	next, events = Sweep(next, 1661)
	if len(events) != 1 || events[0].Tier != TierMiss {
		t.Fatalf("want 1 miss after end window, got %+v", events)
	}
	_ = next
}

func TestStep_InputJudgedBeforeSweep(t *testing.T) {
	s := mustState(t, fourNotes())

	// A press that arrived within the window must win even though the frame
	// time is already past the note's deadline.
	keys := []KeyEvent{{Lane: 0, Pressed: true, Time: 1100}}
	s, events := Step(s, keys, 1200)
	if len(events) != 1 || events[0].Tier != TierGood {
		t.Fatalf("want the press judged good, got %+v", events)
	}
	if s.Game.Judgments.Miss != 0 {
		t.Fatalf("press was stolen by the sweep")
	}
}

func TestAbandonHolds_DropsWithoutJudging(t *testing.T) {
	notes := []Note{{ID: 1, Lane: 0, Time: 1000, Type: NoteLong, Duration: 500}}
	s := mustState(t, notes)
	s, _ = Press(s, 0, 1000)

	before := s.Game
	s = AbandonHolds(s)
	if len(s.Holds) != 0 {
		t.Fatalf("holds not cleared")
	}
	if s.Game != before {
		t.Fatalf("abandon must not judge: %+v -> %+v", before, s.Game)
	}
}

func TestTransitions_DoNotMutateInput(t *testing.T) {
	s := mustState(t, fourNotes())
	_, _ = Press(s, 0, 1000)
	if len(s.Processed) != 0 || s.Game.Score != 0 {
		t.Fatalf("Press mutated its input state")
	}
	_, _ = Sweep(s, 10000)
	if len(s.Processed) != 0 || s.Game.Judgments.Miss != 0 {
		t.Fatalf("Sweep mutated its input state")
	}
}
