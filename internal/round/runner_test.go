package round

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/seojinp/beatduel-backend/internal/judge"
)

// stepClock is a deterministic timing source the test advances by hand.
type stepClock struct {
	mu sync.Mutex
	ms float64
}

func (c *stepClock) ElapsedMs() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

func (c *stepClock) set(ms float64) {
	c.mu.Lock()
	c.ms = ms
	c.mu.Unlock()
}

func newState(t *testing.T, notes []judge.Note) judge.State {
	t.Helper()
	s, err := judge.NewState(notes, judge.DefaultWindow)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func TestRun_JudgesInputsAndFinishes(t *testing.T) {
	notes := []judge.Note{
		{ID: 1, Lane: 0, Time: 100, Type: judge.NoteNormal},
		{ID: 2, Lane: 1, Time: 200, Type: judge.NoteNormal},
	}
	clk := &stepClock{}
	clk.set(250)

	var snapshots []judge.GameState
	var mu sync.Mutex
	r := New(newState(t, notes), clk,
		WithFramePeriod(time.Millisecond),
		WithProgress(func(g judge.GameState) {
			mu.Lock()
			snapshots = append(snapshots, g)
			mu.Unlock()
		}),
	)

	r.Inputs() <- judge.KeyEvent{Lane: 0, Pressed: true, Time: 100}
	r.Inputs() <- judge.KeyEvent{Lane: 1, Pressed: true, Time: 200}

	done := make(chan judge.GameState, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case final := <-done:
		if final.Judgments.Perfect != 2 {
			t.Fatalf("judgments = %+v, want 2 perfects", final.Judgments)
		}
		if final.MaxCombo != 2 {
			t.Fatalf("maxCombo = %d, want 2", final.MaxCombo)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) == 0 {
		t.Fatalf("expected progress snapshots")
	}
}

func TestRun_FinishesViaSweepWithoutInput(t *testing.T) {
	notes := []judge.Note{{ID: 1, Lane: 0, Time: 100, Type: judge.NoteNormal}}
	clk := &stepClock{}
	clk.set(1000) // long past the bad window

	r := New(newState(t, notes), clk, WithFramePeriod(time.Millisecond))
	done := make(chan judge.GameState, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case final := <-done:
		if final.Judgments.Miss != 1 {
			t.Fatalf("judgments = %+v, want 1 miss", final.Judgments)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not finish")
	}
}

func TestRun_CancelReleasesHoldsUnjudged(t *testing.T) {
	notes := []judge.Note{{ID: 1, Lane: 0, Time: 100, Type: judge.NoteLong, Duration: 10000}}
	clk := &stepClock{}
	clk.set(100)

	r := New(newState(t, notes), clk, WithFramePeriod(time.Millisecond))
	r.Inputs() <- judge.KeyEvent{Lane: 0, Pressed: true, Time: 100}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan judge.GameState, 1)
	go func() { done <- r.Run(ctx) }()

	// Give the loop a few frames to open the hold, then force-stop.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case final := <-done:
		// The press judgment stands, the release is never judged.
		if final.Judgments.Total() != 1 {
			t.Fatalf("judgments = %+v, want exactly the press", final.Judgments)
		}
		if final.Judgments.Miss != 0 {
			t.Fatalf("forced stop must not miss the held note")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop on cancel")
	}
}
