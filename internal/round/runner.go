// Package round drives one player's round: a single-goroutine frame loop that
// feeds input events and the playback clock through the judgment engine. All
// engine state lives on that one goroutine, so the engine needs no locking.
package round

import (
	"context"
	"time"

	"github.com/seojinp/beatduel-backend/internal/judge"
	"github.com/seojinp/beatduel-backend/internal/timing"
)

const defaultFramePeriod = 16 * time.Millisecond

// ProgressFunc receives advisory scoreboard snapshots for the progress sync
// channel. Dropping them is always safe; they never settle anything.
type ProgressFunc func(judge.GameState)

type Option func(*Runner)

func WithFramePeriod(d time.Duration) Option {
	return func(r *Runner) { r.frame = d }
}

func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

type Runner struct {
	state    judge.State
	clock    timing.Source
	inputs   chan judge.KeyEvent
	frame    time.Duration
	progress ProgressFunc
}

func New(state judge.State, clock timing.Source, opts ...Option) *Runner {
	r := &Runner{
		state:  state,
		clock:  clock,
		inputs: make(chan judge.KeyEvent, 128),
		frame:  defaultFramePeriod,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Inputs is where the input port delivers normalized key events.
func (r *Runner) Inputs() chan<- judge.KeyEvent { return r.inputs }

// Run loops until every note is judged or ctx is cancelled (quit, audio
// ended). On cancellation any active holds are released unjudged; no
// partial-hold penalty applies to a forced stop. Returns the final
// scoreboard either way.
func (r *Runner) Run(ctx context.Context) judge.GameState {
	ticker := time.NewTicker(r.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.state = judge.AbandonHolds(r.state)
			return r.state.Game

		case <-ticker.C:
			keys := r.drain()
			next, events := judge.Step(r.state, keys, r.clock.ElapsedMs())
			r.state = next
			if len(events) > 0 && r.progress != nil {
				r.progress(r.state.Game)
			}
			if r.state.Finished() {
				return r.state.Game
			}
		}
	}
}

// drain collects the inputs that arrived since the last frame. Events are
// judged on the frame they arrive; they never defer across a sweep.
func (r *Runner) drain() []judge.KeyEvent {
	var keys []judge.KeyEvent
	for {
		select {
		case k := <-r.inputs:
			keys = append(keys, k)
		default:
			return keys
		}
	}
}
