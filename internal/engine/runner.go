package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/emberhold/internal/weather"
)

// Runner drives the engine at wall-clock cadence. The engine itself never
// sleeps or checks Paused; that is the runner's job. One runner owns the
// live state; readers take clones through Snapshot, and a state that has
// left the runner (in a Result or a snapshot) is never mutated again.
type Runner struct {
	eng      *Engine
	interval time.Duration
	speed    float64

	mu    sync.RWMutex
	state *State

	// OnResult receives every tick result after the state swap, outside
	// the runner lock. Wire persistence and broadcast here.
	OnResult func(*Result)
}

// NewRunner wraps an engine and a starting state. Interval is the
// wall-clock length of one simulated hour at speed 1.
func NewRunner(eng *Engine, st *State, interval time.Duration, speed float64) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	if speed <= 0 {
		speed = 1
	}
	return &Runner{
		eng:      eng,
		interval: interval,
		speed:    speed,
		state:    st,
	}
}

// Run advances the clock one hour per interval until the context is
// canceled. A paused state idles without ticking.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("runner started", "interval", r.interval, "speed", r.speed)
	for {
		select {
		case <-ctx.Done():
			slog.Info("runner stopped", "tick", r.Snapshot().Tick)
			return
		default:
		}
		if r.Paused() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		r.Step(1)

		elapsed := time.Since(start)
		target := time.Duration(float64(r.interval) / r.Speed())
		if elapsed >= target {
			continue
		}
		select {
		case <-ctx.Done():
			slog.Info("runner stopped", "tick", r.Snapshot().Tick)
			return
		case <-time.After(target - elapsed):
		}
	}
}

// Step advances n simulated hours immediately, regardless of pause, and
// returns the last result. Admin ticks and the CLI use this.
func (r *Runner) Step(n int) *Result {
	results := make([]*Result, 0, n)
	r.mu.Lock()
	for i := 0; i < n; i++ {
		next := (r.state.Hour + 1) % 24
		res := r.eng.ExecuteTick(r.state, Clock{Hour: next})
		r.state = res.State
		results = append(results, res)
	}
	r.mu.Unlock()

	for _, res := range results {
		if r.OnResult != nil {
			r.OnResult(res)
		}
	}
	if len(results) == 0 {
		return nil
	}
	return results[len(results)-1]
}

// Snapshot returns an independent copy of the live state.
func (r *Runner) Snapshot() *State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Speed returns the current multiplier on the base interval.
func (r *Runner) Speed() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.speed
}

// SetSpeed changes how fast simulated hours pass relative to the base
// interval. Zero and negative values are ignored.
func (r *Runner) SetSpeed(v float64) {
	if v <= 0 {
		return
	}
	r.mu.Lock()
	r.speed = v
	r.mu.Unlock()
}

// Paused reports the live state's pause flag.
func (r *Runner) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Paused
}

// SetPaused flips the pause flag. States already handed to callbacks are
// never touched; the runner swaps in a fresh clone.
func (r *Runner) SetPaused(v bool) {
	r.mu.Lock()
	next := r.state.Clone()
	next.Paused = v
	r.state = next
	r.mu.Unlock()
}

// SetWeather overrides the live state's weather, for the serve loop's
// real-conditions overlay. Invalid kinds are ignored.
func (r *Runner) SetWeather(k weather.Kind) {
	if !k.Valid() {
		return
	}
	r.mu.Lock()
	next := r.state.Clone()
	next.Weather = k
	r.state = next
	r.mu.Unlock()
}

// Inject appends an operator-authored event to the live state's log.
func (r *Runner) Inject(category, description string) WorldEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.state.Clone()
	ev := r.eng.InjectEvent(next, category, description)
	r.state = next
	return ev
}
