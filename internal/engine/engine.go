package engine

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/brain"
	"github.com/talgya/emberhold/internal/config"
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/ring"
	"github.com/talgya/emberhold/internal/story"
	"github.com/talgya/emberhold/internal/weather"
	"github.com/talgya/emberhold/internal/world"
)

// Engine owns the rng stream and the injected collaborators. One Engine
// drives one settlement; ticks are synchronous and never overlap.
type Engine struct {
	cfg   *config.Config
	brain brain.Provider
	rng   *rand.Rand

	// Now stamps wall-clock fields on emitted records. Tests pin it.
	Now func() time.Time
}

// New creates an engine from the config's seed. A nil provider gets the
// template voices.
func New(cfg *config.Config, provider brain.Provider) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if provider == nil {
		provider = brain.NewTemplates()
	}
	return &Engine{
		cfg:   cfg,
		brain: provider,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		Now:   time.Now,
	}
}

// Config exposes the tuning the engine runs with.
func (e *Engine) Config() *config.Config { return e.cfg }

// NewWorld bootstraps a fresh settlement: deterministic shape, seeded
// content. The founding morning starts at hour 6 of day 0.
func (e *Engine) NewWorld() *State {
	gen := world.DefaultGenConfig()
	gen.Width = e.cfg.Map.Width
	gen.Height = e.cfg.Map.Height
	gen.Homes = e.cfg.Map.Homes
	gen.Seed = e.cfg.Seed
	grid := world.Generate(gen)

	pop := agents.NewSpawner(e.cfg.Seed).Spawn(grid, agents.Mix{
		Children: e.cfg.Population.Children,
		Teens:    e.cfg.Population.Teens,
		Adults:   e.cfg.Population.Adults,
		Elders:   e.cfg.Population.Elders,
	})

	now := e.Now()
	st := &State{
		Settlement: e.cfg.Settlement,
		Tick:       0,
		Day:        0,
		Hour:       6,
		Phase:      PhaseFor(6),
		Grid:       grid,
		Agents:     pop,
		Metrics: Metrics{
			Population:    len(pop),
			FoodDays:      60,
			WaterDays:     60,
			Morale:        60,
			Unrest:        10,
			HealthRisk:    10,
			FireStability: 80,
		},
		Council: council.Session{
			Day:        -1,
			StartHour:  e.cfg.Hours.CouncilStart,
			EndHour:    e.cfg.Hours.CouncilEnd,
			Proposals:  []council.Proposal{},
			Transcript: []council.Line{},
		},
		News:             []NewsItem{},
		Events:           []WorldEvent{},
		Stories:          []story.Event{},
		Weather:          weather.Roll(e.rng),
		LastChronicleDay: -1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	st.Council.Countdown = councilCountdown(st.Hour, st.Council.StartHour, st.Council.EndHour)

	slog.Info("world bootstrapped",
		"settlement", st.Settlement,
		"agents", len(pop),
		"grid", grid.String(),
		"weather", st.Weather,
	)
	return st
}

// ExecuteTick advances one simulated hour. The input state is never
// mutated; callers may keep reading it while the result is built.
func (e *Engine) ExecuteTick(prev *State, clk Clock) *Result {
	st := prev.Clone()
	st.Repair(e.cfg)

	prevHour := st.Hour
	newHour := wrapHour(clk.Hour)

	st.Tick++
	st.Hour = newHour
	if newHour < prevHour && prevHour >= e.cfg.Hours.NightStart {
		st.Day++
	}
	st.Phase = PhaseFor(newHour)
	st.Council.Countdown = councilCountdown(newHour, st.Council.StartHour, st.Council.EndHour)

	out := &outbox{}
	switch st.Phase {
	case PhaseMorning:
		e.morning(st, out)
	case PhaseDay:
		e.daytime(st, out)
	case PhaseEvening:
		e.evening(st, out)
	default:
		e.night(st, out)
	}

	e.runStories(st)
	e.sampleMoods(st)

	st.UpdatedAt = e.Now()
	return &Result{
		State:     st,
		Events:    out.events,
		News:      out.news,
		Chronicle: out.chronicle,
	}
}

// outbox collects what a tick produced, in emission order.
type outbox struct {
	events    []WorldEvent
	news      []NewsItem
	chronicle *ChronicleEntry
}

// emitEvent records a world event in the state log (newest first) and the
// tick result.
func (e *Engine) emitEvent(st *State, out *outbox, category, description string) {
	ev := WorldEvent{
		ID:          e.newID(),
		Day:         st.Day,
		Hour:        st.Hour,
		Category:    category,
		Description: description,
		At:          e.Now(),
	}
	st.Events = ring.PushFront(st.Events, ev, e.cfg.Caps.Events)
	out.events = append(out.events, ev)
	slog.Debug("world event", "day", st.Day, "hour", st.Hour, "category", category, "desc", description)
}

// emitNews records a bulletin in the state log (newest first) and the
// tick result.
func (e *Engine) emitNews(st *State, out *outbox, kind NewsKind, headline, body string) {
	item := NewsItem{
		ID:       e.newID(),
		Day:      st.Day,
		Hour:     st.Hour,
		Kind:     kind,
		Headline: headline,
		Body:     body,
		At:       e.Now(),
	}
	st.News = ring.PushFront(st.News, item, e.cfg.Caps.News)
	out.news = append(out.news, item)
}

// InjectEvent appends an operator-authored event to the state log and
// returns it.
func (e *Engine) InjectEvent(st *State, category, description string) WorldEvent {
	ev := WorldEvent{
		ID:          e.newID(),
		Day:         st.Day,
		Hour:        st.Hour,
		Category:    category,
		Description: description,
		At:          e.Now(),
	}
	st.Events = ring.PushFront(st.Events, ev, e.cfg.Caps.Events)
	slog.Info("event injected", "category", category, "desc", description)
	return ev
}

// view snapshots the state for the dialogue provider.
func (e *Engine) view(st *State) brain.View {
	return brain.View{
		Day:           st.Day,
		Hour:          st.Hour,
		Weather:       weather.ModsFor(st.Weather).Label,
		Population:    st.Metrics.Population,
		Morale:        st.Metrics.Morale,
		Unrest:        st.Metrics.Unrest,
		HealthRisk:    st.Metrics.HealthRisk,
		FireStability: st.Metrics.FireStability,
		FoodDays:      st.Metrics.FoodDays,
		WaterDays:     st.Metrics.WaterDays,
	}
}

// newID draws a UUID from the engine rng so seeded runs mint identical ids.
func (e *Engine) newID() string {
	id, err := uuid.NewRandomFromReader(e.rng)
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// councilCountdown is 0 during [start,end), otherwise the forward wrap
// distance to the next start hour.
func councilCountdown(hour, start, end int) int {
	if hour >= start && hour < end {
		return 0
	}
	return ((start - hour) + 24) % 24
}

func wrapHour(h int) int {
	return ((h % 24) + 24) % 24
}

// chance rolls the engine rng against p.
func (e *Engine) chance(p float64) bool {
	return e.rng.Float64() < p
}
