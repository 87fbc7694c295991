// Package engine advances the settlement one simulated hour at a time.
// ExecuteTick is a pure transition: deep-copy in, new state out, all
// randomness from one seeded stream.
package engine

import (
	"time"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/config"
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/ring"
	"github.com/talgya/emberhold/internal/story"
	"github.com/talgya/emberhold/internal/weather"
	"github.com/talgya/emberhold/internal/world"
)

// Phase is the part of the simulated day.
type Phase string

const (
	PhaseMorning Phase = "morning"
	PhaseDay     Phase = "day"
	PhaseEvening Phase = "evening"
	PhaseNight   Phase = "night"
)

// PhaseFor maps an hour to its phase. Total: every hour lands somewhere,
// night wraps midnight.
func PhaseFor(hour int) Phase {
	switch {
	case hour >= 5 && hour <= 11:
		return PhaseMorning
	case hour >= 12 && hour <= 17:
		return PhaseDay
	case hour >= 18 && hour <= 21:
		return PhaseEvening
	default:
		return PhaseNight
	}
}

// Metrics are the settlement's shared dials. Days-of-supply run [0,200],
// everything else [0,100]; every write saturates.
type Metrics struct {
	Population    int `json:"population"`
	FoodDays      int `json:"foodDays"`
	WaterDays     int `json:"waterDays"`
	Morale        int `json:"morale"`
	Unrest        int `json:"unrest"`
	HealthRisk    int `json:"healthRisk"`
	FireStability int `json:"fireStability"`
}

// Apply shifts the named metric by delta with a saturating clamp. Unknown
// names are ignored; a bad effect never breaks a tick.
func (m *Metrics) Apply(name string, delta int) {
	switch name {
	case "foodDays":
		m.FoodDays = clamp(m.FoodDays+delta, 0, 200)
	case "waterDays":
		m.WaterDays = clamp(m.WaterDays+delta, 0, 200)
	case "morale":
		m.Morale = clamp(m.Morale+delta, 0, 100)
	case "unrest":
		m.Unrest = clamp(m.Unrest+delta, 0, 100)
	case "healthRisk":
		m.HealthRisk = clamp(m.HealthRisk+delta, 0, 100)
	case "fireStability":
		m.FireStability = clamp(m.FireStability+delta, 0, 100)
	}
}

// Clamp forces every metric back into range.
func (m *Metrics) Clamp() {
	m.FoodDays = clamp(m.FoodDays, 0, 200)
	m.WaterDays = clamp(m.WaterDays, 0, 200)
	m.Morale = clamp(m.Morale, 0, 100)
	m.Unrest = clamp(m.Unrest, 0, 100)
	m.HealthRisk = clamp(m.HealthRisk, 0, 100)
	m.FireStability = clamp(m.FireStability, 0, 100)
	if m.Population < 0 {
		m.Population = 0
	}
}

// NewsKind tags a news item's register.
type NewsKind string

const (
	NewsBrief    NewsKind = "brief"
	NewsBreaking NewsKind = "breaking"
	NewsRecap    NewsKind = "recap"
	NewsAlert    NewsKind = "alert"
)

// NewsItem is one engine-written bulletin.
type NewsItem struct {
	ID       string    `json:"id"`
	Day      int       `json:"day"`
	Hour     int       `json:"hour"`
	Kind     NewsKind  `json:"kind"`
	Headline string    `json:"headline"`
	Body     string    `json:"body,omitempty"`
	At       time.Time `json:"at"`
}

// WorldEvent is one notable occurrence outside the story generators.
type WorldEvent struct {
	ID          string    `json:"id"`
	Day         int       `json:"day"`
	Hour        int       `json:"hour"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// ChronicleEntry is the once-per-day digest of the previous day.
type ChronicleEntry struct {
	Day            int       `json:"day"`
	Headlines      []string  `json:"headlines"`
	CouncilOutcome string    `json:"councilOutcome,omitempty"`
	TopMoments     []string  `json:"topMoments,omitempty"`
	Metrics        Metrics   `json:"metrics"`
	At             time.Time `json:"at"`
}

// State is the whole settlement at one instant. Logs are newest-first and
// capped; agent-side logs are newest-last.
type State struct {
	Settlement string `json:"settlement"`
	Tick       uint64 `json:"tick"`
	Day        int    `json:"day"`
	Hour       int    `json:"hour"`
	Phase      Phase  `json:"phase"`

	Grid    *world.Grid     `json:"grid"`
	Agents  []*agents.Agent `json:"agents"`
	Metrics Metrics         `json:"metrics"`
	Council council.Session `json:"council"`

	News    []NewsItem    `json:"news"`
	Events  []WorldEvent  `json:"events"`
	Stories []story.Event `json:"stories"`

	Weather          weather.Kind `json:"weather"`
	Paused           bool         `json:"paused"`
	LastChronicleDay int          `json:"lastChronicleDay"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clock is the injected time source for a tick. Wall clocks never drive
// the sim; the caller says what hour it is.
type Clock struct {
	Hour int
}

// Result is everything one tick produced.
type Result struct {
	State     *State
	Events    []WorldEvent
	News      []NewsItem
	Chronicle *ChronicleEntry
}

// Clone deep-copies the state. Callers of ExecuteTick keep their input.
func (st *State) Clone() *State {
	out := *st
	out.Grid = st.Grid.Clone()
	out.Agents = make([]*agents.Agent, len(st.Agents))
	for i, a := range st.Agents {
		out.Agents[i] = a.Clone()
	}
	out.Council = st.Council.Clone()
	out.News = append([]NewsItem(nil), st.News...)
	out.Events = append([]WorldEvent(nil), st.Events...)
	out.Stories = make([]story.Event, len(st.Stories))
	for i, ev := range st.Stories {
		out.Stories[i] = ev.Clone()
	}
	return &out
}

// AgentByID returns the agent with the given id, or nil.
func (st *State) AgentByID(id string) *agents.Agent {
	for _, a := range st.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Repair backfills collections older snapshots may lack and forces every
// bounded value into range. Runs before anything else touches a loaded
// state, so the generators never meet a nil slice.
func (st *State) Repair(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	if st.Settlement == "" {
		st.Settlement = cfg.Settlement
	}
	if st.Grid == nil {
		gen := world.DefaultGenConfig()
		gen.Width, gen.Height, gen.Homes = cfg.Map.Width, cfg.Map.Height, cfg.Map.Homes
		gen.Seed = cfg.Seed
		st.Grid = world.Generate(gen)
	}
	if st.Agents == nil {
		st.Agents = []*agents.Agent{}
	}
	for _, a := range st.Agents {
		if a.Relationships == nil {
			a.Relationships = []agents.Relationship{}
		}
		if a.Allies == nil {
			a.Allies = []string{}
		}
		if a.Rivals == nil {
			a.Rivals = []string{}
		}
		a.ClampAll()
		agents.Reconcile(a)
		a.StoryLog = ring.Tail(a.StoryLog, cfg.Caps.Stories)
		a.MoodHistory = ring.Tail(a.MoodHistory, cfg.Caps.MoodWindow)
		a.Quotes = ring.Tail(a.Quotes, cfg.Caps.Quotes)
		a.Actions = ring.Tail(a.Actions, cfg.Caps.Actions)
		a.Votes = ring.Tail(a.Votes, cfg.Caps.Votes)
		if !st.Grid.InBounds(a.Pos) {
			a.Pos = st.Grid.Clamp(a.Pos)
		}
	}
	st.News = ring.Head(st.News, cfg.Caps.News)
	st.Events = ring.Head(st.Events, cfg.Caps.Events)
	st.Stories = ring.Head(st.Stories, cfg.Caps.Stories)
	if st.Council.Proposals == nil {
		st.Council.Proposals = []council.Proposal{}
	}
	for i := range st.Council.Proposals {
		if st.Council.Proposals[i].Votes == nil {
			st.Council.Proposals[i].Votes = map[string]council.Vote{}
		}
	}
	if st.Council.Transcript == nil {
		st.Council.Transcript = []council.Line{}
	}
	if st.Council.StartHour == 0 && st.Council.EndHour == 0 {
		st.Council.StartHour = cfg.Hours.CouncilStart
		st.Council.EndHour = cfg.Hours.CouncilEnd
	}
	if !st.Weather.Valid() {
		st.Weather = weather.Clear
	}
	if st.Phase == "" {
		st.Phase = PhaseFor(st.Hour)
	}
	st.Metrics.Clamp()
	st.Metrics.Population = len(st.Agents)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
