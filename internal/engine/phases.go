package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/humannews"
	"github.com/talgya/emberhold/internal/ring"
	"github.com/talgya/emberhold/internal/weather"
	"github.com/talgya/emberhold/internal/world"
)

// morning handles hours 5-11. The first hour applies the day's outside
// news, publishes the brief, and wakes everyone; the rest is light drift.
func (e *Engine) morning(st *State, out *outbox) {
	if st.Hour == e.cfg.Hours.MorningBrief {
		e.morningBrief(st, out)
		return
	}
	for _, a := range st.Agents {
		a.Drift(0, 1, 0)
	}
}

func (e *Engine) morningBrief(st *State, out *outbox) {
	var notes []string
	for _, ev := range humannews.ForDay(st.Day) {
		st.Metrics.Apply(ev.Effect.Variable, ev.Effect.Modifier)
		notes = append(notes, fmt.Sprintf("%s (%s): %s", ev.Headline, ev.Source, ev.Effect.Description))
	}
	body := fmt.Sprintf("Dawn under %s. %s", weather.ModsFor(st.Weather).Label, strings.Join(notes, " "))
	e.emitNews(st, out, NewsBrief, fmt.Sprintf("Morning brief, day %d", st.Day), body)

	for _, a := range st.Agents {
		a.Status = agents.StatusIdle
		a.Drift(2, 2, 0)
	}
	slog.Info("morning brief published", "day", st.Day, "weather", st.Weather)
}

// daytime handles hours 12-17: everyone works, vitals drift, the midday
// hour records actions, and one fixed-probability event may land.
func (e *Engine) daytime(st *State, out *outbox) {
	v := e.view(st)
	for _, a := range st.Agents {
		if a.Status == agents.StatusInCouncil {
			continue
		}
		a.Status = agents.StatusWorking
		a.Drift(-2, 2, e.rng.Intn(3)-1)
		if e.chance(0.35) {
			e.stepAgent(st, a)
		}
		if st.Hour == e.cfg.Hours.Midday && e.chance(0.6) {
			label := e.brain.Action(e.rng, a, v)
			a.Actions = ring.PushBack(a.Actions, label, e.cfg.Caps.Actions)
		}
	}
	if e.chance(e.cfg.Chances.DayEvent) {
		e.dayEvent(st, out)
	}
}

// evening handles hours 18-21: the council set piece, bookended by slow
// idle hours.
func (e *Engine) evening(st *State, out *outbox) {
	e.maybeEndCouncil(st)
	switch {
	case st.Hour == st.Council.StartHour:
		if !st.Council.Active || st.Council.Day != st.Day {
			e.startCouncil(st, out)
		}
	case st.Council.Active && st.Hour > st.Council.StartHour && st.Hour < st.Council.EndHour:
		for _, a := range st.Agents {
			a.Status = agents.StatusInCouncil
		}
	default:
		for _, a := range st.Agents {
			if a.Status == agents.StatusIdle {
				a.Drift(-1, 1, 0)
			}
		}
	}
}

// night handles hours 22-4: the watch split, recovery for sleepers, rare
// events, and the pre-dawn bookkeeping hour.
func (e *Engine) night(st *State, out *outbox) {
	e.maybeEndCouncil(st)
	if st.Hour == e.cfg.Hours.NightStart {
		e.nightfall(st)
	}
	for _, a := range st.Agents {
		switch a.Status {
		case agents.StatusOnWatch:
			a.Drift(-1, 1, 0)
		case agents.StatusSleeping:
			a.Drift(3, 1, -2)
		default:
			a.Drift(-1, 1, 0)
		}
	}
	if e.chance(e.cfg.Chances.NightEvent) {
		e.nightEvent(st, out)
	}
	if st.Hour == e.cfg.Hours.PreDawn {
		e.preDawn(st, out)
	}
}

// nightfall sends watch roles to their posts and everyone else to bed.
func (e *Engine) nightfall(st *State) {
	watchers := 0
	for _, a := range st.Agents {
		if a.Archetype.IsWatch() && a.Grown() {
			a.Status = agents.StatusOnWatch
			watchers++
			continue
		}
		a.Status = agents.StatusSleeping
		a.Pos = a.Home
	}
	slog.Debug("nightfall", "day", st.Day, "watchers", watchers)
}

// stepAgent wanders one tile, clamped to the grid and never into water.
func (e *Engine) stepAgent(st *State, a *agents.Agent) {
	next := world.Pos{
		X: a.Pos.X + e.rng.Intn(3) - 1,
		Y: a.Pos.Y + e.rng.Intn(3) - 1,
	}
	next = st.Grid.Clamp(next)
	if st.Grid.Walkable(next) {
		a.Pos = next
	}
}

// dayEvent rolls one daytime incident and applies its metric swing.
func (e *Engine) dayEvent(st *State, out *outbox) {
	switch roll := e.rng.Float64(); {
	case roll < 0.25:
		spot := burnableBuilding(e.rng.Intn(6))
		st.Metrics.Apply("fireStability", -(8 + e.rng.Intn(8)))
		st.Metrics.Apply("morale", -2)
		e.emitEvent(st, out, "fire", fmt.Sprintf("A cooking fire jumped its hearth near the %s", spot))
		e.emitNews(st, out, NewsAlert, "Fire in the settlement",
			fmt.Sprintf("Smoke over the %s; the bucket line turned it back before the thatch caught.", spot))
	case roll < 0.55:
		gain := 6 + e.rng.Intn(9)
		st.Metrics.Apply("foodDays", gain)
		st.Metrics.Apply("morale", 2)
		e.emitEvent(st, out, "harvest", fmt.Sprintf("A strong harvest came in, %d days of food added to the stores", gain))
		if e.chance(0.5) {
			e.harvestCelebration(st)
		}
	case roll < 0.80:
		st.Metrics.Apply("healthRisk", 5+e.rng.Intn(8))
		if a := e.randomAgent(st); a != nil {
			a.Drift(-5, 0, 8)
			e.emitEvent(st, out, "illness", fmt.Sprintf("%s took to bed with a fever; the infirmary is watching for more", a.Name))
		} else {
			e.emitEvent(st, out, "illness", "A fever is moving through the lower homes")
		}
	default:
		gain := 4 + e.rng.Intn(5)
		st.Metrics.Apply("waterDays", gain)
		st.Metrics.Apply("morale", 1)
		e.emitEvent(st, out, "discovery", fmt.Sprintf("A clean spring was found past the east fields, worth %d days of water", gain))
	}
}

// nightEvent rolls one rare nighttime incident.
func (e *Engine) nightEvent(st *State, out *outbox) {
	switch roll := e.rng.Float64(); {
	case roll < 0.30:
		st.Metrics.Apply("unrest", 6+e.rng.Intn(7))
		st.Metrics.Apply("fireStability", -3)
		for _, a := range st.Agents {
			if a.Status == agents.StatusOnWatch {
				a.Drift(0, 0, 5)
			}
		}
		e.emitEvent(st, out, "raid", "Raiders probed the palisade in the dark and were driven off")
		e.emitNews(st, out, NewsAlert, "Raiders at the wall",
			"The watch turned back a probing party before the gate. No one hurt; everyone awake.")
	case roll < 0.55:
		st.Metrics.Apply("waterDays", 5)
		st.Metrics.Apply("foodDays", -3)
		st.Metrics.Apply("morale", -2)
		e.emitEvent(st, out, "flood", "The river rose in the night and flooded the low storerooms")
	case roll < 0.75:
		st.Metrics.Apply("morale", 3)
		e.emitEvent(st, out, "meteor", "A falling star crossed the whole sky; half the settlement saw it")
	default:
		st.Metrics.Apply("unrest", 2)
		if a := e.randomAgent(st); a != nil {
			a.Drift(0, 0, 6)
		}
		e.emitEvent(st, out, "mystery", "Something large moved in the treeline past the north fields; the tracks ended at stone")
	}
}

// preDawn is the bookkeeping hour: recap news, weather re-roll, natural
// morale and unrest drift, and the daily chronicle.
func (e *Engine) preDawn(st *State, out *outbox) {
	if e.chance(0.5) {
		st.Weather = weather.Roll(e.rng)
	}
	mods := weather.ModsFor(st.Weather)
	st.Metrics.Apply("morale", mods.Morale)
	st.Metrics.Apply("fireStability", mods.FireStability)

	moraleDrift := -2
	if st.Metrics.FoodDays > 30 {
		moraleDrift = 1
	}
	if st.Metrics.Unrest > 50 {
		moraleDrift--
	}
	st.Metrics.Apply("morale", moraleDrift)
	switch {
	case st.Metrics.Morale > 60:
		st.Metrics.Apply("unrest", -1)
	case st.Metrics.Morale < 40:
		st.Metrics.Apply("unrest", 1)
	}

	watchers := 0
	for _, a := range st.Agents {
		if a.Status == agents.StatusOnWatch {
			watchers++
		}
	}
	e.emitNews(st, out, NewsRecap, fmt.Sprintf("Night watch report, day %d", st.Day),
		fmt.Sprintf("%d on the wall through the night. Sky at first light: %s.", watchers, mods.Label))

	if st.Day >= 1 && st.Day-1 > st.LastChronicleDay {
		entry := e.compileChronicle(st)
		st.LastChronicleDay = entry.Day
		out.chronicle = &entry
		slog.Info("chronicle compiled", "day", entry.Day, "headlines", len(entry.Headlines))
	}
}

// randomAgent returns a uniformly drawn agent, nil when the settlement is
// empty.
func (e *Engine) randomAgent(st *State) *agents.Agent {
	if len(st.Agents) == 0 {
		return nil
	}
	return st.Agents[e.rng.Intn(len(st.Agents))]
}

// burnableBuilding names a plausible fire site.
func burnableBuilding(pick int) string {
	names := []string{"granary", "market stalls", "workshop", "west homes", "infirmary woodshed", "hall kitchens"}
	return names[pick%len(names)]
}
