package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/ring"
	"github.com/talgya/emberhold/internal/story"
)

// runStories fires the stochastic generators in a fixed order after the
// phase handler. Each generator runs behind a recover wrapper so one
// failure never takes down the tick or the generators after it.
func (e *Engine) runStories(st *State) {
	if len(st.Agents) == 0 {
		return
	}
	gens := []struct {
		name   string
		chance float64
		fn     func(*State)
	}{
		{"friendship", e.cfg.Chances.Friendship, e.friendshipStory},
		{"rivalry", e.cfg.Chances.Rivalry, e.rivalryStory},
		{"romance", e.cfg.Chances.Romance, e.romanceStory},
		{"business", e.cfg.Chances.Business, e.businessStory},
		{"achievement", e.cfg.Chances.Achievement, e.achievementStory},
		{"misfortune", e.cfg.Chances.Misfortune, e.misfortuneStory},
		{"discovery", e.cfg.Chances.Discovery, e.discoveryStory},
	}
	for _, g := range gens {
		if !e.chance(g.chance) {
			continue
		}
		e.safely(g.name, func() { g.fn(st) })
	}
}

// safely runs fn and swallows a panic, logging it. The remaining
// generators and the tick itself proceed.
func (e *Engine) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("story generator panicked", "generator", name, "panic", r)
		}
	}()
	fn()
}

// sampleMoods appends one mood reading per agent to the bounded window.
func (e *Engine) sampleMoods(st *State) {
	for _, a := range st.Agents {
		a.MoodHistory = ring.PushBack(a.MoodHistory, a.Mood(), e.cfg.Caps.MoodWindow)
	}
}

func (e *Engine) friendshipStory(st *State) {
	a, b := e.awakePair(st)
	if a == nil {
		return
	}
	agents.Adjust(a, b, 3+e.rng.Intn(6), "shared an easy hour of work")
	a.Drift(0, 0, -1)
	b.Drift(0, 0, -1)
	e.emitStory(st, story.CategoryFriendship,
		fmt.Sprintf("%s and %s grow closer", a.Name, b.Name),
		fmt.Sprintf("%s and %s worked side by side and the talk came easily.", a.Name, b.Name),
		"Their bond strengthened.", a, b)
}

// rivalryStory prefers souring an already-sour pair. A score crossing the
// rival line also emits a conflict story and raises unrest.
func (e *Engine) rivalryStory(st *State) {
	a, b := e.sourPair(st)
	if a == nil {
		a, b = e.awakePair(st)
	}
	if a == nil {
		return
	}
	before := agents.ScoreWith(a, b.ID)
	agents.Adjust(a, b, -(3 + e.rng.Intn(6)), "words over who shirked the heavy lifting")
	after := agents.ScoreWith(a, b.ID)
	e.emitStory(st, story.CategoryRivalry,
		fmt.Sprintf("Bad blood between %s and %s", a.Name, b.Name),
		fmt.Sprintf("%s and %s argued over the day's work and neither backed down.", a.Name, b.Name),
		"The grudge deepened.", a, b)
	if before > agents.RivalThreshold && after <= agents.RivalThreshold {
		st.Metrics.Apply("unrest", 2)
		e.emitStory(st, story.CategoryConflict,
			fmt.Sprintf("%s and %s are now open rivals", a.Name, b.Name),
			fmt.Sprintf("The quarrel between %s and %s hardened into something the whole settlement can see.", a.Name, b.Name),
			"Neighbors are taking sides.", a, b)
	}
}

func (e *Engine) romanceStory(st *State) {
	a, b := e.warmGrownPair(st)
	if a == nil {
		return
	}
	agents.Adjust(a, b, 5+e.rng.Intn(6), "an evening walk past the well")
	a.Drift(0, 0, -2)
	b.Drift(0, 0, -2)
	e.emitStory(st, story.CategoryRomance,
		fmt.Sprintf("%s and %s, seen walking together", a.Name, b.Name),
		fmt.Sprintf("%s and %s took the long way past the well again. The settlement noticed.", a.Name, b.Name),
		"Something is growing there.", a, b)
}

func (e *Engine) businessStory(st *State) {
	a, b := e.tradePair(st)
	if a == nil {
		return
	}
	agents.Adjust(a, b, 2+e.rng.Intn(5), "struck a fair trade")
	st.Metrics.Apply("foodDays", 1)
	e.emitStory(st, story.CategoryBusiness,
		fmt.Sprintf("%s and %s strike a deal", a.Name, b.Name),
		fmt.Sprintf("%s and %s shook on a trade at the market, tools against stores, both satisfied.", a.Name, b.Name),
		"A little more in the granary.", a, b)
}

func (e *Engine) achievementStory(st *State) {
	a := e.randomAwake(st)
	if a == nil {
		return
	}
	a.Influence = clamp(a.Influence+2+e.rng.Intn(4), 0, 100)
	a.Reputation = clamp(a.Reputation+2+e.rng.Intn(4), 0, 100)
	e.emitStory(st, story.CategoryAchievement,
		fmt.Sprintf("%s earns the settlement's respect", a.Name),
		fmt.Sprintf("%s finished a piece of work people will point at for a season.", a.Name),
		"Reputation rising.", a)
}

func (e *Engine) misfortuneStory(st *State) {
	a := e.randomAwake(st)
	if a == nil {
		return
	}
	a.Drift(-(8 + e.rng.Intn(8)), 0, 6+e.rng.Intn(7))
	e.emitStory(st, story.CategoryMisfortune,
		fmt.Sprintf("A hard day for %s", a.Name),
		fmt.Sprintf("%s took a bad turn at work and will carry it for a while.", a.Name),
		"Rest needed.", a)
}

func (e *Engine) discoveryStory(st *State) {
	a := e.curiousAgent(st)
	if a == nil {
		return
	}
	st.Metrics.Apply("morale", 1)
	e.emitStory(st, story.CategoryDiscovery,
		fmt.Sprintf("%s finds something worth telling", a.Name),
		fmt.Sprintf("%s came back from the edge of the map with a find the hall talked about all evening.", a.Name),
		"Curiosity rewarded.", a)
}

// harvestCelebration marks a strong harvest with a gathering.
func (e *Engine) harvestCelebration(st *State) {
	e.safely("celebration", func() {
		who := e.gatherFor(st, agents.ArchetypeFarmer, 3)
		if len(who) == 0 {
			return
		}
		names := who[0].Name
		if len(who) > 1 {
			names = fmt.Sprintf("%s and others", who[0].Name)
		}
		e.emitStory(st, story.CategoryCelebration,
			"Harvest feast at the hall",
			fmt.Sprintf("The stores came in heavy and %s led the settlement in marking it.", names),
			"Spirits lifted.", who...)
	})
}

// approvalCelebration marks a passed council motion.
func (e *Engine) approvalCelebration(st *State, p *council.Proposal) {
	e.safely("celebration", func() {
		proposer := st.AgentByID(p.ProposerID)
		if proposer == nil {
			return
		}
		e.emitStory(st, story.CategoryCelebration,
			fmt.Sprintf("Cheers for %q", p.Title),
			fmt.Sprintf("The hall emptied in a good mood after %s's motion carried.", proposer.Name),
			"The settlement approves.", proposer)
	})
}

// emitStory appends one event to the global log (newest first) and each
// participant's personal log (newest last), both bounded.
func (e *Engine) emitStory(st *State, cat story.Category, title, desc, consequence string, who ...*agents.Agent) {
	ev := story.Event{
		ID:          e.newID(),
		Day:         st.Day,
		Hour:        st.Hour,
		Category:    cat,
		Title:       title,
		Description: desc,
		Consequence: consequence,
		At:          e.Now(),
	}
	for _, a := range who {
		ev.AgentIDs = append(ev.AgentIDs, a.ID)
	}
	st.Stories = ring.PushFront(st.Stories, ev, e.cfg.Caps.Stories)
	for _, a := range who {
		a.StoryLog = ring.PushBack(a.StoryLog, ev.Clone(), e.cfg.Caps.Stories)
	}
	slog.Debug("story emitted", "category", cat, "title", title)
}

// awakePair draws two distinct awake agents, nils when fewer than two are
// up.
func (e *Engine) awakePair(st *State) (*agents.Agent, *agents.Agent) {
	var up []*agents.Agent
	for _, a := range st.Agents {
		if a.Awake() {
			up = append(up, a)
		}
	}
	if len(up) < 2 {
		return nil, nil
	}
	idx := e.rng.Perm(len(up))
	return up[idx[0]], up[idx[1]]
}

// sourPair draws a random awake pair that already dislikes each other.
func (e *Engine) sourPair(st *State) (*agents.Agent, *agents.Agent) {
	type pair struct{ a, b *agents.Agent }
	var sour []pair
	for _, a := range st.Agents {
		if !a.Awake() {
			continue
		}
		for _, rel := range a.Relationships {
			if rel.Score >= 0 {
				continue
			}
			b := st.AgentByID(rel.TargetID)
			if b != nil && b.Awake() && a.ID < b.ID {
				sour = append(sour, pair{a, b})
			}
		}
	}
	if len(sour) == 0 {
		return nil, nil
	}
	p := sour[e.rng.Intn(len(sour))]
	return p.a, p.b
}

// warmGrownPair draws a grown awake pair, preferring ones already warm
// toward each other.
func (e *Engine) warmGrownPair(st *State) (*agents.Agent, *agents.Agent) {
	var grown []*agents.Agent
	for _, a := range st.Agents {
		if a.Awake() && a.Grown() {
			grown = append(grown, a)
		}
	}
	if len(grown) < 2 {
		return nil, nil
	}
	type pair struct{ a, b *agents.Agent }
	var warm []pair
	for _, a := range grown {
		for _, rel := range a.Relationships {
			if rel.Score < 20 {
				continue
			}
			b := st.AgentByID(rel.TargetID)
			if b != nil && b.Awake() && b.Grown() && a.ID < b.ID {
				warm = append(warm, pair{a, b})
			}
		}
	}
	if len(warm) > 0 && e.chance(0.7) {
		p := warm[e.rng.Intn(len(warm))]
		return p.a, p.b
	}
	idx := e.rng.Perm(len(grown))
	return grown[idx[0]], grown[idx[1]]
}

// tradePair draws two grown awake agents, weighted toward trades that
// actually deal in goods.
func (e *Engine) tradePair(st *State) (*agents.Agent, *agents.Agent) {
	var grown, traders []*agents.Agent
	for _, a := range st.Agents {
		if !a.Awake() || !a.Grown() {
			continue
		}
		grown = append(grown, a)
		switch a.Archetype {
		case agents.ArchetypeMerchant, agents.ArchetypeFarmer, agents.ArchetypeBuilder:
			traders = append(traders, a)
		}
	}
	if len(grown) < 2 {
		return nil, nil
	}
	first := grown[e.rng.Intn(len(grown))]
	if len(traders) > 0 && e.chance(0.7) {
		first = traders[e.rng.Intn(len(traders))]
	}
	second := first
	for second.ID == first.ID {
		second = grown[e.rng.Intn(len(grown))]
	}
	return first, second
}

// randomAwake draws one awake agent.
func (e *Engine) randomAwake(st *State) *agents.Agent {
	var up []*agents.Agent
	for _, a := range st.Agents {
		if a.Awake() {
			up = append(up, a)
		}
	}
	if len(up) == 0 {
		return nil
	}
	return up[e.rng.Intn(len(up))]
}

// curiousAgent prefers the roaming archetypes for discovery finds.
func (e *Engine) curiousAgent(st *State) *agents.Agent {
	var up, roamers []*agents.Agent
	for _, a := range st.Agents {
		if !a.Awake() {
			continue
		}
		up = append(up, a)
		switch a.Archetype {
		case agents.ArchetypeScout, agents.ArchetypeScholar, agents.ArchetypeHunter:
			roamers = append(roamers, a)
		}
	}
	if len(roamers) > 0 && e.chance(0.75) {
		return roamers[e.rng.Intn(len(roamers))]
	}
	if len(up) == 0 {
		return nil
	}
	return up[e.rng.Intn(len(up))]
}

// gatherFor collects up to n agents, preferring the given archetype.
func (e *Engine) gatherFor(st *State, pref agents.Archetype, n int) []*agents.Agent {
	var match, rest []*agents.Agent
	for _, a := range st.Agents {
		if a.Archetype == pref {
			match = append(match, a)
		} else {
			rest = append(rest, a)
		}
	}
	out := make([]*agents.Agent, 0, n)
	for _, pool := range [][]*agents.Agent{match, rest} {
		for _, idx := range e.rng.Perm(len(pool)) {
			if len(out) == n {
				return out
			}
			out = append(out, pool[idx])
		}
	}
	return out
}
