package brain

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/humannews"
)

// Templates is the default provider: archetype-keyed tables, a vote policy
// over personality and rapport, and zero network. Every seeded run speaks
// the same lines.
type Templates struct{}

func NewTemplates() *Templates { return &Templates{} }

// Proposal picks the agent's most urgent draft: each candidate is scored by
// how far its target metrics sit from comfortable, plus jitter so repeat
// sessions don't become a broken record.
func (t *Templates) Proposal(rng *rand.Rand, a *agents.Agent, v View) Draft {
	candidates := drafts[a.Archetype]
	if len(candidates) == 0 {
		candidates = drafts[agents.ArchetypeFarmer]
	}
	best := candidates[0]
	bestScore := -1
	for _, d := range candidates {
		score := rng.Intn(25)
		for _, imp := range d.Impacts {
			score += urgency(v, imp)
		}
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	out := best
	out.Impacts = append([]council.Impact(nil), best.Impacts...)
	return out
}

// Vote scores the ballot from rapport with the proposer, the agent's
// temperament, and what the proposal costs against what it promises, then
// adds jitter. The middle band abstains.
func (t *Templates) Vote(rng *rand.Rand, a *agents.Agent, p *council.Proposal, rapport int) council.Vote {
	score := rapport / 3
	score += (a.Personality.Empathy - 50) / 6
	score += (a.Personality.Ambition - 50) / 8
	for _, imp := range p.Impacts {
		score += benefit(imp) / 2
	}
	// Cautious agents balk at expensive asks.
	score -= p.Cost * (100 - a.Personality.Courage) / 150
	score += rng.Intn(21) - 10

	switch {
	case score > 5:
		return council.VoteYes
	case score < -5:
		return council.VoteNo
	default:
		return council.VoteAbstain
	}
}

// Quote fills one line from the register's table, occasionally fronted by
// an archetype verbal tic.
func (t *Templates) Quote(rng *rand.Rand, a *agents.Agent, c Context) string {
	pool := quotes[c.Kind]
	if len(pool) == 0 {
		pool = quotes[CtxDebate]
	}
	line := fill(pool[rng.Intn(len(pool))], a, c)
	if tics := voiceTics[a.Archetype]; len(tics) > 0 && rng.Float64() < 0.3 {
		line = tics[rng.Intn(len(tics))] + " " + line
	}
	return line
}

// NewsReaction answers outside news in the stance the agent's temperament
// picks: defiance, worry, fascination, or plain wariness.
func (t *Templates) NewsReaction(rng *rand.Rand, a *agents.Agent, ev humannews.Event) string {
	var pool []string
	switch {
	case a.Personality.Courage >= 65:
		pool = reactionsDefiant
	case a.Personality.Empathy >= 65:
		pool = reactionsConcerned
	case a.Personality.Curiosity >= 65:
		pool = reactionsIntrigued
	default:
		pool = reactionsWary
	}
	line := pool[rng.Intn(len(pool))]
	line = strings.ReplaceAll(line, "{headline}", ev.Headline)
	line = strings.ReplaceAll(line, "{source}", ev.Source)
	return line
}

// Action labels the working hour with a short archetype-true phrase.
func (t *Templates) Action(rng *rand.Rand, a *agents.Agent, v View) string {
	pool := actions[a.Archetype]
	if len(pool) == 0 {
		pool = actions[agents.ArchetypeApprentice]
	}
	return pool[rng.Intn(len(pool))]
}

// urgency measures how badly the settlement needs this impact right now.
// Raising a low metric or lowering a high one scores the gap.
func urgency(v View, imp council.Impact) int {
	val, limit := metricValue(v, imp.Metric)
	if imp.Direction == council.DirectionUp {
		return (limit - val) * imp.Magnitude / limit
	}
	return val * imp.Magnitude / limit
}

// benefit signs an impact by whether it moves its metric the welcome way.
func benefit(imp council.Impact) int {
	goodUp := imp.Metric == "morale" || imp.Metric == "foodDays" ||
		imp.Metric == "waterDays" || imp.Metric == "fireStability"
	if (imp.Direction == council.DirectionUp) == goodUp {
		return imp.Magnitude
	}
	return -imp.Magnitude
}

func metricValue(v View, name string) (val, limit int) {
	switch name {
	case "morale":
		return v.Morale, 100
	case "unrest":
		return v.Unrest, 100
	case "healthRisk":
		return v.HealthRisk, 100
	case "fireStability":
		return v.FireStability, 100
	case "foodDays":
		return v.FoodDays, 200
	case "waterDays":
		return v.WaterDays, 200
	default:
		return 50, 100
	}
}

func fill(tpl string, a *agents.Agent, c Context) string {
	r := strings.NewReplacer(
		"{name}", a.Name,
		"{topic}", orElse(c.Topic, "the matter at hand"),
		"{other}", orElse(c.Other, "the last speaker"),
		"{weather}", orElse(c.Weather, "the weather"),
		"{headline}", c.Headline,
		"{day}", fmt.Sprintf("%d", c.Day),
	)
	return r.Replace(tpl)
}

func orElse(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var drafts = map[agents.Archetype][]Draft{
	agents.ArchetypeFarmer: {
		{
			Title:       "Expand the terrace fields",
			Description: "Break new ground on the south slope before the frost locks it.",
			Cost:        6,
			Impacts:     []council.Impact{{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 8}},
		},
		{
			Title:       "Dig a seed cellar under the granary",
			Description: "Dry, dark, and cold enough to carry seed grain through two bad winters.",
			Cost:        4,
			Impacts:     []council.Impact{{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 5}},
		},
		{
			Title:       "Rotate the fallow strips",
			Description: "Rest the tired fields and the soil pays us back next season.",
			Cost:        2,
			Impacts: []council.Impact{
				{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 4},
				{Metric: "morale", Direction: council.DirectionUp, Magnitude: 1},
			},
		},
	},
	agents.ArchetypeGuard: {
		{
			Title:       "Reinforce the palisade",
			Description: "The north run is one hard shoulder from falling over.",
			Cost:        7,
			Impacts:     []council.Impact{{Metric: "unrest", Direction: council.DirectionDown, Magnitude: 5}},
		},
		{
			Title:       "Double the gate watch",
			Description: "Two pairs of eyes at the gate and the rumors die at the gate.",
			Cost:        3,
			Impacts:     []council.Impact{{Metric: "unrest", Direction: council.DirectionDown, Magnitude: 3}},
		},
		{
			Title:       "Drill the bucket line",
			Description: "Run the fire drill until every pair of hands knows its place in the chain.",
			Cost:        4,
			Impacts:     []council.Impact{{Metric: "fireStability", Direction: council.DirectionUp, Magnitude: 6}},
		},
	},
	agents.ArchetypeScout: {
		{
			Title:       "Post a ridge lookout",
			Description: "Anything moving in the valley, we hear about it half a day sooner.",
			Cost:        2,
			Impacts:     []council.Impact{{Metric: "unrest", Direction: council.DirectionDown, Magnitude: 2}},
		},
		{
			Title:       "Blaze a shortcut to the river",
			Description: "A straight path to good water cuts the haul by a third.",
			Cost:        5,
			Impacts:     []council.Impact{{Metric: "waterDays", Direction: council.DirectionUp, Magnitude: 4}},
		},
		{
			Title:       "Chart the high passes",
			Description: "Know the passes before the snow does; the maps outlive all of us.",
			Cost:        3,
			Impacts: []council.Impact{
				{Metric: "morale", Direction: council.DirectionUp, Magnitude: 2},
				{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 2},
			},
		},
	},
	agents.ArchetypeHunter: {
		{
			Title:       "Smoke the autumn catch",
			Description: "A week of smoke now is a month of meat in deep winter.",
			Cost:        3,
			Impacts:     []council.Impact{{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 6}},
		},
		{
			Title:       "Thin the wolf pack",
			Description: "They've marked the sheep pens. Better our terms than theirs.",
			Cost:        5,
			Impacts:     []council.Impact{{Metric: "unrest", Direction: council.DirectionDown, Magnitude: 3}},
		},
		{
			Title:       "Set snares along the marsh",
			Description: "Low cost, steady return, and the marsh birds never learn.",
			Cost:        1,
			Impacts:     []council.Impact{{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 3}},
		},
	},
	agents.ArchetypeHealer: {
		{
			Title:       "Restock the herb lofts",
			Description: "Feverfew, willow bark, and honey before the coughing season starts.",
			Cost:        4,
			Impacts:     []council.Impact{{Metric: "healthRisk", Direction: council.DirectionDown, Magnitude: 6}},
		},
		{
			Title:       "Boil the drawing water a week",
			Description: "Whatever got into the well, a week of boiling starves it out.",
			Cost:        2,
			Impacts:     []council.Impact{{Metric: "healthRisk", Direction: council.DirectionDown, Magnitude: 3}},
		},
		{
			Title:       "Air out the sick rooms",
			Description: "Fresh rushes, open shutters, and lime on the walls.",
			Cost:        2,
			Impacts: []council.Impact{
				{Metric: "healthRisk", Direction: council.DirectionDown, Magnitude: 3},
				{Metric: "morale", Direction: council.DirectionUp, Magnitude: 1},
			},
		},
	},
	agents.ArchetypeBuilder: {
		{
			Title:       "Line the well shaft with stone",
			Description: "Stone lining stops the seep and the well stops going sour.",
			Cost:        8,
			Impacts:     []council.Impact{{Metric: "waterDays", Direction: council.DirectionUp, Magnitude: 8}},
		},
		{
			Title:       "Re-thatch the hearth-side roofs",
			Description: "Old thatch over open fires is a bill that always comes due.",
			Cost:        5,
			Impacts:     []council.Impact{{Metric: "fireStability", Direction: council.DirectionUp, Magnitude: 6}},
		},
		{
			Title:       "Shore up the granary floor",
			Description: "The joists sag and the damp gets in under the grain.",
			Cost:        3,
			Impacts:     []council.Impact{{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 3}},
		},
	},
	agents.ArchetypeMerchant: {
		{
			Title:       "Send a caravan to the lowland fair",
			Description: "Hides and carved bone out, salt and grain back, and news besides.",
			Cost:        9,
			Impacts: []council.Impact{
				{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 5},
				{Metric: "morale", Direction: council.DirectionUp, Magnitude: 2},
			},
		},
		{
			Title:       "Open a tally board at the market",
			Description: "Fair prices posted plain, and half the market squabbles end.",
			Cost:        2,
			Impacts:     []council.Impact{{Metric: "morale", Direction: council.DirectionUp, Magnitude: 2}},
		},
		{
			Title:       "Trade surplus hides for salt",
			Description: "Salt keeps meat, and meat keeps us.",
			Cost:        4,
			Impacts:     []council.Impact{{Metric: "foodDays", Direction: council.DirectionUp, Magnitude: 4}},
		},
	},
	agents.ArchetypeScholar: {
		{
			Title:       "Start a winter reading circle",
			Description: "Long nights go easier with stories; the children learn their letters besides.",
			Cost:        2,
			Impacts:     []council.Impact{{Metric: "morale", Direction: council.DirectionUp, Magnitude: 4}},
		},
		{
			Title:       "Survey the old flood marks",
			Description: "The river has habits. The marks on the mill wall remember them.",
			Cost:        3,
			Impacts:     []council.Impact{{Metric: "waterDays", Direction: council.DirectionUp, Magnitude: 3}},
		},
		{
			Title:       "Copy the infirmary herbal",
			Description: "One book of remedies is a hostage to one candle.",
			Cost:        3,
			Impacts:     []council.Impact{{Metric: "healthRisk", Direction: council.DirectionDown, Magnitude: 3}},
		},
	},
	agents.ArchetypeApprentice: {
		{
			Title:       "Hold a lantern festival",
			Description: "One bright night before deep winter, for everyone.",
			Cost:        3,
			Impacts:     []council.Impact{{Metric: "morale", Direction: council.DirectionUp, Magnitude: 3}},
		},
		{
			Title:       "Sweep the chimneys before frost",
			Description: "Every flue brushed before the hearths burn all day.",
			Cost:        2,
			Impacts:     []council.Impact{{Metric: "fireStability", Direction: council.DirectionUp, Magnitude: 4}},
		},
	},
}

var quotes = map[string][]string{
	CtxOpening: {
		"Settle in, neighbors. Day {day}, and the hall is warm enough to argue in.",
		"Council's open. Speak plainly and we'll be done before the candles gutter.",
		"Take your benches. We have business tonight and {weather} outside.",
		"Quiet, please. The sooner we start, the sooner the stew.",
	},
	CtxPresentation: {
		"Here's my case for {topic}, such as it is.",
		"I'll keep this short: {topic}. We need it, and I'll say why.",
		"You've all heard me mutter about it. Formally, then: {topic}.",
		"I put {topic} to the council, and I'll stand by every word.",
	},
	CtxDebate: {
		"I've heard worse ideas than {topic}, but not many cheaper ones.",
		"And who hauls the stone for it? Asking for my own back.",
		"{other} talks sense for once. I'd back it.",
		"We said the same last season and nothing moved. Why now?",
		"The cost worries me less than doing nothing again.",
		"My grandmother proposed the like thirty years back. It worked then.",
	},
	CtxRebuttal: {
		"With respect to {other}, the papers exaggerate. They always have.",
		"{other} frets too early. Wait for a second report before we jump.",
		"If even half of that is true, we should act tonight, not nod along.",
	},
	CtxVoteYes: {
		"Aye from me.",
		"Yes, and gladly.",
		"I'll back it. Aye.",
		"Count me for it.",
	},
	CtxVoteNo: {
		"No. Not as written.",
		"Against. The cost lands wrong.",
		"I can't back this one. No.",
		"No from me, and I'll explain after if anyone cares.",
	},
	CtxVoteAbstain: {
		"I'll sit this one out.",
		"Abstain. I'm not decided and won't pretend.",
		"Pass. Let those who know the work vote it.",
	},
	CtxTally: {
		"The count stands. We move on.",
		"So the hall decides. Next matter.",
		"Carried or buried, the count is the count.",
	},
	CtxClosing: {
		"That's the business. Bank the fires and sleep well.",
		"Council's closed. Mind the frost on the steps going home.",
		"We're done. Whatever we got wrong tonight, we'll mend in daylight.",
	},
	CtxMorning: {
		"Up with the light. Porridge first, opinions after.",
		"Cold morning, good bread. It balances.",
		"The rooster and I have an understanding. He's wrong about the hour.",
	},
	CtxNight: {
		"The watch is set. Sleep, the rest of you.",
		"Stars are out past the smoke. Quiet night, I'd wager.",
		"Last lamp out puts the cat in.",
	},
	CtxCelebration: {
		"Tonight we eat like the harvest never ends!",
		"Music! If the fiddle's broken, someone hum.",
		"One good day deserves one loud night.",
	},
}

var voiceTics = map[agents.Archetype][]string{
	agents.ArchetypeFarmer:   {"Mud on my boots says:", "Field-sense, nothing more:"},
	agents.ArchetypeGuard:    {"From the wall it looks simple:", "Plainly, then:"},
	agents.ArchetypeScout:    {"Seen from the ridge:", "Half a day out, I'd say:"},
	agents.ArchetypeHunter:   {"Tracks don't lie:", "Quietly now:"},
	agents.ArchetypeHealer:   {"Gently, all of you:", "As a matter of health:"},
	agents.ArchetypeBuilder:  {"Measure twice, friends:", "Load-bearing question:"},
	agents.ArchetypeMerchant: {"Price it out:", "Ledger says:"},
	agents.ArchetypeScholar:  {"The records suggest:", "For accuracy's sake:"},
}

var reactionsDefiant = []string{
	"\"{headline}\" — let the lowlands worry. Our walls are our own.",
	"The {source} loves a scare. We've ridden out worse.",
	"If it comes to it, it finds us ready. Next item.",
}

var reactionsConcerned = []string{
	"\"{headline}\" — I keep thinking of the families in the path of it.",
	"We should set something aside for the road-folk this brings.",
	"The {source} wouldn't print it if there were nothing to it. Mind the little ones.",
}

var reactionsIntrigued = []string{
	"\"{headline}\" — now that raises three questions I'd love answered.",
	"Someone save that sheet from the {source}. I want the details.",
	"Strange times make good study. And good stories.",
}

var reactionsWary = []string{
	"\"{headline}\", says the {source}. We watch, we wait, we bolt the gate.",
	"Could mean nothing. Could mean everything. Keep the stores counted.",
	"Outside news is outside weather. Dress for it anyway.",
}

var actions = map[agents.Archetype][]string{
	agents.ArchetypeFarmer: {
		"turned the east rows before the rain",
		"mended the fence by the fallow strip",
		"hauled seed sacks up from the cellar",
		"walked the terraces counting green shoots",
	},
	agents.ArchetypeGuard: {
		"walked the palisade end to end",
		"oiled the gate hinges and the bar",
		"ran the bucket line drill with the young ones",
		"stood the noon post at the gate",
	},
	agents.ArchetypeScout: {
		"ranged the ridge trail to the cairn",
		"re-marked the river path blazes",
		"watched the valley road from the high rock",
		"sketched the new washout by the ford",
	},
	agents.ArchetypeHunter: {
		"checked the snare line along the marsh",
		"dressed the morning's catch behind the smokehouse",
		"followed deer sign up the north draw",
		"restrung the heavy bow",
	},
	agents.ArchetypeHealer: {
		"hung feverfew to dry in the loft",
		"looked in on the miller's cough",
		"scrubbed the infirmary table with lime",
		"ground willow bark for the shelf jars",
	},
	agents.ArchetypeBuilder: {
		"squared stone for the well lining",
		"re-pegged the granary door frame",
		"split shakes for the infirmary roof",
		"trued the market stall uprights",
	},
	agents.ArchetypeMerchant: {
		"tallied the granary ledger twice",
		"haggled the tinker down on nails",
		"sorted hides for the next caravan",
		"posted fair prices on the tally board",
	},
	agents.ArchetypeScholar: {
		"copied a page of the herbal fair",
		"taught letters to whichever children sat still",
		"measured the well line against the flood marks",
		"catalogued the hall's oldest deeds",
	},
	agents.ArchetypeApprentice: {
		"fetched water until the yoke bit",
		"chased chickens out of the granary",
		"stacked firewood in crooked towers",
		"ran messages between the hall and the gate",
	},
}
