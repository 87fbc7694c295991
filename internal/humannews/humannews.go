// Package humannews feeds the settlement word from the wider human world.
// ForDay is a pure rotation over a fixed table so every run of a given day
// reads the same papers.
package humannews

// Effect is the simulation-side consequence of an outside headline.
type Effect struct {
	Variable    string `json:"variable"`
	Modifier    int    `json:"modifier"`
	Description string `json:"description"`
}

// Event is one piece of outside-world news with its settlement effect.
type Event struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Effect   Effect `json:"effect"`
}

// eventsPerDay is the fixed size of each day's batch.
const eventsPerDay = 2

// ForDay returns the day's batch of outside news. Pure: same day, same
// events, no clock or rng involved. Negative days read as day zero.
func ForDay(day int) []Event {
	if day < 0 {
		day = 0
	}
	out := make([]Event, 0, eventsPerDay)
	for i := 0; i < eventsPerDay; i++ {
		out = append(out, table[(day*eventsPerDay+i)%len(table)])
	}
	return out
}

var table = []Event{
	{
		Headline: "Grain caravans from the lowlands report a record harvest",
		Source:   "Lowland Courier",
		Effect:   Effect{Variable: "foodDays", Modifier: 3, Description: "cheap grain reaches the granary"},
	},
	{
		Headline: "Border levies raised on all mountain passes",
		Source:   "Royal Gazette",
		Effect:   Effect{Variable: "unrest", Modifier: 2, Description: "traders grumble about the new tolls"},
	},
	{
		Headline: "Traveling physician's almanac warns of winter fever",
		Source:   "Physicians' Circular",
		Effect:   Effect{Variable: "healthRisk", Modifier: 2, Description: "fever talk spreads door to door"},
	},
	{
		Headline: "Famous bard to tour the northern valleys",
		Source:   "Wayfarer's Broadsheet",
		Effect:   Effect{Variable: "morale", Modifier: 3, Description: "everyone hopes the tour passes through"},
	},
	{
		Headline: "Dry summer blamed for wildfires beyond the ridge",
		Source:   "Lowland Courier",
		Effect:   Effect{Variable: "fireStability", Modifier: -3, Description: "smoke on the horizon keeps the fire watch tense"},
	},
	{
		Headline: "River barges stalled by a collapsed lock downstream",
		Source:   "Riverside Ledger",
		Effect:   Effect{Variable: "waterDays", Modifier: -2, Description: "barrel deliveries run late"},
	},
	{
		Headline: "Crown announces amnesty for petty debts",
		Source:   "Royal Gazette",
		Effect:   Effect{Variable: "morale", Modifier: 2, Description: "a few families breathe easier"},
	},
	{
		Headline: "Bandits routed from the eastern trade road",
		Source:   "Garrison Dispatch",
		Effect:   Effect{Variable: "unrest", Modifier: -2, Description: "the road east feels safe again"},
	},
	{
		Headline: "Salt prices double after a mine flood",
		Source:   "Riverside Ledger",
		Effect:   Effect{Variable: "foodDays", Modifier: -2, Description: "preserving meat just got costly"},
	},
	{
		Headline: "New well-boring technique praised by valley engineers",
		Source:   "Artisans' Register",
		Effect:   Effect{Variable: "waterDays", Modifier: 3, Description: "the well crew studies the diagrams"},
	},
	{
		Headline: "Distant city riots over bread taxes",
		Source:   "Lowland Courier",
		Effect:   Effect{Variable: "unrest", Modifier: 1, Description: "uneasy talk at the market stalls"},
	},
	{
		Headline: "Healers' guild distributes free tinctures to villages",
		Source:   "Physicians' Circular",
		Effect:   Effect{Variable: "healthRisk", Modifier: -3, Description: "a crate of tinctures arrives at the infirmary"},
	},
	{
		Headline: "Harvest festival declared across the province",
		Source:   "Royal Gazette",
		Effect:   Effect{Variable: "morale", Modifier: 2, Description: "festival plans stir the square"},
	},
	{
		Headline: "Storm fleet sighted off the southern coast",
		Source:   "Wayfarer's Broadsheet",
		Effect:   Effect{Variable: "fireStability", Modifier: 1, Description: "wet winds expected for a week"},
	},
	{
		Headline: "Scholars publish a survey of valley soils",
		Source:   "Artisans' Register",
		Effect:   Effect{Variable: "foodDays", Modifier: 1, Description: "the farmers argue over the findings"},
	},
	{
		Headline: "Conscription rumors ripple through the provinces",
		Source:   "Garrison Dispatch",
		Effect:   Effect{Variable: "unrest", Modifier: 3, Description: "parents keep their grown children close"},
	},
}
