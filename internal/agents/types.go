// Package agents provides the agent data model: identity, vitals, schedule,
// and the scored relationship graph with ally/rival classification.
package agents

import (
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/story"
	"github.com/talgya/emberhold/internal/world"
)

// Status is an agent's current activity.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSleeping  Status = "sleeping"
	StatusWorking   Status = "working"
	StatusInCouncil Status = "in_council"
	StatusOnWatch   Status = "on_watch"
)

// AgeGroup buckets agents by life stage.
type AgeGroup string

const (
	AgeChild AgeGroup = "child"
	AgeTeen  AgeGroup = "teen"
	AgeAdult AgeGroup = "adult"
	AgeElder AgeGroup = "elder"
)

// AgeGroupFor maps raw age in sim-years to its group.
func AgeGroupFor(age int) AgeGroup {
	switch {
	case age < 13:
		return AgeChild
	case age < 18:
		return AgeTeen
	case age < 60:
		return AgeAdult
	default:
		return AgeElder
	}
}

// Archetype is an agent's role label in the settlement.
type Archetype string

const (
	ArchetypeFarmer     Archetype = "farmer"
	ArchetypeGuard      Archetype = "guard"
	ArchetypeScout      Archetype = "scout"
	ArchetypeHunter     Archetype = "hunter"
	ArchetypeHealer     Archetype = "healer"
	ArchetypeBuilder    Archetype = "builder"
	ArchetypeMerchant   Archetype = "merchant"
	ArchetypeScholar    Archetype = "scholar"
	ArchetypeApprentice Archetype = "apprentice"
)

// IsWatch reports whether the archetype stands night watch.
func (a Archetype) IsWatch() bool {
	return a == ArchetypeGuard || a == ArchetypeScout || a == ArchetypeHunter
}

// Personality is the five-trait vector, each trait in [0,100].
type Personality struct {
	Courage    int `json:"courage"`
	Empathy    int `json:"empathy"`
	Ambition   int `json:"ambition"`
	Curiosity  int `json:"curiosity"`
	Discipline int `json:"discipline"`
}

// Schedule holds an agent's daily hour marks.
type Schedule struct {
	Wake      int `json:"wake"`
	Sleep     int `json:"sleep"`
	WorkStart int `json:"workStart"`
	WorkEnd   int `json:"workEnd"`
	Lunch     int `json:"lunch"`
}

// Relationship is a directed scored edge to another agent. Score runs from
// -100 (blood feud) to +100 (devoted); Reasons keeps the recent causes,
// newest last.
type Relationship struct {
	TargetID string   `json:"targetId"`
	Score    int      `json:"score"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Agent is one simulated individual.
type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Archetype Archetype `json:"archetype"`
	AgeGroup  AgeGroup  `json:"ageGroup"`
	Age       int       `json:"age"`

	// Location and activity
	Pos    world.Pos `json:"pos"`
	Home   world.Pos `json:"home"`
	Work   world.Pos `json:"work"`
	Status Status    `json:"status"`

	// Vitals, clamped to [0,100]
	Energy int `json:"energy"`
	Hunger int `json:"hunger"`
	Stress int `json:"stress"`

	// Standing, clamped to [0,100]
	Influence  int `json:"influence"`
	Reputation int `json:"reputation"`

	Personality Personality `json:"personality"`
	Schedule    Schedule    `json:"schedule"`

	// Bounded accumulators, newest last
	Quotes  []string             `json:"quotes,omitempty"`
	Actions []string             `json:"actions,omitempty"`
	Votes   []council.VoteRecord `json:"votes,omitempty"`

	// Social graph. Allies and Rivals are derived from relationship scores
	// and reconciled on every score change; an id never appears in both.
	Relationships []Relationship `json:"relationships"`
	Allies        []string       `json:"allies"`
	Rivals        []string       `json:"rivals"`

	// Narrative accumulators
	StoryLog    []story.Event `json:"storyLog,omitempty"`
	MoodHistory []int         `json:"moodHistory,omitempty"`
}

// Awake reports whether the agent is not sleeping.
func (a *Agent) Awake() bool {
	return a.Status != StatusSleeping
}

// Grown reports whether the agent is an adult or elder.
func (a *Agent) Grown() bool {
	return a.AgeGroup == AgeAdult || a.AgeGroup == AgeElder
}

// Mood is the derived wellbeing sample: 100 minus stress.
func (a *Agent) Mood() int {
	return 100 - a.Stress
}

// Drift applies vital deltas with saturating clamps.
func (a *Agent) Drift(energy, hunger, stress int) {
	a.Energy = clamp(a.Energy+energy, 0, 100)
	a.Hunger = clamp(a.Hunger+hunger, 0, 100)
	a.Stress = clamp(a.Stress+stress, 0, 100)
}

// ClampAll forces every bounded numeric field back into range. Used by the
// repair pass on loaded snapshots.
func (a *Agent) ClampAll() {
	a.Energy = clamp(a.Energy, 0, 100)
	a.Hunger = clamp(a.Hunger, 0, 100)
	a.Stress = clamp(a.Stress, 0, 100)
	a.Influence = clamp(a.Influence, 0, 100)
	a.Reputation = clamp(a.Reputation, 0, 100)
	a.Personality.Courage = clamp(a.Personality.Courage, 0, 100)
	a.Personality.Empathy = clamp(a.Personality.Empathy, 0, 100)
	a.Personality.Ambition = clamp(a.Personality.Ambition, 0, 100)
	a.Personality.Curiosity = clamp(a.Personality.Curiosity, 0, 100)
	a.Personality.Discipline = clamp(a.Personality.Discipline, 0, 100)
	for i := range a.Relationships {
		a.Relationships[i].Score = clamp(a.Relationships[i].Score, MinScore, MaxScore)
	}
}

// Clone returns a deep copy of the agent.
func (a *Agent) Clone() *Agent {
	out := *a
	out.Quotes = append([]string(nil), a.Quotes...)
	out.Actions = append([]string(nil), a.Actions...)
	out.Votes = append([]council.VoteRecord(nil), a.Votes...)
	out.Relationships = make([]Relationship, len(a.Relationships))
	for i, r := range a.Relationships {
		cp := r
		cp.Reasons = append([]string(nil), r.Reasons...)
		out.Relationships[i] = cp
	}
	out.Allies = append([]string(nil), a.Allies...)
	out.Rivals = append([]string(nil), a.Rivals...)
	out.StoryLog = make([]story.Event, len(a.StoryLog))
	for i, ev := range a.StoryLog {
		out.StoryLog[i] = ev.Clone()
	}
	out.MoodHistory = append([]int(nil), a.MoodHistory...)
	return &out
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
