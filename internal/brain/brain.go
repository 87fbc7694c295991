// Package brain is the dialogue and decision collaborator behind the
// settlement's voices. The engine injects a Provider and treats everything
// it returns as opaque text; swapping providers never changes sim mechanics.
package brain

import (
	"math/rand"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/humannews"
)

// View is the slice of world state a provider may consider. Plain values
// only; providers never see or touch live engine state.
type View struct {
	Day        int
	Hour       int
	Weather    string
	Population int

	Morale        int
	Unrest        int
	HealthRisk    int
	FireStability int
	FoodDays      int
	WaterDays     int
}

// Draft is a provider-authored proposal before the engine assigns its ID
// and opens it for votes.
type Draft struct {
	Title       string
	Description string
	Cost        int
	Impacts     []council.Impact
}

// Context situates a quote request. Kind selects the speech register;
// the rest is fodder for interpolation.
type Context struct {
	Kind     string
	Day      int
	Hour     int
	Weather  string
	Topic    string
	Headline string
	Other    string
}

// Context kinds.
const (
	CtxOpening      = "opening"
	CtxPresentation = "presentation"
	CtxDebate       = "debate"
	CtxRebuttal     = "rebuttal"
	CtxVoteYes      = "vote_yes"
	CtxVoteNo       = "vote_no"
	CtxVoteAbstain  = "vote_abstain"
	CtxTally        = "tally"
	CtxClosing      = "closing"
	CtxMorning      = "morning"
	CtxNight        = "night"
	CtxCelebration  = "celebration"
)

// Provider generates proposals, votes, and dialogue for agents. All
// randomness is drawn from the rng the engine passes in, so a seeded run
// stays reproducible with the default provider.
type Provider interface {
	// Proposal drafts one council proposal in the agent's voice.
	Proposal(rng *rand.Rand, a *agents.Agent, v View) Draft

	// Vote decides the agent's ballot on p. rapport is the agent's
	// relationship score toward the proposer. The policy must depend on
	// personality, rapport, and the proposal's cost and impacts.
	Vote(rng *rand.Rand, a *agents.Agent, p *council.Proposal, rapport int) council.Vote

	// Quote produces one line of dialogue for the given context.
	Quote(rng *rand.Rand, a *agents.Agent, c Context) string

	// NewsReaction responds to one piece of outside-world news.
	NewsReaction(rng *rand.Rand, a *agents.Agent, ev humannews.Event) string

	// Action labels what the agent is doing with a short phrase.
	Action(rng *rand.Rand, a *agents.Agent, v View) string
}
