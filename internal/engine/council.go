package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/brain"
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/humannews"
	"github.com/talgya/emberhold/internal/ring"
)

// startCouncil assembles the whole evening session in one tick: opening,
// news reactions, proposals with debate, the voting round, and the close.
// The transcript is ordered; later ticks inside the window only hold the
// agents in place.
func (e *Engine) startCouncil(st *State, out *outbox) {
	st.Council = council.Session{
		Day:       st.Day,
		Active:    true,
		StartHour: st.Council.StartHour,
		EndHour:   st.Council.EndHour,
	}
	for _, a := range st.Agents {
		a.Status = agents.StatusInCouncil
		a.Pos = st.Grid.Hall
	}

	chair := e.councilChair(st)
	if chair == nil {
		st.Council.Active = false
		return
	}
	st.Council.SpeakerID = chair.ID
	st.Council.Announcement = fmt.Sprintf("The council sits at the hall, day %d. %s presides.", st.Day, chair.Name)

	v := e.view(st)
	e.say(st, chair, council.LineOpening, "", "", brain.Context{
		Kind: brain.CtxOpening, Day: st.Day, Hour: st.Hour, Weather: v.Weather,
	})
	e.newsReactions(st)

	proposers := e.pickProposers(st, chair)
	for _, proposer := range proposers {
		draft := e.brain.Proposal(e.rng, proposer, v)
		p := council.Proposal{
			ID:          e.newID(),
			Title:       draft.Title,
			Description: draft.Description,
			ProposerID:  proposer.ID,
			Cost:        draft.Cost,
			Impacts:     append([]council.Impact(nil), draft.Impacts...),
			Votes:       make(map[string]council.Vote, len(st.Agents)),
			Status:      council.StatusPending,
		}
		e.say(st, proposer, council.LinePresentation, p.ID, "", brain.Context{
			Kind: brain.CtxPresentation, Day: st.Day, Hour: st.Hour, Weather: v.Weather, Topic: p.Title,
		})
		e.debate(st, &p, proposer)
		e.votingRound(st, &p, proposer)
		e.resolveProposal(st, out, &p, chair)
		st.Council.Proposals = append(st.Council.Proposals, p)
	}

	e.recordVoteHistory(st)
	e.say(st, chair, council.LineClosing, "", "", brain.Context{
		Kind: brain.CtxClosing, Day: st.Day, Hour: st.Hour, Weather: v.Weather,
	})
	slog.Info("council session held", "day", st.Day, "proposals", len(st.Council.Proposals), "chair", chair.Name)
}

// maybeEndCouncil closes an active session once the clock leaves its
// window. Checking the window rather than the exact end hour keeps a
// jumping injected clock from leaving a session active forever.
func (e *Engine) maybeEndCouncil(st *State) {
	if !st.Council.Active {
		return
	}
	if st.Day == st.Council.Day && st.Hour >= st.Council.StartHour && st.Hour < st.Council.EndHour {
		return
	}
	st.Council.Active = false
	st.Council.Announcement = ""
	st.Council.SpeakerID = ""
	for _, a := range st.Agents {
		if a.Status == agents.StatusInCouncil {
			a.Status = agents.StatusIdle
		}
	}
	slog.Info("council adjourned", "day", st.Council.Day)
}

// councilChair is the highest-influence agent, first in roster order on
// ties.
func (e *Engine) councilChair(st *State) *agents.Agent {
	var chair *agents.Agent
	for _, a := range st.Agents {
		if chair == nil || a.Influence > chair.Influence {
			chair = a
		}
	}
	return chair
}

// newsReactions voices up to two of the day's outside headlines: one
// reactor and one distinct rebuttal speaker per item.
func (e *Engine) newsReactions(st *State) {
	events := humannews.ForDay(st.Day)
	if len(events) > 2 {
		events = events[:2]
	}
	if len(st.Agents) < 2 {
		return
	}
	for _, ev := range events {
		reactor := st.Agents[e.rng.Intn(len(st.Agents))]
		line := e.brain.NewsReaction(e.rng, reactor, ev)
		st.Council.Transcript = append(st.Council.Transcript, council.Line{
			SpeakerID: reactor.ID, Speaker: reactor.Name, Text: line,
			Kind: council.LineReaction, Headline: ev.Headline,
		})
		reactor.Quotes = ring.PushBack(reactor.Quotes, line, e.cfg.Caps.Quotes)

		rebutter := reactor
		for rebutter.ID == reactor.ID {
			rebutter = st.Agents[e.rng.Intn(len(st.Agents))]
		}
		e.say(st, rebutter, council.LineRebuttal, "", ev.Headline, brain.Context{
			Kind: brain.CtxRebuttal, Day: st.Day, Hour: st.Hour, Headline: ev.Headline, Other: reactor.Name,
		})
	}
}

// pickProposers draws 2-4 distinct grown agents uniformly. Fewer than two
// candidates means no proposals tonight.
func (e *Engine) pickProposers(st *State, chair *agents.Agent) []*agents.Agent {
	var candidates []*agents.Agent
	for _, a := range st.Agents {
		if a.Grown() {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) < 2 {
		return nil
	}
	want := 2 + e.rng.Intn(3)
	if want > len(candidates) {
		want = len(candidates)
	}
	picked := make([]*agents.Agent, 0, want)
	for _, idx := range e.rng.Perm(len(candidates))[:want] {
		picked = append(picked, candidates[idx])
	}
	return picked
}

// debate adds 2-3 floor remarks from distinct agents other than the
// proposer.
func (e *Engine) debate(st *State, p *council.Proposal, proposer *agents.Agent) {
	var floor []*agents.Agent
	for _, a := range st.Agents {
		if a.ID != proposer.ID {
			floor = append(floor, a)
		}
	}
	want := 2 + e.rng.Intn(2)
	if want > len(floor) {
		want = len(floor)
	}
	for _, idx := range e.rng.Perm(len(floor))[:want] {
		speaker := floor[idx]
		e.say(st, speaker, council.LineDebate, p.ID, "", brain.Context{
			Kind: brain.CtxDebate, Day: st.Day, Hour: st.Hour, Topic: p.Title, Other: proposer.Name,
		})
	}
}

// votingRound collects exactly one ballot per agent, each with a
// transcript line. Self-votes count like any other.
func (e *Engine) votingRound(st *State, p *council.Proposal, proposer *agents.Agent) {
	for _, voter := range st.Agents {
		rapport := agents.ScoreWith(voter, proposer.ID)
		choice := e.brain.Vote(e.rng, voter, p, rapport)
		p.Votes[voter.ID] = choice

		kind := brain.CtxVoteAbstain
		switch choice {
		case council.VoteYes:
			kind = brain.CtxVoteYes
		case council.VoteNo:
			kind = brain.CtxVoteNo
		}
		e.say(st, voter, council.LineVote, p.ID, "", brain.Context{
			Kind: kind, Day: st.Day, Hour: st.Hour, Topic: p.Title, Other: proposer.Name,
		})
	}
}

// resolveProposal tallies, applies approved impacts to the metrics, and
// lets the chair speak to the outcome.
func (e *Engine) resolveProposal(st *State, out *outbox, p *council.Proposal, chair *agents.Agent) {
	status := p.Resolve()
	yes, no, abstain := p.Tally()

	verdict := "The motion fails."
	if status == council.StatusApproved {
		verdict = "The motion carries."
	}
	tallyLine := fmt.Sprintf("Votes on %q: %d for, %d against, %d standing aside. %s", p.Title, yes, no, abstain, verdict)
	st.Council.Transcript = append(st.Council.Transcript, council.Line{
		SpeakerID: chair.ID, Speaker: chair.Name, Text: tallyLine,
		Kind: council.LineTally, ProposalID: p.ID,
	})
	e.say(st, chair, council.LineTally, p.ID, "", brain.Context{
		Kind: brain.CtxTally, Day: st.Day, Hour: st.Hour, Topic: p.Title,
	})

	if status != council.StatusApproved {
		return
	}
	for _, imp := range p.Impacts {
		delta := imp.Magnitude
		if imp.Direction == council.DirectionDown {
			delta = -delta
		}
		st.Metrics.Apply(imp.Metric, delta)
	}
	e.emitNews(st, out, NewsBreaking, fmt.Sprintf("Council approves: %s", p.Title),
		fmt.Sprintf("%s Passed %d to %d.", p.Description, yes, no))
	if e.chance(0.4) {
		e.approvalCelebration(st, p)
	}
}

// recordVoteHistory appends the first proposal's outcome to every voter's
// bounded history.
func (e *Engine) recordVoteHistory(st *State) {
	if len(st.Council.Proposals) == 0 {
		return
	}
	first := st.Council.Proposals[0]
	for _, a := range st.Agents {
		choice, ok := first.Votes[a.ID]
		if !ok {
			continue
		}
		a.Votes = ring.PushBack(a.Votes, council.VoteRecord{
			Day:      st.Day,
			Proposal: first.Title,
			Choice:   choice,
			Outcome:  first.Status,
		}, e.cfg.Caps.Votes)
	}
}

// say voices one transcript line through the provider and mirrors it into
// the speaker's bounded quote log.
func (e *Engine) say(st *State, speaker *agents.Agent, kind council.LineKind, proposalID, headline string, ctx brain.Context) {
	text := e.brain.Quote(e.rng, speaker, ctx)
	st.Council.Transcript = append(st.Council.Transcript, council.Line{
		SpeakerID:  speaker.ID,
		Speaker:    speaker.Name,
		Text:       text,
		Kind:       kind,
		ProposalID: proposalID,
		Headline:   headline,
	})
	speaker.Quotes = ring.PushBack(speaker.Quotes, text, e.cfg.Caps.Quotes)
}
