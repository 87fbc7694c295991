package council

import "testing"

func proposalWith(votes map[string]Vote) *Proposal {
	return &Proposal{
		ID:     "p1",
		Title:  "Dig a second well",
		Votes:  votes,
		Status: StatusPending,
	}
}

func TestTallyCountsEveryChoice(t *testing.T) {
	p := proposalWith(map[string]Vote{
		"a": VoteYes, "b": VoteYes, "c": VoteNo, "d": VoteAbstain, "e": VoteAbstain,
	})
	yes, no, abstain := p.Tally()
	if yes != 2 || no != 1 || abstain != 2 {
		t.Fatalf("tally = %d/%d/%d, want 2/1/2", yes, no, abstain)
	}
}

func TestResolveTieRejects(t *testing.T) {
	cases := []struct {
		name  string
		votes map[string]Vote
		want  Status
	}{
		{"clear majority", map[string]Vote{"a": VoteYes, "b": VoteYes, "c": VoteNo}, StatusApproved},
		{"tie", map[string]Vote{"a": VoteYes, "b": VoteNo}, StatusRejected},
		{"abstains never approve", map[string]Vote{"a": VoteAbstain, "b": VoteAbstain}, StatusRejected},
		{"abstains never block", map[string]Vote{"a": VoteYes, "b": VoteAbstain, "c": VoteAbstain}, StatusApproved},
		{"no votes at all", map[string]Vote{}, StatusRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := proposalWith(tc.votes)
			if got := p.Resolve(); got != tc.want {
				t.Fatalf("Resolve() = %s, want %s", got, tc.want)
			}
			if p.Status != tc.want {
				t.Fatalf("Status = %s after Resolve, want %s", p.Status, tc.want)
			}
		})
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := Session{
		Day:    3,
		Active: true,
		Proposals: []Proposal{{
			ID:      "p1",
			Impacts: []Impact{{Metric: "morale", Direction: DirectionUp, Magnitude: 4}},
			Votes:   map[string]Vote{"a": VoteYes},
		}},
		Transcript: []Line{{SpeakerID: "a", Text: "aye", Kind: LineVote}},
	}
	c := s.Clone()
	c.Proposals[0].Votes["b"] = VoteNo
	c.Proposals[0].Impacts[0].Magnitude = 99
	c.Transcript[0].Text = "changed"

	if len(s.Proposals[0].Votes) != 1 {
		t.Fatal("clone shares the votes map")
	}
	if s.Proposals[0].Impacts[0].Magnitude != 4 {
		t.Fatal("clone shares the impacts slice")
	}
	if s.Transcript[0].Text != "aye" {
		t.Fatal("clone shares the transcript")
	}
}
