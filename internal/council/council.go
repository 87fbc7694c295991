// Package council holds the deliberation artifacts: proposals, votes, and
// the once-daily session with its ordered transcript.
package council

// Vote is one agent's choice on a proposal.
type Vote string

const (
	VoteYes     Vote = "yes"
	VoteNo      Vote = "no"
	VoteAbstain Vote = "abstain"
)

// Status is a proposal's resolution state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Direction is the expected sign of a metric impact.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Impact is one expected metric change listed on a proposal.
type Impact struct {
	Metric    string    `json:"metric"`
	Direction Direction `json:"direction"`
	Magnitude int       `json:"magnitude"`
}

// Proposal is a costed action brought before the council. Status stays
// pending until the voting round resolves it; approval requires yes votes to
// strictly outnumber no votes, so a tie rejects.
type Proposal struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ProposerID  string          `json:"proposerId"`
	Cost        int             `json:"cost"`
	Impacts     []Impact        `json:"impacts"`
	Votes       map[string]Vote `json:"votes"`
	Status      Status          `json:"status"`
}

// Tally counts the cast votes. Abstains are reported but never enter the
// approve/reject comparison.
func (p *Proposal) Tally() (yes, no, abstain int) {
	for _, v := range p.Votes {
		switch v {
		case VoteYes:
			yes++
		case VoteNo:
			no++
		case VoteAbstain:
			abstain++
		}
	}
	return yes, no, abstain
}

// Resolve sets the final status from the current tally and returns it.
func (p *Proposal) Resolve() Status {
	yes, no, _ := p.Tally()
	if yes > no {
		p.Status = StatusApproved
	} else {
		p.Status = StatusRejected
	}
	return p.Status
}

// LineKind tags a transcript entry with its role in the session.
type LineKind string

const (
	LineOpening      LineKind = "opening"
	LineReaction     LineKind = "reaction"
	LineRebuttal     LineKind = "rebuttal"
	LinePresentation LineKind = "presentation"
	LineDebate       LineKind = "debate"
	LineVote         LineKind = "vote"
	LineTally        LineKind = "tally"
	LineClosing      LineKind = "closing"
)

// Line is one ordered transcript entry.
type Line struct {
	SpeakerID  string   `json:"speakerId"`
	Speaker    string   `json:"speaker"`
	Text       string   `json:"text"`
	Kind       LineKind `json:"kind"`
	ProposalID string   `json:"proposalId,omitempty"`
	Headline   string   `json:"headline,omitempty"`
}

// Session is one evening's deliberation. It is reset at the start hour,
// deactivated at the end hour, and readable until the next session
// overwrites it.
type Session struct {
	Day          int        `json:"day"`
	Active       bool       `json:"active"`
	StartHour    int        `json:"startHour"`
	EndHour      int        `json:"endHour"`
	Countdown    int        `json:"countdown"`
	Proposals    []Proposal `json:"proposals"`
	Transcript   []Line     `json:"transcript"`
	SpeakerID    string     `json:"speakerId,omitempty"`
	Announcement string     `json:"announcement,omitempty"`
}

// VoteRecord is one entry in an agent's bounded voting history.
type VoteRecord struct {
	Day      int    `json:"day"`
	Proposal string `json:"proposal"`
	Choice   Vote   `json:"choice"`
	Outcome  Status `json:"outcome"`
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.Proposals = make([]Proposal, len(s.Proposals))
	for i, p := range s.Proposals {
		cp := p
		cp.Impacts = append([]Impact(nil), p.Impacts...)
		cp.Votes = make(map[string]Vote, len(p.Votes))
		for k, v := range p.Votes {
			cp.Votes[k] = v
		}
		out.Proposals[i] = cp
	}
	out.Transcript = append([]Line(nil), s.Transcript...)
	return out
}
