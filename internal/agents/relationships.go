package agents

import "github.com/talgya/emberhold/internal/ring"

// Relationship score bounds and classification thresholds.
const (
	MinScore = -100
	MaxScore = 100

	AllyThreshold  = 40
	RivalThreshold = -40

	maxReasons = 5
)

// Adjust shifts the relationship between a and b by delta in both
// directions, recording reason on each side. Every score change funnels
// through here so ally/rival membership can never drift out of step with
// the score that defines it.
func Adjust(a, b *Agent, delta int, reason string) {
	if a == nil || b == nil || a.ID == b.ID {
		return
	}
	adjustOne(a, b.ID, delta, reason)
	adjustOne(b, a.ID, delta, reason)
}

func adjustOne(a *Agent, targetID string, delta int, reason string) {
	rel := findRel(a, targetID)
	if rel == nil {
		a.Relationships = append(a.Relationships, Relationship{TargetID: targetID})
		rel = &a.Relationships[len(a.Relationships)-1]
	}
	rel.Score = clamp(rel.Score+delta, MinScore, MaxScore)
	if reason != "" {
		rel.Reasons = ring.PushBack(rel.Reasons, reason, maxReasons)
	}
	reconcile(a, targetID, rel.Score)
}

// ScoreWith returns a's score toward targetID, zero when no edge exists.
func ScoreWith(a *Agent, targetID string) int {
	if rel := findRel(a, targetID); rel != nil {
		return rel.Score
	}
	return 0
}

// Reconcile rebuilds a's ally and rival lists from its relationship scores.
// Used by the repair pass; normal adjustments reconcile incrementally.
func Reconcile(a *Agent) {
	a.Allies = a.Allies[:0]
	a.Rivals = a.Rivals[:0]
	for _, rel := range a.Relationships {
		reconcile(a, rel.TargetID, rel.Score)
	}
}

// reconcile places targetID in at most one of allies/rivals based on score.
func reconcile(a *Agent, targetID string, score int) {
	switch {
	case score >= AllyThreshold:
		a.Rivals = removeID(a.Rivals, targetID)
		a.Allies = addID(a.Allies, targetID)
	case score <= RivalThreshold:
		a.Allies = removeID(a.Allies, targetID)
		a.Rivals = addID(a.Rivals, targetID)
	default:
		a.Allies = removeID(a.Allies, targetID)
		a.Rivals = removeID(a.Rivals, targetID)
	}
}

func findRel(a *Agent, targetID string) *Relationship {
	for i := range a.Relationships {
		if a.Relationships[i].TargetID == targetID {
			return &a.Relationships[i]
		}
	}
	return nil
}

func addID(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
