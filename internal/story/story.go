// Package story defines the narrative units emitted by the relationship and
// story generators, shared between the engine's global log and each agent's
// personal log.
package story

import "time"

// Category is the closed set of narrative kinds.
type Category string

const (
	CategoryFriendship  Category = "friendship"
	CategoryRivalry     Category = "rivalry"
	CategoryRomance     Category = "romance"
	CategoryBusiness    Category = "business"
	CategoryAchievement Category = "achievement"
	CategoryMisfortune  Category = "misfortune"
	CategoryDiscovery   Category = "discovery"
	CategoryConflict    Category = "conflict"
	CategoryCelebration Category = "celebration"
)

// Event is one emitted narrative unit.
type Event struct {
	ID          string    `json:"id"`
	Day         int       `json:"day"`
	Hour        int       `json:"hour"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AgentIDs    []string  `json:"agentIds,omitempty"`
	Consequence string    `json:"consequence,omitempty"`
	At          time.Time `json:"at"`
}

// Weight ranks a category for chronicle headline selection. Strife and
// romance outrank accomplishments, which outrank everyday warmth.
func Weight(c Category) int {
	switch c {
	case CategoryRivalry, CategoryConflict, CategoryRomance, CategoryMisfortune:
		return 3
	case CategoryAchievement, CategoryBusiness, CategoryCelebration:
		return 2
	case CategoryFriendship, CategoryDiscovery:
		return 1
	default:
		return 0
	}
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	out.AgentIDs = append([]string(nil), e.AgentIDs...)
	return out
}
