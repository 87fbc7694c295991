package agents

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/emberhold/internal/world"
)

// Mix is the number of agents to spawn per age group.
type Mix struct {
	Children int
	Teens    int
	Adults   int
	Elders   int
}

// Total returns the summed population of the mix.
func (m Mix) Total() int {
	return m.Children + m.Teens + m.Adults + m.Elders
}

// Spawner creates the founding population. It owns its own rng stream,
// offset from the world seed so map generation and population draws stay
// independent.
type Spawner struct {
	rng *rand.Rand
}

func NewSpawner(seed int64) *Spawner {
	return &Spawner{rng: rand.New(rand.NewSource(seed + 300))}
}

// Spawn produces the founding agents and assigns each a home and workplace
// from the generated grid. Relationships start empty; the story generators
// grow the graph from lived events.
func (s *Spawner) Spawn(g *world.Grid, mix Mix) []*Agent {
	homes := g.FindAll(world.BuildingHome)
	out := make([]*Agent, 0, mix.Total())

	spawnGroup := func(n int, group AgeGroup) {
		for i := 0; i < n; i++ {
			a := s.spawnOne(g, group)
			if len(homes) > 0 {
				a.Home = homes[len(out)%len(homes)]
			} else {
				a.Home = g.Hall
			}
			a.Pos = a.Home
			out = append(out, a)
		}
	}
	spawnGroup(mix.Elders, AgeElder)
	spawnGroup(mix.Adults, AgeAdult)
	spawnGroup(mix.Teens, AgeTeen)
	spawnGroup(mix.Children, AgeChild)
	return out
}

func (s *Spawner) spawnOne(g *world.Grid, group AgeGroup) *Agent {
	arch := s.rollArchetype(group)
	a := &Agent{
		ID:        s.newID(),
		Name:      s.rollName(),
		Archetype: arch,
		AgeGroup:  group,
		Age:       s.rollAge(group),
		Work:      workplaceFor(g, arch),
		Status:    StatusIdle,

		Energy: 60 + s.rng.Intn(31),
		Hunger: 10 + s.rng.Intn(26),
		Stress: 5 + s.rng.Intn(26),

		Influence:  s.rollInfluence(group),
		Reputation: clamp(int(45+s.rng.NormFloat64()*12), 10, 85),

		Personality: Personality{
			Courage:    s.trait(),
			Empathy:    s.trait(),
			Ambition:   s.trait(),
			Curiosity:  s.trait(),
			Discipline: s.trait(),
		},
		Schedule: s.rollSchedule(arch),

		Relationships: []Relationship{},
		Allies:        []string{},
		Rivals:        []string{},
	}
	return a
}

// rollArchetype picks a role. Children and teens all start as apprentices;
// elders skew toward the learned roles.
func (s *Spawner) rollArchetype(group AgeGroup) Archetype {
	switch group {
	case AgeChild, AgeTeen:
		return ArchetypeApprentice
	case AgeElder:
		r := s.rng.Float64()
		switch {
		case r < 0.35:
			return ArchetypeScholar
		case r < 0.60:
			return ArchetypeHealer
		case r < 0.80:
			return ArchetypeFarmer
		default:
			return ArchetypeMerchant
		}
	}
	r := s.rng.Float64()
	switch {
	case r < 0.26:
		return ArchetypeFarmer
	case r < 0.40:
		return ArchetypeGuard
	case r < 0.50:
		return ArchetypeScout
	case r < 0.60:
		return ArchetypeHunter
	case r < 0.70:
		return ArchetypeBuilder
	case r < 0.80:
		return ArchetypeHealer
	case r < 0.90:
		return ArchetypeMerchant
	default:
		return ArchetypeScholar
	}
}

func (s *Spawner) rollAge(group AgeGroup) int {
	switch group {
	case AgeChild:
		return 4 + s.rng.Intn(9)
	case AgeTeen:
		return 13 + s.rng.Intn(5)
	case AgeElder:
		return 60 + s.rng.Intn(16)
	default:
		return clamp(int(32+s.rng.NormFloat64()*10), 18, 59)
	}
}

func (s *Spawner) rollInfluence(group AgeGroup) int {
	switch group {
	case AgeChild, AgeTeen:
		return 5 + s.rng.Intn(11)
	case AgeElder:
		return clamp(int(45+s.rng.NormFloat64()*12), 10, 85)
	default:
		return clamp(int(30+s.rng.NormFloat64()*12), 5, 75)
	}
}

// rollSchedule gives watch roles an inverted day; everyone else keeps
// village hours with a little personal jitter.
func (s *Spawner) rollSchedule(arch Archetype) Schedule {
	if arch.IsWatch() {
		return Schedule{
			Wake:      14 + s.rng.Intn(2),
			Sleep:     6 + s.rng.Intn(2),
			WorkStart: 18,
			WorkEnd:   5,
			Lunch:     0,
		}
	}
	wake := 5 + s.rng.Intn(2)
	return Schedule{
		Wake:      wake,
		Sleep:     21 + s.rng.Intn(2),
		WorkStart: wake + 2,
		WorkEnd:   17,
		Lunch:     12,
	}
}

// trait draws one personality value on a bell curve around the middle.
func (s *Spawner) trait() int {
	return clamp(int(50+s.rng.NormFloat64()*18), 5, 95)
}

func (s *Spawner) rollName() string {
	return fmt.Sprintf("%s %s",
		givenNames[s.rng.Intn(len(givenNames))],
		familyNames[s.rng.Intn(len(familyNames))])
}

func (s *Spawner) newID() string {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// workplaceFor maps a role to its building on the grid, falling back to the
// hall when the building is missing.
func workplaceFor(g *world.Grid, arch Archetype) world.Pos {
	var building string
	switch arch {
	case ArchetypeFarmer:
		building = world.BuildingGranary
	case ArchetypeGuard, ArchetypeScout, ArchetypeHunter:
		building = world.BuildingWatchtower
	case ArchetypeHealer:
		building = world.BuildingInfirmary
	case ArchetypeBuilder:
		building = world.BuildingWorkshop
	case ArchetypeMerchant:
		building = world.BuildingMarket
	default:
		building = world.BuildingHall
	}
	if spots := g.FindAll(building); len(spots) > 0 {
		return spots[0]
	}
	return g.Hall
}

var givenNames = []string{
	"Alder", "Briar", "Cassia", "Doran", "Edda", "Fenwick", "Gilda",
	"Hale", "Isolde", "Joren", "Kestrel", "Lyra", "Maren", "Nolan",
	"Orla", "Piper", "Quill", "Rowan", "Sable", "Tamsin", "Ulric",
	"Vera", "Wren", "Yareth", "Zinnia", "Bram", "Colm", "Delia",
	"Ewan", "Freya", "Garrick", "Hazel", "Ivo", "June", "Kier",
	"Linden", "Mira", "Niall", "Ondine", "Petra",
}

var familyNames = []string{
	"Ashdown", "Blackbriar", "Coalworth", "Dunmore", "Emberly",
	"Fallow", "Greywick", "Hartfield", "Ironweld", "Kilbride",
	"Longmarsh", "Mossbank", "Nettlefold", "Oakhurst", "Pyrewood",
	"Quarry", "Redfern", "Stonemere", "Thornber", "Underhill",
	"Vance", "Wexley", "Yarrow", "Birchloam", "Cindervale",
	"Dewfield", "Farrier", "Gorseland", "Hollowell", "Larkspur",
}
