package agents

import (
	"testing"

	"github.com/talgya/emberhold/internal/world"
)

func testGrid(t *testing.T) *world.Grid {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Seed = 42
	return world.Generate(cfg)
}

func TestSpawnCountsAndGroups(t *testing.T) {
	g := testGrid(t)
	mix := Mix{Children: 3, Teens: 2, Adults: 12, Elders: 3}
	pop := NewSpawner(42).Spawn(g, mix)

	if len(pop) != mix.Total() {
		t.Fatalf("spawned %d agents, want %d", len(pop), mix.Total())
	}
	counts := map[AgeGroup]int{}
	for _, a := range pop {
		counts[a.AgeGroup]++
		if AgeGroupFor(a.Age) != a.AgeGroup {
			t.Errorf("%s: age %d inconsistent with group %s", a.Name, a.Age, a.AgeGroup)
		}
	}
	if counts[AgeChild] != 3 || counts[AgeTeen] != 2 || counts[AgeAdult] != 12 || counts[AgeElder] != 3 {
		t.Fatalf("group counts = %v, want mix %+v", counts, mix)
	}
}

func TestSpawnBoundsAndShape(t *testing.T) {
	g := testGrid(t)
	pop := NewSpawner(7).Spawn(g, Mix{Children: 2, Teens: 2, Adults: 10, Elders: 2})

	seen := map[string]bool{}
	for _, a := range pop {
		if a.ID == "" || seen[a.ID] {
			t.Fatalf("missing or duplicate id %q", a.ID)
		}
		seen[a.ID] = true
		if a.Name == "" {
			t.Error("empty name")
		}
		for label, v := range map[string]int{
			"energy": a.Energy, "hunger": a.Hunger, "stress": a.Stress,
			"influence": a.Influence, "reputation": a.Reputation,
			"courage": a.Personality.Courage, "discipline": a.Personality.Discipline,
		} {
			if v < 0 || v > 100 {
				t.Errorf("%s: %s = %d out of range", a.Name, label, v)
			}
		}
		if !g.InBounds(a.Home) || !g.InBounds(a.Work) {
			t.Errorf("%s: home %v or work %v off grid", a.Name, a.Home, a.Work)
		}
		if a.Relationships == nil || a.Allies == nil || a.Rivals == nil {
			t.Errorf("%s: social lists must start empty, not nil", a.Name)
		}
	}
}

func TestSpawnWorkplacesMatchArchetype(t *testing.T) {
	g := testGrid(t)
	pop := NewSpawner(11).Spawn(g, Mix{Adults: 20})

	for _, a := range pop {
		tile := g.At(a.Work)
		switch a.Archetype {
		case ArchetypeFarmer:
			if tile.Building != world.BuildingGranary {
				t.Errorf("farmer %s works at %q", a.Name, tile.Building)
			}
		case ArchetypeGuard, ArchetypeScout, ArchetypeHunter:
			if tile.Building != world.BuildingWatchtower {
				t.Errorf("watch role %s works at %q", a.Name, tile.Building)
			}
		case ArchetypeMerchant:
			if tile.Building != world.BuildingMarket {
				t.Errorf("merchant %s works at %q", a.Name, tile.Building)
			}
		}
		if a.Archetype.IsWatch() {
			if a.Schedule.WorkStart != 18 || a.Schedule.WorkEnd != 5 {
				t.Errorf("watch role %s has day schedule %+v", a.Name, a.Schedule)
			}
		}
	}
}

func TestSpawnDeterministic(t *testing.T) {
	g := testGrid(t)
	mix := Mix{Children: 2, Teens: 1, Adults: 8, Elders: 2}
	a := NewSpawner(99).Spawn(g, mix)
	b := NewSpawner(99).Spawn(g, mix)

	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name || a[i].Archetype != b[i].Archetype {
			t.Fatalf("agent %d differs across same-seed spawns: %s/%s vs %s/%s",
				i, a[i].Name, a[i].Archetype, b[i].Name, b[i].Archetype)
		}
		if a[i].Personality != b[i].Personality {
			t.Fatalf("agent %d personality differs across same-seed spawns", i)
		}
	}
}

func TestCloneIndependent(t *testing.T) {
	a, b := pair()
	Adjust(a, b, 50, "hunted together")
	cp := a.Clone()
	Adjust(a, b, -120, "poisoned the well")

	if got := ScoreWith(cp, "b"); got != 50 {
		t.Fatalf("clone score mutated to %d, want 50", got)
	}
	if !contains(cp.Allies, "b") {
		t.Fatal("clone ally list mutated")
	}
}
