package world

import "testing"

func TestGenerateShape(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 42
	g := Generate(cfg)

	if g.Width != cfg.Width || g.Height != cfg.Height {
		t.Fatalf("grid %dx%d, want %dx%d", g.Width, g.Height, cfg.Width, cfg.Height)
	}
	if len(g.Tiles) != cfg.Height {
		t.Fatalf("rows = %d, want %d", len(g.Tiles), cfg.Height)
	}
	for y := range g.Tiles {
		if len(g.Tiles[y]) != cfg.Width {
			t.Fatalf("row %d has %d tiles, want %d", y, len(g.Tiles[y]), cfg.Width)
		}
	}
}

func TestGenerateHallAndBuildings(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7
	g := Generate(cfg)

	if g.At(g.Hall).Building != BuildingHall {
		t.Fatalf("hall tile holds %q", g.At(g.Hall).Building)
	}
	if !g.Walkable(g.Hall) {
		t.Fatal("hall tile not walkable")
	}
	if n := len(g.FindAll(BuildingHome)); n != cfg.Homes {
		t.Fatalf("placed %d homes, want %d", n, cfg.Homes)
	}
	for _, kind := range []string{BuildingWell, BuildingGranary, BuildingMarket, BuildingInfirmary, BuildingWorkshop, BuildingWatchtower} {
		if len(g.FindAll(kind)) == 0 {
			t.Fatalf("no %s placed", kind)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 99
	a := Generate(cfg)
	b := Generate(cfg)

	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			if a.Tiles[y][x] != b.Tiles[y][x] {
				t.Fatalf("tile %d,%d differs: %+v vs %+v", x, y, a.Tiles[y][x], b.Tiles[y][x])
			}
		}
	}
	if a.Hall != b.Hall {
		t.Fatalf("hall differs: %v vs %v", a.Hall, b.Hall)
	}
}

func TestClampAndBounds(t *testing.T) {
	g := NewGrid(10, 6)

	cases := []struct{ in, want Pos }{
		{Pos{X: -3, Y: 2}, Pos{X: 0, Y: 2}},
		{Pos{X: 15, Y: 2}, Pos{X: 9, Y: 2}},
		{Pos{X: 4, Y: -1}, Pos{X: 4, Y: 0}},
		{Pos{X: 4, Y: 9}, Pos{X: 4, Y: 5}},
		{Pos{X: 4, Y: 3}, Pos{X: 4, Y: 3}},
	}
	for _, c := range cases {
		if got := g.Clamp(c.in); got != c.want {
			t.Fatalf("Clamp(%v) = %v, want %v", c.in, got, c.want)
		}
	}
	if g.InBounds(Pos{X: 10, Y: 0}) {
		t.Fatal("InBounds accepted x == width")
	}
	if (g.At(Pos{X: 99, Y: 99}) != Tile{}) {
		t.Fatal("At out of bounds returned a non-zero tile")
	}
}

func TestGridClone(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 3
	g := Generate(cfg)
	c := g.Clone()

	c.Tiles[0][0].Biome = BiomeRock
	c.Tiles[0][0].Road = !g.Tiles[0][0].Road
	if g.Tiles[0][0] == c.Tiles[0][0] {
		t.Fatal("clone shares tile storage with original")
	}
}
