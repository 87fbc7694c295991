// Package world holds the settlement map: a rectangular tile grid with
// biomes, roads, and named buildings generated from layered simplex noise.
package world

import "fmt"

// Pos is a tile coordinate on the grid.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Biome classifies the ground cover of a tile.
type Biome string

const (
	BiomeGrass  Biome = "grass"
	BiomeForest Biome = "forest"
	BiomeRock   Biome = "rock"
	BiomeSand   Biome = "sand"
	BiomeMarsh  Biome = "marsh"
	BiomeWater  Biome = "water"
)

// Building kinds placed during generation. BuildingHall is the council
// meeting point; BuildingHome tiles anchor agent schedules.
const (
	BuildingHall       = "hall"
	BuildingHome       = "home"
	BuildingGranary    = "granary"
	BuildingWell       = "well"
	BuildingMarket     = "market"
	BuildingInfirmary  = "infirmary"
	BuildingWorkshop   = "workshop"
	BuildingWatchtower = "watchtower"
)

// Tile is one cell of the settlement map.
type Tile struct {
	Biome    Biome  `json:"biome"`
	Road     bool   `json:"road,omitempty"`
	Building string `json:"building,omitempty"`
}

// Grid is the full settlement map. Tiles are indexed [y][x].
type Grid struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Tiles  [][]Tile `json:"tiles"`
	Hall   Pos      `json:"hall"`
}

// NewGrid allocates an empty grid of the given dimensions.
func NewGrid(w, h int) *Grid {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	tiles := make([][]Tile, h)
	for y := range tiles {
		tiles[y] = make([]Tile, w)
	}
	return &Grid{Width: w, Height: h, Tiles: tiles}
}

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Clamp returns p forced into grid bounds.
func (g *Grid) Clamp(p Pos) Pos {
	if p.X < 0 {
		p.X = 0
	}
	if p.X >= g.Width {
		p.X = g.Width - 1
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y >= g.Height {
		p.Y = g.Height - 1
	}
	return p
}

// At returns the tile at p, or a zero tile when p is out of bounds.
func (g *Grid) At(p Pos) Tile {
	if !g.InBounds(p) {
		return Tile{}
	}
	return g.Tiles[p.Y][p.X]
}

// Walkable reports whether an agent may stand on p. Water blocks movement;
// everything else is passable.
func (g *Grid) Walkable(p Pos) bool {
	return g.InBounds(p) && g.Tiles[p.Y][p.X].Biome != BiomeWater
}

// FindAll returns the positions of every building of the given kind, in
// row-major order so results are stable across calls.
func (g *Grid) FindAll(kind string) []Pos {
	var out []Pos
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Tiles[y][x].Building == kind {
				out = append(out, Pos{X: x, Y: y})
			}
		}
	}
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	out := &Grid{Width: g.Width, Height: g.Height, Hall: g.Hall}
	out.Tiles = make([][]Tile, len(g.Tiles))
	for y := range g.Tiles {
		row := make([]Tile, len(g.Tiles[y]))
		copy(row, g.Tiles[y])
		out.Tiles[y] = row
	}
	return out
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, hall=%d,%d)", g.Width, g.Height, g.Hall.X, g.Hall.Y)
}
