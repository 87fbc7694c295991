// Map generation using layered simplex noise. Elevation and moisture layers
// derive biomes; post-passes lay roads and place the settlement buildings.
package world

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Width      int
	Height     int
	Seed       int64
	Homes      int     // Number of home buildings to place
	WaterLevel float64 // Elevation threshold for water (0.0–1.0)
	RockLevel  float64 // Elevation threshold for bare rock (0.0–1.0)
}

// DefaultGenConfig returns the baseline settlement map parameters.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:      28,
		Height:     20,
		Homes:      10,
		WaterLevel: 0.24,
		RockLevel:  0.78,
	}
}

// Generate creates a complete settlement map: biomes from noise, a central
// hall, axis roads, and the public buildings.
func Generate(cfg GenConfig) *Grid {
	if cfg.Width < 8 {
		cfg.Width = 8
	}
	if cfg.Height < 8 {
		cfg.Height = 8
	}
	if cfg.Homes < 1 {
		cfg.Homes = 1
	}

	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	moistNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	g := NewGrid(cfg.Width, cfg.Height)
	cx := float64(cfg.Width-1) / 2
	cy := float64(cfg.Height-1) / 2
	maxDist := math.Sqrt(cx*cx + cy*cy)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.09, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.07, 0.5)

			// Valley shaping: lower the edges so water collects at the rim.
			dist := math.Sqrt((fx-cx)*(fx-cx)+(fy-cy)*(fy-cy)) / maxDist
			elev *= 1.0 - math.Pow(dist, 3.0)*0.8

			g.Tiles[y][x].Biome = deriveBiome(elev, moist, cfg)
		}
	}

	placeHall(g)
	layRoads(g)
	placeBuildings(g, cfg)

	return g
}

// deriveBiome determines ground cover from elevation and moisture.
func deriveBiome(elev, moist float64, cfg GenConfig) Biome {
	if elev < cfg.WaterLevel {
		return BiomeWater
	}
	if elev > cfg.RockLevel {
		return BiomeRock
	}
	if moist > 0.72 && elev < 0.4 {
		return BiomeMarsh
	}
	if moist > 0.55 {
		return BiomeForest
	}
	if moist < 0.28 {
		return BiomeSand
	}
	return BiomeGrass
}

// placeHall puts the council hall on the most central walkable tile.
func placeHall(g *Grid) {
	cx := float64(g.Width-1) / 2
	cy := float64(g.Height-1) / 2
	best := Pos{X: g.Width / 2, Y: g.Height / 2}
	bestDist := math.MaxFloat64

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Tiles[y][x].Biome == BiomeWater || g.Tiles[y][x].Biome == BiomeRock {
				continue
			}
			d := (float64(x)-cx)*(float64(x)-cx) + (float64(y)-cy)*(float64(y)-cy)
			if d < bestDist {
				bestDist = d
				best = Pos{X: x, Y: y}
			}
		}
	}

	// Degenerate map with no land: claim the center anyway.
	g.Tiles[best.Y][best.X].Biome = BiomeGrass
	g.Tiles[best.Y][best.X].Building = BuildingHall
	g.Hall = best
}

// layRoads draws one horizontal and one vertical road through the hall,
// skipping water tiles.
func layRoads(g *Grid) {
	for x := 0; x < g.Width; x++ {
		if g.Tiles[g.Hall.Y][x].Biome != BiomeWater {
			g.Tiles[g.Hall.Y][x].Road = true
		}
	}
	for y := 0; y < g.Height; y++ {
		if g.Tiles[y][g.Hall.X].Biome != BiomeWater {
			g.Tiles[y][g.Hall.X].Road = true
		}
	}
}

// placeBuildings scatters the public buildings and homes on walkable tiles
// near the hall, closest candidates first.
func placeBuildings(g *Grid, cfg GenConfig) {
	rng := rand.New(rand.NewSource(cfg.Seed + 200))

	type scored struct {
		pos  Pos
		dist float64
	}
	var candidates []scored
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			t := g.Tiles[y][x]
			if t.Building != "" || t.Biome == BiomeWater || t.Biome == BiomeRock || t.Biome == BiomeMarsh {
				continue
			}
			dx := float64(x - g.Hall.X)
			dy := float64(y - g.Hall.Y)
			// Jitter keeps the layout from forming perfect rings.
			candidates = append(candidates, scored{
				pos:  Pos{X: x, Y: y},
				dist: math.Sqrt(dx*dx+dy*dy) + rng.Float64()*1.5,
			})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	wanted := []string{BuildingWell, BuildingGranary, BuildingMarket, BuildingInfirmary, BuildingWorkshop}
	for i := 0; i < cfg.Homes; i++ {
		wanted = append(wanted, BuildingHome)
	}
	// Watchtower goes last so it lands away from the center.
	wanted = append(wanted, BuildingWatchtower)

	i := 0
	for _, kind := range wanted {
		if kind == BuildingWatchtower {
			break
		}
		if i >= len(candidates) {
			break
		}
		p := candidates[i].pos
		g.Tiles[p.Y][p.X].Building = kind
		i++
	}

	// Farthest walkable candidate for the watchtower.
	for j := len(candidates) - 1; j >= 0; j-- {
		p := candidates[j].pos
		if g.Tiles[p.Y][p.X].Building == "" {
			g.Tiles[p.Y][p.X].Building = BuildingWatchtower
			break
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// BiomeCounts returns the biome distribution, useful for generation sanity
// checks and the map endpoint.
func BiomeCounts(g *Grid) map[Biome]int {
	counts := make(map[Biome]int)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			counts[g.Tiles[y][x].Biome]++
		}
	}
	return counts
}
