// Package weather provides the settlement's sky: seeded in-sim rolls, and an
// optional OpenWeatherMap client that overlays real conditions.
package weather

import "math/rand"

// Kind is the current sky over the settlement.
type Kind string

const (
	Clear  Kind = "clear"
	Cloudy Kind = "cloudy"
	Rain   Kind = "rain"
	Storm  Kind = "storm"
	Fog    Kind = "fog"
	Snow   Kind = "snow"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case Clear, Cloudy, Rain, Storm, Fog, Snow:
		return true
	}
	return false
}

// Roll draws the next day's weather from the engine rng. Clear skies
// dominate; storms and snow stay rare.
func Roll(rng *rand.Rand) Kind {
	r := rng.Float64()
	switch {
	case r < 0.40:
		return Clear
	case r < 0.65:
		return Cloudy
	case r < 0.80:
		return Rain
	case r < 0.88:
		return Fog
	case r < 0.95:
		return Storm
	default:
		return Snow
	}
}

// Mods are the per-tick simulation deltas a sky applies. Morale and fire
// stability drift by these at the pre-dawn hour; stress applies to agents
// caught outdoors.
type Mods struct {
	Morale        int
	Stress        int
	FireStability int
	Label         string
}

// ModsFor maps a kind to its simulation modifiers.
func ModsFor(k Kind) Mods {
	switch k {
	case Clear:
		return Mods{Morale: 1, FireStability: 0, Label: "clear skies"}
	case Cloudy:
		return Mods{Morale: 0, Label: "low grey cloud"}
	case Rain:
		return Mods{Morale: -1, Stress: 1, FireStability: 2, Label: "steady rain"}
	case Storm:
		return Mods{Morale: -2, Stress: 3, FireStability: 3, Label: "a hard storm"}
	case Fog:
		return Mods{Morale: -1, Stress: 1, Label: "thick valley fog"}
	case Snow:
		return Mods{Morale: -1, Stress: 2, FireStability: 1, Label: "falling snow"}
	default:
		return Mods{Label: "fair weather"}
	}
}
