// Package config models emberhold.yml: the seed, map shape, population
// mix, day structure, event odds, and log caps the engine runs with.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full tuning surface. Zero values are never used directly;
// start from Default and overlay.
type Config struct {
	Seed       int64  `yaml:"seed"`
	Settlement string `yaml:"settlement"`

	Map        Map        `yaml:"map"`
	Population Population `yaml:"population"`
	Hours      Hours      `yaml:"hours"`
	Chances    Chances    `yaml:"chances"`
	Caps       Caps       `yaml:"caps"`
}

// Map sizes the generated grid.
type Map struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Homes  int `yaml:"homes"`
}

// Population fixes the founding head count per age group.
type Population struct {
	Children int `yaml:"children"`
	Teens    int `yaml:"teens"`
	Adults   int `yaml:"adults"`
	Elders   int `yaml:"elders"`
}

// Hours pins the day's fixed beats. Phase boundaries themselves are not
// configurable; these choose where within a phase the set pieces land.
type Hours struct {
	MorningBrief int `yaml:"morning_brief"`
	Midday       int `yaml:"midday"`
	CouncilStart int `yaml:"council_start"`
	CouncilEnd   int `yaml:"council_end"`
	NightStart   int `yaml:"night_start"`
	PreDawn      int `yaml:"pre_dawn"`
}

// Chances are per-tick firing probabilities for the stochastic machinery.
type Chances struct {
	DayEvent   float64 `yaml:"day_event"`
	NightEvent float64 `yaml:"night_event"`

	Friendship  float64 `yaml:"friendship"`
	Rivalry     float64 `yaml:"rivalry"`
	Romance     float64 `yaml:"romance"`
	Business    float64 `yaml:"business"`
	Achievement float64 `yaml:"achievement"`
	Misfortune  float64 `yaml:"misfortune"`
	Discovery   float64 `yaml:"discovery"`
}

// Caps bound every accumulating list in the state.
type Caps struct {
	Events     int `yaml:"events"`
	News       int `yaml:"news"`
	Stories    int `yaml:"stories"`
	Quotes     int `yaml:"quotes"`
	Actions    int `yaml:"actions"`
	Votes      int `yaml:"votes"`
	Reasons    int `yaml:"reasons"`
	MoodWindow int `yaml:"mood_window"`
}

// Default returns the stock tuning.
func Default() *Config {
	return &Config{
		Seed:       42,
		Settlement: "Emberhold",
		Map: Map{
			Width:  28,
			Height: 20,
			Homes:  10,
		},
		Population: Population{
			Children: 3,
			Teens:    3,
			Adults:   14,
			Elders:   4,
		},
		Hours: Hours{
			MorningBrief: 5,
			Midday:       13,
			CouncilStart: 18,
			CouncilEnd:   21,
			NightStart:   22,
			PreDawn:      4,
		},
		Chances: Chances{
			DayEvent:    0.18,
			NightEvent:  0.08,
			Friendship:  0.10,
			Rivalry:     0.08,
			Romance:     0.05,
			Business:    0.06,
			Achievement: 0.05,
			Misfortune:  0.06,
			Discovery:   0.04,
		},
		Caps: Caps{
			Events:     50,
			News:       50,
			Stories:    50,
			Quotes:     10,
			Actions:    10,
			Votes:      10,
			Reasons:    5,
			MoodWindow: 72,
		},
	}
}

// Load overlays the YAML at path onto the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects tunings the engine cannot run.
func (c *Config) Validate() error {
	if c.Map.Width < 8 || c.Map.Height < 8 {
		return fmt.Errorf("map must be at least 8x8, got %dx%d", c.Map.Width, c.Map.Height)
	}
	if c.Map.Homes < 1 {
		return fmt.Errorf("map.homes must be positive, got %d", c.Map.Homes)
	}
	if c.Population.Children < 0 || c.Population.Teens < 0 ||
		c.Population.Adults < 0 || c.Population.Elders < 0 {
		return fmt.Errorf("population counts must not be negative: %+v", c.Population)
	}
	if c.Population.Adults+c.Population.Elders < 2 {
		return fmt.Errorf("need at least 2 grown agents to hold a council, got %d",
			c.Population.Adults+c.Population.Elders)
	}
	if err := c.validateHours(); err != nil {
		return err
	}
	for name, ch := range map[string]float64{
		"day_event": c.Chances.DayEvent, "night_event": c.Chances.NightEvent,
		"friendship": c.Chances.Friendship, "rivalry": c.Chances.Rivalry,
		"romance": c.Chances.Romance, "business": c.Chances.Business,
		"achievement": c.Chances.Achievement, "misfortune": c.Chances.Misfortune,
		"discovery": c.Chances.Discovery,
	} {
		if ch < 0 || ch > 1 {
			return fmt.Errorf("chances.%s must be in [0,1], got %v", name, ch)
		}
	}
	for name, limit := range map[string]int{
		"events": c.Caps.Events, "news": c.Caps.News, "stories": c.Caps.Stories,
		"quotes": c.Caps.Quotes, "actions": c.Caps.Actions, "votes": c.Caps.Votes,
		"reasons": c.Caps.Reasons, "mood_window": c.Caps.MoodWindow,
	} {
		if limit < 1 {
			return fmt.Errorf("caps.%s must be positive, got %d", name, limit)
		}
	}
	return nil
}

func (c *Config) validateHours() error {
	h := c.Hours
	if h.MorningBrief < 5 || h.MorningBrief > 11 {
		return fmt.Errorf("hours.morning_brief %d outside the morning phase [5,11]", h.MorningBrief)
	}
	if h.Midday < 12 || h.Midday > 17 {
		return fmt.Errorf("hours.midday %d outside the day phase [12,17]", h.Midday)
	}
	if h.CouncilStart < 18 || h.CouncilStart > 21 {
		return fmt.Errorf("hours.council_start %d outside the evening phase [18,21]", h.CouncilStart)
	}
	if h.CouncilEnd <= h.CouncilStart || h.CouncilEnd > 22 {
		return fmt.Errorf("hours.council_end %d must follow council_start %d within the evening",
			h.CouncilEnd, h.CouncilStart)
	}
	if h.NightStart < 22 || h.NightStart > 23 {
		return fmt.Errorf("hours.night_start %d must be 22 or 23", h.NightStart)
	}
	if h.PreDawn < 0 || h.PreDawn > 4 {
		return fmt.Errorf("hours.pre_dawn %d outside the late night [0,4]", h.PreDawn)
	}
	return nil
}
