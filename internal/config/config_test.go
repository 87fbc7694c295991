package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emberhold.yml")
	body := []byte("seed: 99\nmap:\n  width: 32\n  height: 24\n  homes: 12\nchances:\n  rivalry: 0.2\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Seed != 99 || cfg.Map.Width != 32 || cfg.Chances.Rivalry != 0.2 {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.Hours.CouncilStart != 18 || cfg.Caps.News != 50 {
		t.Fatalf("defaults lost under overlay: %+v", cfg)
	}
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Settlement != "Emberhold" || cfg.Seed != 42 {
		t.Fatalf("empty path should return defaults, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadTuning(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tiny map", func(c *Config) { c.Map.Width = 4 }},
		{"no homes", func(c *Config) { c.Map.Homes = 0 }},
		{"negative teens", func(c *Config) { c.Population.Teens = -1 }},
		{"council of one", func(c *Config) { c.Population.Adults, c.Population.Elders = 1, 0 }},
		{"brief at noon", func(c *Config) { c.Hours.MorningBrief = 12 }},
		{"council before evening", func(c *Config) { c.Hours.CouncilStart = 15 }},
		{"council ends first", func(c *Config) { c.Hours.CouncilEnd = 18 }},
		{"pre-dawn at noon", func(c *Config) { c.Hours.PreDawn = 12 }},
		{"negative chance", func(c *Config) { c.Chances.Romance = -0.1 }},
		{"chance above one", func(c *Config) { c.Chances.DayEvent = 1.5 }},
		{"zero cap", func(c *Config) { c.Caps.Votes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
