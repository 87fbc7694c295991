package weather

import (
	"math/rand"
	"testing"
)

func TestRollProducesValidKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[Kind]int{}
	for i := 0; i < 2000; i++ {
		k := Roll(rng)
		if !k.Valid() {
			t.Fatalf("invalid kind %q", k)
		}
		seen[k]++
	}
	if seen[Clear] < seen[Storm] {
		t.Errorf("clear (%d) should dominate storm (%d)", seen[Clear], seen[Storm])
	}
	for _, k := range []Kind{Clear, Cloudy, Rain, Storm, Fog, Snow} {
		if seen[k] == 0 {
			t.Errorf("kind %q never rolled in 2000 draws", k)
		}
	}
}

func TestModsForCoversAllKinds(t *testing.T) {
	for _, k := range []Kind{Clear, Cloudy, Rain, Storm, Fog, Snow} {
		m := ModsFor(k)
		if m.Label == "" {
			t.Errorf("kind %q has no label", k)
		}
	}
	if m := ModsFor(Kind("volcanic ash")); m.Label != "fair weather" {
		t.Errorf("unknown kind mods = %+v, want fair-weather default", m)
	}
}

func TestMapToKind(t *testing.T) {
	tests := []struct {
		name string
		c    *Conditions
		want Kind
	}{
		{"nil keeps current", nil, Fog},
		{"storm wins over rain", &Conditions{IsStorm: true, IsRain: true}, Storm},
		{"high wind is a storm", &Conditions{WindSpeed: 20, IsStorm: true}, Storm},
		{"snow", &Conditions{IsSnow: true}, Snow},
		{"rain", &Conditions{IsRain: true}, Rain},
		{"mist", &Conditions{IsFog: true}, Fog},
		{"overcast", &Conditions{IsCloudy: true}, Cloudy},
		{"fair", &Conditions{}, Clear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapToKind(tt.c, Fog); got != tt.want {
				t.Errorf("MapToKind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if NewClient("", "Anywhere") != nil {
		t.Fatal("client without API key should be nil")
	}
	if NewClient("k", "") == nil {
		t.Fatal("client with key should exist even without location")
	}
}
