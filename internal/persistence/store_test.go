package persistence

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/emberhold/internal/config"
	"github.com/talgya/emberhold/internal/engine"
	"github.com/talgya/emberhold/internal/story"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadLatestOnEmptyStore(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadLatest(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	e := engine.New(config.Default(), nil)
	st := e.NewWorld()
	st.Day = 4
	st.Hour = 19

	if err := s.SaveSnapshot(st); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadLatest()
	if err != nil {
		t.Fatal(err)
	}
	if got.Day != st.Day || got.Hour != st.Hour || got.Settlement != st.Settlement {
		t.Fatalf("restored day %d hour %d settlement %q, want %d/%d/%q",
			got.Day, got.Hour, got.Settlement, st.Day, st.Hour, st.Settlement)
	}
	if len(got.Agents) != len(st.Agents) {
		t.Fatalf("restored %d agents, want %d", len(got.Agents), len(st.Agents))
	}
	if got.Agents[0].ID != st.Agents[0].ID {
		t.Fatal("agent identity lost across the round trip")
	}
	if got.Grid == nil || got.Grid.Width != st.Grid.Width {
		t.Fatal("grid lost across the round trip")
	}
}

func TestSnapshotHistoryPruned(t *testing.T) {
	s := openTestStore(t)
	e := engine.New(config.Default(), nil)
	st := e.NewWorld()

	for i := 0; i < keepSnapshots+10; i++ {
		st.Tick = uint64(i + 1)
		if err := s.SaveSnapshot(st); err != nil {
			t.Fatal(err)
		}
	}

	var n int
	if err := s.conn.Get(&n, "SELECT COUNT(*) FROM snapshots"); err != nil {
		t.Fatal(err)
	}
	if n != keepSnapshots {
		t.Fatalf("snapshot rows = %d, want %d", n, keepSnapshots)
	}
	got, err := s.LoadLatest()
	if err != nil {
		t.Fatal(err)
	}
	if got.Tick != uint64(keepSnapshots+10) {
		t.Fatalf("latest tick = %d, want %d", got.Tick, keepSnapshots+10)
	}
}

func tickResult(day, hour int, n int) *engine.Result {
	at := time.Date(2025, 6, 10, hour, 0, 0, 0, time.UTC).AddDate(0, 0, day)
	res := &engine.Result{
		State: &engine.State{
			Stories: []story.Event{{
				ID: fmt.Sprintf("story-%d-%d", day, hour), Day: day, Hour: hour,
				Category: story.CategoryFriendship, Title: "Two menders, one bench",
				Description: "A long repair turned into a long talk.",
				AgentIDs:    []string{"a1", "a2"}, At: at,
			}},
		},
		Events: []engine.WorldEvent{{
			ID: fmt.Sprintf("event-%d-%d", day, hour), Day: day, Hour: hour,
			Category: "harvest", Description: fmt.Sprintf("Stores came in on day %d", day), At: at,
		}},
		News: []engine.NewsItem{{
			ID: fmt.Sprintf("news-%d-%d", day, hour), Day: day, Hour: hour,
			Kind: engine.NewsBrief, Headline: fmt.Sprintf("Morning brief, day %d", day),
			Body: "Quiet skies.", At: at,
		}},
	}
	for i := 1; i < n; i++ {
		res.Events = append(res.Events, engine.WorldEvent{
			ID: fmt.Sprintf("event-%d-%d-%d", day, hour, i), Day: day, Hour: hour,
			Category: "fire", Description: "Sparks over the workshop", At: at.Add(time.Duration(i) * time.Minute),
		})
	}
	return res
}

func TestAppendResultArchivesAndDedupes(t *testing.T) {
	s := openTestStore(t)
	res := tickResult(1, 9, 2)

	if err := s.AppendResult(res); err != nil {
		t.Fatal(err)
	}
	// Re-appending the same tick must not duplicate rows.
	if err := s.AppendResult(res); err != nil {
		t.Fatal(err)
	}

	events, err := s.RecentEvents(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Category != "fire" {
		t.Fatalf("newest event = %q, want the later fire", events[0].Category)
	}

	news, err := s.RecentNews(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(news) != 1 || news[0].Kind != engine.NewsBrief {
		t.Fatalf("news = %+v, want one brief", news)
	}

	stories, err := s.RecentStories(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 1 {
		t.Fatalf("stories = %d, want 1", len(stories))
	}
	if len(stories[0].AgentIDs) != 2 {
		t.Fatalf("story agents = %v, want both participants", stories[0].AgentIDs)
	}
}

func TestChroniclePersistsPerDay(t *testing.T) {
	s := openTestStore(t)
	for day := 0; day < 3; day++ {
		res := tickResult(day+1, 4, 1)
		res.Chronicle = &engine.ChronicleEntry{
			Day:            day,
			Headlines:      []string{fmt.Sprintf("Day %d, held together", day)},
			CouncilOutcome: "\"Dig a second well\" was approved.",
			TopMoments:     []string{"The watch held the gate"},
			Metrics:        engine.Metrics{Population: 24, Morale: 61, FoodDays: 58},
			At:             time.Date(2025, 6, 11+day, 4, 0, 0, 0, time.UTC),
		}
		if err := s.AppendResult(res); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Chronicles(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("chronicles = %d, want limit 2", len(entries))
	}
	if entries[0].Day != 2 || entries[1].Day != 1 {
		t.Fatalf("chronicle order = %d, %d, want newest day first", entries[0].Day, entries[1].Day)
	}
	if entries[0].Metrics.Population != 24 {
		t.Fatalf("metrics snapshot lost: %+v", entries[0].Metrics)
	}
	if len(entries[0].Headlines) != 1 {
		t.Fatalf("headlines lost: %+v", entries[0].Headlines)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetMeta("seed")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("unset meta = %q, want empty", got)
	}
	if err := s.SaveMeta("seed", "42"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveMeta("seed", "99"); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetMeta("seed")
	if err != nil {
		t.Fatal(err)
	}
	if got != "99" {
		t.Fatalf("meta = %q, want 99 after overwrite", got)
	}
}
