// Package persistence provides the SQLite-backed world store: compressed
// state snapshots plus append-only archives of events, news, stories, and
// chronicles.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/emberhold/internal/engine"
	"github.com/talgya/emberhold/internal/story"
)

// ErrNoSnapshot reports an empty snapshot table; callers bootstrap a fresh
// world instead.
var ErrNoSnapshot = errors.New("persistence: no snapshot saved")

// keepSnapshots bounds the snapshot history kept on disk.
const keepSnapshots = 50

// Store wraps a SQLite connection plus reusable zstd codecs for snapshot
// blobs.
type Store struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens or creates the store at path and runs migrations.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	s := &Store{conn: conn, enc: enc, dec: dec}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the connection and codecs.
func (s *Store) Close() error {
	s.dec.Close()
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		state BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS news (
		id TEXT PRIMARY KEY,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		kind TEXT NOT NULL,
		headline TEXT NOT NULL,
		body TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		consequence TEXT NOT NULL,
		agent_ids TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chronicles (
		day INTEGER PRIMARY KEY,
		headlines TEXT NOT NULL,
		council_outcome TEXT NOT NULL,
		top_moments TEXT NOT NULL,
		metrics TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_news_day ON news(day);
	CREATE INDEX IF NOT EXISTS idx_stories_day ON stories(day);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveSnapshot compresses the state and appends it, pruning history past
// the keep limit.
func (s *Store) SaveSnapshot(st *engine.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	blob := s.enc.EncodeAll(raw, nil)

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO snapshots (tick, day, hour, saved_at, state) VALUES (?, ?, ?, ?, ?)",
		st.Tick, st.Day, st.Hour, time.Now().UnixNano(), blob,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.Exec(
		"DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)",
		keepSnapshots,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("snapshot saved", "tick", st.Tick, "day", st.Day, "hour", st.Hour, "bytes", len(blob))
	return nil
}

// LoadLatest restores the most recent snapshot.
func (s *Store) LoadLatest() (*engine.State, error) {
	var blob []byte
	err := s.conn.Get(&blob, "SELECT state FROM snapshots ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var st engine.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &st, nil
}

// AppendResult archives everything one tick produced. Story rows come from
// the state's bounded log; the id primary key dedupes entries already
// written on earlier ticks.
func (s *Store) AppendResult(res *engine.Result) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range res.Events {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO events (id, day, hour, category, description, at) VALUES (?, ?, ?, ?, ?, ?)",
			ev.ID, ev.Day, ev.Hour, ev.Category, ev.Description, ev.At.UnixNano(),
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	for _, item := range res.News {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO news (id, day, hour, kind, headline, body, at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			item.ID, item.Day, item.Hour, string(item.Kind), item.Headline, item.Body, item.At.UnixNano(),
		); err != nil {
			return fmt.Errorf("insert news: %w", err)
		}
	}
	for _, ev := range res.State.Stories {
		ids, err := json.Marshal(ev.AgentIDs)
		if err != nil {
			return fmt.Errorf("marshal story agents: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO stories (id, day, hour, category, title, description, consequence, agent_ids, at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			ev.ID, ev.Day, ev.Hour, string(ev.Category), ev.Title, ev.Description, ev.Consequence, string(ids), ev.At.UnixNano(),
		); err != nil {
			return fmt.Errorf("insert story: %w", err)
		}
	}
	if res.Chronicle != nil {
		if err := s.saveChronicle(tx, res.Chronicle); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) saveChronicle(tx *sqlx.Tx, entry *engine.ChronicleEntry) error {
	headlines, err := json.Marshal(entry.Headlines)
	if err != nil {
		return fmt.Errorf("marshal headlines: %w", err)
	}
	moments, err := json.Marshal(entry.TopMoments)
	if err != nil {
		return fmt.Errorf("marshal moments: %w", err)
	}
	metrics, err := json.Marshal(entry.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = tx.Exec(
		"INSERT OR REPLACE INTO chronicles (day, headlines, council_outcome, top_moments, metrics, at) VALUES (?, ?, ?, ?, ?, ?)",
		entry.Day, string(headlines), entry.CouncilOutcome, string(moments), string(metrics), entry.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert chronicle: %w", err)
	}
	return nil
}

type eventRow struct {
	ID          string `db:"id"`
	Day         int    `db:"day"`
	Hour        int    `db:"hour"`
	Category    string `db:"category"`
	Description string `db:"description"`
	At          int64  `db:"at"`
}

type newsRow struct {
	ID       string `db:"id"`
	Day      int    `db:"day"`
	Hour     int    `db:"hour"`
	Kind     string `db:"kind"`
	Headline string `db:"headline"`
	Body     string `db:"body"`
	At       int64  `db:"at"`
}

type storyRow struct {
	ID          string `db:"id"`
	Day         int    `db:"day"`
	Hour        int    `db:"hour"`
	Category    string `db:"category"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Consequence string `db:"consequence"`
	AgentIDs    string `db:"agent_ids"`
	At          int64  `db:"at"`
}

type chronicleRow struct {
	Day            int    `db:"day"`
	Headlines      string `db:"headlines"`
	CouncilOutcome string `db:"council_outcome"`
	TopMoments     string `db:"top_moments"`
	Metrics        string `db:"metrics"`
	At             int64  `db:"at"`
}

// RecentEvents returns up to limit archived events, newest first.
func (s *Store) RecentEvents(limit int) ([]engine.WorldEvent, error) {
	var rows []eventRow
	if err := s.conn.Select(&rows,
		"SELECT id, day, hour, category, description, at FROM events ORDER BY at DESC LIMIT ?", limit,
	); err != nil {
		return nil, err
	}
	out := make([]engine.WorldEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.WorldEvent{
			ID: r.ID, Day: r.Day, Hour: r.Hour,
			Category: r.Category, Description: r.Description,
			At: time.Unix(0, r.At),
		})
	}
	return out, nil
}

// RecentNews returns up to limit archived news items, newest first.
func (s *Store) RecentNews(limit int) ([]engine.NewsItem, error) {
	var rows []newsRow
	if err := s.conn.Select(&rows,
		"SELECT id, day, hour, kind, headline, body, at FROM news ORDER BY at DESC LIMIT ?", limit,
	); err != nil {
		return nil, err
	}
	out := make([]engine.NewsItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.NewsItem{
			ID: r.ID, Day: r.Day, Hour: r.Hour,
			Kind: engine.NewsKind(r.Kind), Headline: r.Headline, Body: r.Body,
			At: time.Unix(0, r.At),
		})
	}
	return out, nil
}

// RecentStories returns up to limit archived story events, newest first.
func (s *Store) RecentStories(limit int) ([]story.Event, error) {
	var rows []storyRow
	if err := s.conn.Select(&rows,
		"SELECT id, day, hour, category, title, description, consequence, agent_ids, at FROM stories ORDER BY at DESC LIMIT ?", limit,
	); err != nil {
		return nil, err
	}
	out := make([]story.Event, 0, len(rows))
	for _, r := range rows {
		ev := story.Event{
			ID: r.ID, Day: r.Day, Hour: r.Hour,
			Category: story.Category(r.Category), Title: r.Title,
			Description: r.Description, Consequence: r.Consequence,
			At: time.Unix(0, r.At),
		}
		if err := json.Unmarshal([]byte(r.AgentIDs), &ev.AgentIDs); err != nil {
			return nil, fmt.Errorf("unmarshal story agents: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Chronicles returns up to limit entries, newest day first.
func (s *Store) Chronicles(limit int) ([]engine.ChronicleEntry, error) {
	var rows []chronicleRow
	if err := s.conn.Select(&rows,
		"SELECT day, headlines, council_outcome, top_moments, metrics, at FROM chronicles ORDER BY day DESC LIMIT ?", limit,
	); err != nil {
		return nil, err
	}
	out := make([]engine.ChronicleEntry, 0, len(rows))
	for _, r := range rows {
		entry := engine.ChronicleEntry{
			Day:            r.Day,
			CouncilOutcome: r.CouncilOutcome,
			At:             time.Unix(0, r.At),
		}
		if err := json.Unmarshal([]byte(r.Headlines), &entry.Headlines); err != nil {
			return nil, fmt.Errorf("unmarshal headlines: %w", err)
		}
		if err := json.Unmarshal([]byte(r.TopMoments), &entry.TopMoments); err != nil {
			return nil, fmt.Errorf("unmarshal moments: %w", err)
		}
		if err := json.Unmarshal([]byte(r.Metrics), &entry.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// SaveMeta stores a key-value pair.
func (s *Store) SaveMeta(key, value string) error {
	_, err := s.conn.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a metadata value, empty when unset.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}
