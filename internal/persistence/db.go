// Package persistence provides SQLite-backed storage: the generated
// event cache, storyline metadata, and game-state saves.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/event"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("persistence: not found")

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := db.seedStorylines(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("seed storylines: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		storyline TEXT NOT NULL,
		chapter INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '',
		characters TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		effects TEXT NOT NULL DEFAULT '{}',
		impact_description TEXT NOT NULL DEFAULT '',
		rarity TEXT NOT NULL DEFAULT 'common',
		created_at TIMESTAMP NOT NULL,
		used_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS storylines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		themes TEXT NOT NULL DEFAULT '',
		event_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_storyline ON events(storyline);
	CREATE INDEX IF NOT EXISTS idx_events_location ON events(location);
	CREATE INDEX IF NOT EXISTS idx_events_tags ON events(tags);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) seedStorylines() error {
	for _, s := range character.Storylines {
		_, err := db.conn.Exec(
			`INSERT OR IGNORE INTO storylines (id, name) VALUES (?, ?)`,
			string(s), string(s),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// eventRow is the events table shape.
type eventRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Storyline   string    `db:"storyline"`
	Chapter     int       `db:"chapter"`
	Tags        string    `db:"tags"`
	Characters  string    `db:"characters"`
	Location    string    `db:"location"`
	Effects     string    `db:"effects"`
	Impact      string    `db:"impact_description"`
	Rarity      string    `db:"rarity"`
	CreatedAt   time.Time `db:"created_at"`
	UsedCount   int       `db:"used_count"`
}

// CacheEvents stores validated generated events for later reuse and
// bumps the storyline event counter.
func (db *DB) CacheEvents(storyline character.Storyline, location string, events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		payload := "{}"
		if e.Effects != nil || len(e.Choices) > 0 {
			blob, err := json.Marshal(struct {
				Choices []event.Choice     `json:"choices,omitempty"`
				Effects *event.EffectDelta `json:"effects,omitempty"`
			}{e.Choices, e.Effects})
			if err != nil {
				return fmt.Errorf("marshal effects for %s: %w", e.ID, err)
			}
			payload = string(blob)
		}

		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err := tx.Exec(`INSERT OR REPLACE INTO events
			(id, title, description, storyline, tags, location, effects,
			 impact_description, rarity, created_at, used_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			e.ID, e.Title, e.Description, string(storyline), e.Type,
			location, payload, e.Impact, string(e.Rarity), createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	_, err = tx.Exec(
		`UPDATE storylines SET event_count = event_count + ? WHERE id = ?`,
		len(events), string(storyline),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RandomCachedEvent returns a random cached event matching the given
// filters (empty filters match everything) and increments its
// used_count. ErrNotFound when the cache has no match.
func (db *DB) RandomCachedEvent(storyline character.Storyline, location, eventType string) (*event.Event, error) {
	query := `SELECT * FROM events WHERE 1=1`
	args := []any{}
	if storyline != "" {
		query += ` AND storyline = ?`
		args = append(args, string(storyline))
	}
	if location != "" {
		query += ` AND (location = ? OR location = '')`
		args = append(args, location)
	}
	if eventType != "" {
		query += ` AND tags = ?`
		args = append(args, eventType)
	}
	// Prefer less-used events so the cache rotates.
	query += ` ORDER BY used_count ASC, RANDOM() LIMIT 1`

	var row eventRow
	if err := db.conn.Get(&row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query cached event: %w", err)
	}

	if _, err := db.conn.Exec(`UPDATE events SET used_count = used_count + 1 WHERE id = ?`, row.ID); err != nil {
		slog.Warn("bump used_count failed", "id", row.ID, "error", err)
	}

	return row.toEvent()
}

// ClearEvents empties the event cache and resets the per-storyline
// counters. Returns the number of events removed.
func (db *DB) ClearEvents() (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM events`)
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", err)
	}
	n, _ := res.RowsAffected()
	if _, err := db.conn.Exec(`UPDATE storylines SET event_count = 0`); err != nil {
		return n, fmt.Errorf("reset storyline counters: %w", err)
	}
	return n, nil
}

// CachedEventCount returns the number of cached events.
func (db *DB) CachedEventCount() (int, error) {
	var n int
	err := db.conn.Get(&n, `SELECT COUNT(*) FROM events`)
	return n, err
}

func (r eventRow) toEvent() (*event.Event, error) {
	e := &event.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Tags,
		Rarity:      event.Rarity(r.Rarity),
		Impact:      r.Impact,
		Source:      event.SourceCache,
		CreatedAt:   r.CreatedAt,
	}

	var payload struct {
		Choices []event.Choice     `json:"choices,omitempty"`
		Effects *event.EffectDelta `json:"effects,omitempty"`
	}
	if err := json.Unmarshal([]byte(r.Effects), &payload); err != nil {
		return nil, fmt.Errorf("decode effects for %s: %w", r.ID, err)
	}
	e.Choices = payload.Choices
	e.Effects = payload.Effects
	return e, nil
}

// SaveState upserts a serialized game-state blob under the given id.
func (db *DB) SaveState(id string, payload []byte) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO saves (id, payload, updated_at) VALUES (?, ?, ?)`,
		id, string(payload), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save state %s: %w", id, err)
	}
	return nil
}

// LoadState fetches a serialized game-state blob.
func (db *DB) LoadState(id string) ([]byte, error) {
	var payload string
	err := db.conn.Get(&payload, `SELECT payload FROM saves WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", id, err)
	}
	return []byte(payload), nil
}

// DeleteState removes a save.
func (db *DB) DeleteState(id string) error {
	_, err := db.conn.Exec(`DELETE FROM saves WHERE id = ?`, id)
	return err
}

// ListSaves returns all save ids, most recently updated first.
func (db *DB) ListSaves() ([]string, error) {
	var ids []string
	err := db.conn.Select(&ids, `SELECT id FROM saves ORDER BY updated_at DESC`)
	return ids, err
}
