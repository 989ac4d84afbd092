// Package journal keeps the placements of published stories in SQLite so
// the patch phase can be re-run after it failed.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/tsawler/docstory/model"
	"github.com/tsawler/docstory/publish"
)

// ErrNotFound is returned by Load when an item has no placements.
var ErrNotFound = errors.New("journal: no placements for item")

const schema = `
CREATE TABLE IF NOT EXISTS placements (
	item_id    TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	node_id    TEXT    NOT NULL,
	marker     TEXT    NOT NULL DEFAULT '',
	block_json TEXT    NOT NULL,
	created_at TEXT    NOT NULL,
	PRIMARY KEY (item_id, node_id)
);
CREATE INDEX IF NOT EXISTS placements_item_seq ON placements(item_id, seq);
`

// Store is a placement journal. It implements publish.Journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ publish.Journal = (*Store)(nil)

// Entry summarises the journaled placements of one item.
type Entry struct {
	ItemID     string
	Placements int
	CreatedAt  time.Time
}

// Open opens or creates the journal database at path. ":memory:" gives a
// private in-memory journal.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// One connection keeps an in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout=10000", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record replaces the placements stored for an item.
func (s *Store) Record(ctx context.Context, itemID string, pm *publish.PlaceholderMap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM placements WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clearing previous placements: %w", err)
	}
	created := s.now().UTC().Format(time.RFC3339)
	for i, p := range pm.Placements() {
		block, err := json.Marshal(model.Encode(p.Block))
		if err != nil {
			return fmt.Errorf("encoding block for node %s: %w", p.NodeID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO placements (item_id, seq, node_id, marker, block_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			itemID, i, p.NodeID, p.Marker, string(block), created); err != nil {
			return fmt.Errorf("inserting placement %s: %w", p.NodeID, err)
		}
	}
	return tx.Commit()
}

// Load rebuilds the placeholder map of an item.
func (s *Store) Load(ctx context.Context, itemID string) (*publish.PlaceholderMap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, marker, block_json FROM placements WHERE item_id = ? ORDER BY seq`, itemID)
	if err != nil {
		return nil, fmt.Errorf("querying placements: %w", err)
	}
	defer rows.Close()

	pm := publish.NewPlaceholderMap()
	for rows.Next() {
		var nodeID, marker, blockJSON string
		if err := rows.Scan(&nodeID, &marker, &blockJSON); err != nil {
			return nil, fmt.Errorf("scanning placement: %w", err)
		}
		var env model.Envelope
		if err := json.Unmarshal([]byte(blockJSON), &env); err != nil {
			return nil, fmt.Errorf("decoding block for node %s: %w", nodeID, err)
		}
		block, err := env.Decode()
		if err != nil {
			return nil, fmt.Errorf("decoding block for node %s: %w", nodeID, err)
		}
		pm.Add(publish.Placement{NodeID: nodeID, Marker: marker, Block: block})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if pm.Len() == 0 {
		return nil, fmt.Errorf("%w %s", ErrNotFound, itemID)
	}
	return pm, nil
}

// Clear removes the placements of an item.
func (s *Store) Clear(ctx context.Context, itemID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM placements WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clearing placements: %w", err)
	}
	return nil
}

// Items lists the items that still have placements, oldest first.
func (s *Store) Items(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, COUNT(*), MIN(created_at) FROM placements GROUP BY item_id ORDER BY MIN(created_at), item_id`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ItemID, &e.Placements, &created); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
