// Package store persists component trees between runs so component keys stay
// stable across separate invocations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/phobologic/layoutsync/internal/model"
)

// Schema holds the documents and components tables.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	path TEXT PRIMARY KEY,
	format TEXT NOT NULL,
	components INTEGER NOT NULL,
	saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS components (
	doc_path TEXT NOT NULL,
	seq INTEGER NOT NULL,
	key TEXT NOT NULL,
	parent_key TEXT NOT NULL DEFAULT '',
	tag TEXT NOT NULL,
	attrs TEXT NOT NULL,
	has_snapshot INTEGER NOT NULL,
	signature INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (doc_path, seq)
);
CREATE INDEX IF NOT EXISTS idx_components_key ON components(doc_path, key);
`

// Store is a SQLite-backed component store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// DocInfo describes one stored document.
type DocInfo struct {
	Path       string
	Format     string
	Components int
	SavedAt    time.Time
}

// Open opens (creating if needed) the store at path. ":memory:" gives a
// private in-memory store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" shared and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type attrRow struct {
	Space string `json:"ns,omitempty"`
	Local string `json:"name"`
	Value string `json:"value"`
}

// Save replaces the stored tree for docPath with components.
func (s *Store) Save(ctx context.Context, docPath, format string, components []*model.Component) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer s.rollback(tx, "save")

	if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE doc_path = ?`, docPath); err != nil {
		return fmt.Errorf("clear components: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO components (doc_path, seq, key, parent_key, tag, attrs, has_snapshot, signature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for _, root := range components {
		for _, c := range root.Flatten() {
			parent := ""
			if p := c.Parent(); p != nil {
				parent = p.Key()
			}

			attrs := c.Tag().Attributes()
			hasSnapshot := false
			var signature uint64
			if snap := c.Snapshot(); snap != nil {
				attrs = snap.Attrs
				hasSnapshot = true
				signature = snap.Signature
			}
			encoded, err := encodeAttrs(attrs)
			if err != nil {
				return fmt.Errorf("component %s: %w", c.Key(), err)
			}

			// SQLite integers are signed; the signature round-trips through int64.
			if _, err := stmt.ExecContext(ctx, docPath, seq, c.Key(), parent, c.TagName(),
				encoded, hasSnapshot, int64(signature)); err != nil {
				return fmt.Errorf("insert component %s: %w", c.Key(), err)
			}
			seq++
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (path, format, components, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET format = excluded.format,
			components = excluded.components, saved_at = excluded.saved_at
	`, docPath, format, seq, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("store: saved", "path", docPath, "components", seq)
	return nil
}

// Load rebuilds the stored tree for docPath. Components keep their keys and
// snapshots but are bound to detached tags that belong to no document, so
// reconciling them against a fresh parse never takes the exact-reference
// pass. A path with nothing stored returns nil.
func (s *Store) Load(ctx context.Context, docPath string) ([]*model.Component, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, parent_key, tag, attrs, has_snapshot, signature
		FROM components WHERE doc_path = ? ORDER BY seq
	`, docPath)
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer rows.Close()

	var (
		roots    []*model.Component
		byKey    = make(map[string]*model.Component)
		children = make(map[*model.Component][]*model.Component)
		order    []*model.Component
	)
	for rows.Next() {
		var (
			key, parentKey, name, encoded string
			hasSnapshot                   bool
			signature                     int64
		)
		if err := rows.Scan(&key, &parentKey, &name, &encoded, &hasSnapshot, &signature); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		attrs, err := decodeAttrs(encoded)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", key, err)
		}

		tag := &storedTag{name: name, attrs: attrs}
		c := model.NewComponent(tag, key)
		if hasSnapshot {
			c.SetSnapshot(&model.Snapshot{
				Tag:       tag,
				TagName:   name,
				Attrs:     attrs,
				Signature: uint64(signature),
			})
		}

		byKey[key] = c
		order = append(order, c)
		if parentKey == "" {
			roots = append(roots, c)
			continue
		}
		parent, ok := byKey[parentKey]
		if !ok {
			return nil, fmt.Errorf("component %s: parent %s not stored before it", key, parentKey)
		}
		children[parent] = append(children[parent], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read components: %w", err)
	}

	for _, c := range order {
		if kids := children[c]; len(kids) > 0 {
			c.SetChildren(kids)
			tag := c.Tag().(*storedTag)
			for _, k := range kids {
				tag.children = append(tag.children, k.Tag())
			}
		}
	}
	return roots, nil
}

// Forget removes everything stored for docPath.
func (s *Store) Forget(ctx context.Context, docPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer s.rollback(tx, "forget")

	if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE doc_path = ?`, docPath); err != nil {
		return fmt.Errorf("delete components: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, docPath); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return tx.Commit()
}

// Paths lists the stored documents sorted by path.
func (s *Store) Paths(ctx context.Context) ([]DocInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, format, components, saved_at FROM documents ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []DocInfo
	for rows.Next() {
		var (
			info    DocInfo
			savedAt int64
		)
		if err := rows.Scan(&info.Path, &info.Format, &info.Components, &savedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		info.SavedAt = time.Unix(savedAt, 0)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) rollback(tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.Warn("store: rollback failed", "op", op, "error", err)
	}
}

func encodeAttrs(attrs []model.Attribute) (string, error) {
	rows := make([]attrRow, len(attrs))
	for i, a := range attrs {
		rows[i] = attrRow{Space: a.Space, Local: a.Local, Value: a.Value}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(b), nil
}

func decodeAttrs(encoded string) ([]model.Attribute, error) {
	var rows []attrRow
	if err := json.Unmarshal([]byte(encoded), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	attrs := make([]model.Attribute, len(rows))
	for i, r := range rows {
		attrs[i] = model.Attribute{Space: r.Space, Local: r.Local, Value: r.Value}
	}
	return attrs, nil
}
