package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	ID        string
	Title     string
	Path      string
	Level     int
	Checksum  string
	UpdatedAt time.Time
}

// LinkRow represents a row in the links table.
type LinkRow struct {
	Source string
	Target string
	Text   string
	Kind   string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Title   string
	Snippet string
}

// GraphNode is one node in the knowledge graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// GraphLink is one directed edge in the knowledge graph.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// UpsertNote inserts or replaces a note, its FTS entry, its outgoing links,
// and its attachments within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, links []LinkRow, attachments []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (id, title, path, level, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			path       = excluded.path,
			level      = excluded.level,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.ID, n.Title, n.Path, n.Level, n.Checksum, body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, n.ID, n.Title, body); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.ID)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, text, kind) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(n.ID, l.Target, l.Text, l.Kind); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	// Replace attachments the same way.
	_, _ = tx.Exec(`DELETE FROM attachments WHERE note_id = ?`, n.ID)
	if len(attachments) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO attachments (note_id, name) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare attachment insert: %w", err)
		}
		defer stmt.Close()
		for _, name := range attachments {
			if _, err := stmt.Exec(n.ID, name); err != nil {
				return fmt.Errorf("index: insert attachment: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteByPath removes every node extracted from the given file, together
// with FTS entries, links, and attachments. It returns the IDs removed so
// callers can emit per-node events.
func (db *DB) DeleteByPath(path string) ([]string, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.Query(`SELECT id FROM notes WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("index: select by path: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		ftsDelete(tx, id)
		_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, id)
		_, _ = tx.Exec(`DELETE FROM attachments WHERE note_id = ?`, id)
		_, _ = tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Resolve returns the note with the given ID, or apperr.ErrNotFound.
func (db *DB) Resolve(id string) (*NoteRow, error) {
	var n NoteRow
	err := db.conn.QueryRow(`
		SELECT id, title, path, level, checksum, updated_at
		FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &n.Path, &n.Level, &n.Checksum, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: resolve %s: %w", id, err)
	}
	return &n, nil
}

// ListNotes returns a page of notes plus the total count. sort is one of
// "updated_at" (default), "title", or "path".
func (db *DB) ListNotes(limit, offset int, sort string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order := "updated_at DESC"
	switch sort {
	case "title":
		order = "title ASC"
	case "path":
		order = "path ASC, level ASC"
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, title, path, level, checksum, updated_at
		FROM notes ORDER BY `+order+` LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		if err := rows.Scan(&n.ID, &n.Title, &n.Path, &n.Level, &n.Checksum, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// Backlinks returns the IDs of all notes that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ?`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Dangling returns id-links whose target is not a known note.
func (db *DB) Dangling() ([]LinkRow, error) {
	rows, err := db.conn.Query(`
		SELECT l.source, l.target, l.text, l.kind
		FROM links l
		LEFT JOIN notes n ON n.id = l.target
		WHERE l.kind = 'id' AND n.id IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("index: dangling: %w", err)
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Source, &l.Target, &l.Text, &l.Kind); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Attachments returns the attachment names recorded for a note.
func (db *DB) Attachments(id string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT name FROM attachments WHERE note_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("index: attachments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Graph returns all notes and id-links for graph visualization.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	nodeRows, err := db.conn.Query(`SELECT id, title, path FROM notes`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []GraphNode
	for nodeRows.Next() {
		var n GraphNode
		if err := nodeRows.Scan(&n.ID, &n.Title, &n.Path); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := db.conn.Query(`SELECT source, target FROM links WHERE kind = 'id'`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer linkRows.Close()

	var links []GraphLink
	for linkRows.Next() {
		var l GraphLink
		if err := linkRows.Scan(&l.Source, &l.Target); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, linkRows.Err()
}

// PathChecksums returns the file checksum recorded for each indexed path.
// Multiple nodes from the same file share one checksum.
func (db *DB) PathChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: path checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
