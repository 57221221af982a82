// Package catalog keeps the SQLite note index in step with an Org source
// vault and answers lookups over it.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// NoteDetail is the full representation of a catalog node.
type NoteDetail struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	Level       int       `json:"level"`
	Content     string    `json:"content"`
	Checksum    string    `json:"checksum"`
	Backlinks   []string  `json:"backlinks"`
	Attachments []string  `json:"attachments"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Level     int       `json:"level"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates the source vault and the index.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new catalog service over an Org source vault.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// IndexFile extracts every node from an Org file and replaces the file's
// entries in the index. Nodes removed from the file disappear from the
// index because the path's old rows are dropped first.
func (s *Service) IndexFile(path string, data []byte) error {
	if _, err := s.db.DeleteByPath(path); err != nil {
		return err
	}
	cs := checksum.Sum(data)
	now := time.Now()
	for _, n := range org.Extract(data) {
		links := make([]index.LinkRow, 0, len(n.Links))
		for _, l := range n.Links {
			links = append(links, index.LinkRow{
				Source: l.Source,
				Target: l.Target,
				Text:   l.Text,
				Kind:   l.Kind,
			})
		}
		row := index.NoteRow{
			ID:        n.ID,
			Title:     n.Title,
			Path:      path,
			Level:     n.Level,
			Checksum:  cs,
			UpdatedAt: now,
		}
		if err := s.db.UpsertNote(row, n.Body, links, n.Attachments); err != nil {
			return err
		}
	}
	return nil
}

// RemovePath drops every node extracted from path and returns their IDs.
func (s *Service) RemovePath(path string) ([]string, error) {
	return s.db.DeleteByPath(path)
}

// Sync walks the source vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func (s *Service) Sync(logger *slog.Logger) error {
	metas, err := s.store.List("")
	if err != nil {
		return err
	}

	checksums, err := s.db.PathChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := s.store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := s.IndexFile(m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if _, err := s.db.DeleteByPath(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// GetNote resolves an ID and enriches it with file content, backlinks, and
// attachments.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	row, err := s.db.Resolve(id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(row.Path)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}
	att, err := s.db.Attachments(id)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		ID:          row.ID,
		Title:       row.Title,
		Path:        row.Path,
		Level:       row.Level,
		Content:     string(data),
		Checksum:    row.Checksum,
		Backlinks:   nonNilSlice(bl),
		Attachments: nonNilSlice(att),
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// Resolve returns the bare index row for an ID.
func (s *Service) Resolve(id string) (*index.NoteRow, error) {
	return s.db.Resolve(id)
}

// ListNotes returns paginated notes.
func (s *Service) ListNotes(_ context.Context, limit, offset int, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			ID:        r.ID,
			Title:     r.Title,
			Path:      r.Path,
			Level:     r.Level,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns all nodes and id-links.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns IDs of notes linking to target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// Dangling returns id-links whose targets are undefined.
func (s *Service) Dangling(_ context.Context) ([]models.Link, error) {
	rows, err := s.db.Dangling()
	if err != nil {
		return nil, err
	}
	out := make([]models.Link, len(rows))
	for i, l := range rows {
		out[i] = models.Link{Source: l.Source, Target: l.Target, Text: l.Text, Kind: l.Kind}
	}
	return out, nil
}

// Store exposes the underlying source vault.
func (s *Service) Store() storage.Provider {
	return s.store
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
