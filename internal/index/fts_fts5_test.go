//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestSearch_FTS5Snippets(t *testing.T) {
	db := testDB(t)
	err := db.UpsertNote(NoteRow{
		ID:        "a-1",
		Title:     "Gardening",
		Path:      "data/a.org",
		UpdatedAt: time.Now(),
	}, "Notes about growing tomatoes in raised beds.", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := db.Search("tomatoes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a-1" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Snippet == "" {
		t.Error("expected a non-empty snippet")
	}
}

func TestSearch_FTS5EntryRemovedWithNote(t *testing.T) {
	db := testDB(t)
	err := db.UpsertNote(NoteRow{
		ID:        "a-1",
		Title:     "Temp",
		Path:      "data/t.org",
		UpdatedAt: time.Now(),
	}, "ephemeral content", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.DeleteByPath("data/t.org"); err != nil {
		t.Fatal(err)
	}
	hits, err := db.Search("ephemeral", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits after delete, got %+v", hits)
	}
}
