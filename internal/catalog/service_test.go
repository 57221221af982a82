package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/testutil"
)

const twoNodeOrg = `#+title: Note One
:PROPERTIES:
:ID: a-1
:END:

Links to [[id:b-1][Note Two]] with [[attachment:pic.png]].

* Heading
:PROPERTIES:
:ID: a-2
:END:

Heading body.
`

func testService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	return NewService(store, db)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIndexFile_MultipleNodes(t *testing.T) {
	svc := testService(t)
	if err := svc.IndexFile("data/note1.org", []byte(twoNodeOrg)); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	for _, id := range []string{"a-1", "a-2"} {
		if _, err := svc.Resolve(id); err != nil {
			t.Errorf("Resolve(%s): %v", id, err)
		}
	}

	bl, err := svc.Backlinks(context.Background(), "b-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 1 || bl[0] != "a-1" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestIndexFile_DropsRemovedNodes(t *testing.T) {
	svc := testService(t)
	if err := svc.IndexFile("data/note1.org", []byte(twoNodeOrg)); err != nil {
		t.Fatal(err)
	}

	// Re-index without the heading node.
	trimmed := "#+title: Note One\n:PROPERTIES:\n:ID: a-1\n:END:\n\nBody only.\n"
	if err := svc.IndexFile("data/note1.org", []byte(trimmed)); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Resolve("a-2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("a-2 should be gone, err = %v", err)
	}
	if _, err := svc.Resolve("a-1"); err != nil {
		t.Errorf("a-1 should remain: %v", err)
	}
}

func TestSync_IndexesAndRemoves(t *testing.T) {
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := NewService(store, db)

	if err := store.Write("data/note1.org", []byte(twoNodeOrg)); err != nil {
		t.Fatal(err)
	}
	if err := store.Write("data/note2.org",
		[]byte("#+title: Note Two\n:PROPERTIES:\n:ID: b-1\n:END:\n\nBack to [[id:a-1][Note One]].\n")); err != nil {
		t.Fatal(err)
	}

	if err := svc.Sync(discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	items, total, err := svc.ListNotes(context.Background(), 10, 0, "title")
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(items) != 3 {
		t.Errorf("total = %d, items = %d, want 3", total, len(items))
	}

	d, err := svc.Dangling(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(d) != 0 {
		t.Errorf("dangling = %v, want none", d)
	}

	// Remove a file and re-sync.
	if err := store.Delete("data/note2.org"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(discard()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Resolve("b-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("b-1 should be gone after sync, err = %v", err)
	}
	d, _ = svc.Dangling(context.Background())
	if len(d) != 1 || d[0].Target != "b-1" {
		t.Errorf("dangling = %v, want the now-broken link to b-1", d)
	}
}

func TestSync_SkipsUnchangedFiles(t *testing.T) {
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := NewService(store, db)

	if err := store.Write("a.org", []byte(twoNodeOrg)); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(discard()); err != nil {
		t.Fatal(err)
	}
	first, err := svc.Resolve("a-1")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Sync(discard()); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Resolve("a-1")
	if err != nil {
		t.Fatal(err)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Error("unchanged file was re-indexed")
	}
}

func TestGetNote_Detail(t *testing.T) {
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := NewService(store, db)

	if err := store.Write("data/note1.org", []byte(twoNodeOrg)); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(discard()); err != nil {
		t.Fatal(err)
	}

	detail, err := svc.GetNote(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if detail.Title != "Note One" || detail.Path != "data/note1.org" {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Content != twoNodeOrg {
		t.Error("content should be the full org source")
	}
	if len(detail.Attachments) != 1 || detail.Attachments[0] != "pic.png" {
		t.Errorf("attachments = %v", detail.Attachments)
	}
	if detail.Backlinks == nil {
		t.Error("backlinks must be non-nil for JSON encoding")
	}
}

func TestGetNote_NotFound(t *testing.T) {
	svc := testService(t)
	_, err := svc.GetNote(context.Background(), "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
