package fixture

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func countTree(t *testing.T, root string) (files, dirs int) {
	t.Helper()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if d.IsDir() {
			dirs++
		} else {
			files++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return files, dirs
}

func TestBuild_Layout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fakedata")
	if err := Build(root); err != nil {
		t.Fatalf("Build: %v", err)
	}

	dataFiles, _ := countTree(t, filepath.Join(root, "data"))
	if dataFiles != 2 {
		t.Errorf("data files = %d, want 2", dataFiles)
	}

	attFiles, attDirs := countTree(t, filepath.Join(root, "attachments"))
	if attFiles != 3 {
		t.Errorf("attachment files = %d, want 3", attFiles)
	}
	// 2 buckets (00 and 4d) + 3 leaf dirs.
	if attDirs != 5 {
		t.Errorf("attachment dirs = %d, want 5", attDirs)
	}
}

func TestBuild_NoteContents(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fakedata")
	if err := Build(root); err != nil {
		t.Fatalf("Build: %v", err)
	}

	note1, err := os.ReadFile(filepath.Join(root, "data", "note1.org"))
	if err != nil {
		t.Fatalf("read note1: %v", err)
	}
	for _, want := range []string{
		":ID:      87f4a3-a24c-4a96-938f-f00ef1f67ef3",
		"[[id:5970E7-4DAD-4E87-9256-B1E63E4C2885][Note Two]]",
		":ID:      8AADAE-AB7D-4A7C-9C64-C5DD95D1ACFA",
		"[[attachment:attachment1.png]]",
	} {
		if !strings.Contains(string(note1), want) {
			t.Errorf("note1.org missing %q", want)
		}
	}

	note2, err := os.ReadFile(filepath.Join(root, "data", "note2.org"))
	if err != nil {
		t.Fatalf("read note2: %v", err)
	}
	if !strings.Contains(string(note2), "[[id:87f4a3-a24c-4a96-938f-f00ef1f67ef3][Note One]]") {
		t.Error("note2.org missing reciprocal link to Note One")
	}
	if !strings.Contains(string(note2), "[[attachment:attachment3.jpg]]") {
		t.Error("note2.org missing attachment3.jpg marker")
	}
}

func TestBuild_PlaceholdersEmpty(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fakedata")
	if err := Build(root); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, p := range placeholders {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			t.Errorf("stat %s: %v", p, err)
			continue
		}
		if info.Size() != 0 {
			t.Errorf("%s has size %d, want 0", p, info.Size())
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fakedata")
	if err := Build(root); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	before1, _ := os.ReadFile(filepath.Join(root, "data", "note1.org"))
	filesBefore, dirsBefore := countTree(t, root)

	if err := Build(root); err != nil {
		t.Fatalf("second Build: %v", err)
	}
	after1, _ := os.ReadFile(filepath.Join(root, "data", "note1.org"))
	filesAfter, dirsAfter := countTree(t, root)

	if string(before1) != string(after1) {
		t.Error("note1.org changed between runs")
	}
	if filesBefore != filesAfter || dirsBefore != dirsAfter {
		t.Errorf("tree changed: %d/%d files/dirs before, %d/%d after",
			filesBefore, dirsBefore, filesAfter, dirsAfter)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	rootA := filepath.Join(t.TempDir(), "a")
	rootB := filepath.Join(t.TempDir(), "b")
	if err := Build(rootA); err != nil {
		t.Fatal(err)
	}
	if err := Build(rootB); err != nil {
		t.Fatal(err)
	}
	for rel := range notes {
		a, _ := os.ReadFile(filepath.Join(rootA, filepath.FromSlash(rel)))
		b, _ := os.ReadFile(filepath.Join(rootB, filepath.FromSlash(rel)))
		if string(a) != string(b) {
			t.Errorf("%s differs between builds", rel)
		}
	}
}

func TestBuild_UnwritableParent(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root; permission checks do not apply")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })

	err := Build(filepath.Join(parent, "fakedata"))
	if err == nil {
		t.Fatal("expected error for unwritable parent")
	}
	// Nothing should have been created.
	entries, _ := os.ReadDir(parent)
	if len(entries) != 0 {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestVerify_ReportsShardingMismatch(t *testing.T) {
	// The shipped fixture is deliberately inconsistent: buckets 00/4d do not
	// prefix the leaf IDs, so attachment markers cannot resolve through the
	// sharding convention. Verify must surface that; Build must not.
	root := filepath.Join(t.TempDir(), "fakedata")
	if err := Build(root); err != nil {
		t.Fatalf("Build: %v", err)
	}
	problems, err := Verify(root)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) == 0 {
		t.Fatal("expected problems for the inconsistent fixture tree")
	}

	var bucketProblem, attachProblem bool
	for _, p := range problems {
		if strings.Contains(p.Detail, "not a prefix of leaf") {
			bucketProblem = true
		}
		if strings.Contains(p.Detail, "unreachable") {
			attachProblem = true
		}
		if strings.Contains(p.Detail, "link target") {
			t.Errorf("cross-links should all resolve, got %s", p)
		}
	}
	if !bucketProblem {
		t.Error("expected a bucket prefix problem")
	}
	if !attachProblem {
		t.Error("expected an unreachable attachment problem")
	}
}

func TestVerify_CleanTree(t *testing.T) {
	// A tree sharded correctly passes verification.
	root := t.TempDir()
	note := "#+title: Solo\n:PROPERTIES:\n:ID: ab12-cd34\n:END:\n\n[[attachment:pic.png]]\n"
	if err := os.MkdirAll(filepath.Join(root, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "data", "solo.org"), []byte(note), 0o644); err != nil {
		t.Fatal(err)
	}
	leaf := filepath.Join(root, "attachments", "ab", "ab12-cd34")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(leaf, "pic.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	problems, err := Verify(root)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("unexpected problems: %v", problems)
	}
}
