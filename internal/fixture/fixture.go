// Package fixture scaffolds a deterministic fake Org-roam vault: two note
// files with fixed IDs and cross-links, plus empty attachment placeholders
// laid out under bucket/leaf directories. Downstream tests consume the tree;
// the builder itself never reads it back.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/attach"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// Fixed node IDs baked into the generated notes.
const (
	NoteOneID    = "87f4a3-a24c-4a96-938f-f00ef1f67ef3"
	HeadingOneID = "8AADAE-AB7D-4A7C-9C64-C5DD95D1ACFA"
	NoteTwoID    = "5970E7-4DAD-4E87-9256-B1E63E4C2885"
)

const noteOne = `#+title: Note One
:PROPERTIES:
:ID:      87f4a3-a24c-4a96-938f-f00ef1f67ef3
:END:

This is the first note in the fake vault. It links to
[[id:5970E7-4DAD-4E87-9256-B1E63E4C2885][Note Two]] and embeds an attachment:

[[attachment:attachment1.png]]

* Heading One
:PROPERTIES:
:ID:      8AADAE-AB7D-4A7C-9C64-C5DD95D1ACFA
:END:

This heading is an addressable node of its own, with its own attachment:

[[attachment:attachment2.pdf]]
`

const noteTwo = `#+title: Note Two
:PROPERTIES:
:ID:      5970E7-4DAD-4E87-9256-B1E63E4C2885
:END:

This is the second note. It links back to
[[id:87f4a3-a24c-4a96-938f-f00ef1f67ef3][Note One]].

[[attachment:attachment3.jpg]]

* Subheading

Plain content that stays part of Note Two because this heading has no ID.
`

// notes maps vault-relative paths to literal file contents. The contents are
// embedded verbatim so every run produces byte-identical files.
var notes = map[string]string{
	"data/note1.org": noteOne,
	"data/note2.org": noteTwo,
}

// placeholders lists the vault-relative attachment placeholder paths exactly
// as the historical fixture laid them out. Note the bucket segments are NOT
// the two-character prefixes of the leaf IDs; the inconsistency is part of
// the fixture and Build does not correct or detect it.
var placeholders = []string{
	"attachments/00/87f4a3-a24c-4a96-938f-f00ef1f67ef3/attachment1.png",
	"attachments/00/8AADAE-AB7D-4A7C-9C64-C5DD95D1ACFA/attachment2.pdf",
	"attachments/4d/5970E7-4DAD-4E87-9256-B1E63E4C2885/attachment3.jpg",
}

// DefaultRoot resolves the fixture root next to the running executable, so
// the tree always lands in the same place regardless of the caller's working
// directory.
func DefaultRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("fixture: resolve executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "fakedata"), nil
}

// Build creates the fixture tree under root. It is idempotent: directories
// and placeholders that already exist are left alone, and note files are
// rewritten atomically with identical content. The first failing filesystem
// operation aborts the run.
func Build(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("fixture: create root: %w", err)
	}
	vault, err := storage.NewFS(root, ".org")
	if err != nil {
		return fmt.Errorf("fixture: open root: %w", err)
	}

	for path, content := range notes {
		if err := vault.Write(path, []byte(content)); err != nil {
			return fmt.Errorf("fixture: write %s: %w", path, err)
		}
	}

	for _, path := range placeholders {
		if err := vault.Touch(path); err != nil {
			return fmt.Errorf("fixture: touch %s: %w", path, err)
		}
	}

	return nil
}

// Problem describes one inconsistency found by Verify.
type Problem struct {
	Path   string
	Detail string
}

func (p Problem) String() string {
	return p.Path + ": " + p.Detail
}

// Verify checks cross-reference integrity of a built fixture tree: every
// [[id:]] target must be a defined node, every [[attachment:]] marker must
// resolve through the bucket/leaf convention, and every bucket directory
// must equal the prefix of its leaf. Build never calls this; it exists only
// behind an explicit flag because a verifying run fails on trees the plain
// builder reports as success.
func Verify(root string) ([]Problem, error) {
	vault, err := storage.NewFS(root, ".org")
	if err != nil {
		return nil, fmt.Errorf("fixture: open root: %w", err)
	}
	store, err := attach.NewStore(filepath.Join(root, "attachments"))
	if err != nil {
		return nil, err
	}

	metas, err := vault.List("data")
	if err != nil {
		return nil, fmt.Errorf("fixture: list notes: %w", err)
	}

	defined := make(map[string]struct{})
	type nodeRef struct {
		path string
		node org.Node
	}
	var refs []nodeRef
	for _, m := range metas {
		data, err := vault.Read(m.Path)
		if err != nil {
			return nil, err
		}
		for _, n := range org.Extract(data) {
			defined[n.ID] = struct{}{}
			refs = append(refs, nodeRef{path: m.Path, node: n})
		}
	}

	var problems []Problem
	for _, r := range refs {
		for _, l := range r.node.Links {
			if _, ok := defined[l.Target]; !ok {
				problems = append(problems, Problem{
					Path:   r.path,
					Detail: fmt.Sprintf("link target %s is not defined by any node", l.Target),
				})
			}
		}
		for _, name := range r.node.Attachments {
			if _, err := store.Resolve(r.node.ID, name); err != nil {
				problems = append(problems, Problem{
					Path:   r.path,
					Detail: fmt.Sprintf("attachment %s unreachable for node %s", name, r.node.ID),
				})
			}
		}
	}

	problems = append(problems, verifyBuckets(filepath.Join(root, "attachments"))...)
	return problems, nil
}

// verifyBuckets walks the attachments tree and flags leaf directories whose
// bucket segment is not the prefix of the leaf name.
func verifyBuckets(attachRoot string) []Problem {
	var problems []Problem
	buckets, err := os.ReadDir(attachRoot)
	if err != nil {
		return nil
	}
	for _, b := range buckets {
		if !b.IsDir() {
			continue
		}
		leaves, err := os.ReadDir(filepath.Join(attachRoot, b.Name()))
		if err != nil {
			continue
		}
		for _, leaf := range leaves {
			if !leaf.IsDir() {
				continue
			}
			if !strings.HasPrefix(leaf.Name(), b.Name()) {
				problems = append(problems, Problem{
					Path:   filepath.Join("attachments", b.Name(), leaf.Name()),
					Detail: fmt.Sprintf("bucket %q is not a prefix of leaf %q", b.Name(), leaf.Name()),
				})
			}
		}
	}
	return problems
}
