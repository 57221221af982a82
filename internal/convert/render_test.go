package convert

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/org"
)

func staticResolver(m map[string]string) Resolver {
	return func(id string) (string, bool) {
		title, ok := m[id]
		return title, ok
	}
}

func TestRender_ResolvedIDLink(t *testing.T) {
	n := org.Node{
		ID:    "a-1",
		Title: "Note One",
		Body:  "Link to [[id:b-1][Note Two]].",
	}
	md := Render(n, "a-1", staticResolver(map[string]string{"b-1": "Note Two"}))
	if !strings.Contains(md, "[[Note Two]]") {
		t.Errorf("md = %q, want wikilink to Note Two", md)
	}
	if !strings.HasPrefix(md, "# Note One\n") {
		t.Errorf("md = %q, want H1 title", md)
	}
}

func TestRender_UnresolvedIDLink(t *testing.T) {
	n := org.Node{ID: "a-1", Title: "A", Body: "See [[id:ghost][Missing]]."}
	md := Render(n, "a-1", staticResolver(nil))
	if !strings.Contains(md, "[Note not found: Missing](id:ghost)") {
		t.Errorf("md = %q", md)
	}
}

func TestRender_AttachmentLink(t *testing.T) {
	n := org.Node{ID: "a-1", Title: "A", Body: "Pic: [[attachment:photo.png]]"}
	md := Render(n, "a-1", staticResolver(nil))
	if !strings.Contains(md, "![[attachments/a-1/photo.png]]") {
		t.Errorf("md = %q", md)
	}
}

func TestRender_AttachmentLinkWithTitleFolder(t *testing.T) {
	n := org.Node{ID: "a-1", Title: "My Note", Body: "[[attachment:doc.pdf]]"}
	md := Render(n, "My Note", staticResolver(nil))
	if !strings.Contains(md, "![[attachments/My Note/doc.pdf]]") {
		t.Errorf("md = %q", md)
	}
}

func TestRender_ExternalAndFileLinks(t *testing.T) {
	n := org.Node{
		ID:    "a-1",
		Title: "A",
		Body:  "Visit [[https://example.com][the site]] and [[file:notes/ref.org][a ref]] and [[file:bare.org]].",
	}
	md := Render(n, "a-1", staticResolver(nil))
	if !strings.Contains(md, "[the site](https://example.com)") {
		t.Errorf("external link not rewritten: %q", md)
	}
	if !strings.Contains(md, "[a ref](notes/ref.org)") {
		t.Errorf("file link not rewritten: %q", md)
	}
	if !strings.Contains(md, "[bare.org](bare.org)") {
		t.Errorf("bare file link not rewritten: %q", md)
	}
}

func TestRender_SanitizesResolvedTitles(t *testing.T) {
	n := org.Node{ID: "a-1", Title: "A", Body: "[[id:b-1][x]]"}
	md := Render(n, "a-1", staticResolver(map[string]string{"b-1": "Odd/Title"}))
	if !strings.Contains(md, "[[Odd-Title]]") {
		t.Errorf("md = %q", md)
	}
}

func TestRender_EmptyBody(t *testing.T) {
	md := Render(org.Node{ID: "a-1", Title: "Bare"}, "a-1", staticResolver(nil))
	if md != "# Bare\n" {
		t.Errorf("md = %q", md)
	}
}
