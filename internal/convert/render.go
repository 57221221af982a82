package convert

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/org"
)

var (
	idLinkRe     = regexp.MustCompile(`\[\[id:([^\]]+)\]\[([^\]]*)\]\]`)
	attachLinkRe = regexp.MustCompile(`\[\[attachment:([^\]]+)\]\]`)
	descLinkRe   = regexp.MustCompile(`\[\[([^\]\[]+)\]\[([^\]]*)\]\]`)
	// Only scheme-prefixed bare links ([[file:x]], [[https://x]]) are
	// rewritten; output wikilinks produced by earlier passes never contain
	// a colon because titles are sanitized.
	bareLinkRe = regexp.MustCompile(`\[\[([a-z][a-z0-9+.-]*:[^\]\[]+)\]\]`)
)

// Resolver maps a node ID to its title. ok is false when the ID is unknown.
type Resolver func(id string) (title string, ok bool)

// Render produces the Obsidian Markdown for one Org node: an H1 title
// followed by the body with all Org link syntax rewritten. Body prose passes
// through untouched; Org-roam notes are plain text plus links, which is
// already valid Markdown.
func Render(n org.Node, attachFolder string, resolve Resolver) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(n.Title)
	b.WriteString("\n")

	body := rewriteLinks(n.Body, attachFolder, resolve)
	body = strings.TrimLeft(body, "\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// rewriteLinks converts Org link markup to Obsidian equivalents:
//
//	[[id:X][text]]        -> [[<title of X>]], or [Note not found: text](id:X)
//	[[attachment:name]]   -> ![[attachments/<folder>/name]]
//	[[target][text]]      -> [text](target)     (file:, https:, ...)
//	[[target]]            -> [target](target)
func rewriteLinks(body, attachFolder string, resolve Resolver) string {
	body = idLinkRe.ReplaceAllStringFunc(body, func(m string) string {
		g := idLinkRe.FindStringSubmatch(m)
		target, text := g[1], g[2]
		if title, ok := resolve(target); ok {
			return "[[" + SanitizeFilename(title) + "]]"
		}
		return "[Note not found: " + text + "](id:" + target + ")"
	})

	body = attachLinkRe.ReplaceAllStringFunc(body, func(m string) string {
		g := attachLinkRe.FindStringSubmatch(m)
		name := path.Base(g[1])
		return "![[" + path.Join("attachments", attachFolder, name) + "]]"
	})

	body = descLinkRe.ReplaceAllStringFunc(body, func(m string) string {
		g := descLinkRe.FindStringSubmatch(m)
		target, text := g[1], g[2]
		target = strings.TrimPrefix(target, "file:")
		if text == "" {
			text = target
		}
		return "[" + text + "](" + target + ")"
	})

	body = bareLinkRe.ReplaceAllStringFunc(body, func(m string) string {
		g := bareLinkRe.FindStringSubmatch(m)
		target := strings.TrimPrefix(g[1], "file:")
		return "[" + target + "](" + target + ")"
	})

	return body
}
