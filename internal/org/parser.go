// Package org extracts Org-roam nodes from .org files: the file-level node
// and any heading that carries its own :ID: property, together with the
// id/attachment/file links embedded in each node's body.
package org

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

var (
	titleRe      = regexp.MustCompile(`(?i)^\s*#\+title:\s*(.+)`)
	headingRe    = regexp.MustCompile(`^(\*+)\s+(.+)`)
	propertyRe   = regexp.MustCompile(`^:([^:\s]+):\s*(.+)`)
	idLinkRe     = regexp.MustCompile(`\[\[id:([^\]]+)\]\[([^\]]*)\]\]`)
	attachLinkRe = regexp.MustCompile(`\[\[attachment:([^\]]+)\]\]`)
	fileLinkRe   = regexp.MustCompile(`\[\[file:([^\]]+)\]\]`)
)

const (
	drawerStart = ":PROPERTIES:"
	drawerEnd   = ":END:"
)

// Node is one extracted Org-roam node before it is bound to a file path.
type Node struct {
	ID          string
	Title       string
	Level       int
	Body        string
	Links       []models.Link
	Attachments []string
}

// Extract parses raw Org content and returns every node that has an :ID:
// property. Headings without an ID contribute no node; their content is
// ignored, matching org-roam's notion of what is addressable.
func Extract(data []byte) []Node {
	lines := strings.Split(string(data), "\n")

	var nodes []Node
	var title string
	i := 0

	// File preamble: #+title and the file-level property drawer, up to the
	// first heading.
	props := map[string]string{}
	var bodyLines []string
	for i < len(lines) {
		line := lines[i]
		if m := titleRe.FindStringSubmatch(line); m != nil {
			title = strings.TrimSpace(m[1])
			i++
			continue
		}
		if strings.TrimSpace(line) == drawerStart {
			i = readDrawer(lines, i+1, props)
			continue
		}
		if headingRe.MatchString(line) {
			break
		}
		bodyLines = append(bodyLines, line)
		i++
	}

	if id := props["ID"]; id != "" {
		if title == "" {
			title = "Untitled"
		}
		nodes = append(nodes, buildNode(id, title, 0, bodyLines))
	}

	// Heading nodes.
	for i < len(lines) {
		m := headingRe.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		level := len(m[1])
		headTitle := strings.TrimSpace(m[2])
		i++

		headProps := map[string]string{}
		if i < len(lines) && strings.TrimSpace(lines[i]) == drawerStart {
			i = readDrawer(lines, i+1, headProps)
		}

		var headBody []string
		for i < len(lines) && !headingRe.MatchString(lines[i]) {
			headBody = append(headBody, lines[i])
			i++
		}

		if id := headProps["ID"]; id != "" {
			nodes = append(nodes, buildNode(id, headTitle, level, headBody))
		}
	}

	return nodes
}

// readDrawer consumes property lines until :END: and returns the index of
// the first line after the drawer.
func readDrawer(lines []string, i int, props map[string]string) int {
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == drawerEnd {
			return i + 1
		}
		if m := propertyRe.FindStringSubmatch(trimmed); m != nil {
			props[m[1]] = strings.TrimSpace(m[2])
		}
		i++
	}
	return i
}

func buildNode(id, title string, level int, bodyLines []string) Node {
	body := strings.Join(bodyLines, "\n")
	return Node{
		ID:          id,
		Title:       title,
		Level:       level,
		Body:        body,
		Links:       extractIDLinks(id, body),
		Attachments: extractAttachments(body),
	}
}

// extractIDLinks returns deduplicated [[id:target][text]] links from body.
func extractIDLinks(source, body string) []models.Link {
	matches := idLinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []models.Link
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, models.Link{
			Source: source,
			Target: target,
			Text:   m[2],
			Kind:   models.LinkKindID,
		})
	}
	return out
}

// extractAttachments collects [[attachment:name]] markers plus [[file:...]]
// links that point into an attachments directory.
func extractAttachments(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, m := range attachLinkRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range fileLinkRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if strings.HasPrefix(target, "attachments/") || strings.HasPrefix(target, "./") {
			add(target)
		}
	}
	return out
}
