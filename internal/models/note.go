// Package models defines the domain types for Ansuz.
package models

import "time"

// Note represents one Org-roam node: either the top-level node of an .org
// file or a heading inside it that carries its own :ID: property.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	Level       int       `json:"level"` // 0 for the file-level node, heading depth otherwise
	Body        string    `json:"body,omitempty"`
	Links       []Link    `json:"links,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link kinds.
const (
	LinkKindID   = "id"
	LinkKindFile = "file"
)

// Link represents a directed reference from one note to another node or file.
type Link struct {
	Source string `json:"source"` // note ID
	Target string `json:"target"` // note ID for "id" links, path for "file" links
	Text   string `json:"text,omitempty"`
	Kind   string `json:"kind"`
}
