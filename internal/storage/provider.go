// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for vault file operations. Paths are always
// relative to the vault root.
type Provider interface {
	// List returns metadata for every file under dir whose name matches the
	// provider's suffix filter.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Touch creates an empty file at path if it does not exist; existing
	// files (and their content) are left untouched.
	Touch(path string) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root returns the absolute root directory of the vault.
	Root() string
}
