package index

// Catalog defines the interface for note catalog operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type Catalog interface {
	UpsertNote(n NoteRow, body string, links []LinkRow, attachments []string) error
	DeleteByPath(path string) ([]string, error)
	Resolve(id string) (*NoteRow, error)
	ListNotes(limit, offset int, sort string) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph() ([]GraphNode, []GraphLink, error)
	Backlinks(target string) ([]string, error)
	Dangling() ([]LinkRow, error)
	Attachments(id string) ([]string, error)
	PathChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
