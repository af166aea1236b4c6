// Package store persists documents, their saved revisions and the journal
// of commands applied to them.
package store

import "context"

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetDocumentByName(ctx context.Context, name string) (*Document, error)
	EnsureDocument(ctx context.Context, name string) (*Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Revisions (append-only)
	SaveRevision(ctx context.Context, rev *Revision) error
	GetRevision(ctx context.Context, documentID string, number int64) (*Revision, error)
	LatestRevision(ctx context.Context, documentID string) (*Revision, error)
	ListRevisions(ctx context.Context, documentID string, limit int) ([]*Revision, error)

	// Journal (append-only)
	AppendEntry(ctx context.Context, entry *JournalEntry) error
	GetEntries(ctx context.Context, documentID string, filter JournalFilter) ([]*JournalEntry, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
