package store

import "time"

// Document is a stored diagram document.
type Document struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	TargetNamespace string    `json:"target_namespace,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Revision is one saved export of a document.
type Revision struct {
	DocumentID string    `json:"document_id"`
	Number     int64     `json:"number"`
	XML        string    `json:"-"`
	Checksum   string    `json:"checksum"`
	Warnings   int       `json:"warnings"`
	CreatedAt  time.Time `json:"created_at"`
}

// JournalEntry is an immutable record of a change to a document.
type JournalEntry struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"document_id"`
	Kind       string    `json:"kind"`
	Command    string    `json:"command,omitempty"`
	ElementIDs []string  `json:"element_ids,omitempty"`
	Warnings   int       `json:"warnings,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Sequence   int64     `json:"sequence"`
}

// DocumentFilter specifies criteria for listing documents.
type DocumentFilter struct {
	Since  *time.Time `json:"since,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// JournalFilter specifies criteria for reading the journal. Entries come
// back in sequence order.
type JournalFilter struct {
	AfterSequence int64    `json:"after_sequence,omitempty"`
	Kinds         []string `json:"kinds,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}
