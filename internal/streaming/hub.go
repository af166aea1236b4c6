// Package streaming fans document changes out to interested subscribers:
// the change journal, autosave and live clients.
package streaming

import (
	"context"
	"time"
)

// Change kinds published for a document session.
const (
	KindExecute = "execute"
	KindUndo    = "undo"
	KindRedo    = "redo"
	KindClear   = "clear"
	KindImport  = "import"
	KindSave    = "save"
)

// ChangeEvent describes one completed change to a document session.
type ChangeEvent struct {
	DocumentID string    `json:"document_id"`
	Kind       string    `json:"kind"`
	Command    string    `json:"command,omitempty"`
	ElementIDs []string  `json:"element_ids,omitempty"`
	Warnings   int       `json:"warnings,omitempty"`
	At         time.Time `json:"at"`
}

// ChangeFilter selects the events a subscriber receives. Zero fields match
// everything.
type ChangeFilter struct {
	DocumentID string   `json:"document_id,omitempty"`
	Kinds      []string `json:"kinds,omitempty"`
}

// ChangeHub is publish/subscribe for change events.
type ChangeHub interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Subscribe(ctx context.Context, filter ChangeFilter) (<-chan ChangeEvent, func(), error)
}
