package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrajende/vdmlio/internal/streaming"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Journal records change events into the store and replays them.
type Journal struct {
	store  Store
	logger *slog.Logger
}

// NewJournal wraps s. A nil logger discards.
func NewJournal(s Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{store: s, logger: logger.With("component", "journal")}
}

// Record appends evt as a journal entry.
func (j *Journal) Record(ctx context.Context, evt streaming.ChangeEvent) error {
	return j.store.AppendEntry(ctx, &JournalEntry{
		DocumentID: evt.DocumentID,
		Kind:       evt.Kind,
		Command:    evt.Command,
		ElementIDs: evt.ElementIDs,
		Warnings:   evt.Warnings,
		Timestamp:  evt.At,
	})
}

// Follow subscribes to hub and records every event for documentID until ctx
// is done or the subscription is closed. It blocks; run it in a goroutine.
func (j *Journal) Follow(ctx context.Context, hub streaming.ChangeHub, documentID string) error {
	ch, cancel, err := hub.Subscribe(ctx, streaming.ChangeFilter{DocumentID: documentID})
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			if err := j.Record(ctx, evt); err != nil {
				j.logger.Error("journal append failed", "document_id", documentID, "kind", evt.Kind, "error", err)
			}
		}
	}
}

// History is the command stack of a document as reconstructed from its
// journal.
type History struct {
	DocumentID string `json:"document_id"`
	Entries    int    `json:"entries"`
	// Undoable lists the applied commands, oldest first.
	Undoable []string `json:"undoable"`
	// Redoable lists the undone commands, next redo first.
	Redoable []string `json:"redoable"`
	Imports  int      `json:"imports"`
	Saves    int      `json:"saves"`
}

// Replay reconstructs the command stack of documentID. A gap in the
// sequence numbers is an error.
func (j *Journal) Replay(ctx context.Context, documentID string) (*History, error) {
	entries, err := j.store.GetEntries(ctx, documentID, JournalFilter{})
	if err != nil {
		return nil, fmt.Errorf("get entries for replay: %w", err)
	}

	h := &History{DocumentID: documentID, Entries: len(entries), Undoable: []string{}, Redoable: []string{}}
	var stack []string
	done := 0
	for i, e := range entries {
		if want := int64(i + 1); e.Sequence != want {
			return nil, schema.NewErrorf(schema.ErrCodeStore,
				"sequence gap in document %s: expected %d, got %d", documentID, want, e.Sequence)
		}
		switch e.Kind {
		case streaming.KindExecute:
			stack = append(stack[:done], e.Command)
			done++
		case streaming.KindUndo:
			if done > 0 {
				done--
			}
		case streaming.KindRedo:
			if done < len(stack) {
				done++
			}
		case streaming.KindImport:
			h.Imports++
			stack, done = nil, 0
		case streaming.KindClear:
			stack, done = nil, 0
		case streaming.KindSave:
			h.Saves++
		}
	}

	h.Undoable = append(h.Undoable, stack[:done]...)
	for i := done; i < len(stack); i++ {
		h.Redoable = append(h.Redoable, stack[i])
	}
	return h, nil
}
