package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrajende/vdmlio/internal/store"
	"github.com/mrajende/vdmlio/pkg/schema"
)

type historyReport struct {
	Document  *store.Document       `json:"document" yaml:"document"`
	Revisions []*store.Revision     `json:"revisions" yaml:"revisions"`
	Entries   []*store.JournalEntry `json:"entries" yaml:"entries"`
	Stack     *store.History        `json:"stack" yaml:"stack"`
}

func newHistoryCmd() *cobra.Command {
	var (
		format string
		limit  int
		kinds  []string
		after  int64
	)

	cmd := &cobra.Command{
		Use:   "history <document>",
		Short: "Show the stored revisions and command journal of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFromContext(ctx)

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.GetDocumentByName(ctx, args[0])
			if err != nil {
				return err
			}
			revisions, err := s.ListRevisions(ctx, doc.ID, limit)
			if err != nil {
				return err
			}
			entries, err := s.GetEntries(ctx, doc.ID, store.JournalFilter{AfterSequence: after, Kinds: kinds, Limit: limit})
			if err != nil {
				return err
			}
			stack, err := store.NewJournal(s, a.logger).Replay(ctx, doc.ID)
			if err != nil {
				return err
			}

			return writeHistory(a.out, format, historyReport{Document: doc, Revisions: revisions, Entries: entries, Stack: stack})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum revisions and journal entries")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "journal entry kinds to show (execute, undo, redo, clear, import, save)")
	cmd.Flags().Int64Var(&after, "after", 0, "only journal entries after this sequence number")
	return cmd
}

func writeHistory(w io.Writer, format string, r historyReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text":
	default:
		return schema.NewErrorf(schema.ErrCodeValidation, "unknown format %q", format)
	}

	fmt.Fprintf(w, "%s (%s)\n\n", r.Document.Name, r.Document.ID)
	revisions := make([][]string, 0, len(r.Revisions))
	for _, rev := range r.Revisions {
		revisions = append(revisions, []string{
			strconv.FormatInt(rev.Number, 10), shortSum(rev.Checksum), strconv.Itoa(rev.Warnings), rev.CreatedAt.Format(time.DateTime),
		})
	}
	if err := writeTable(w, []string{"REVISION", "CHECKSUM", "WARNINGS", "SAVED"}, revisions); err != nil {
		return err
	}

	fmt.Fprintln(w)
	entries := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, []string{
			strconv.FormatInt(e.Sequence, 10), e.Kind, e.Command, strings.Join(e.ElementIDs, ","), e.Timestamp.Format(time.DateTime),
		})
	}
	if err := writeTable(w, []string{"SEQ", "KIND", "COMMAND", "ELEMENTS", "AT"}, entries); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nundo: %s\nredo: %s\n", strings.Join(r.Stack.Undoable, " "), strings.Join(r.Stack.Redoable, " "))
	return nil
}
