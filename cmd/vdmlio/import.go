package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/internal/logging"
	"github.com/mrajende/vdmlio/internal/store"
	"github.com/mrajende/vdmlio/internal/streaming"
)

func newImportCmd() *cobra.Command {
	var (
		name      string
		diagramID string
		verify    string
		noStore   bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a VDML file and store it as a new revision",
		Long: `Import reads a VDML file, draws the selected diagram and reports every
recoverable problem as a warning. Unless --no-store is given, the normalized
XML is stored as the next revision of the named document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFromContext(ctx)
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if verify != "" {
				if err := verifyChecksum(verify, path, data); err != nil {
					return err
				}
			}
			if name == "" {
				name = documentName(path)
			}
			ctx = logging.WithDocumentID(ctx, name)

			if noStore {
				m, err := a.newModeler(sessionOptions{diagramID: diagramID})
				if err != nil {
					return err
				}
				res, err := m.ImportBytes(ctx, data)
				if err != nil {
					return err
				}
				a.logWarnings(ctx, res)
				printImport(a, name, res, nil)
				return nil
			}

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.EnsureDocument(ctx, name)
			if err != nil {
				return err
			}
			m, err := a.newModeler(sessionOptions{documentID: doc.ID, diagramID: diagramID})
			if err != nil {
				return err
			}
			p := newProgress(a.logger)
			res, err := m.ImportBytes(ctx, data)
			if err != nil {
				return err
			}
			a.logWarnings(ctx, res)

			var buf bytes.Buffer
			if err := m.SaveXML(ctx, &buf, a.cfg.PrettyXML); err != nil {
				return err
			}
			rev := &store.Revision{DocumentID: doc.ID, XML: buf.String(), Warnings: len(res.Warnings)}
			if err := s.SaveRevision(ctx, rev); err != nil {
				return err
			}
			journal := store.NewJournal(s, a.logger)
			if err := journal.Record(ctx, streaming.ChangeEvent{
				DocumentID: doc.ID,
				Kind:       streaming.KindImport,
				Warnings:   len(res.Warnings),
				At:         time.Now().UTC(),
			}); err != nil {
				return err
			}
			p.done(ctx, "stored", "revision", rev.Number)
			printImport(a, name, res, rev)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "document name (default: file name without extension)")
	cmd.Flags().StringVar(&diagramID, "diagram", "", "diagram to draw (default: first, or default_diagram)")
	cmd.Flags().StringVar(&verify, "verify", "", "checksums file to verify the input against")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "only check the file; do not store a revision")
	return cmd
}

func printImport(a *app, name string, res *editor.ImportResult, rev *store.Revision) {
	fmt.Fprintf(a.out, "%s: diagram %s, %d elements drawn, %d warnings\n", name, res.DiagramID, res.Drawn, len(res.Warnings))
	if rev != nil {
		fmt.Fprintf(a.out, "revision %d (%s)\n", rev.Number, shortSum(rev.Checksum))
	}
}

func shortSum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
