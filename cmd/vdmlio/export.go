package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		out      string
		revision int64
		checksum bool
	)

	cmd := &cobra.Command{
		Use:   "export <file|document>",
		Short: "Write a document as VDML XML",
		Long: `Export writes a stored revision (the latest, or --revision), or
re-serializes a VDML file through a full import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFromContext(ctx)
			if checksum && (out == "" || out == "-") {
				return fmt.Errorf("--checksum needs --output")
			}

			var data []byte
			if revision > 0 {
				xml, err := storedRevision(cmd, a, args[0], revision)
				if err != nil {
					return err
				}
				data = []byte(xml)
			} else {
				m, _, err := a.load(ctx, args[0], "")
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := m.SaveXML(ctx, &buf, a.cfg.PrettyXML); err != nil {
					return err
				}
				data = buf.Bytes()
			}

			w, err := a.output(out)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}

			if checksum {
				sumPath, err := writeChecksumFile(out, data)
				if err != nil {
					return err
				}
				a.logger.InfoContext(ctx, "checksum written", "path", sumPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Int64Var(&revision, "revision", 0, "stored revision number to export")
	cmd.Flags().BoolVar(&checksum, "checksum", false, "write a sha256 sidecar next to the output")
	return cmd
}

func storedRevision(cmd *cobra.Command, a *app, name string, number int64) (string, error) {
	ctx := cmd.Context()
	s, err := a.openStore(ctx)
	if err != nil {
		return "", err
	}
	defer s.Close()

	doc, err := s.GetDocumentByName(ctx, name)
	if err != nil {
		return "", err
	}
	rev, err := s.GetRevision(ctx, doc.ID, number)
	if err != nil {
		return "", err
	}
	return rev.XML, nil
}
