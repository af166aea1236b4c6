package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/pkg/schema"
)

func newRenderCmd() *cobra.Command {
	var (
		format    string
		out       string
		diagramID string
	)

	cmd := &cobra.Command{
		Use:   "render <file|document>",
		Short: "Render a diagram snapshot as SVG or Mermaid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFromContext(ctx)
			if err := checkRenderFormat(format); err != nil {
				return err
			}

			m, _, err := a.load(ctx, args[0], diagramID)
			if err != nil {
				return err
			}
			w, err := a.output(out)
			if err != nil {
				return err
			}
			if err := renderTo(ctx, m, format, a.cfg.PrettyXML, w); err != nil {
				_ = w.Close()
				return err
			}
			return w.Close()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, mermaid or xml")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&diagramID, "diagram", "", "diagram to draw (default: first, or default_diagram)")
	return cmd
}

func checkRenderFormat(format string) error {
	switch format {
	case "svg", "mermaid", "xml":
		return nil
	}
	return schema.NewErrorf(schema.ErrCodeValidation, "unknown format %q: use svg, mermaid or xml", format)
}

// renderTo writes the session in format.
func renderTo(ctx context.Context, m *editor.Modeler, format string, pretty bool, w io.Writer) error {
	switch format {
	case "svg":
		return m.SaveSVG(ctx, w)
	case "mermaid":
		return m.SaveMermaid(w)
	case "xml":
		return m.SaveXML(ctx, w, pretty)
	}
	return checkRenderFormat(format)
}
