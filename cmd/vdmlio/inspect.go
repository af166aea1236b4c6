package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// inspection is what inspect prints.
type inspection struct {
	Summary  *editor.Summary      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Elements []editor.ElementInfo `json:"elements,omitempty" yaml:"elements,omitempty"`
	Review   schema.Warnings      `json:"review,omitempty" yaml:"review,omitempty"`
}

func newInspectCmd() *cobra.Command {
	var (
		format    string
		diagramID string
		elements  bool
		review    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file|document>",
		Short: "Describe a document and its diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFromContext(ctx)

			m, _, err := a.load(ctx, args[0], diagramID)
			if err != nil {
				return err
			}

			var in inspection
			if elements {
				in.Elements = m.Elements()
			} else {
				summary := m.Inspect()
				in.Summary = &summary
			}
			if review {
				in.Review = m.Review()
			}
			return writeInspection(a.out, format, in)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().StringVar(&diagramID, "diagram", "", "diagram to draw (default: first, or default_diagram)")
	cmd.Flags().BoolVar(&elements, "elements", false, "list every element instead of the summary")
	cmd.Flags().BoolVar(&review, "review", false, "also report structural modeling problems")
	return cmd
}

func writeInspection(w io.Writer, format string, in inspection) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(in); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		if in.Summary != nil {
			writeSummary(w, in.Summary)
		}
		if in.Elements != nil {
			if err := writeElements(w, in.Elements); err != nil {
				return err
			}
		}
		for _, warn := range in.Review {
			fmt.Fprintf(w, "review: %s\n", warn)
		}
		return nil
	}
	return schema.NewErrorf(schema.ErrCodeValidation, "unknown format %q", format)
}

func writeSummary(w io.Writer, s *editor.Summary) {
	fmt.Fprintf(w, "definitions  %s\n", s.DefinitionsID)
	if s.TargetNamespace != "" {
		fmt.Fprintf(w, "namespace    %s\n", s.TargetNamespace)
	}
	fmt.Fprintf(w, "diagrams     %s\n", strings.Join(s.Diagrams, ", "))
	fmt.Fprintf(w, "root         %s\n", s.Root)
	fmt.Fprintf(w, "shapes       %d\n", s.Shapes)
	fmt.Fprintf(w, "connections  %d\n", s.Connections)
	fmt.Fprintf(w, "labels       %d\n", s.Labels)

	writeCounts(w, s.Kinds)
	if s.Import != nil && len(s.Import.Warnings) > 0 {
		fmt.Fprintf(w, "warnings     %d\n", len(s.Import.Warnings))
		writeCounts(w, s.Import.Warnings.ByCode())
	}
}

func writeCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %d\n", k, counts[k])
	}
}

func writeElements(w io.Writer, elements []editor.ElementInfo) error {
	rows := make([][]string, 0, len(elements))
	for _, e := range elements {
		rows = append(rows, []string{e.ID, e.Type, e.Kind, e.Name, e.Parent, formatBounds(e)})
	}
	return writeTable(w, []string{"ID", "TYPE", "KIND", "NAME", "PARENT", "BOUNDS"}, rows)
}

func formatBounds(e editor.ElementInfo) string {
	if len(e.Bounds) == 0 {
		if e.Source != "" {
			return e.Source + " -> " + e.Target
		}
		return ""
	}
	parts := make([]string, len(e.Bounds))
	for i, b := range e.Bounds {
		parts[i] = fmt.Sprintf("%g", b)
	}
	return strings.Join(parts, ",")
}
