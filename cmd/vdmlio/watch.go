package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/internal/logging"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var (
		format    string
		out       string
		diagramID string
		review    bool
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-import a file on every change and re-render it",
		Long: `Watch imports the file, renders it, and repeats both whenever the file
changes. A change that fails to import is logged and the last good rendering
is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromContext(cmd.Context())
			if err := checkRenderFormat(format); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := args[0]
			m, err := a.newModeler(sessionOptions{diagramID: diagramID})
			if err != nil {
				return err
			}
			w := &fileWatcher{app: a, modeler: m, path: path, format: format, out: out, review: review}
			return w.run(logging.WithDocumentID(ctx, documentName(path)))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, mermaid or xml")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&diagramID, "diagram", "", "diagram to draw (default: first, or default_diagram)")
	cmd.Flags().BoolVar(&review, "review", false, "log structural modeling problems after each import")
	return cmd
}

// fileWatcher re-imports one file into a session.
type fileWatcher struct {
	app     *app
	modeler *editor.Modeler
	path    string
	format  string
	out     string
	review  bool
}

func (fw *fileWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched.
	dir := filepath.Dir(fw.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(fw.path)

	fw.reload(ctx)
	fw.app.logger.InfoContext(ctx, "watching", "path", fw.path)

	flush := time.NewTimer(watchDebounce)
	flush.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			flush.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fw.app.logger.WarnContext(ctx, "watcher error", "error", err)
		case <-flush.C:
			fw.reload(ctx)
		}
	}
}

// reload imports the file and renders it. Failures are logged; the session
// keeps its previous document.
func (fw *fileWatcher) reload(ctx context.Context) {
	logger := fw.app.logger
	data, err := os.ReadFile(fw.path)
	if err != nil {
		logger.WarnContext(ctx, "read failed", "path", fw.path, "error", err)
		return
	}

	p := newProgress(logger)
	res, err := fw.modeler.ImportBytes(ctx, data)
	if err != nil {
		logger.ErrorContext(ctx, "import failed", "path", fw.path, "error", err)
		return
	}
	fw.app.logWarnings(ctx, res)
	if fw.review {
		for _, w := range fw.modeler.Review() {
			logger.WarnContext(logging.WithElementID(ctx, w.ElementID), w.Message, "code", w.Code)
		}
	}

	var buf bytes.Buffer
	if err := renderTo(ctx, fw.modeler, fw.format, fw.app.cfg.PrettyXML, &buf); err != nil {
		logger.ErrorContext(ctx, "render failed", "error", err)
		return
	}
	if err := fw.write(buf.Bytes()); err != nil {
		logger.ErrorContext(ctx, "write failed", "output", fw.out, "error", err)
		return
	}
	p.done(ctx, "rendered", "format", fw.format, "warnings", len(res.Warnings))
}

// write replaces the output file atomically, or prints to stdout.
func (fw *fileWatcher) write(data []byte) error {
	if fw.out == "" || fw.out == "-" {
		_, err := fw.app.out.Write(data)
		return err
	}
	tmp := fw.out + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fw.out)
}
