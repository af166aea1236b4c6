package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/internal/logging"
	"github.com/mrajende/vdmlio/internal/metrics"
	"github.com/mrajende/vdmlio/internal/store"
	"github.com/mrajende/vdmlio/internal/streaming"
)

// app carries what every command needs: the resolved configuration and
// the loggers built from it.
type app struct {
	cfg          Config
	settingsPath string
	logger       *slog.Logger
	charm        *charmlog.Logger
	out          io.Writer
}

type ctxKey int

const appKey ctxKey = 0

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey, a)
}

// appFromContext returns the app set up by the root command, or one with
// defaults when none is attached.
func appFromContext(ctx context.Context) *app {
	if a, ok := ctx.Value(appKey).(*app); ok {
		return a
	}
	logger, charm, _ := newLogger(os.Stderr, "info")
	return &app{cfg: defaultConfig(), settingsPath: settingsPath(), logger: logger, charm: charm, out: os.Stdout}
}

// sessionOptions configures a Modeler for the app.
type sessionOptions struct {
	documentID string
	diagramID  string
	hub        streaming.ChangeHub
	metrics    *metrics.Metrics
}

func (a *app) newModeler(opts sessionOptions) (*editor.Modeler, error) {
	rc, err := a.cfg.rulesConfig()
	if err != nil {
		return nil, err
	}
	diagramID := opts.diagramID
	if diagramID == "" {
		diagramID = a.cfg.DefaultDiagram
	}
	return editor.New(editor.Options{
		DocumentID: opts.documentID,
		DiagramID:  diagramID,
		Rules:      rc,
		Hub:        opts.hub,
		Metrics:    opts.metrics,
		Logger:     a.logger,
	})
}

// openStore opens and migrates the document store.
func (a *app) openStore(ctx context.Context) (*store.LibSQLStore, error) {
	if !strings.Contains(a.cfg.DBPath, "://") {
		dir := filepath.Dir(strings.TrimPrefix(a.cfg.DBPath, "file:"))
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	s, err := store.NewLibSQLStore(dsn(a.cfg.DBPath))
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// dsn turns a plain path into a libsql file DSN.
func dsn(path string) string {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "://") {
		return path
	}
	return "file:" + path
}

// source is a document read from a file or from the latest stored
// revision.
type source struct {
	name string
	path string
	data []byte
	// documentID is set when the source came from the store.
	documentID string
}

// resolveSource reads ref as a file when it exists and otherwise as the
// name of a stored document.
func (a *app) resolveSource(ctx context.Context, ref string) (*source, error) {
	data, err := os.ReadFile(ref)
	if err == nil {
		return &source{name: documentName(ref), path: ref, data: data}, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	doc, err := s.GetDocumentByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%s is neither a file nor a stored document: %w", ref, err)
	}
	rev, err := s.LatestRevision(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	return &source{name: doc.Name, data: []byte(rev.XML), documentID: doc.ID}, nil
}

// load imports ref into a fresh Modeler and logs every warning.
func (a *app) load(ctx context.Context, ref, diagramID string) (*editor.Modeler, *source, error) {
	src, err := a.resolveSource(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	m, err := a.newModeler(sessionOptions{documentID: src.documentID, diagramID: diagramID})
	if err != nil {
		return nil, nil, err
	}
	p := newProgress(a.logger)
	res, err := m.ImportBytes(ctx, src.data)
	if err != nil {
		return nil, nil, err
	}
	a.logWarnings(ctx, res)
	p.done(logging.WithDocumentID(ctx, src.name), "imported", "diagram", res.DiagramID, "drawn", res.Drawn, "warnings", len(res.Warnings))
	return m, src, nil
}

func (a *app) logWarnings(ctx context.Context, res *editor.ImportResult) {
	for _, w := range res.Warnings {
		a.logger.WarnContext(logging.WithElementID(ctx, w.ElementID), w.Message, "code", w.Code)
	}
}

// documentName derives a stored document name from a file path.
func documentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// output opens path for writing, or returns stdout for "" and "-".
func (a *app) output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{a.out}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
