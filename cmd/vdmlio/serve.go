package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/internal/logging"
	"github.com/mrajende/vdmlio/internal/metrics"
	"github.com/mrajende/vdmlio/internal/scheduler"
	"github.com/mrajende/vdmlio/internal/store"
	"github.com/mrajende/vdmlio/internal/streaming"
	"github.com/mrajende/vdmlio/pkg/mcp"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		name      string
		addr      string
		diagramID string
	)

	cmd := &cobra.Command{
		Use:   "serve [file|document]",
		Short: "Serve an editing session over MCP",
		Long: `Serve opens one document session and exposes it as MCP tools. Without
--http (or metrics_addr) the session is served on stdin/stdout; with it, MCP
is served at /mcp next to Prometheus metrics at /metrics. Every change is
journaled and dirty sessions are saved on the autosave schedule.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromContext(cmd.Context())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			var src *source
			if len(args) == 1 {
				if src, err = a.resolveSource(ctx, args[0]); err != nil {
					return err
				}
				if name == "" {
					name = src.name
				}
			}
			if name == "" {
				name = "untitled"
			}
			doc, err := s.EnsureDocument(ctx, name)
			if err != nil {
				return err
			}
			ctx = logging.WithDocumentID(ctx, doc.ID)

			hub := streaming.NewMemoryHub()
			met := metrics.New(true)
			m, err := a.newModeler(sessionOptions{documentID: doc.ID, diagramID: diagramID, hub: hub, metrics: met})
			if err != nil {
				return err
			}

			journal := store.NewJournal(s, a.logger)
			if src != nil {
				res, err := m.ImportBytes(ctx, src.data)
				if err != nil {
					return err
				}
				a.logWarnings(ctx, res)
				if err := journal.Record(ctx, streaming.ChangeEvent{
					DocumentID: doc.ID,
					Kind:       streaming.KindImport,
					Warnings:   len(res.Warnings),
					At:         time.Now().UTC(),
				}); err != nil {
					return err
				}
			}
			go func() {
				if err := journal.Follow(ctx, hub, doc.ID); err != nil {
					a.logger.ErrorContext(ctx, "journal stopped", "error", err)
				}
			}()

			autosaver := scheduler.NewAutosaver(s, a.cfg.PrettyXML, a.logger)
			autosaver.Add(m)
			if err := autosaver.Start(ctx, a.cfg.AutosaveCron); err != nil {
				return err
			}
			defer finalSave(a, autosaver)

			srv := mcp.NewServer(mcp.ServerDeps{Modeler: m, Store: s, Version: version, Logger: a.logger})
			notifier := mcp.NewMCPNotifier(srv.MCPServer(), srv.Sessions(), a.logger)
			go func() {
				if err := notifier.Forward(ctx, hub, doc.ID); err != nil {
					a.logger.ErrorContext(ctx, "change notifications stopped", "error", err)
				}
			}()
			go watchSettings(ctx, a, autosaver)

			if addr == "" {
				addr = a.cfg.MetricsAddr
			}
			if addr == "" {
				a.logger.InfoContext(ctx, "serving MCP on stdio", "document", name)
				return srv.Serve(ctx)
			}
			return serveHTTP(ctx, a, addr, newMux(srv, met, m))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "document name (default: source name, or untitled)")
	cmd.Flags().StringVar(&addr, "http", "", "serve MCP and metrics over HTTP on this address (default: metrics_addr)")
	cmd.Flags().StringVar(&diagramID, "diagram", "", "diagram to draw (default: first, or default_diagram)")
	return cmd
}

func newMux(srv *mcp.Server, met *metrics.Metrics, m *editor.Modeler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/mcp", srv.HTTPHandler())
	mux.Handle("GET /metrics", met.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if m.Dirty() {
			_, _ = w.Write([]byte("ok dirty\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// serveHTTP runs handler on addr until ctx is done, then shuts down
// gracefully.
func serveHTTP(ctx context.Context, a *app, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.InfoContext(ctx, "serving MCP and metrics", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
		return srv.Close()
	}
	a.logger.Info("server stopped")
	return nil
}

// finalSave stops the schedule and saves whatever is still dirty.
func finalSave(a *app, autosaver *scheduler.Autosaver) {
	_ = autosaver.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if n, err := autosaver.SaveDirty(ctx); err != nil {
		a.logger.Error("final save failed", "error", err)
	} else if n > 0 {
		a.logger.Info("final save", "revisions", n)
	}
}
