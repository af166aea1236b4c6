package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/mrajende/vdmlio/internal/logging"
)

// newLogger creates a charm logger at level and an slog.Logger backed by
// it that carries the correlation IDs of each record's context.
func newLogger(w io.Writer, level string) (*slog.Logger, *charmlog.Logger, error) {
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	charm := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           lvl,
	})
	return slog.New(logging.NewCorrelationHandler(charm)), charm, nil
}

// progress logs the elapsed time of an operation when it completes.
type progress struct {
	logger *slog.Logger
	start  time.Time
}

func newProgress(l *slog.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(ctx context.Context, msg string, args ...any) {
	args = append(args, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.InfoContext(ctx, msg, args...)
}
