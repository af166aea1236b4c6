package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", DocumentID(ctx))
	assert.Equal(t, "", Command(ctx))
	assert.Equal(t, "", ElementID(ctx))

	ctx = WithDocumentID(ctx, "orders.vdml")
	ctx = WithCommand(ctx, "shape.create")
	ctx = WithElementID(ctx, "Task_1")

	assert.Equal(t, "orders.vdml", DocumentID(ctx))
	assert.Equal(t, "shape.create", Command(ctx))
	assert.Equal(t, "Task_1", ElementID(ctx))
}

func TestLogWith(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		want    []string
		missing []string
	}{
		{
			name: "all ids",
			ctx:  WithElementID(WithCommand(WithDocumentID(context.Background(), "doc-1"), "connection.create"), "Flow_1"),
			want: []string{"document_id=doc-1", "command=connection.create", "element_id=Flow_1"},
		},
		{
			name:    "document only",
			ctx:     WithDocumentID(context.Background(), "doc-1"),
			want:    []string{"document_id=doc-1"},
			missing: []string{"command", "element_id"},
		},
		{
			name:    "empty",
			ctx:     context.Background(),
			missing: []string{"document_id", "command", "element_id"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			LogWith(tt.ctx, logger).Info("message")

			output := buf.String()
			assert.Contains(t, output, "message")
			for _, w := range tt.want {
				assert.Contains(t, output, w)
			}
			for _, m := range tt.missing {
				assert.NotContains(t, output, m)
			}
		})
	}
}

func TestCorrelationHandler(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	ctx := WithCommand(WithDocumentID(context.Background(), "doc-auto"), "elements.move")
	logger.InfoContext(ctx, "auto inject")

	output := buf.String()
	assert.Contains(t, output, `"document_id":"doc-auto"`)
	assert.Contains(t, output, `"command":"elements.move"`)
	assert.NotContains(t, output, "element_id")
}

func TestCorrelationHandlerEmptyContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "bare log")

	output := buf.String()
	assert.NotContains(t, output, "document_id")
	assert.Contains(t, output, "bare log")
}

func TestCorrelationHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewCorrelationHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("component", "importer")}).WithGroup("walk"))

	logger.InfoContext(WithElementID(context.Background(), "Task_7"), "visited", "depth", 2)

	output := buf.String()
	assert.Contains(t, output, `"component":"importer"`)
	assert.Contains(t, output, "Task_7")
	assert.Contains(t, output, `"depth":2`)
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
