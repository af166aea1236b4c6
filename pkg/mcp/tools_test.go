package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/internal/fixtures"
	"github.com/mrajende/vdmlio/internal/store"
	"github.com/mrajende/vdmlio/internal/streaming"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// --- Mock Store ---

type mockStore struct {
	store.Store // embed for unimplemented methods

	revisions []*store.Revision
	entries   []*store.JournalEntry
	filters   []store.JournalFilter
}

func (m *mockStore) SaveRevision(_ context.Context, rev *store.Revision) error {
	rev.Number = int64(len(m.revisions) + 1)
	rev.Checksum = "sum"
	m.revisions = append(m.revisions, rev)
	return nil
}

func (m *mockStore) GetEntries(_ context.Context, documentID string, filter store.JournalFilter) ([]*store.JournalEntry, error) {
	m.filters = append(m.filters, filter)
	var out []*store.JournalEntry
	for _, e := range m.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Helpers ---

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func importedServer(t *testing.T, deps ServerDeps) *Server {
	t.Helper()
	s := newTestServer(t, deps)
	result, err := s.handleImport(context.Background(), buildRequest("vdmlio.import", map[string]any{
		"xml": fixtures.SimpleProcess,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))
	return s
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}

// --- Tests ---

func TestImportTool(t *testing.T) {
	s := newTestServer(t, ServerDeps{})

	result, err := s.handleImport(context.Background(), buildRequest("vdmlio.import", map[string]any{
		"xml":       fixtures.Damaged,
		"client_id": "client-1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var res editor.ImportResult
	unmarshalResult(t, result, &res)
	assert.NotEmpty(t, res.Warnings)
	assert.NotEmpty(t, res.DiagramID)
}

func TestImportToolErrors(t *testing.T) {
	s := newTestServer(t, ServerDeps{})
	ctx := context.Background()

	result, err := s.handleImport(ctx, buildRequest("vdmlio.import", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), "xml is required")

	result, err = s.handleImport(ctx, buildRequest("vdmlio.import", map[string]any{"xml": "<not-xml"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), "import failed")
}

func TestExportTool(t *testing.T) {
	tests := []struct {
		format   string
		contains string
	}{
		{"xml", "Gateway_1"},
		{"svg", "<svg"},
		{"mermaid", "flowchart"},
	}

	s := importedServer(t, ServerDeps{})
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			result, err := s.handleExport(context.Background(), buildRequest("vdmlio.export", map[string]any{
				"format": tc.format,
			}))
			require.NoError(t, err)
			require.False(t, result.IsError, extractText(t, result))
			assert.Contains(t, extractText(t, result), tc.contains)
		})
	}

	result, err := s.handleExport(context.Background(), buildRequest("vdmlio.export", map[string]any{"format": "png"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestExportToolSave(t *testing.T) {
	ms := &mockStore{}
	s := importedServer(t, ServerDeps{Store: ms})

	result, err := s.handleExport(context.Background(), buildRequest("vdmlio.export", map[string]any{
		"format": "xml",
		"save":   true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var res map[string]any
	unmarshalResult(t, result, &res)
	assert.Equal(t, float64(1), res["revision"])
	require.Len(t, ms.revisions, 1)
	assert.Equal(t, "doc-1", ms.revisions[0].DocumentID)
	assert.Contains(t, ms.revisions[0].XML, "Process_1")

	noStore := importedServer(t, ServerDeps{})
	result, err = noStore.handleExport(context.Background(), buildRequest("vdmlio.export", map[string]any{
		"format": "xml",
		"save":   true,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestInspectTool(t *testing.T) {
	s := importedServer(t, ServerDeps{})
	ctx := context.Background()

	result, err := s.handleInspect(ctx, buildRequest("vdmlio.inspect", nil))
	require.NoError(t, err)
	var summary editor.Summary
	unmarshalResult(t, result, &summary)
	assert.Equal(t, 5, summary.Shapes)
	assert.Equal(t, 5, summary.Connections)

	result, err = s.handleInspect(ctx, buildRequest("vdmlio.inspect", map[string]any{"element_id": "Gateway_1"}))
	require.NoError(t, err)
	var info editor.ElementInfo
	unmarshalResult(t, result, &info)
	assert.Equal(t, "Flow_3", info.Default)

	result, err = s.handleInspect(ctx, buildRequest("vdmlio.inspect", map[string]any{"elements": true}))
	require.NoError(t, err)
	var all []editor.ElementInfo
	unmarshalResult(t, result, &all)
	assert.Len(t, all, 11)

	result, err = s.handleInspect(ctx, buildRequest("vdmlio.inspect", map[string]any{"element_id": "Nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), schema.ErrCodeNotFound)
}

func TestEditingTools(t *testing.T) {
	s := importedServer(t, ServerDeps{})
	ctx := context.Background()

	result, err := s.handleCreateShape(ctx, buildRequest("vdmlio.create_shape", map[string]any{
		"kind":      "task",
		"id":        "Task_3",
		"name":      "Notify",
		"source_id": "Task_1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))
	var created map[string]string
	unmarshalResult(t, result, &created)
	assert.Equal(t, "Task_3", created["id"])

	result, err = s.handleConnect(ctx, buildRequest("vdmlio.connect", map[string]any{
		"source_id": "Task_3",
		"target_id": "End_1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	result, err = s.handleMove(ctx, buildRequest("vdmlio.move", map[string]any{
		"element_ids": []any{"Task_3"},
		"dy":          40.0,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	result, err = s.handleProperties(ctx, buildRequest("vdmlio.update_properties", map[string]any{
		"element_id": "Task_3",
		"name":       "Notify customer",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	info, err := s.modeler.Element("Task_3")
	require.NoError(t, err)
	assert.Equal(t, "Notify customer", info.Name)

	result, err = s.handleRemove(ctx, buildRequest("vdmlio.remove", map[string]any{
		"element_ids": []any{"Task_3"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))
	_, err = s.modeler.Element("Task_3")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))

	result, err = s.handleUndo(ctx, buildRequest("vdmlio.undo", nil))
	require.NoError(t, err)
	var undone map[string]bool
	unmarshalResult(t, result, &undone)
	assert.True(t, undone["undone"])
	_, err = s.modeler.Element("Task_3")
	assert.NoError(t, err)

	result, err = s.handleRedo(ctx, buildRequest("vdmlio.redo", nil))
	require.NoError(t, err)
	var redone map[string]bool
	unmarshalResult(t, result, &redone)
	assert.True(t, redone["redone"])
}

func TestEditingToolErrors(t *testing.T) {
	tests := []struct {
		name     string
		call     func(s *Server) (*mcp.CallToolResult, error)
		contains string
	}{
		{
			name: "unknown kind",
			call: func(s *Server) (*mcp.CallToolResult, error) {
				return s.handleCreateShape(context.Background(), buildRequest("", map[string]any{"kind": "gadget"}))
			},
			contains: schema.ErrCodeValidation,
		},
		{
			name: "bad event definition",
			call: func(s *Server) (*mcp.CallToolResult, error) {
				return s.handleCreateShape(context.Background(), buildRequest("", map[string]any{
					"kind": "startEvent", "event_definition": "sparkle",
				}))
			},
			contains: "invalid event definition",
		},
		{
			name: "rule rejection",
			call: func(s *Server) (*mcp.CallToolResult, error) {
				return s.handleConnect(context.Background(), buildRequest("", map[string]any{
					"source_id": "End_1", "target_id": "Start_1",
				}))
			},
			contains: schema.ErrCodeRuleRejected,
		},
		{
			name: "move without ids",
			call: func(s *Server) (*mcp.CallToolResult, error) {
				return s.handleMove(context.Background(), buildRequest("", map[string]any{"dx": 1.0}))
			},
			contains: "element_ids is required",
		},
		{
			name: "remove unknown",
			call: func(s *Server) (*mcp.CallToolResult, error) {
				return s.handleRemove(context.Background(), buildRequest("", map[string]any{"element_ids": []any{"Ghost"}}))
			},
			contains: schema.ErrCodeNotFound,
		},
		{
			name: "empty update",
			call: func(s *Server) (*mcp.CallToolResult, error) {
				return s.handleProperties(context.Background(), buildRequest("", map[string]any{"element_id": "Task_1"}))
			},
			contains: "nothing to update",
		},
		{
			name: "bad condition",
			call: func(s *Server) (*mcp.CallToolResult, error) {
				return s.handleProperties(context.Background(), buildRequest("", map[string]any{
					"element_id": "Flow_2", "condition": "data.amount >",
				}))
			},
			contains: schema.ErrCodeInvalidExpression,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := importedServer(t, ServerDeps{})
			result, err := tc.call(s)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractText(t, result), tc.contains)
		})
	}
}

func TestPropertiesTool_ConditionAndDefault(t *testing.T) {
	s := importedServer(t, ServerDeps{})
	ctx := context.Background()

	result, err := s.handleProperties(ctx, buildRequest("vdmlio.update_properties", map[string]any{
		"element_id": "Flow_3",
		"condition":  "data.amount <= 1000",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	result, err = s.handleProperties(ctx, buildRequest("vdmlio.update_properties", map[string]any{
		"element_id":      "Gateway_1",
		"default_flow_id": "Flow_2",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	info, err := s.modeler.Element("Gateway_1")
	require.NoError(t, err)
	assert.Equal(t, "Flow_2", info.Default)
}

func TestValidateTool(t *testing.T) {
	s := importedServer(t, ServerDeps{})

	result, err := s.handleValidate(context.Background(), buildRequest("vdmlio.validate", nil))
	require.NoError(t, err)
	var res struct {
		OK       bool            `json:"ok"`
		Warnings schema.Warnings `json:"warnings"`
	}
	unmarshalResult(t, result, &res)
	assert.True(t, res.OK)
	assert.Empty(t, res.Warnings)
}

func TestEvaluateTool(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		want    bool
		wantErr bool
	}{
		{"above", map[string]any{"amount": 1500}, true, false},
		{"below", map[string]any{"amount": 10}, false, false},
		{"missing", nil, false, true},
	}

	s := importedServer(t, ServerDeps{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := map[string]any{"flow_id": "Flow_2"}
			if tc.data != nil {
				args["data"] = tc.data
			}
			result, err := s.handleEvaluate(context.Background(), buildRequest("vdmlio.evaluate_condition", args))
			require.NoError(t, err)
			if tc.wantErr {
				assert.True(t, result.IsError)
				return
			}
			require.False(t, result.IsError, extractText(t, result))
			var res map[string]any
			unmarshalResult(t, result, &res)
			assert.Equal(t, tc.want, res["result"])
		})
	}
}

func TestHistoryTool(t *testing.T) {
	ms := &mockStore{entries: []*store.JournalEntry{
		{DocumentID: "doc-1", Kind: streaming.KindImport, Sequence: 1},
		{DocumentID: "doc-1", Kind: streaming.KindExecute, Command: "shape.create", Sequence: 2},
		{DocumentID: "doc-1", Kind: streaming.KindExecute, Command: "connection.create", Sequence: 3},
		{DocumentID: "doc-1", Kind: streaming.KindUndo, Command: "connection.create", Sequence: 4},
		{DocumentID: "doc-2", Kind: streaming.KindExecute, Command: "shape.move", Sequence: 1},
	}}
	s := newTestServer(t, ServerDeps{Store: ms})

	result, err := s.handleHistory(context.Background(), buildRequest("vdmlio.history", map[string]any{
		"kinds": []any{"execute"},
		"limit": 5.0,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var res struct {
		Entries []store.JournalEntry `json:"entries"`
		History store.History        `json:"history"`
	}
	unmarshalResult(t, result, &res)
	assert.Len(t, res.Entries, 4)
	assert.Equal(t, []string{"shape.create"}, res.History.Undoable)
	assert.Equal(t, []string{"connection.create"}, res.History.Redoable)
	assert.Equal(t, 1, res.History.Imports)

	require.NotEmpty(t, ms.filters)
	assert.Equal(t, []string{"execute"}, ms.filters[0].Kinds)
	assert.Equal(t, 5, ms.filters[0].Limit)
}

func TestHistoryToolWithoutStore(t *testing.T) {
	s := newTestServer(t, ServerDeps{})

	result, err := s.handleHistory(context.Background(), buildRequest("vdmlio.history", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.True(t, strings.Contains(extractText(t, result), "requires a store"))
}
