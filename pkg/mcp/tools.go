package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/internal/store"
	"github.com/mrajende/vdmlio/pkg/schema"
)

const defaultHistoryLimit = 100

// handleImport replaces the session document.
func (s *Server) handleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	xml, err := req.RequireString("xml")
	if err != nil {
		return mcp.NewToolResultError("xml is required"), nil
	}
	if clientID := req.GetString("client_id", ""); clientID != "" {
		s.captureSession(ctx, clientID)
	}

	res, importErr := s.modeler.ImportBytes(ctx, []byte(xml))
	if importErr != nil {
		return toolError("import failed", importErr), nil
	}
	return marshalResult(res)
}

// handleExport serializes the session document and optionally stores it.
func (s *Server) handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}

	var buf bytes.Buffer
	switch format {
	case "xml":
		if saveErr := s.modeler.SaveXML(ctx, &buf, req.GetBool("pretty", true)); saveErr != nil {
			return toolError("export failed", saveErr), nil
		}
		if req.GetBool("save", false) {
			return s.saveRevision(ctx, buf.String())
		}
	case "svg":
		if saveErr := s.modeler.SaveSVG(ctx, &buf); saveErr != nil {
			return toolError("render failed", saveErr), nil
		}
	case "mermaid":
		if saveErr := s.modeler.SaveMermaid(&buf); saveErr != nil {
			return toolError("render failed", saveErr), nil
		}
	default:
		return mcp.NewToolResultError("format must be xml, svg, or mermaid"), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) saveRevision(ctx context.Context, xml string) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("save requires a store"), nil
	}
	warnings := 0
	if last := s.modeler.LastImport(); last != nil {
		warnings = len(last.Warnings)
	}
	rev := &store.Revision{DocumentID: s.modeler.ID(), XML: xml, Warnings: warnings}
	if err := s.store.SaveRevision(ctx, rev); err != nil {
		return toolError("failed to save revision", err), nil
	}
	return marshalResult(map[string]any{
		"document_id": rev.DocumentID,
		"revision":    rev.Number,
		"checksum":    rev.Checksum,
	})
}

// handleInspect describes the session or its elements.
func (s *Server) handleInspect(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := req.GetString("element_id", ""); id != "" {
		info, err := s.modeler.Element(id)
		if err != nil {
			return toolError("inspect failed", err), nil
		}
		return marshalResult(info)
	}
	if req.GetBool("elements", false) {
		return marshalResult(s.modeler.Elements())
	}
	return marshalResult(s.modeler.Inspect())
}

// handleValidate reviews the session document.
func (s *Server) handleValidate(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws := s.modeler.Review()
	if ws == nil {
		ws = schema.Warnings{}
	}
	return marshalResult(map[string]any{
		"ok":       len(ws) == 0,
		"warnings": ws,
	})
}

// handleCreateShape creates a shape, or appends one after a source.
func (s *Server) handleCreateShape(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindName, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required"), nil
	}
	kind, kindErr := schema.ParseKind(kindName)
	if kindErr != nil {
		return toolError("invalid kind", kindErr), nil
	}

	spec := editor.ShapeSpec{
		Kind:     kind,
		ID:       req.GetString("id", ""),
		Name:     req.GetString("name", ""),
		X:        req.GetFloat("x", 0),
		Y:        req.GetFloat("y", 0),
		Expanded: req.GetBool("expanded", false),
	}
	if def := req.GetString("event_definition", ""); def != "" {
		defKind, defErr := schema.ParseKind(def)
		if defErr != nil {
			return toolError("invalid event definition", defErr), nil
		}
		spec.EventDefinition = defKind
	}

	var id string
	if source := req.GetString("source_id", ""); source != "" {
		id, err = s.modeler.AppendShape(source, spec)
	} else {
		id, err = s.modeler.CreateShape(spec, req.GetString("parent_id", ""))
	}
	if err != nil {
		return toolError("create failed", err), nil
	}
	return marshalResult(map[string]any{"id": id})
}

// handleConnect connects two elements.
func (s *Server) handleConnect(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source_id")
	if err != nil {
		return mcp.NewToolResultError("source_id is required"), nil
	}
	target, err := req.RequireString("target_id")
	if err != nil {
		return mcp.NewToolResultError("target_id is required"), nil
	}

	id, connErr := s.modeler.Connect(source, target, req.GetString("name", ""))
	if connErr != nil {
		return toolError("connect failed", connErr), nil
	}
	return marshalResult(map[string]any{"id": id})
}

// handleMove moves elements.
func (s *Server) handleMove(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("element_ids", nil)
	if len(ids) == 0 {
		return mcp.NewToolResultError("element_ids is required"), nil
	}
	err := s.modeler.Move(ids, req.GetFloat("dx", 0), req.GetFloat("dy", 0), req.GetString("target_id", ""))
	if err != nil {
		return toolError("move failed", err), nil
	}
	return marshalResult(map[string]any{"ok": true, "moved": ids})
}

// handleRemove removes elements.
func (s *Server) handleRemove(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("element_ids", nil)
	if len(ids) == 0 {
		return mcp.NewToolResultError("element_ids is required"), nil
	}
	if err := s.modeler.Remove(ids); err != nil {
		return toolError("remove failed", err), nil
	}
	return marshalResult(map[string]any{"ok": true, "removed": ids})
}

// handleProperties applies each property present in the request, in the
// order name, condition, default flow.
func (s *Server) handleProperties(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("element_id")
	if err != nil {
		return mcp.NewToolResultError("element_id is required"), nil
	}
	args := req.GetArguments()

	updated := []string{}
	if _, ok := args["name"]; ok {
		if err := s.modeler.Rename(id, req.GetString("name", "")); err != nil {
			return toolError("rename failed", err), nil
		}
		updated = append(updated, "name")
	}
	if _, ok := args["condition"]; ok {
		if err := s.modeler.SetCondition(id, req.GetString("language", ""), req.GetString("condition", "")); err != nil {
			return toolError("set condition failed", err), nil
		}
		updated = append(updated, "condition")
	}
	if flowID := req.GetString("default_flow_id", ""); flowID != "" {
		if err := s.modeler.SetDefault(id, flowID); err != nil {
			return toolError("set default failed", err), nil
		}
		updated = append(updated, "default")
	}
	if len(updated) == 0 {
		return mcp.NewToolResultError("nothing to update: pass name, condition or default_flow_id"), nil
	}
	return marshalResult(map[string]any{"element_id": id, "updated": updated})
}

func (s *Server) handleUndo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ok, err := s.modeler.Undo()
	if err != nil {
		return toolError("undo failed", err), nil
	}
	return marshalResult(map[string]any{"undone": ok})
}

func (s *Server) handleRedo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ok, err := s.modeler.Redo()
	if err != nil {
		return toolError("redo failed", err), nil
	}
	return marshalResult(map[string]any{"redone": ok})
}

// handleEvaluate evaluates a flow condition.
func (s *Server) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := req.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError("flow_id is required"), nil
	}
	data := mcp.ParseStringMap(req, "data", nil)

	result, evalErr := s.modeler.EvaluateCondition(ctx, flowID, data)
	if evalErr != nil {
		return toolError("evaluation failed", evalErr), nil
	}
	return marshalResult(map[string]any{"flow_id": flowID, "result": result})
}

// handleHistory returns journal entries and the command stack they imply.
func (s *Server) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("history requires a store"), nil
	}
	filter := store.JournalFilter{
		AfterSequence: int64(req.GetInt("after_sequence", 0)),
		Kinds:         req.GetStringSlice("kinds", nil),
		Limit:         req.GetInt("limit", defaultHistoryLimit),
	}

	entries, err := s.store.GetEntries(ctx, s.modeler.ID(), filter)
	if err != nil {
		return toolError("journal query failed", err), nil
	}
	history, err := s.journal.Replay(ctx, s.modeler.ID())
	if err != nil {
		return toolError("journal replay failed", err), nil
	}
	return marshalResult(map[string]any{
		"entries": entries,
		"history": history,
	})
}

// --- Helpers ---

// captureSession maps the client ID to its current MCP session for notifications.
func (s *Server) captureSession(ctx context.Context, clientID string) {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		s.sessions.Register(clientID, session.SessionID())
	}
}

// toolError renders err after prefix. A VdmlError carries its code in the
// message.
func toolError(prefix string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
