// Package mcp exposes one editing session as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mrajende/vdmlio/internal/editor"
	"github.com/mrajende/vdmlio/internal/store"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Modeler *editor.Modeler
	// Store is optional. Without it the history tool and saved exports are
	// unavailable.
	Store    store.Store
	Sessions *SessionRegistry
	Version  string
	Logger   *slog.Logger
}

// Server wraps an MCP server with diagram editing tool handlers.
type Server struct {
	modeler   *editor.Modeler
	store     store.Store
	journal   *store.Journal
	sessions  *SessionRegistry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a Server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewSessionRegistry()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		modeler:  deps.Modeler,
		store:    deps.Store,
		sessions: sessions,
		logger:   logger,
	}
	if deps.Store != nil {
		s.journal = store.NewJournal(deps.Store, logger)
	}

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(func(_ context.Context, session server.ClientSession) {
		sessions.Remove(session.SessionID())
	})

	mcpSrv := server.NewMCPServer(
		"vdmlio",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
		server.WithInstructions("vdmlio edits one VDML diagram. Use vdmlio.import to load a document, "+
			"vdmlio.inspect to look at it, the shape and connection tools to change it, vdmlio.undo and "+
			"vdmlio.redo to step through the command stack, and vdmlio.export to get XML, SVG or Mermaid back."),
	)
	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// HTTPHandler returns the streamable HTTP transport for mounting on a mux.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Sessions returns the client session registry.
func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: importTool(), Handler: s.handleImport},
		{Tool: exportTool(), Handler: s.handleExport},
		{Tool: inspectTool(), Handler: s.handleInspect},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: createShapeTool(), Handler: s.handleCreateShape},
		{Tool: connectTool(), Handler: s.handleConnect},
		{Tool: moveTool(), Handler: s.handleMove},
		{Tool: removeTool(), Handler: s.handleRemove},
		{Tool: propertiesTool(), Handler: s.handleProperties},
		{Tool: undoTool(), Handler: s.handleUndo},
		{Tool: redoTool(), Handler: s.handleRedo},
		{Tool: evaluateTool(), Handler: s.handleEvaluate},
		{Tool: historyTool(), Handler: s.handleHistory},
	}
}

// --- Tool definitions ---

func importTool() mcp.Tool {
	return mcp.NewTool("vdmlio.import",
		mcp.WithDescription("Load a VDML document and draw one of its diagrams"),
		mcp.WithString("xml", mcp.Required(), mcp.Description("Document XML")),
		mcp.WithString("client_id", mcp.Description("Caller ID; registers the session for change notifications")),
	)
}

func exportTool() mcp.Tool {
	return mcp.NewTool("vdmlio.export",
		mcp.WithDescription("Serialize the current document as XML, SVG or Mermaid"),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("xml", "svg", "mermaid"),
			mcp.Description("Output format"),
		),
		mcp.WithBoolean("pretty", mcp.Description("Indent XML output (default: true)")),
		mcp.WithBoolean("save", mcp.Description("Store the XML as a new revision")),
	)
}

func inspectTool() mcp.Tool {
	return mcp.NewTool("vdmlio.inspect",
		mcp.WithDescription("Describe the session, one element, or every element"),
		mcp.WithString("element_id", mcp.Description("Element to describe")),
		mcp.WithBoolean("elements", mcp.Description("List every element instead of the summary")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("vdmlio.validate",
		mcp.WithDescription("Report structural modeling problems in the current document"),
	)
}

func createShapeTool() mcp.Tool {
	return mcp.NewTool("vdmlio.create_shape",
		mcp.WithDescription("Create a shape, optionally appended to a source with a connection"),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Element kind, e.g. task, userTask, exclusiveGateway, endEvent")),
		mcp.WithString("id", mcp.Description("Element ID (default: generated)")),
		mcp.WithString("name", mcp.Description("Element name")),
		mcp.WithNumber("x", mcp.Description("Center x (ignored when appending)")),
		mcp.WithNumber("y", mcp.Description("Center y (ignored when appending)")),
		mcp.WithString("parent_id", mcp.Description("Parent element (default: diagram root)")),
		mcp.WithString("source_id", mcp.Description("Append after this element and connect it")),
		mcp.WithBoolean("expanded", mcp.Description("Draw sub processes expanded")),
		mcp.WithString("event_definition", mcp.Description("Event definition kind for events, e.g. timerEventDefinition")),
	)
}

func connectTool() mcp.Tool {
	return mcp.NewTool("vdmlio.connect",
		mcp.WithDescription("Connect two elements with the connection type the rules allow"),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source element")),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Target element")),
		mcp.WithString("name", mcp.Description("Connection name")),
	)
}

func moveTool() mcp.Tool {
	return mcp.NewTool("vdmlio.move",
		mcp.WithDescription("Move elements by a delta, optionally into a new parent"),
		mcp.WithArray("element_ids", mcp.Required(), mcp.WithStringItems(), mcp.Description("Elements to move")),
		mcp.WithNumber("dx", mcp.Description("Horizontal delta")),
		mcp.WithNumber("dy", mcp.Description("Vertical delta")),
		mcp.WithString("target_id", mcp.Description("New parent element")),
	)
}

func removeTool() mcp.Tool {
	return mcp.NewTool("vdmlio.remove",
		mcp.WithDescription("Remove elements and the connections attached to them"),
		mcp.WithArray("element_ids", mcp.Required(), mcp.WithStringItems(), mcp.Description("Elements to remove")),
	)
}

func propertiesTool() mcp.Tool {
	return mcp.NewTool("vdmlio.update_properties",
		mcp.WithDescription("Rename an element, set a flow condition, or choose a default flow"),
		mcp.WithString("element_id", mcp.Required(), mcp.Description("Element to update")),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("condition", mcp.Description("Condition body for a sequence flow; empty clears it")),
		mcp.WithString("language", mcp.Description("Condition language: expr, cel or jq")),
		mcp.WithString("default_flow_id", mcp.Description("Outgoing flow to use as the default")),
	)
}

func undoTool() mcp.Tool {
	return mcp.NewTool("vdmlio.undo",
		mcp.WithDescription("Undo the last command"),
	)
}

func redoTool() mcp.Tool {
	return mcp.NewTool("vdmlio.redo",
		mcp.WithDescription("Redo the last undone command"),
	)
}

func evaluateTool() mcp.Tool {
	return mcp.NewTool("vdmlio.evaluate_condition",
		mcp.WithDescription("Evaluate a sequence flow condition against data"),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Sequence flow")),
		mcp.WithObject("data", mcp.Description("Values visible to the expression as data")),
	)
}

func historyTool() mcp.Tool {
	return mcp.NewTool("vdmlio.history",
		mcp.WithDescription("Read the command journal of the document"),
		mcp.WithArray("kinds", mcp.WithStringItems(), mcp.Description("Entry kinds: execute, undo, redo, clear, import, save")),
		mcp.WithNumber("after_sequence", mcp.Description("Only entries after this sequence number")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default: 100)")),
	)
}
