package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mrajende/vdmlio/internal/streaming"
)

// changeMethod is the notification method used for document changes.
const changeMethod = "notifications/message"

// sender delivers a notification to one MCP session.
type sender interface {
	SendNotificationToSpecificClient(sessionID string, method string, params map[string]any) error
}

// ClientNotifier pushes notifications to connected clients.
type ClientNotifier interface {
	Notify(ctx context.Context, clientID string, payload map[string]any) error
}

// MCPNotifier implements ClientNotifier with MCP server push.
type MCPNotifier struct {
	sender   sender
	sessions *SessionRegistry
	logger   *slog.Logger
}

// NewMCPNotifier creates a notifier that pushes through mcpServer.
func NewMCPNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry, logger *slog.Logger) *MCPNotifier {
	return newNotifier(mcpServer, sessions, logger)
}

func newNotifier(s sender, sessions *SessionRegistry, logger *slog.Logger) *MCPNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MCPNotifier{sender: s, sessions: sessions, logger: logger}
}

// Notify sends a notification to the client's session.
// Best-effort: returns nil if the client is not connected.
func (n *MCPNotifier) Notify(_ context.Context, clientID string, payload map[string]any) error {
	sessionID, ok := n.sessions.SessionFor(clientID)
	if !ok {
		return nil
	}
	err := n.sender.SendNotificationToSpecificClient(sessionID, changeMethod, payload)
	if errors.Is(err, server.ErrSessionNotFound) {
		// Session expired between lookup and send.
		n.sessions.Remove(sessionID)
		return nil
	}
	return err
}

// Forward pushes every change event of documentID to all registered
// clients until ctx is done or the hub closes the subscription.
func (n *MCPNotifier) Forward(ctx context.Context, hub streaming.ChangeHub, documentID string) error {
	events, cancel, err := hub.Subscribe(ctx, streaming.ChangeFilter{DocumentID: documentID})
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			payload := eventPayload(evt)
			for _, clientID := range n.sessions.Clients() {
				if err := n.Notify(ctx, clientID, payload); err != nil {
					n.logger.Warn("change notification failed", "client_id", clientID, "error", err)
				}
			}
		}
	}
}

func eventPayload(evt streaming.ChangeEvent) map[string]any {
	payload := map[string]any{
		"document_id": evt.DocumentID,
		"kind":        evt.Kind,
		"at":          evt.At,
	}
	if evt.Command != "" {
		payload["command"] = evt.Command
	}
	if len(evt.ElementIDs) > 0 {
		payload["element_ids"] = evt.ElementIDs
	}
	if evt.Warnings > 0 {
		payload["warnings"] = evt.Warnings
	}
	return payload
}
