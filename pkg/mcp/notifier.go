package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
)

// ChangeNotifier tells watchers that an editor session changed.
type ChangeNotifier interface {
	Notify(ctx context.Context, editorID, originClientID string, payload map[string]any) error
}

// MCPNotifier implements ChangeNotifier by pushing a notifications/message
// to every watching client except the one that made the change.
type MCPNotifier struct {
	mcpServer *server.MCPServer
	sessions  *SessionRegistry
}

// NewMCPNotifier creates a notifier that pushes over the MCP connection.
func NewMCPNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry) *MCPNotifier {
	return &MCPNotifier{mcpServer: mcpServer, sessions: sessions}
}

// Notify sends payload to the other watchers of editorID.
// Best-effort: clients that went away are unregistered, not reported.
func (n *MCPNotifier) Notify(_ context.Context, editorID, originClientID string, payload map[string]any) error {
	var errs []error
	for _, clientID := range n.sessions.WatchersOf(editorID) {
		if clientID == originClientID {
			continue
		}
		err := n.mcpServer.SendNotificationToSpecificClient(clientID, "notifications/message", payload)
		if errors.Is(err, server.ErrSessionNotFound) {
			n.sessions.Unwatch(clientID)
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
