package mcp

import (
	"sync"

	"github.com/rendis/arazzo-graph/internal/editor"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// SessionRegistry holds the open editor sessions and, for each one, the MCP
// client sessions watching it. A client watches every editor session it
// opened or mutated.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*editor.Session
	watchers map[string]map[string]struct{} // editor session ID → client session IDs
}

// NewSessionRegistry creates a new empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*editor.Session),
		watchers: make(map[string]map[string]struct{}),
	}
}

// Add registers an editor session under its own ID.
func (r *SessionRegistry) Add(s *editor.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns the editor session with the given ID.
func (r *SessionRegistry) Get(id string) (*editor.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "editor session %q not found", id)
	}
	return s, nil
}

// Close drops an editor session and its watchers. Unknown IDs are ignored.
func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	delete(r.watchers, id)
}

// Len returns the number of open editor sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Watch adds a client session to the watchers of an editor session.
func (r *SessionRegistry) Watch(editorID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[editorID]; !ok {
		return
	}
	w, ok := r.watchers[editorID]
	if !ok {
		w = make(map[string]struct{})
		r.watchers[editorID] = w
	}
	w[clientID] = struct{}{}
}

// WatchersOf returns the client sessions watching an editor session.
func (r *SessionRegistry) WatchersOf(editorID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.watchers[editorID]))
	for cid := range r.watchers[editorID] {
		out = append(out, cid)
	}
	return out
}

// Unwatch removes a client session from every editor session it watched.
// Called when the client disconnects.
func (r *SessionRegistry) Unwatch(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.watchers {
		delete(w, clientID)
	}
}
