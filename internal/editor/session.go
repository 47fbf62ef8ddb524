package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/internal/logging"
	"github.com/rendis/arazzo-graph/internal/telemetry"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

const defaultHistoryLimit = 100

// Session is a single-writer editing session with undo/redo. Every
// successful Dispatch pushes the previous State on the undo stack; since
// states are immutable snapshots, undo is a pointer swap.
type Session struct {
	id      string
	logger  *slog.Logger
	metrics *telemetry.Metrics
	limit   int

	mu    sync.Mutex
	state State
	undo  []State
	redo  []State
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMetrics sets the instruments mutations are counted on.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithHistoryLimit caps the undo stack. Values below 1 are ignored.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewSession opens doc for editing. A nil doc starts a new document.
func NewSession(doc *schema.Document, opts ...Option) (*Session, error) {
	state, err := NewState(doc)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:     uuid.NewString(),
		logger: slog.Default(),
		limit:  defaultHistoryLimit,
		state:  state,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanUndo reports whether Undo has anything to restore.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo has anything to restore.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Dispatch applies m. On success the redo stack is cleared.
func (s *Session) Dispatch(ctx context.Context, m Mutation) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = s.logContext(ctx)
	next, err := Apply(s.state, m)
	s.metrics.RecordMutation(ctx, m.Kind(), err)
	if err != nil {
		s.logger.WarnContext(ctx, "mutation rejected", slog.String("kind", m.Kind()), slog.String("error", err.Error()))
		return s.state, err
	}

	s.undo = append(s.undo, s.state)
	if len(s.undo) > s.limit {
		s.undo = s.undo[len(s.undo)-s.limit:]
	}
	s.redo = nil
	s.state = next
	s.logger.InfoContext(ctx, "mutation applied", slog.String("kind", m.Kind()), slog.Int("undo_depth", len(s.undo)))
	return next, nil
}

// Undo restores the state before the last applied mutation.
func (s *Session) Undo(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return s.state, schema.NewError(schema.ErrCodeValidation, "nothing to undo")
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.state)
	s.state = prev
	s.logger.DebugContext(s.logContext(ctx), "undo", slog.Int("redo_depth", len(s.redo)))
	return prev, nil
}

// Redo re-applies the last undone mutation.
func (s *Session) Redo(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return s.state, schema.NewError(schema.ErrCodeValidation, "nothing to redo")
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.state)
	s.state = next
	s.logger.DebugContext(s.logContext(ctx), "redo", slog.Int("undo_depth", len(s.undo)))
	return next, nil
}

// Graph derives the execution graph of the active workflow.
func (s *Session) Graph(ctx context.Context, opts graph.Options) (*graph.Graph, error) {
	state := s.State()
	started := time.Now()
	g, err := graph.Derive(state.Document, state.WorkflowID, opts)
	invalid := 0
	if g != nil {
		for _, n := range g.Nodes {
			invalid += n.InvalidLinks
		}
	}
	s.metrics.RecordDerivation(ctx, time.Since(started).Seconds(), invalid, err)
	return g, err
}

// Layout places g, keeping the positions the session already holds.
func (s *Session) Layout(g *graph.Graph, opts layout.Options) layout.Positions {
	return layout.Compute(g, s.State().Positions, opts)
}

func (s *Session) logContext(ctx context.Context) context.Context {
	ctx = logging.WithSessionID(ctx, s.id)
	return logging.WithWorkflowID(ctx, s.state.WorkflowID)
}
