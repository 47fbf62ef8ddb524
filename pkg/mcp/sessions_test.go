package mcp

import (
	"testing"

	"github.com/rendis/arazzo-graph/internal/editor"
	"github.com/rendis/arazzo-graph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditorSession(t *testing.T) *editor.Session {
	t.Helper()
	sess, err := editor.NewSession(nil)
	require.NoError(t, err)
	return sess
}

func TestSessionRegistry_AddAndGet(t *testing.T) {
	r := NewSessionRegistry()
	sess := newEditorSession(t)

	r.Add(sess)
	got, err := r.Get(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, r.Len())
}

func TestSessionRegistry_NotFound(t *testing.T) {
	r := NewSessionRegistry()

	_, err := r.Get("unknown")
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
}

func TestSessionRegistry_Close(t *testing.T) {
	r := NewSessionRegistry()
	sess := newEditorSession(t)
	r.Add(sess)
	r.Watch(sess.ID(), "client-1")

	r.Close(sess.ID())
	_, err := r.Get(sess.ID())
	assert.Error(t, err)
	assert.Empty(t, r.WatchersOf(sess.ID()))

	r.Close("unknown")
	assert.Equal(t, 0, r.Len())
}

func TestSessionRegistry_Watch(t *testing.T) {
	r := NewSessionRegistry()
	sess := newEditorSession(t)
	r.Add(sess)

	r.Watch(sess.ID(), "client-1")
	r.Watch(sess.ID(), "client-2")
	r.Watch(sess.ID(), "client-1")
	assert.ElementsMatch(t, []string{"client-1", "client-2"}, r.WatchersOf(sess.ID()))
}

func TestSessionRegistry_WatchUnknownSession(t *testing.T) {
	r := NewSessionRegistry()

	r.Watch("ghost", "client-1")
	assert.Empty(t, r.WatchersOf("ghost"))
}

func TestSessionRegistry_Unwatch(t *testing.T) {
	r := NewSessionRegistry()
	a, b := newEditorSession(t), newEditorSession(t)
	r.Add(a)
	r.Add(b)

	r.Watch(a.ID(), "client-1")
	r.Watch(b.ID(), "client-1")
	r.Watch(b.ID(), "client-2")

	r.Unwatch("client-1")
	assert.Empty(t, r.WatchersOf(a.ID()))
	assert.Equal(t, []string{"client-2"}, r.WatchersOf(b.ID()))

	// Sessions outlive their watchers.
	assert.Equal(t, 2, r.Len())
}
