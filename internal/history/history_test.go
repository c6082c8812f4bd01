package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpad/internal/domain"
)

func moved(g domain.Graph, id string, x, y float64) domain.Graph {
	pos := domain.XYPosition{X: x, Y: y}
	return g.ApplyNodeChanges([]domain.NodeChange{{Type: domain.ChangePosition, ID: id, Position: &pos}})
}

func positionOf(t *testing.T, g domain.Graph, id string) domain.XYPosition {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok, "node %s missing", id)
	return n.Position
}

func TestUndoRedoScenario(t *testing.T) {
	h := New(0)
	s0 := domain.DefaultGraph()

	// Three drags of node 1.
	s1 := moved(s0, "1", 10, 10)
	h.Push(s0)
	s2 := moved(s1, "1", 20, 20)
	h.Push(s1)
	s3 := moved(s2, "1", 30, 30)
	h.Push(s2)

	cur, ok := h.Undo(s3)
	require.True(t, ok)
	cur, ok = h.Undo(cur)
	require.True(t, ok)
	assert.Equal(t, domain.XYPosition{X: 10, Y: 10}, positionOf(t, cur, "1"))

	cur, ok = h.Redo(cur)
	require.True(t, ok)
	assert.Equal(t, domain.XYPosition{X: 20, Y: 20}, positionOf(t, cur, "1"))

	past, future := h.Depth()
	assert.Equal(t, 2, past)
	assert.Equal(t, 1, future)
}

func TestUndoThenRedoRestores(t *testing.T) {
	h := New(0)
	s0 := domain.DefaultGraph()
	s1 := s0.ApplyNodeChanges(domain.RemoveNodes("4"))
	h.Push(s0)

	back, ok := h.Undo(s1)
	require.True(t, ok)
	assert.True(t, back.Equal(s0))

	forward, ok := h.Redo(back)
	require.True(t, ok)
	assert.True(t, forward.Equal(s1))
}

func TestPushClearsFuture(t *testing.T) {
	h := New(0)
	s0 := domain.DefaultGraph()
	s1 := moved(s0, "2", 1, 1)
	h.Push(s0)

	cur, _ := h.Undo(s1)
	require.True(t, h.CanRedo())

	h.Push(cur)
	assert.False(t, h.CanRedo())
}

func TestEmptyStacks(t *testing.T) {
	h := New(0)
	g := domain.DefaultGraph()

	t.Run("undo reports unavailable", func(t *testing.T) {
		out, ok := h.Undo(g)
		assert.False(t, ok)
		assert.True(t, out.Equal(g))
	})

	t.Run("redo reports unavailable", func(t *testing.T) {
		out, ok := h.Redo(g)
		assert.False(t, ok)
		assert.True(t, out.Equal(g))
	})
}

func TestLimit(t *testing.T) {
	h := New(2)
	g := domain.DefaultGraph()
	for i := 0; i < 5; i++ {
		h.Push(moved(g, "1", float64(i), 0))
	}

	past, _ := h.Depth()
	assert.Equal(t, 2, past)

	cur, _ := h.Undo(g)
	assert.Equal(t, domain.XYPosition{X: 4, Y: 0}, positionOf(t, cur, "1"))
	cur, _ = h.Undo(cur)
	assert.Equal(t, domain.XYPosition{X: 3, Y: 0}, positionOf(t, cur, "1"))
	assert.False(t, h.CanUndo())
}

func TestClear(t *testing.T) {
	h := New(0)
	g := domain.DefaultGraph()
	h.Push(g)
	h.Push(g)
	_, _ = h.Undo(g)

	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
