package service

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flowpad/internal/clipboard"
	"flowpad/internal/codec"
	"flowpad/internal/domain"
	"flowpad/internal/metrics"
)

func newTestEditor(t *testing.T) (*Editor, *EventBus, *metrics.Collector) {
	t.Helper()
	n := 0
	opts := DefaultOptions()
	opts.IDGenerator = func() string {
		n++
		return "id" + strconv.Itoa(n)
	}
	bus := NewEventBus()
	collector := metrics.NewCollector("flowpad_test")
	return NewEditor(domain.DefaultGraph(), bus, zap.NewNop(), collector, opts), bus, collector
}

func drag(id string, x, y float64) []domain.NodeChange {
	pos := domain.XYPosition{X: x, Y: y}
	return []domain.NodeChange{{Type: domain.ChangePosition, ID: id, Position: &pos}}
}

func nodePosition(t *testing.T, s Snapshot, id string) domain.XYPosition {
	t.Helper()
	n, ok := s.Node(id)
	require.True(t, ok, "node %s missing", id)
	return n.Position
}

func TestEditorInitialSnapshot(t *testing.T) {
	e, _, _ := newTestEditor(t)
	s := e.Snapshot()

	assert.Len(t, s.Nodes, 5)
	assert.Len(t, s.Edges, 4)
	assert.Zero(t, s.Revision)
	assert.False(t, s.CanUndo)
	assert.False(t, s.CanRedo)
	assert.False(t, s.CanCopy)
	assert.False(t, s.CanPaste)
	assert.False(t, s.ShowModal)
}

func TestEditorUndoRedoScenario(t *testing.T) {
	e, _, _ := newTestEditor(t)

	e.ApplyNodeChanges(drag("1", 10, 10))
	e.ApplyNodeChanges(drag("1", 20, 20))
	s := e.ApplyNodeChanges(drag("1", 30, 30))
	assert.Equal(t, uint64(3), s.Revision)

	e.Undo()
	s = e.Undo()
	assert.Equal(t, domain.XYPosition{X: 10, Y: 10}, nodePosition(t, s, "1"))
	assert.True(t, s.CanUndo)
	assert.True(t, s.CanRedo)

	s = e.Redo()
	assert.Equal(t, domain.XYPosition{X: 20, Y: 20}, nodePosition(t, s, "1"))
}

func TestEditorUndoRestoresExactSnapshot(t *testing.T) {
	e, _, _ := newTestEditor(t)
	before := e.Snapshot().Graph

	after := e.ApplyNodeChanges(domain.RemoveNodes("4")).Graph
	assert.False(t, after.HasNode("5"))

	undone := e.Undo().Graph
	assert.True(t, undone.Equal(before))

	redone := e.Redo().Graph
	assert.True(t, redone.Equal(after))
}

func TestEditorNoOpsAreNotCommitted(t *testing.T) {
	e, bus, collector := newTestEditor(t)
	events := make(chan Event, 10)
	bus.Subscribe(events)

	s := e.Connect(domain.Connection{Source: "3", SourceHandle: "a", Target: "5"})
	assert.Zero(t, s.Revision)
	assert.False(t, s.CanUndo)

	e.DeleteEdge("missing")
	e.Connect(domain.Connection{Source: "1", Target: "gone"})
	e.AddDerivedNode("gone", domain.XYPosition{})
	e.Undo()
	e.Paste()

	assert.Zero(t, e.Snapshot().Revision)
	assert.Len(t, events, 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.NoOps.WithLabelValues("connect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.NoOps.WithLabelValues("undo")))
}

func TestEditorConnectUsesEdgeDefaults(t *testing.T) {
	e, bus, collector := newTestEditor(t)
	events := make(chan Event, 10)
	bus.Subscribe(events)

	s := e.Connect(domain.Connection{Source: "1", Target: "3"})
	edge, ok := s.Edge("reactflow__edge-1-3")
	require.True(t, ok)
	assert.True(t, edge.Animated)
	assert.Equal(t, uint64(1), s.Revision)
	assert.True(t, s.CanUndo)

	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, EventSnapshotUpdated, ev.Type)
	assert.Equal(t, "connect", ev.Op)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Mutations.WithLabelValues("connect")))
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.GraphEdges))
}

func TestEditorConnectEnd(t *testing.T) {
	t.Run("release over pane spawns a node", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		s := e.ConnectEnd(domain.ConnectEnd{
			SourceID: "2",
			Start:    domain.XYPosition{X: 100, Y: 100},
			End:      domain.XYPosition{X: 180, Y: 250},
			OverPane: true,
		})
		require.Len(t, s.Nodes, 6)
		n := s.Nodes[5]
		assert.Equal(t, domain.XYPosition{X: 80, Y: 250}, n.Position)
		assert.Equal(t, "new node", n.Label())
		assert.Equal(t, domain.KindDefault, n.Type)

		last := s.Edges[len(s.Edges)-1]
		assert.Equal(t, "2", last.Source)
		assert.Equal(t, n.ID, last.Target)
	})

	t.Run("drop position is measured from the absolute source position", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		// node 5 sits at (50,30) inside group 4 at (300,65)
		s := e.ConnectEnd(domain.ConnectEnd{
			SourceID: "5",
			Start:    domain.XYPosition{X: 0, Y: 0},
			End:      domain.XYPosition{X: 10, Y: 10},
			OverPane: true,
		})
		require.Len(t, s.Nodes, 6)
		n := s.Nodes[5]
		assert.Equal(t, domain.XYPosition{X: 360, Y: 105}, n.Position)
		assert.Empty(t, n.ParentNode)
		assert.NoError(t, s.Validate())
	})

	t.Run("release elsewhere is abandoned", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		s := e.ConnectEnd(domain.ConnectEnd{SourceID: "2", OverPane: false})
		assert.Len(t, s.Nodes, 5)
		assert.Zero(t, s.Revision)
	})

	t.Run("source deleted mid-gesture is a no-op", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		e.ApplyNodeChanges(domain.RemoveNodes("2"))
		s := e.ConnectEnd(domain.ConnectEnd{SourceID: "2", OverPane: true})
		assert.Len(t, s.Nodes, 4)
		assert.Equal(t, uint64(1), s.Revision)
	})
}

func TestEditorClickNode(t *testing.T) {
	e, bus, _ := newTestEditor(t)
	events := make(chan Event, 10)
	bus.Subscribe(events)

	s := e.ClickNode("1")
	assert.False(t, s.ShowModal, "input nodes have no click message")

	s = e.ClickNode("5")
	assert.True(t, s.ShowModal)
	assert.Equal(t, `You clicked on the "Triangular" node.`, s.ModalInfo)

	s = e.ClickNode("4")
	assert.Equal(t, `You clicked on the "Rectangular" node.`, s.ModalInfo)

	s = e.DismissModal()
	assert.False(t, s.ShowModal)
	assert.Zero(t, s.Revision, "modal state is not part of history")
	assert.False(t, s.CanUndo)
	assert.Len(t, events, 3)
}

func TestEditorClipboard(t *testing.T) {
	e, _, _ := newTestEditor(t)

	s := e.SetSelection(clipboard.Selection{Nodes: []string{"3", "missing"}})
	assert.True(t, s.CanCopy)
	assert.Equal(t, []string{"3"}, s.Selection.Nodes)

	s = e.Copy()
	assert.True(t, s.CanPaste)
	assert.Zero(t, s.Revision, "copy does not mutate")

	s = e.Paste()
	require.Len(t, s.Nodes, 6)
	first := s.Nodes[5]
	assert.NotEqual(t, "3", first.ID)
	assert.Equal(t, "Custom Node", first.Label())

	s = e.Paste()
	require.Len(t, s.Nodes, 7)
	assert.NotEqual(t, first.ID, s.Nodes[6].ID)
	assert.True(t, s.HasNode("3"))
}

func TestEditorCutIsOneHistoryEntry(t *testing.T) {
	e, _, _ := newTestEditor(t)

	e.SetSelection(clipboard.Selection{Nodes: []string{"4"}})
	s := e.Cut()
	assert.False(t, s.HasNode("4"))
	assert.False(t, s.HasNode("5"))
	assert.False(t, s.CanCopy)
	assert.True(t, s.CanPaste)

	s = e.Undo()
	assert.True(t, s.HasNode("4"))
	assert.True(t, s.HasNode("5"))
	assert.False(t, s.CanUndo)
}

func TestEditorSelectChangesTrackSelection(t *testing.T) {
	e, _, _ := newTestEditor(t)

	s := e.ApplyNodeChanges([]domain.NodeChange{{Type: domain.ChangeSelect, ID: "2", Selected: true}})
	assert.Equal(t, []string{"2"}, s.Selection.Nodes)
	assert.True(t, s.CanCopy)

	s = e.ApplyNodeChanges(domain.RemoveNodes("2"))
	assert.Empty(t, s.Selection.Nodes)
	assert.False(t, s.CanCopy)
}

func TestEditorClearHistory(t *testing.T) {
	e, _, _ := newTestEditor(t)
	e.ApplyNodeChanges(drag("1", 5, 5))
	e.ApplyNodeChanges(drag("1", 6, 6))
	e.Undo()

	s := e.ClearHistory()
	assert.False(t, s.CanUndo)
	assert.False(t, s.CanRedo)
	assert.Equal(t, domain.XYPosition{X: 5, Y: 5}, nodePosition(t, s, "1"))
}

func TestEditorImportExport(t *testing.T) {
	e, bus, _ := newTestEditor(t)
	events := make(chan Event, 10)
	bus.Subscribe(events)
	e.ApplyNodeChanges(drag("1", 5, 5))

	doc := "nodes:\n  - id: only\n    type: input\n    data:\n      label: Only\n"
	s, err := e.Import(codec.NewYAMLCodec(), strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, s.Nodes, 1)
	assert.Empty(t, s.Edges)
	assert.False(t, s.CanUndo, "replacing the diagram clears history")
	assert.Equal(t, uint64(2), s.Revision)

	var last Event
	for len(events) > 0 {
		last = <-events
	}
	assert.Equal(t, EventDiagramReplaced, last.Type)

	var buf bytes.Buffer
	require.NoError(t, e.Export(codec.NewJSONCodec(), &buf))
	assert.Contains(t, buf.String(), `"id": "only"`)

	_, err = e.Import(codec.NewYAMLCodec(), strings.NewReader("nodes:\n  - id: x\n    type: hexagon\n"))
	assert.True(t, errors.Is(err, domain.ErrInvalidDocument))
	assert.Len(t, e.Snapshot().Nodes, 1, "rejected import leaves state untouched")
}

func TestEditorHistoryLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.HistoryLimit = 2
	e := NewEditor(domain.DefaultGraph(), nil, nil, nil, opts)

	for i := 1; i <= 4; i++ {
		e.ApplyNodeChanges(drag("1", float64(i), 0))
	}
	e.Undo()
	s := e.Undo()
	assert.False(t, s.CanUndo)
	assert.Equal(t, domain.XYPosition{X: 2, Y: 0}, nodePosition(t, s, "1"))
}

func TestEditorConcurrentMutations(t *testing.T) {
	e, _, _ := newTestEditor(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e.AddDerivedNode("1", domain.XYPosition{X: float64(i), Y: 0})
			_ = e.Snapshot()
		}(i)
	}
	wg.Wait()

	s := e.Snapshot()
	assert.Len(t, s.Nodes, 25)
	assert.Equal(t, uint64(20), s.Revision)
	assert.NoError(t, s.Validate())
}

func TestEditorSnapshotsAreDetached(t *testing.T) {
	e, _, _ := newTestEditor(t)
	e.ApplyNodeChanges(drag("1", 10, 10))

	s := e.Snapshot()
	s.Nodes[0].Position = domain.XYPosition{X: -1, Y: -1}
	s.Nodes[0].SetData("label", "mutated")
	s.Edges[0].Animated = true

	g, _ := e.Graph()
	g.Nodes[1].Position = domain.XYPosition{X: -2, Y: -2}

	fresh := e.Snapshot()
	assert.Equal(t, domain.XYPosition{X: 10, Y: 10}, nodePosition(t, fresh, "1"))
	assert.Equal(t, domain.XYPosition{X: 0, Y: 100}, nodePosition(t, fresh, "2"))
	n, _ := fresh.Node("1")
	assert.Equal(t, "Input Node", n.Label())
	assert.False(t, fresh.Edges[0].Animated)

	undone := e.Undo()
	assert.Equal(t, domain.XYPosition{X: 100, Y: 0}, nodePosition(t, undone, "1"))
}

func TestEditorEventsAreSequenced(t *testing.T) {
	e, bus, _ := newTestEditor(t)
	events := make(chan Event, 10)
	bus.Subscribe(events)

	assert.Zero(t, e.InitialEvent().Seq)

	e.ApplyNodeChanges(drag("1", 1, 1))
	e.ClickNode("5")
	e.DismissModal()
	e.ApplyNodeChanges(drag("404", 1, 1))

	require.Len(t, events, 3)
	for want := uint64(1); want <= 3; want++ {
		ev := <-events
		assert.Equal(t, want, ev.Sequence())
	}

	initial := e.InitialEvent()
	assert.Equal(t, uint64(3), initial.Seq)
	assert.Equal(t, EventSnapshotUpdated, initial.Type)
	snap, ok := initial.Payload.(Snapshot)
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Revision)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	fast := make(chan Event, 1)
	slow := make(chan Event)
	bus.Subscribe(fast)
	bus.Subscribe(slow)

	bus.Publish(Event{Type: EventSnapshotUpdated})
	assert.Len(t, fast, 1, "a blocked subscriber does not stall others")

	bus.Unsubscribe(fast)
	<-fast
	bus.Publish(Event{Type: EventSnapshotUpdated})
	assert.Len(t, fast, 0)
}
