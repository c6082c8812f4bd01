package service

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flowpad/internal/clipboard"
	"flowpad/internal/codec"
	"flowpad/internal/domain"
	"flowpad/internal/history"
	"flowpad/internal/metrics"
)

// Options tune editor behavior
type Options struct {
	HistoryLimit int
	EdgeOptions  domain.EdgeOptions
	DerivedLabel string
	IDGenerator  domain.IDGenerator
}

// DefaultOptions returns the settings a fresh editor uses
func DefaultOptions() Options {
	return Options{
		HistoryLimit: history.DefaultLimit,
		EdgeOptions:  domain.EdgeOptions{Animated: true},
		DerivedLabel: domain.DefaultDerivedLabel,
		IDGenerator:  NewID,
	}
}

// NewID returns a random identifier for nodes and edges
func NewID() string {
	return uuid.NewString()
}

// Snapshot is the immutable view of the editor handed to clients
type Snapshot struct {
	domain.Graph
	Revision  uint64              `json:"revision"`
	ShowModal bool                `json:"show_modal"`
	ModalInfo string              `json:"modal_info"`
	CanUndo   bool                `json:"can_undo"`
	CanRedo   bool                `json:"can_redo"`
	CanCopy   bool                `json:"can_copy"`
	CanPaste  bool                `json:"can_paste"`
	Selection clipboard.Selection `json:"selection"`
}

// Editor owns the diagram. Mutations are serialized by one mutex and each
// commit replaces the current graph with a new immutable value.
type Editor struct {
	mu        sync.RWMutex
	graph     domain.Graph
	revision  uint64
	seq       uint64
	showModal bool
	modalInfo string

	history   *history.History
	clipboard *clipboard.Controller
	opts      Options

	eventBus *EventBus
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewEditor creates an editor starting from initial. collector may be nil.
func NewEditor(initial domain.Graph, eventBus *EventBus, logger *zap.Logger, collector *metrics.Collector, opts Options) *Editor {
	if opts.IDGenerator == nil {
		opts.IDGenerator = NewID
	}
	if opts.DerivedLabel == "" {
		opts.DerivedLabel = domain.DefaultDerivedLabel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if eventBus == nil {
		eventBus = NewEventBus()
	}

	e := &Editor{
		graph:     initial.Clone(),
		history:   history.New(opts.HistoryLimit),
		clipboard: clipboard.NewController(),
		opts:      opts,
		eventBus:  eventBus,
		logger:    logger,
		metrics:   collector,
	}
	e.observe()
	return e
}

// Snapshot returns the current state
func (e *Editor) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// InitialEvent returns the current state as the event a new subscriber
// starts from. Its Seq is that of the last published event.
func (e *Editor) InitialEvent() Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Event{Type: EventSnapshotUpdated, Op: "initial", Seq: e.seq, Payload: e.snapshotLocked()}
}

// Graph returns a copy of the current diagram
func (e *Editor) Graph() (domain.Graph, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Clone(), e.revision
}

// ApplyNodeChanges folds canvas node deltas into the diagram
func (e *Editor) ApplyNodeChanges(changes []domain.NodeChange) Snapshot {
	return e.mutate("node_changes", func(g domain.Graph) domain.Graph {
		next := g.ApplyNodeChanges(changes)
		if hasNodeSelect(changes) {
			e.clipboard.OnSelectionChange(clipboard.SelectionOf(next))
		}
		return next
	})
}

// ApplyEdgeChanges folds canvas edge deltas into the diagram
func (e *Editor) ApplyEdgeChanges(changes []domain.EdgeChange) Snapshot {
	return e.mutate("edge_changes", func(g domain.Graph) domain.Graph {
		next := g.ApplyEdgeChanges(changes)
		if hasEdgeSelect(changes) {
			e.clipboard.OnSelectionChange(clipboard.SelectionOf(next))
		}
		return next
	})
}

// Connect adds an edge between two handles unless they are already joined
func (e *Editor) Connect(c domain.Connection) Snapshot {
	return e.mutate("connect", func(g domain.Graph) domain.Graph {
		return g.Connect(c, e.opts.EdgeOptions)
	})
}

// ConnectEnd finishes a connection gesture. Releasing over the empty pane
// spawns a node connected to the source; anything else is abandoned.
func (e *Editor) ConnectEnd(c domain.ConnectEnd) Snapshot {
	if !c.OverPane {
		return e.Snapshot()
	}
	return e.mutate("connect_end", func(g domain.Graph) domain.Graph {
		source, ok := g.Node(c.SourceID)
		if !ok {
			return g
		}
		next, _ := g.AddDerivedNode(source.ID, c.DropPosition(g.AbsolutePosition(source)), e.opts.IDGenerator, e.opts.DerivedLabel)
		return next
	})
}

// AddDerivedNode spawns a copy of a node at position, connected to it
func (e *Editor) AddDerivedNode(sourceID string, position domain.XYPosition) Snapshot {
	return e.mutate("derive", func(g domain.Graph) domain.Graph {
		next, _ := g.AddDerivedNode(sourceID, position, e.opts.IDGenerator, e.opts.DerivedLabel)
		return next
	})
}

// DeleteEdge removes one edge
func (e *Editor) DeleteEdge(id string) Snapshot {
	return e.mutate("delete_edge", func(g domain.Graph) domain.Graph {
		return g.DeleteEdge(id)
	})
}

// ClickNode opens the modal for kinds that carry a click message
func (e *Editor) ClickNode(id string) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.graph.Node(id)
	if !ok {
		return e.snapshotLocked()
	}
	spec, _ := domain.LookupKind(node.Type)
	if spec.ClickMessage == "" {
		return e.snapshotLocked()
	}

	e.showModal = true
	e.modalInfo = spec.ClickMessage
	snap := e.snapshotLocked()
	e.publishLocked(Event{Type: EventModalChanged, Op: "click", Payload: snap})
	return snap
}

// DismissModal hides the modal
func (e *Editor) DismissModal() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.showModal {
		return e.snapshotLocked()
	}
	e.showModal = false
	snap := e.snapshotLocked()
	e.publishLocked(Event{Type: EventModalChanged, Op: "dismiss", Payload: snap})
	return snap
}

// SetSelection replaces the tracked selection. Unknown ids are ignored.
func (e *Editor) SetSelection(sel clipboard.Selection) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clipboard.OnSelectionChange(sel)
	e.clipboard.Retain(e.graph)
	snap := e.snapshotLocked()
	e.publishLocked(Event{Type: EventSelectionChanged, Payload: snap})
	return snap
}

// Copy puts the selection on the clipboard
func (e *Editor) Copy() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.clipboard.Copy(e.graph) {
		e.noop("copy")
		return e.snapshotLocked()
	}
	clip := e.clipboard.Clipboard()
	e.logger.Debug("copied selection",
		zap.Int("nodes", len(clip.Nodes)),
		zap.Int("edges", len(clip.Edges)))
	return e.snapshotLocked()
}

// Cut copies the selection and removes it from the diagram as one step
func (e *Editor) Cut() Snapshot {
	return e.mutate("cut", func(g domain.Graph) domain.Graph {
		next, _ := e.clipboard.Cut(g)
		return next
	})
}

// Paste appends the clipboard with fresh ids where needed
func (e *Editor) Paste() Snapshot {
	return e.mutate("paste", func(g domain.Graph) domain.Graph {
		next, _ := e.clipboard.Paste(g, e.opts.IDGenerator)
		return next
	})
}

// Undo restores the previous snapshot
func (e *Editor) Undo() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, ok := e.history.Undo(e.graph)
	if !ok {
		e.noop("undo")
		return e.snapshotLocked()
	}
	return e.installLocked("undo", prev)
}

// Redo reapplies the last undone snapshot
func (e *Editor) Redo() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, ok := e.history.Redo(e.graph)
	if !ok {
		e.noop("redo")
		return e.snapshotLocked()
	}
	return e.installLocked("redo", next)
}

// ClearHistory empties both history stacks
func (e *Editor) ClearHistory() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history.Clear()
	e.observe()
	snap := e.snapshotLocked()
	e.publishLocked(Event{Type: EventSnapshotUpdated, Op: "clear_history", Payload: snap})
	return snap
}

// Replace swaps in a whole new diagram and clears history. The graph must
// be well-formed.
func (e *Editor) Replace(g domain.Graph, reason string) (Snapshot, error) {
	if err := g.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = g.Clone()
	e.revision++
	e.history.Clear()
	e.clipboard.Retain(e.graph)
	e.showModal = false
	e.modalInfo = ""
	e.observe()

	snap := e.snapshotLocked()
	e.logger.Info("diagram replaced",
		zap.String("reason", reason),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Uint64("revision", e.revision))
	e.publishLocked(Event{Type: EventDiagramReplaced, Op: reason, Payload: snap})
	return snap, nil
}

// Import decodes a document and replaces the diagram with it
func (e *Editor) Import(c codec.Importer, r io.Reader) (Snapshot, error) {
	g, err := codec.Decode(c, r)
	if err != nil {
		return Snapshot{}, err
	}
	return e.Replace(g, "import_"+c.Format())
}

// Export writes the current diagram as a document
func (e *Editor) Export(c codec.Exporter, w io.Writer) error {
	g, _ := e.Graph()
	fragment := domain.GraphFragment{Nodes: g.Nodes, Edges: g.Edges}

	var buf bytes.Buffer
	if err := c.Export(&fragment, &buf); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// mutate runs op against the current graph and commits the result. A
// result equal to the current graph is not committed.
func (e *Editor) mutate(op string, fn func(domain.Graph) domain.Graph) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := fn(e.graph)
	if next.Equal(e.graph) {
		e.noop(op)
		return e.snapshotLocked()
	}

	e.history.Push(e.graph)
	return e.installLocked(op, next)
}

func (e *Editor) installLocked(op string, next domain.Graph) Snapshot {
	e.graph = next
	e.revision++
	e.clipboard.Retain(next)
	e.observe()

	if e.metrics != nil {
		e.metrics.Mutations.WithLabelValues(op).Inc()
	}
	e.logger.Debug("mutation committed",
		zap.String("op", op),
		zap.Uint64("revision", e.revision),
		zap.Int("nodes", len(next.Nodes)),
		zap.Int("edges", len(next.Edges)))

	snap := e.snapshotLocked()
	e.publishLocked(Event{Type: EventSnapshotUpdated, Op: op, Payload: snap})
	return snap
}

// publishLocked stamps ev with the next sequence number and publishes it
func (e *Editor) publishLocked(ev Event) {
	e.seq++
	ev.Seq = e.seq
	e.eventBus.Publish(ev)
}

func (e *Editor) noop(op string) {
	if e.metrics != nil {
		e.metrics.NoOps.WithLabelValues(op).Inc()
	}
	e.logger.Debug("mutation was a no-op", zap.String("op", op))
}

func (e *Editor) observe() {
	if e.metrics == nil {
		return
	}
	past, future := e.history.Depth()
	e.metrics.Revision.Set(float64(e.revision))
	e.metrics.GraphNodes.Set(float64(len(e.graph.Nodes)))
	e.metrics.GraphEdges.Set(float64(len(e.graph.Edges)))
	e.metrics.UndoDepth.Set(float64(past))
	e.metrics.RedoDepth.Set(float64(future))
}

// snapshotLocked copies the graph so callers cannot reach the live state or
// the history stacks through the result
func (e *Editor) snapshotLocked() Snapshot {
	return Snapshot{
		Graph:     e.graph.Clone(),
		Revision:  e.revision,
		ShowModal: e.showModal,
		ModalInfo: e.modalInfo,
		CanUndo:   e.history.CanUndo(),
		CanRedo:   e.history.CanRedo(),
		CanCopy:   e.clipboard.CanCopy(),
		CanPaste:  e.clipboard.CanPaste(),
		Selection: e.clipboard.Selection(),
	}
}

func hasNodeSelect(changes []domain.NodeChange) bool {
	for _, c := range changes {
		if c.Type == domain.ChangeSelect {
			return true
		}
	}
	return false
}

func hasEdgeSelect(changes []domain.EdgeChange) bool {
	for _, c := range changes {
		if c.Type == domain.ChangeSelect {
			return true
		}
	}
	return false
}
