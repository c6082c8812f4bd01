// Package service implements the flowpad editor.
//
// Editor owns the authoritative diagram together with its selection,
// clipboard, undo/redo history and modal state. Every operation is a pure
// function of the current graph and its input; the Editor serializes them
// under one lock, commits results that differ from the current graph, bumps
// the revision and records the previous graph in history. Results equal to
// the current graph are no-ops and leave history and revision alone.
//
// # Event System
//
// Committed changes, selection and modal updates, and whole-diagram
// replacements are published on an EventBus carrying the new Snapshot.
// The server forwards them to connected canvases over Server-Sent Events.
// Publishing never blocks; slow subscribers miss events and resync from the
// next snapshot.
package service
