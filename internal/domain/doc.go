// Package domain defines the core diagram types for flowpad and the pure
// operations that transform them.
//
// This package contains the node/edge data model behind the browser editor
// together with every mutation the editor can perform on it. Operations take
// a snapshot and an input and return a new snapshot; nothing here holds state
// between calls.
//
// # Core Types
//
// Node is a positioned, typed element of the diagram. Its kind comes from a
// closed set (input, default, textUpdater, triangle, group) described by the
// kind registry. A node may sit inside a group node, in which case its
// position is relative to that parent.
//
// Edge is a directed connection between two nodes, optionally pinned to named
// handles on either side.
//
// Graph is a (nodes, edges) snapshot. GraphFragment is a detached subset of a
// graph, used for the clipboard and for diagram documents.
//
// # Changes
//
// NodeChange and EdgeChange are the deltas the canvas reports while the user
// drags, selects, resizes or deletes elements. ApplyNodeChanges and
// ApplyEdgeChanges fold a batch of them into a list; the Graph methods of the
// same name also cascade removals and prune dangling edges.
//
// # Export
//
// RectOfNodes and TransformForBounds compute the translation and zoom that fit
// every node into a raster frame.
//
// # Design Principles
//
// - Copy-on-write: inputs are never mutated
// - Reference and duplicate errors degrade to no-ops
// - No I/O and no infrastructure dependencies
package domain
