// Package handler implements the HTTP surface of the flowpad editor.
//
// # Handlers
//
// EditorHandler maps each editor operation onto a route: canvas change
// batches, connections, derived nodes, the click modal, selection and
// clipboard, history, the node kind registry, and document and PNG
// export/import.
//
// Router wires the handlers into a chi router with request ids, panic
// recovery, zap request logging, Prometheus request metrics and CORS.
//
// # Response Format
//
// Every mutating route answers 200 with the resulting snapshot, including
// when the request referenced missing ids or the action was unavailable; the
// snapshot is then unchanged. Malformed or invalid bodies answer 400.
// Error responses are JSON with an {error, details} structure.
//
// # Server-Sent Events
//
// The /events endpoint streams snapshots as the diagram changes so every
// open canvas re-renders from the same state.
package handler
