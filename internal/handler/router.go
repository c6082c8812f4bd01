package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"flowpad/internal/metrics"
)

// Router creates and configures the HTTP router
type Router struct {
	editor         *EditorHandler
	events         http.Handler
	metrics        *metrics.Collector
	logger         *zap.Logger
	allowedOrigins []string
}

// NewRouter creates a new router instance. events serves the SSE stream;
// collector may be nil.
func NewRouter(
	editor *EditorHandler,
	events http.Handler,
	collector *metrics.Collector,
	logger *zap.Logger,
	allowedOrigins []string,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		editor:         editor,
		events:         events,
		metrics:        collector,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(Metrics(rt.metrics))
	}

	if len(rt.allowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/healthz", rt.editor.Health)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}
	if rt.events != nil {
		router.Handle("/events", rt.events)
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/graph", rt.editor.GetGraph)
		r.Get("/kinds", rt.editor.ListKinds)

		r.Post("/connect", rt.editor.Connect)
		r.Post("/connect-end", rt.editor.ConnectEnd)

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/changes", rt.editor.ApplyNodeChanges)
			r.Post("/{id}/derive", rt.editor.DeriveNode)
			r.Post("/{id}/click", rt.editor.ClickNode)
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/changes", rt.editor.ApplyEdgeChanges)
			r.Delete("/{id}", rt.editor.DeleteEdge)
		})

		r.Delete("/modal", rt.editor.DismissModal)
		r.Put("/selection", rt.editor.SetSelection)

		r.Route("/clipboard", func(r chi.Router) {
			r.Post("/cut", rt.editor.Cut)
			r.Post("/copy", rt.editor.Copy)
			r.Post("/paste", rt.editor.Paste)
		})

		r.Route("/history", func(r chi.Router) {
			r.Post("/undo", rt.editor.Undo)
			r.Post("/redo", rt.editor.Redo)
			r.Delete("/", rt.editor.ClearHistory)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/png", rt.editor.ExportPNG)
			r.Get("/transform", rt.editor.ExportTransform)
			r.Get("/{format}", rt.editor.ExportDocument)
		})
		r.Post("/import/{format}", rt.editor.ImportDocument)
	})

	return router
}
