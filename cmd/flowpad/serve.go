package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowpad/internal/domain"
	"flowpad/internal/export"
	"flowpad/internal/handler"
	"flowpad/internal/hub"
	"flowpad/internal/loader"
	"flowpad/internal/metrics"
	"flowpad/internal/service"
	"flowpad/internal/watcher"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and event-stream server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("starting flowpad",
		zap.String("version", version),
		zap.String("config", a.cfgPath),
		zap.String("addr", cfg.Server.Addr))

	seed, err := loader.Seed(cfg.Editor.SeedPath, logger)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector("flowpad")
	eventBus := service.NewEventBus()

	opts := service.DefaultOptions()
	opts.HistoryLimit = cfg.Editor.HistoryLimit
	opts.DerivedLabel = cfg.Editor.DerivedLabel
	opts.EdgeOptions = domain.EdgeOptions{Animated: cfg.Editor.DefaultEdgeAnimated}
	editor := service.NewEditor(seed, eventBus, logger, collector, opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create SSE hub; new streams start from the current snapshot
	sseHub := hub.New(logger, collector)
	sseHub.SetInitial(func() any { return editor.InitialEvent() })
	go sseHub.Run(ctx)

	// Bridge event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	defer eventBus.Unsubscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(event)
			case <-ctx.Done():
				return
			}
		}
	}()

	renderer, err := export.NewRenderer(export.Options{
		Width:      cfg.Export.Width,
		Height:     cfg.Export.Height,
		MinZoom:    cfg.Export.MinZoom,
		MaxZoom:    cfg.Export.MaxZoom,
		Padding:    cfg.Export.Padding,
		Background: cfg.Export.Background,
	})
	if err != nil {
		return err
	}
	exports, err := export.NewCache(renderer, cfg.Export.CacheSize, collector)
	if err != nil {
		return err
	}

	if cfg.Editor.WatchSeed {
		path := cfg.Editor.SeedPath
		w := watcher.New(path, logger, func(ctx context.Context) {
			_ = loader.Reload(path, editor, logger)
		})
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("seed watcher stopped", zap.Error(err))
			}
		}()
	}

	router := handler.NewRouter(
		handler.NewEditorHandler(editor, exports, logger),
		sseHub,
		collector,
		logger,
		cfg.Server.AllowedOrigins,
	)

	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router.Setup(),
		ReadTimeout: cfg.Server.ReadTimeout.Duration(),
		IdleTimeout: cfg.Server.IdleTimeout.Duration(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	// Stop the hub first so open event streams end and Shutdown can finish
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}
