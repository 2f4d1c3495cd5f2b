package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"manimserve/config"
	"manimserve/job"
	"manimserve/logger"
	"manimserve/records"
	"manimserve/render"
	"manimserve/routes"
	"manimserve/storage"
	"manimserve/taskqueue"
)

const (
	recordMaxAge      = 30 * 24 * time.Hour
	cleanupInterval   = 24 * time.Hour
	startupCheckLimit = 10 * time.Second
	httpDrainTimeout  = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP render service (default command)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("Starting manimserve initialization")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	logger.Debug("Initializing render history database")
	store, err := records.Open(config.GetRecordsDBPath())
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Render history database initialized successfully")

	backend, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	checkCtx, cancel := context.WithTimeout(ctx, startupCheckLimit)
	if err := backend.Check(checkCtx); err != nil {
		logger.Warnf("storage backend %s connection test failed: %v", backend.Name(), err)
	} else {
		logger.Infof("storage backend %s connection test passed", backend.Name())
	}
	cancel()

	supervisor := render.NewSupervisor(cfg)
	supervisor.CheckTools()

	pool := taskqueue.NewPool(cfg.MaxConcurrentRenders, cfg.RenderQueueSize)
	dispatcher := job.NewDispatcher(job.Options{
		Renderer: supervisor,
		Uploader: storage.NewUploader(backend),
		Recorder: store,
		Pool:     pool,
		Notifier: job.NewWebhookClient(cfg.WebhookSecret, cfg.WebhookTimeout),
	})
	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET is not set; webhooks are sent without authentication")
	}

	deps := routes.Deps{Dispatcher: dispatcher, Store: store, Backend: backend, Pool: pool}
	if local, ok := backend.(*storage.LocalBackend); ok {
		deps.MediaDir = local.Dir()
	}

	go cleanupRoutine(ctx, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("manimserve listening on port %s (storage: %s)", cfg.Port, backend.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			pool.Shutdown(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down: draining HTTP connections and queued renders")
	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), httpDrainTimeout)
	defer cancelHTTP()
	if err := srv.Shutdown(httpCtx); err != nil {
		logger.Errorf("HTTP shutdown: %v", err)
	}

	// Every queued render may still need its full render and webhook budget.
	drain := time.Duration(cfg.RenderQueueSize/cfg.MaxConcurrentRenders+1) * (cfg.RenderTimeout + cfg.WebhookTimeout)
	poolCtx, cancelPool := context.WithTimeout(context.Background(), drain)
	defer cancelPool()
	if err := pool.Shutdown(poolCtx); err != nil {
		logger.Errorf("render queue shutdown: %v", err)
	}
	logger.Info("manimserve stopped")
	return nil
}

// cleanupRoutine periodically removes old render records
func cleanupRoutine(ctx context.Context, store *records.Store) {
	logger.Info("Cleanup routine started - will run every 24 hours")
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup routine stopped due to context cancellation")
			return
		case <-ticker.C:
			logger.Debugf("Cleaning up render records older than %v", recordMaxAge)
			n, err := store.CleanupOldRecords(recordMaxAge)
			if err != nil {
				logger.Errorf("Failed to cleanup old render records: %v", err)
				continue
			}
			logger.Infof("Scheduled cleanup removed %d render records", n)
		}
	}
}
