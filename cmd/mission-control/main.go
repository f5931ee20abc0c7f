package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/himbot/mission-control/internal/activity"
	activityrepo "github.com/himbot/mission-control/internal/activity/repositoryimpl"
	"github.com/himbot/mission-control/internal/agent"
	agentrepo "github.com/himbot/mission-control/internal/agent/repositoryimpl"
	"github.com/himbot/mission-control/internal/config"
	"github.com/himbot/mission-control/internal/cronjob"
	cronjobrepo "github.com/himbot/mission-control/internal/cronjob/repositoryimpl"
	"github.com/himbot/mission-control/internal/eventbus"
	"github.com/himbot/mission-control/internal/httpapi"
	"github.com/himbot/mission-control/internal/memory"
	memoryrepo "github.com/himbot/mission-control/internal/memory/repositoryimpl"
	"github.com/himbot/mission-control/internal/task"
	taskrepo "github.com/himbot/mission-control/internal/task/repositoryimpl"
	"github.com/himbot/mission-control/internal/watcher"
	"github.com/himbot/mission-control/pkg/clog"
	"github.com/himbot/mission-control/pkg/panicerr"
	"github.com/himbot/mission-control/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	case "sqlite":
		store, err = storage.NewSQLiteStorage(context.Background(), env.StorageEnv.SQLitePath)
		if err != nil {
			slog.Error("failed to create SQLite storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	agentRepo := agentrepo.NewYAMLRepository(store)
	cronJobRepo := cronjobrepo.NewYAMLRepository(store)
	memoryRepo := memoryrepo.NewYAMLRepository(store)
	activityRepo := activityrepo.NewYAMLRepository(store)

	// Setup services
	taskStore := task.NewStore(taskRepo, bus)
	taskViews := task.NewViews(taskStore, bus)
	agentService := agent.NewService(agentRepo, bus)
	cronJobService := cronjob.NewService(cronJobRepo, bus)
	memoryService := memory.NewService(memoryRepo, bus)
	activityService := activity.NewService(activityRepo)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if env.SeedDemo {
		if err := agentService.SeedDemo(ctx); err != nil {
			slog.Error("failed to seed agents", "error", err)
			os.Exit(1)
		}
		if err := cronJobService.SeedDemo(ctx); err != nil {
			slog.Error("failed to seed cron jobs", "error", err)
			os.Exit(1)
		}
	}

	runViews := panicerr.SafeContext(taskViews.Run)
	go func() {
		if err := runViews(ctx); err != nil && ctx.Err() == nil {
			slog.Error("task views stopped", "error", err)
		}
	}()

	// The watcher only makes sense for the local backend, where another
	// process can touch the data dir directly.
	if ls, ok := store.(*storage.LocalStorage); ok {
		runWatcher := panicerr.SafeContext(watcher.New(ls.BasePath(), bus).Run)
		go func() {
			if err := runWatcher(ctx); err != nil && ctx.Err() == nil {
				slog.Error("file watcher stopped", "error", err)
			}
		}()
	}

	srv := httpapi.NewServer(env, taskStore, agentService, cronJobService, memoryService, activityService)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after request contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
