package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tillpoint/internal/config"
	"tillpoint/internal/db"
	"tillpoint/internal/httpserver"
	"tillpoint/internal/remote"
	customerrepo "tillpoint/internal/repository/customer"
	discountrepo "tillpoint/internal/repository/discount"
	productrepo "tillpoint/internal/repository/product"
	discountsvc "tillpoint/internal/service/discount"
	"tillpoint/internal/syncqueue"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if cfg.BranchID != "" {
		logger.Printf("terminal bound to branch %s", cfg.BranchID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	discountRepo := discountrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool)
	discountService := discountsvc.New(discountRepo, productRepo, customerRepo)

	syncStore, err := syncqueue.OpenStore(cfg.SyncStorePath)
	if err != nil {
		logger.Fatalf("open sync store: %v", err)
	}
	defer syncStore.Close()
	if purged, err := syncStore.PurgeSynced(ctx, 7*24*time.Hour); err != nil {
		logger.Printf("purge synced records: %v", err)
	} else if purged > 0 {
		logger.Printf("purged %d synced records", purged)
	}

	queue := syncqueue.NewQueue(syncStore, remote.NewReplayer(dbpool), logger, syncqueue.Options{
		Debounce:      cfg.SyncDebounce,
		ReplayTimeout: cfg.ReplayTimeout,
	})
	// The pool pinged successfully above, so start online.
	queue.SetOnline(true)
	go queue.Watch(ctx, remote.NewPoolProbe(dbpool), cfg.SyncProbeEvery)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		DiscountSvc: discountService,
		Queue:       queue,
		SyncStore:   syncStore,
		JWTSecret:   cfg.JWTSecret,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
