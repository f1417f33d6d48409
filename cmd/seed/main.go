package main

import (
	"context"
	"log"
	"os"
	"time"

	"tillpoint/internal/config"
	"tillpoint/internal/db"
	"tillpoint/internal/httpserver"
	"tillpoint/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := seed.Run(ctx, pool, logger); err != nil {
		logger.Fatalf("seed: %v", err)
	}

	token, err := httpserver.IssueToken(cfg.JWTSecret, "dev-admin", httpserver.RoleAdmin, 24*time.Hour)
	if err != nil {
		logger.Fatalf("issue dev token: %v", err)
	}
	logger.Printf("dev admin token (24h): %s", token)
}
