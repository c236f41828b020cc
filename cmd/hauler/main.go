package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"hauler/internal/api"
	"hauler/internal/arbitrage"
	"hauler/internal/config"
	"hauler/internal/database"
	"hauler/internal/feed"
	"hauler/internal/ingest"
	"hauler/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		log.Fatalf("cannot connect to database: %v", err)
	}
	defer pool.Close()

	repo := &database.PostgresRepository{Pool: pool}
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("cannot migrate database: %v", err)
	}

	feedClient := feed.NewClient(logger, cfg.Feed)
	ingestor := ingest.NewService(logger, repo, feedClient, cfg.Feed, cfg.Ingest)
	engine := arbitrage.NewEngine(logger, repo)
	server := api.NewServer(logger, engine, ingestor, repo)
	sched := scheduler.New(logger, ingestor, cfg.Ingest.RefreshInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})

	logger.Info("hauler started", "port", cfg.Server.Port, "refreshInterval", cfg.Ingest.RefreshInterval.String())
	if err := g.Wait(); err != nil {
		logger.Error("shutting down with error", "error", err)
		os.Exit(1)
	}
}
