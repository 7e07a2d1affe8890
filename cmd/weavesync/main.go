package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"

	"github.com/weavesync/weavesync/internal/config"
	"github.com/weavesync/weavesync/internal/logging"
	"github.com/weavesync/weavesync/internal/migrations"
	"github.com/weavesync/weavesync/internal/remote"
	"github.com/weavesync/weavesync/internal/repositories/places"
	"github.com/weavesync/weavesync/internal/repositories/scratchpad"
	"github.com/weavesync/weavesync/internal/syncer"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	ctx := context.Background()

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := migrations.Up(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	tokens := remote.StaticToken(cfg.AuthToken)
	client := remote.NewHTTPClient(cfg.ServerURL, cfg.Collection, tokens)

	s := syncer.New(
		cfg.Collection,
		places.NewSQLiteStorage(db),
		scratchpad.NewSQLiteScratchpad(db),
		syncer.GateFunc(func(ctx context.Context) string {
			if cfg.AuthToken == "" {
				return "no auth token configured"
			}
			return ""
		}),
		syncer.ClientProviderFunc(func(ctx context.Context, collection string) (remote.CollectionClient, error) {
			return client, nil
		}),
		logger,
	)

	for {
		if err := runPass(ctx, s, logger); err != nil {
			log.Fatalf("sync failed: %v", err)
		}
		if cfg.SyncInterval <= 0 {
			return
		}
		time.Sleep(cfg.SyncInterval)
	}
}

// runPass runs one sync pass, retrying the whole pass with backoff on
// failure. The engine never retries internally; re-invoking the pass is
// safe because applying is idempotent and dirty sets are recomputed.
func runPass(ctx context.Context, s *syncer.Synchronizer, logger logging.Logger) error {
	backoff := retry.WithMaxRetries(5, retry.NewExponential(2*time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := s.Sync(ctx)
		if err != nil {
			logger.Warn(ctx, "sync pass failed, will retry", "error", err)
			return retry.RetryableError(err)
		}
		if res.Status == syncer.StatusNotStarted {
			logger.Info(ctx, "sync skipped", "reason", res.Reason)
		}
		return nil
	})
}
