// Command lead-score-backfill scores all leads that have no stored score
// yet, either for one workshop or across all of them. Intended for one-off
// runs after deployments that bump the score version.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/uuid"

	"carbot_backend/internal/leads/repository"
	"carbot_backend/internal/leads/scoring"
	"carbot_backend/platform/config"
	"carbot_backend/platform/db"
	"carbot_backend/platform/logger"
)

func main() {
	kundeFlag := flag.String("kunde", "", "workshop id to backfill; empty for all workshops")
	limitFlag := flag.Int("limit", 0, "max leads per workshop; 0 uses the configured default")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	kundeID := uuid.Nil
	if *kundeFlag != "" {
		kundeID, err = uuid.Parse(*kundeFlag)
		if err != nil {
			log.Error("invalid -kunde flag", "value", *kundeFlag, "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)
	scorer := scoring.NewScorer(log, cfg.DefaultJobValue)
	svc := scoring.NewService(repo, scorer, nil, log, cfg)

	var n int
	if kundeID == uuid.Nil {
		n, err = svc.RescoreAllTenants(ctx, *limitFlag)
	} else {
		n, err = svc.RescoreTenant(ctx, kundeID, *limitFlag)
	}
	if err != nil {
		log.Error("backfill failed", "error", err)
		os.Exit(1)
	}

	log.Info("backfill complete", "scored", n)
}
