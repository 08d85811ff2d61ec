package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/database"
	"github.com/crackcu/portal-backend/internal/logger"
	"github.com/crackcu/portal-backend/internal/repository"
)

// apply-penalty-rule stores the penalty flag on every account. Grading only
// reads the stored flag, so a rule change affects future submissions only.
func main() {
	var (
		years    string
		clearAll bool
	)
	flag.StringVar(&years, "years", "", "Comma-separated HSC years that carry the penalty, e.g. 2023,2024")
	flag.BoolVar(&clearAll, "clear", false, "Clear the flag on every account (no penalized years)")
	flag.Parse()

	list := parseYears(years)
	if len(list) == 0 && !clearAll {
		fmt.Println("Usage: apply-penalty-rule -years 2023,2024 | -clear")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.AppName)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	changed, err := repository.NewCandidateRepository(pool).ApplyPenaltyRule(ctx, list)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply penalty rule")
	}

	log.Info().Strs("years", list).Int64("changed", changed).Msg("Penalty rule applied")
}

func parseYears(raw string) []string {
	var out []string
	for _, y := range strings.Split(raw, ",") {
		if y = strings.TrimSpace(y); y != "" {
			out = append(out, y)
		}
	}
	return out
}
