package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/database"
	"github.com/crackcu/portal-backend/internal/logger"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
)

// seed-exam loads mock exams from a JSON file holding one exam object or an
// array of them, in the same shape the API serves them (with answers).
func main() {
	var path string
	flag.StringVar(&path, "file", "", "Path to the exam JSON file")
	flag.Parse()
	if path == "" {
		fmt.Println("Usage: seed-exam -file exams.json")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.AppName)

	exams, err := readExams(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read exams")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	examRepo := repository.NewExamRepository(pool)

	created := 0
	for i := range exams {
		e := &exams[i]
		if e.PublishAt.IsZero() {
			e.PublishAt = time.Now()
		}
		if err := examRepo.Create(ctx, e); err != nil {
			fmt.Printf("Error seeding %q: %v\n", e.Title, err)
			continue
		}
		created++
		fmt.Printf("Seeded exam %d %q (%d questions)\n", e.ID, e.Title, len(e.Questions))
	}

	fmt.Printf("\nSeed completed! Added %d/%d exams.\n", created, len(exams))
}

func readExams(path string) ([]model.ExamDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var many []model.ExamDefinition
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one model.ExamDefinition
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []model.ExamDefinition{one}, nil
}
