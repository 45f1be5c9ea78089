package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"tally/internal/database"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/services"
)

// Generation runner intended for a daily cron: materializes recurring
// transactions for every entity over a date window. Safe to re-run for
// overlapping windows; already-generated occurrences are skipped.
func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Generation error: %v", err)
	}
}

func run() error {
	var fromStr, toStr string
	flag.StringVar(&fromStr, "from", "", "start of the generation window (YYYY-MM-DD, default today)")
	flag.StringVar(&toStr, "to", "", "end of the generation window (YYYY-MM-DD, default today)")
	flag.Parse()

	today := time.Now().UTC().Format("2006-01-02")
	if fromStr == "" {
		fromStr = today
	}
	if toStr == "" {
		toStr = today
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return fmt.Errorf("invalid -from date: %w", err)
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return fmt.Errorf("invalid -to date: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	db := dbManager.DB()
	recurringService := services.NewRecurringService(db)

	var entityIDs []string
	if err := db.Model(&models.Entity{}).Pluck("id", &entityIDs).Error; err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}

	log := logger.Get()
	log.Infow("Starting recurring generation", "from", fromStr, "to", toStr, "entities", len(entityIDs))

	totalCreated, totalSkipped, totalFailed := 0, 0, 0
	for _, entityID := range entityIDs {
		result, err := recurringService.Generate(entityID, from, to)
		if err != nil {
			log.Errorw("Generation failed for entity", "entity_id", entityID, "error", err)
			totalFailed++
			continue
		}
		totalCreated += result.Created
		totalSkipped += result.Skipped
		for _, failure := range result.Failures {
			log.Warnw("Template generation failure",
				"entity_id", entityID,
				"template_id", failure.TemplateID,
				"template", failure.Name,
				"reason", failure.Reason,
			)
			totalFailed++
		}
	}

	log.Infow("Recurring generation complete",
		"created", totalCreated,
		"skipped", totalSkipped,
		"failed", totalFailed,
	)
	return nil
}
