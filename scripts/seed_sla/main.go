// Command seed_sla writes the built-in default SLA table into the database.
// Run it once after provisioning so administrators edit persisted rows instead
// of implicit defaults.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/certpath/certpath-api/internal/models"
	"github.com/certpath/certpath-api/internal/repository"
	"github.com/certpath/certpath-api/pkg/config"
	"github.com/certpath/certpath-api/pkg/database"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "database operation timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	repo := repository.NewSLARepository(db)
	existing, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("failed to read sla table: %v", err)
	}
	persisted := make(map[models.StageID]struct{}, len(existing))
	for _, row := range existing {
		persisted[row.StageID] = struct{}{}
	}

	var missing []models.SLAConfig
	for _, stage := range models.StageRegistry {
		if _, ok := persisted[stage.ID]; ok {
			continue
		}
		missing = append(missing, models.DefaultSLATable[stage.ID])
	}
	if len(missing) == 0 {
		log.Println("sla table already seeded")
		return
	}

	if err := repo.ReplaceAll(ctx, missing); err != nil {
		log.Fatalf("failed to seed sla table: %v", err)
	}
	log.Printf("seeded %d sla rows", len(missing))
}
