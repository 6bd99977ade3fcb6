// Package main provides a CLI tool for seeding the catalog with initial data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"memorial/internal/config"
	"memorial/internal/core/types"
	"memorial/internal/domain"
	"memorial/internal/domain/catalog"
	"memorial/internal/domain/clients"
	"memorial/internal/infrastructure/storage/docrepo"
	"memorial/internal/infrastructure/storage/postgres"
	"memorial/pkg/logger"
)

type itemSeed struct {
	itemType catalog.ItemType
	name     string
	price    string
}

var catalogSeed = []itemSeed{
	{catalog.TypeModel, "Ataúd roble clásico", "1800"},
	{catalog.TypeModel, "Ataúd pino sencillo", "950"},
	{catalog.TypeModel, "Urna cerámica", "420"},
	{catalog.TypeService, "Velación en capilla", "600"},
	{catalog.TypeService, "Traslado local", "250"},
	{catalog.TypeService, "Cremación", "1100"},
}

func main() {
	configFile := flag.String("config", "", "optional config file")
	demo := flag.Bool("demo", os.Getenv("SEED_DEMO_DATA") == "true", "also seed a demo client")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	store := postgres.NewDocumentStore(txManager)

	catalogService := catalog.NewService(docrepo.NewCatalogRepo(store), txManager)
	if err := seedCatalog(ctx, catalogService, log); err != nil {
		log.Fatalw("failed to seed catalog", "error", err)
	}

	if *demo {
		clientService := clients.NewService(docrepo.NewClientRepo(store), txManager)
		if err := seedDemoClient(ctx, clientService, log); err != nil {
			log.Fatalw("failed to seed demo client", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedCatalog inserts the default items unless the catalog already has some.
func seedCatalog(ctx context.Context, svc *catalog.Service, log *logger.Logger) error {
	existing, err := svc.List(ctx, "", domain.ListFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	if existing.TotalCount > 0 {
		log.Infow("catalog already seeded", "items", existing.TotalCount)
		return nil
	}

	for _, s := range catalogSeed {
		item := catalog.NewItem(s.itemType, s.name, types.MustMoney(s.price))
		if err := svc.Create(ctx, item); err != nil {
			return fmt.Errorf("create %q: %w", s.name, err)
		}
		log.Infow("catalog item created", "id", item.ID, "type", item.Type, "name", item.Name)
	}
	return nil
}

func seedDemoClient(ctx context.Context, svc *clients.Service, log *logger.Logger) error {
	client := clients.NewClient("Cliente Demo")
	client.DocumentNumber = "00000000"
	client.Phone = "+51 900 000 000"
	if err := svc.Create(ctx, client); err != nil {
		return fmt.Errorf("create demo client: %w", err)
	}
	log.Infow("demo client created", "id", client.ID)
	return nil
}
