// Seeds a demo product and order so a fresh environment has something to
// track. Safe to re-run: existing factory codes and order numbers are left
// alone.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/knitworks/floortrack-backend/internal/config"
	"github.com/knitworks/floortrack-backend/internal/data/db"
	prodrepos "github.com/knitworks/floortrack-backend/internal/data/repos/production"
	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load configuration", "error", err)
		os.Exit(1)
	}

	postgresService, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	ctx := context.Background()
	productRepo := prodrepos.NewProductRepo(thePG, log)
	orderRepo := prodrepos.NewOrderRepo(thePG, log)
	articleRepo := prodrepos.NewArticleRepo(thePG, log)

	const factoryCode = "FC-DEMO-001"
	existing, err := productRepo.GetByFactoryCodes(ctx, nil, []string{factoryCode})
	if err != nil {
		log.Error("Product lookup failed", "error", err)
		os.Exit(1)
	}
	if len(existing) == 0 {
		if _, err := productRepo.Create(ctx, nil, []*types.Product{{
			ID:          uuid.New(),
			FactoryCode: factoryCode,
			Name:        "Demo Crew Sock",
			Processes: datatypes.NewJSONSlice([]string{
				"Knitting", "Linking", "Checking", "Washing", "Boarding",
				"Silicon", "Secondary Checking", "Final Checking", "Branding",
				"Warehouse", "Dispatch",
			}),
		}}); err != nil {
			log.Error("Product seed failed", "error", err)
			os.Exit(1)
		}
		log.Info("Seeded demo product", "factoryCode", factoryCode)
	}

	const orderNumber = "ORD-DEMO-001"
	orders, err := orderRepo.GetByOrderNumbers(ctx, nil, []string{orderNumber})
	if err != nil {
		log.Error("Order lookup failed", "error", err)
		os.Exit(1)
	}
	if len(orders) > 0 {
		log.Info("Demo order already present; nothing to do", "orderNumber", orderNumber)
		return
	}

	created, err := orderRepo.Create(ctx, nil, []*types.Order{{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		FactoryCode:   factoryCode,
		TotalQuantity: 9000,
		Status:        types.OrderStatusOpen,
	}})
	if err != nil {
		log.Error("Order seed failed", "error", err)
		os.Exit(1)
	}

	articles := make([]*types.Article, 0, 3)
	for i := 1; i <= 3; i++ {
		articles = append(articles, &types.Article{
			ID:            uuid.New(),
			OrderID:       created[0].ID,
			ArticleNumber: fmt.Sprintf("%s-A%d", orderNumber, i),
			CurrentFloor:  types.FloorKnitting,
			FloorLedger:   types.FloorLedger{},
			Status:        types.StatusPending,
			Version:       1,
		})
	}
	if _, err := articleRepo.Create(ctx, nil, articles); err != nil {
		log.Error("Article seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("Seeded demo order", "orderNumber", orderNumber, "articles", len(articles))
}
