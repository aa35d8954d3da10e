package db

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
)

// The schema has to migrate onto sqlite as well as Postgres, so the entity
// tags must not carry Postgres-only column defaults.
func TestAutoMigrateAllSQLite(t *testing.T) {
	name := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := AutoMigrateAll(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	order := &types.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-MIGRATE-1",
		FactoryCode: "FC-MIGRATE",
		Status:      types.OrderStatusOpen,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("insert order: %v", err)
	}

	article := &types.Article{
		ID:            uuid.New(),
		OrderID:       order.ID,
		ArticleNumber: "ORD-MIGRATE-1-A1",
		CurrentFloor:  types.FloorKnitting,
		FloorLedger:   types.FloorLedger{},
		Status:        types.StatusPending,
		Version:       1,
	}
	if err := conn.Create(article).Error; err != nil {
		t.Fatalf("insert article: %v", err)
	}

	var got types.Article
	if err := conn.First(&got, "id = ?", article.ID).Error; err != nil {
		t.Fatalf("read back article: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected a populated created_at timestamp")
	}
}
