// Package testutil opens throwaway databases for repository tests. A real
// Postgres is used when TEST_POSTGRES_DSN is set, otherwise tests fall back
// to an in-memory sqlite database.
package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/knitworks/floortrack-backend/internal/data/db"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		conn *gorm.DB
		err  error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		// A unique name keeps tests isolated while cache=shared lets the
		// whole connection pool see the same in-memory database.
		name := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		conn, err = gorm.Open(sqlite.Open(name), cfg)
		if err == nil {
			// sqlite supports one writer; a single pooled connection keeps
			// concurrent service sweeps from tripping over lock errors.
			if sqlDB, derr := conn.DB(); derr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	}
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrateAll(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, derr := conn.DB()
		if derr == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func NewLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new test logger: %v", err)
	}
	return log
}
