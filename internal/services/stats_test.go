package services

import (
	"context"
	"testing"
	"time"

	prodrepos "github.com/knitworks/floortrack-backend/internal/data/repos/production"
	"github.com/knitworks/floortrack-backend/internal/data/repos/testutil"
	types "github.com/knitworks/floortrack-backend/internal/domain/production"
)

func TestFloorStatistics(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	log := testutil.NewLogger(t)
	orderRepo := prodrepos.NewOrderRepo(fx.conn, log)
	productRepo := prodrepos.NewProductRepo(fx.conn, log)
	eventRepo := prodrepos.NewFloorEventRepo(fx.conn, log)
	statsSvc := NewStatsService(log, fx.articles, orderRepo, productRepo, eventRepo, nil, 0)

	art := fx.newArticle(t, "ORD-STATS")
	if _, err := fx.articleSvc.ReceiveAtFloor(ctx, art.ID, types.FloorKnitting, 120); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorKnitting, 50); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := fx.articleSvc.Transfer(ctx, art.ID, types.FloorKnitting, 30); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	stats, err := statsSvc.FloorStatistics(ctx, nil, nil, nil)
	if err != nil {
		t.Fatalf("floor statistics: %v", err)
	}
	if stats.TotalArticles != 1 {
		t.Fatalf("total articles = %d, want 1", stats.TotalArticles)
	}
	if stats.CorruptedCount != 0 {
		t.Fatalf("corrupted = %d, want 0", stats.CorruptedCount)
	}

	var knitting, checking *FloorStat
	for i := range stats.Floors {
		switch stats.Floors[i].Floor {
		case types.FloorKnitting:
			knitting = &stats.Floors[i]
		case types.FloorChecking:
			checking = &stats.Floors[i]
		}
	}
	if knitting == nil {
		t.Fatal("no knitting aggregate")
	}
	if knitting.Received != 120 || knitting.Completed != 50 || knitting.Transferred != 30 || knitting.Remaining != 90 {
		t.Fatalf("knitting aggregate = %+v", *knitting)
	}
	if knitting.EventCount != 3 {
		t.Fatalf("knitting event count = %d, want 3", knitting.EventCount)
	}
	if checking == nil || checking.Received != 30 {
		t.Fatalf("checking aggregate = %+v", checking)
	}
	if knitting.WindowReceived != 120 || knitting.WindowCompleted != 50 || knitting.WindowTransferred != 30 {
		t.Fatalf("knitting window activity = %+v", *knitting)
	}
}

func TestFloorStatisticsFilters(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	log := testutil.NewLogger(t)
	orderRepo := prodrepos.NewOrderRepo(fx.conn, log)
	productRepo := prodrepos.NewProductRepo(fx.conn, log)
	eventRepo := prodrepos.NewFloorEventRepo(fx.conn, log)
	statsSvc := NewStatsService(log, fx.articles, orderRepo, productRepo, eventRepo, nil, 0)

	art := fx.newArticle(t, "ORD-STATS-FILTER")
	if _, err := fx.articleSvc.ReceiveAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorKnitting, 40); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := fx.articleSvc.Transfer(ctx, art.ID, types.FloorKnitting, 40); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	knitting := types.FloorKnitting
	stats, err := statsSvc.FloorStatistics(ctx, &knitting, nil, nil)
	if err != nil {
		t.Fatalf("floor statistics with floor filter: %v", err)
	}
	if len(stats.Floors) != 1 || stats.Floors[0].Floor != types.FloorKnitting {
		t.Fatalf("floor filter returned %+v", stats.Floors)
	}
	if stats.Floors[0].Received != 100 || stats.Floors[0].WindowTransferred != 40 {
		t.Fatalf("knitting aggregate = %+v", stats.Floors[0])
	}

	// A window before any activity keeps the ledger snapshot but zeroes the
	// event-backed figures.
	past := time.Now().Add(-time.Hour)
	stats, err = statsSvc.FloorStatistics(ctx, &knitting, nil, &past)
	if err != nil {
		t.Fatalf("floor statistics with window: %v", err)
	}
	if len(stats.Floors) != 1 {
		t.Fatalf("windowed stats floors = %+v", stats.Floors)
	}
	fs := stats.Floors[0]
	if fs.Received != 100 {
		t.Fatalf("ledger snapshot changed under window: %+v", fs)
	}
	if fs.EventCount != 0 || fs.WindowReceived != 0 || fs.WindowCompleted != 0 || fs.WindowTransferred != 0 {
		t.Fatalf("window before activity leaked events: %+v", fs)
	}
}
