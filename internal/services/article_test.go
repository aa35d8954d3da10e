package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	prodrepos "github.com/knitworks/floortrack-backend/internal/data/repos/production"
	"github.com/knitworks/floortrack-backend/internal/data/repos/testutil"
	"github.com/knitworks/floortrack-backend/internal/data/txn"
	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/dbctx"
	"gorm.io/datatypes"
)

type fixture struct {
	conn        *gorm.DB
	factoryCode string
	articles    prodrepos.ArticleRepo
	orders      OrderService
	articleSvc  ArticleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	runner := txn.NewGormTxRunner(conn)

	articleRepo := prodrepos.NewArticleRepo(conn, log)
	orderRepo := prodrepos.NewOrderRepo(conn, log)
	productRepo := prodrepos.NewProductRepo(conn, log)
	eventRepo := prodrepos.NewFloorEventRepo(conn, log)

	articleSvc := NewArticleService(log, runner, articleRepo, orderRepo, productRepo, eventRepo, nil)
	orderSvc := NewOrderService(log, runner, orderRepo, productRepo, articleRepo, articleSvc, nil)

	factoryCode := "FC-" + uuid.NewString()[:8]
	if _, err := productRepo.Create(context.Background(), nil, []*types.Product{{
		ID:          uuid.New(),
		FactoryCode: factoryCode,
		Name:        "Crew Sock",
		Processes:   datatypes.NewJSONSlice([]string{"Knitting", "Checking", "Dispatch"}),
	}}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	return &fixture{
		conn:        conn,
		factoryCode: factoryCode,
		articles:    articleRepo,
		orders:      orderSvc,
		articleSvc:  articleSvc,
	}
}

func (fx *fixture) newArticle(t *testing.T, orderNumber string) *types.Article {
	t.Helper()

	_, articles, err := fx.orders.Create(context.Background(), CreateOrderInput{
		OrderNumber:    orderNumber,
		FactoryCode:    fx.factoryCode,
		TotalQuantity:  100,
		ArticleNumbers: []string{orderNumber + "-A1"},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return articles[0]
}

func TestArticleLifecycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	art := fx.newArticle(t, "ORD-1")

	if _, err := fx.articleSvc.ReceiveAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("complete: %v", err)
	}
	updated, err := fx.articleSvc.Transfer(ctx, art.ID, types.FloorKnitting, 100)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if updated.CurrentFloor != types.FloorChecking {
		t.Fatalf("current floor = %s, want checking", updated.CurrentFloor)
	}
	if updated.Status != types.StatusInProgress {
		t.Fatalf("status = %s, want inProgress", updated.Status)
	}

	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorChecking, 100); err != nil {
		t.Fatalf("complete at checking: %v", err)
	}
	if _, err := fx.articleSvc.UpdateQualityCategories(ctx, art.ID, types.FloorChecking, types.Grades{M1: 100}); err != nil {
		t.Fatalf("quality: %v", err)
	}
	updated, err = fx.articleSvc.Transfer(ctx, art.ID, types.FloorChecking, 100)
	if err != nil {
		t.Fatalf("transfer to dispatch: %v", err)
	}
	if updated.Status != types.StatusCompleted {
		t.Fatalf("status = %s, want completed", updated.Status)
	}
	if updated.Progress != 100 {
		t.Fatalf("progress = %v, want 100", updated.Progress)
	}

	confirmed, err := fx.articleSvc.ConfirmFinalQuality(ctx, art.ID)
	if err != nil {
		t.Fatalf("confirm final quality: %v", err)
	}
	if confirmed.Status != types.StatusQualityConfirmed {
		t.Fatalf("status = %s, want qualityConfirmed", confirmed.Status)
	}

	events, err := fx.articleSvc.History(ctx, art.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(events) != 7 {
		t.Fatalf("expected 7 audit events, got %d", len(events))
	}
}

func TestRepairLoopback(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	art := fx.newArticle(t, "ORD-2")

	if _, err := fx.articleSvc.ReceiveAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := fx.articleSvc.Transfer(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorChecking, 100); err != nil {
		t.Fatalf("complete at checking: %v", err)
	}
	if _, err := fx.articleSvc.UpdateQualityCategories(ctx, art.ID, types.FloorChecking, types.Grades{M1: 90, M2: 10}); err != nil {
		t.Fatalf("quality: %v", err)
	}

	updated, err := fx.articleSvc.TransferForRepair(ctx, art.ID, types.FloorChecking, 10, nil)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	checking := updated.FloorLedger.Bucket(types.FloorChecking)
	if checking.M2Transferred != 10 {
		t.Fatalf("m2Transferred = %d, want 10", checking.M2Transferred)
	}
	if got := updated.FloorLedger.Bucket(types.FloorKnitting).Received; got != 110 {
		t.Fatalf("knitting received = %d, want 110", got)
	}

	// Repair never moves forward.
	dispatch := types.FloorDispatch
	if _, err := fx.articleSvc.TransferForRepair(ctx, art.ID, types.FloorChecking, 1, &dispatch); !types.IsCode(err, types.CodeInvalidTargetFloor) {
		t.Fatalf("expected invalid_target_floor, got %v", err)
	}
}

func TestMutationsBlockedWhileCorrupted(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	art := fx.newArticle(t, "ORD-3")

	if _, err := fx.articleSvc.ReceiveAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Corrupt the stored ledger directly, as a buggy writer would have.
	loaded, err := fx.articles.GetByIDs(ctx, nil, []uuid.UUID{art.ID})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ledger := loaded[0].FloorLedger.Clone()
	b := ledger.Bucket(types.FloorKnitting)
	b.Transferred = 150
	ledger.SetBucket(types.FloorKnitting, b)
	ok, err := fx.articles.UpdateLedgerCAS(ctx, nil, art.ID, loaded[0].Version, ledger, types.FloorKnitting, 0, types.StatusInProgress)
	if err != nil || !ok {
		t.Fatalf("corrupting write failed: ok=%v err=%v", ok, err)
	}

	if _, err := fx.articleSvc.Transfer(ctx, art.ID, types.FloorKnitting, 10); !types.IsCode(err, types.CodeCorruptionDetected) {
		t.Fatalf("expected corruption_detected, got %v", err)
	}

	res, err := fx.articleSvc.FixDataCorruption(ctx, art.ID)
	if err != nil {
		t.Fatalf("fix corruption: %v", err)
	}
	if !res.Fixed || len(res.Fixes) == 0 {
		t.Fatalf("expected fixes, got %+v", res)
	}

	// Healing is idempotent.
	res, err = fx.articleSvc.FixDataCorruption(ctx, art.ID)
	if err != nil {
		t.Fatalf("second fix: %v", err)
	}
	if res.Fixed {
		t.Fatalf("second heal should find nothing, got %+v", res.Fixes)
	}

	if _, err := fx.articleSvc.Transfer(ctx, art.ID, types.FloorKnitting, 10); err == nil {
		t.Fatal("expected transfer bound error after heal consumed the stock")
	}
}

func TestConfirmFinalQualityRequiresCompletion(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	art := fx.newArticle(t, "ORD-4")

	if _, err := fx.articleSvc.ReceiveAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := fx.articleSvc.ConfirmFinalQuality(ctx, art.ID); !types.IsCode(err, types.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetReportsViolations(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	art := fx.newArticle(t, "ORD-5")

	view, err := fx.articleSvc.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Violations) != 0 {
		t.Fatalf("fresh article should have no violations: %v", view.Violations)
	}

	if _, err := fx.articleSvc.Get(ctx, uuid.New()); !types.IsCode(err, types.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestConcurrentTransfersDoNotLoseUpdates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	art := fx.newArticle(t, "ORD-6")

	if _, err := fx.articleSvc.ReceiveAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := fx.articleSvc.CompleteAtFloor(ctx, art.ID, types.FloorKnitting, 100); err != nil {
		t.Fatalf("complete: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := fx.articleSvc.Transfer(gctx, art.ID, types.FloorKnitting, 10)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent transfer: %v", err)
	}

	view, err := fx.articleSvc.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Violations) != 0 {
		t.Fatalf("violations after concurrent transfers: %v", view.Violations)
	}
	knitting := view.Article.FloorLedger.Bucket(types.FloorKnitting)
	checking := view.Article.FloorLedger.Bucket(types.FloorChecking)
	if knitting.Transferred != 80 || checking.Received != 80 {
		t.Fatalf("lost update: knitting=%+v checking=%+v", knitting, checking)
	}
	// Receive, complete and every transfer each bumped the version once.
	if view.Article.Version != 11 {
		t.Fatalf("version = %d, want 11", view.Article.Version)
	}
}

func TestCASRetryBudgetSurfacesConflict(t *testing.T) {
	fx := newFixture(t)
	svc := fx.articleSvc.(*articleService)

	attempts := 0
	err := svc.withCASRetry(context.Background(), "article.test", func(dbc dbctx.Context) (bool, error) {
		attempts++
		// Simulate always losing the version race to another writer.
		return false, nil
	})
	if !types.IsCode(err, types.CodeConflict) {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
	if attempts != casRetries+1 {
		t.Fatalf("attempts = %d, want %d", attempts, casRetries+1)
	}
}
