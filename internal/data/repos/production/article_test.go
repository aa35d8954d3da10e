package production

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/knitworks/floortrack-backend/internal/data/repos/testutil"
	types "github.com/knitworks/floortrack-backend/internal/domain/production"
)

func seedArticle(t *testing.T, repo ArticleRepo, orderID uuid.UUID, number string) *types.Article {
	t.Helper()

	ledger := types.FloorLedger{}
	ledger.SetBucket(types.FloorKnitting, types.FloorBucket{Received: 500})

	created, err := repo.Create(context.Background(), nil, []*types.Article{{
		ID:            uuid.New(),
		OrderID:       orderID,
		ArticleNumber: number,
		CurrentFloor:  types.FloorKnitting,
		FloorLedger:   ledger,
		Status:        types.StatusPending,
		Version:       1,
	}})
	if err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return created[0]
}

func TestArticleRepoRoundTrip(t *testing.T) {
	conn := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	repo := NewArticleRepo(conn, log)

	orderID := uuid.New()
	art := seedArticle(t, repo, orderID, "ART-1001")

	got, err := repo.GetByIDs(context.Background(), nil, []uuid.UUID{art.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	if got[0].ArticleNumber != "ART-1001" {
		t.Fatalf("article number = %q", got[0].ArticleNumber)
	}
	if got[0].FloorLedger.Bucket(types.FloorKnitting).Received != 500 {
		t.Fatalf("ledger did not survive round trip: %+v", got[0].FloorLedger)
	}

	byOrder, err := repo.GetByOrderIDs(context.Background(), nil, []uuid.UUID{orderID})
	if err != nil {
		t.Fatalf("GetByOrderIDs: %v", err)
	}
	if len(byOrder) != 1 {
		t.Fatalf("expected 1 article for order, got %d", len(byOrder))
	}
}

func TestArticleRepoUpdateLedgerCAS(t *testing.T) {
	conn := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	repo := NewArticleRepo(conn, log)

	art := seedArticle(t, repo, uuid.New(), "ART-2002")

	ledger := art.FloorLedger.Clone()
	bucket := ledger.Bucket(types.FloorKnitting)
	bucket.Completed = 200
	ledger.SetBucket(types.FloorKnitting, bucket)

	ok, err := repo.UpdateLedgerCAS(context.Background(), nil, art.ID, art.Version, ledger, types.FloorKnitting, 0, types.StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateLedgerCAS: %v", err)
	}
	if !ok {
		t.Fatal("expected CAS write to succeed on matching version")
	}

	// Stale version must not overwrite.
	ok, err = repo.UpdateLedgerCAS(context.Background(), nil, art.ID, art.Version, ledger, types.FloorKnitting, 0, types.StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateLedgerCAS stale: %v", err)
	}
	if ok {
		t.Fatal("expected CAS write with stale version to be rejected")
	}

	got, err := repo.GetByIDs(context.Background(), nil, []uuid.UUID{art.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if got[0].Version != art.Version+1 {
		t.Fatalf("version = %d, want %d", got[0].Version, art.Version+1)
	}
	if got[0].FloorLedger.Bucket(types.FloorKnitting).Completed != 200 {
		t.Fatalf("ledger not updated: %+v", got[0].FloorLedger)
	}
	if got[0].Status != types.StatusInProgress {
		t.Fatalf("status = %q", got[0].Status)
	}
}

func TestFloorEventRepoAppendAndAggregate(t *testing.T) {
	conn := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	repo := NewFloorEventRepo(conn, log)

	articleID := uuid.New()
	_, err := repo.Append(context.Background(), nil, []*types.FloorEvent{
		{ID: uuid.New(), ArticleID: articleID, Kind: types.EventTransfer, Floor: types.FloorKnitting, FromFloor: types.FloorKnitting, ToFloor: types.FloorLinking, Quantity: 200},
		{ID: uuid.New(), ArticleID: articleID, Kind: types.EventTransfer, Floor: types.FloorKnitting, FromFloor: types.FloorKnitting, ToFloor: types.FloorLinking, Quantity: 50},
		{ID: uuid.New(), ArticleID: articleID, Kind: types.EventComplete, Floor: types.FloorLinking, Quantity: 150},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := repo.ListByArticleID(context.Background(), nil, articleID, 0)
	if err != nil {
		t.Fatalf("ListByArticleID: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	rows, err := repo.AggregateActivity(context.Background(), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("AggregateActivity: %v", err)
	}
	byFloorKind := make(map[types.Floor]map[types.EventKind]FloorActivity)
	for _, r := range rows {
		if byFloorKind[r.Floor] == nil {
			byFloorKind[r.Floor] = make(map[types.EventKind]FloorActivity)
		}
		byFloorKind[r.Floor][r.Kind] = r
	}
	transfer := byFloorKind[types.FloorKnitting][types.EventTransfer]
	if transfer.Quantity != 250 || transfer.Events != 2 || transfer.Articles != 1 {
		t.Fatalf("knitting transfer aggregate = %+v", transfer)
	}
	complete := byFloorKind[types.FloorLinking][types.EventComplete]
	if complete.Quantity != 150 || complete.Events != 1 {
		t.Fatalf("linking complete aggregate = %+v", complete)
	}

	knitting := types.FloorKnitting
	rows, err = repo.AggregateActivity(context.Background(), nil, &knitting, nil, nil)
	if err != nil {
		t.Fatalf("AggregateActivity with floor filter: %v", err)
	}
	for _, r := range rows {
		if r.Floor != types.FloorKnitting {
			t.Fatalf("floor filter leaked row: %+v", r)
		}
	}

	// A window entirely in the past matches nothing.
	past := time.Now().Add(-time.Hour)
	rows, err = repo.AggregateActivity(context.Background(), nil, nil, nil, &past)
	if err != nil {
		t.Fatalf("AggregateActivity with window: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty aggregate before cutoff, got %+v", rows)
	}
}
