package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	prodrepos "github.com/knitworks/floortrack-backend/internal/data/repos/production"
	"github.com/knitworks/floortrack-backend/internal/data/txn"
	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/ctxutil"
	"github.com/knitworks/floortrack-backend/internal/pkg/dbctx"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
	"github.com/knitworks/floortrack-backend/internal/realtime"
	"github.com/knitworks/floortrack-backend/internal/realtime/bus"
)

// casRetries bounds how often a mutation re-runs after losing a version race
// to a writer in another process.
const casRetries = 3

// ArticleView is the read model for one article: the stored row plus any
// invariant violations the detector found in its ledger.
type ArticleView struct {
	Article    *types.Article `json:"article"`
	Violations []string       `json:"violations,omitempty"`
}

type ArticleService interface {
	Get(ctx context.Context, articleID uuid.UUID) (*ArticleView, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*ArticleView, error)
	History(ctx context.Context, articleID uuid.UUID, limit int) ([]*types.FloorEvent, error)

	ReceiveAtFloor(ctx context.Context, articleID uuid.UUID, floor types.Floor, quantity int) (*types.Article, error)
	CompleteAtFloor(ctx context.Context, articleID uuid.UUID, floor types.Floor, quantity int) (*types.Article, error)
	Transfer(ctx context.Context, articleID uuid.UUID, fromFloor types.Floor, quantity int) (*types.Article, error)
	UpdateQualityCategories(ctx context.Context, articleID uuid.UUID, floor types.Floor, grades types.Grades) (*types.Article, error)
	TransferForRepair(ctx context.Context, articleID uuid.UUID, checkingFloor types.Floor, quantity int, targetFloor *types.Floor) (*types.Article, error)
	ConfirmFinalQuality(ctx context.Context, articleID uuid.UUID) (*types.Article, error)
	FixDataCorruption(ctx context.Context, articleID uuid.UUID) (*types.HealResult, error)
}

type articleService struct {
	log         *logger.Logger
	runner      txn.TxRunner
	articleRepo prodrepos.ArticleRepo
	orderRepo   prodrepos.OrderRepo
	productRepo prodrepos.ProductRepo
	eventRepo   prodrepos.FloorEventRepo
	sseBus      bus.Bus
	locks       *articleLocks
}

func NewArticleService(
	log *logger.Logger,
	runner txn.TxRunner,
	articleRepo prodrepos.ArticleRepo,
	orderRepo prodrepos.OrderRepo,
	productRepo prodrepos.ProductRepo,
	eventRepo prodrepos.FloorEventRepo,
	sseBus bus.Bus,
) ArticleService {
	return &articleService{
		log:         log.With("service", "ArticleService"),
		runner:      runner,
		articleRepo: articleRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		eventRepo:   eventRepo,
		sseBus:      sseBus,
		locks:       newArticleLocks(),
	}
}

func (s *articleService) Get(ctx context.Context, articleID uuid.UUID) (*ArticleView, error) {
	const op = "article.get"

	article, flow, err := s.loadArticle(ctx, nil, articleID, op)
	if err != nil {
		return nil, err
	}
	return &ArticleView{
		Article:    article,
		Violations: types.DetectViolations(article.FloorLedger, flow),
	}, nil
}

func (s *articleService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*ArticleView, error) {
	const op = "article.list_by_order"

	articles, err := s.articleRepo.GetByOrderIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return nil, txn.MapError(op, err)
	}

	views := make([]*ArticleView, 0, len(articles))
	for _, a := range articles {
		flow, err := s.resolveFlow(ctx, nil, a, op)
		if err != nil {
			return nil, err
		}
		views = append(views, &ArticleView{
			Article:    a,
			Violations: types.DetectViolations(a.FloorLedger, flow),
		})
	}
	return views, nil
}

func (s *articleService) History(ctx context.Context, articleID uuid.UUID, limit int) ([]*types.FloorEvent, error) {
	events, err := s.eventRepo.ListByArticleID(ctx, nil, articleID, limit)
	if err != nil {
		return nil, txn.MapError("article.history", err)
	}
	return events, nil
}

// mutation is what one operation wants written: the new ledger, the audit
// event recorded with it, the SSE event broadcast after commit, and an
// optional status override on top of the derived status.
type mutation struct {
	ledger   types.FloorLedger
	event    *types.FloorEvent
	sseEvent realtime.SSEEvent
	status   *types.ArticleStatus
}

func (s *articleService) ReceiveAtFloor(ctx context.Context, articleID uuid.UUID, floor types.Floor, quantity int) (*types.Article, error) {
	const op = "article.receive"

	return s.mutate(ctx, articleID, op, true, func(a *types.Article, flow types.Flow) (mutation, error) {
		ledger, err := types.ApplyReceive(a.FloorLedger, flow, floor, quantity)
		if err != nil {
			return mutation{}, err
		}
		return mutation{
			ledger: ledger,
			event: &types.FloorEvent{
				Kind:     types.EventReceive,
				Floor:    floor,
				Quantity: quantity,
			},
			sseEvent: realtime.SSEEventArticleReceived,
		}, nil
	})
}

func (s *articleService) CompleteAtFloor(ctx context.Context, articleID uuid.UUID, floor types.Floor, quantity int) (*types.Article, error) {
	const op = "article.complete"

	return s.mutate(ctx, articleID, op, true, func(a *types.Article, flow types.Flow) (mutation, error) {
		ledger, err := types.ApplyComplete(a.FloorLedger, flow, floor, quantity)
		if err != nil {
			return mutation{}, err
		}
		return mutation{
			ledger: ledger,
			event: &types.FloorEvent{
				Kind:     types.EventComplete,
				Floor:    floor,
				Quantity: quantity,
			},
			sseEvent: realtime.SSEEventArticleCompleted,
		}, nil
	})
}

func (s *articleService) Transfer(ctx context.Context, articleID uuid.UUID, fromFloor types.Floor, quantity int) (*types.Article, error) {
	const op = "article.transfer"

	return s.mutate(ctx, articleID, op, true, func(a *types.Article, flow types.Flow) (mutation, error) {
		res, err := types.ApplyTransfer(a.FloorLedger, flow, fromFloor, quantity)
		if err != nil {
			return mutation{}, err
		}
		return mutation{
			ledger: res.Ledger,
			event: &types.FloorEvent{
				Kind:      types.EventTransfer,
				Floor:     res.From,
				FromFloor: res.From,
				ToFloor:   res.To,
				Quantity:  res.Quantity,
			},
			sseEvent: realtime.SSEEventArticleTransferred,
		}, nil
	})
}

func (s *articleService) UpdateQualityCategories(ctx context.Context, articleID uuid.UUID, floor types.Floor, grades types.Grades) (*types.Article, error) {
	const op = "article.update_quality"

	return s.mutate(ctx, articleID, op, true, func(a *types.Article, flow types.Flow) (mutation, error) {
		ledger, err := types.ApplyQuality(a.FloorLedger, flow, floor, grades)
		if err != nil {
			return mutation{}, err
		}
		meta, _ := json.Marshal(grades)
		return mutation{
			ledger: ledger,
			event: &types.FloorEvent{
				Kind:     types.EventQuality,
				Floor:    floor,
				Quantity: grades.Sum(),
				Meta:     datatypes.JSON(meta),
			},
			sseEvent: realtime.SSEEventArticleQualityUpdated,
		}, nil
	})
}

func (s *articleService) TransferForRepair(ctx context.Context, articleID uuid.UUID, checkingFloor types.Floor, quantity int, targetFloor *types.Floor) (*types.Article, error) {
	const op = "article.repair"

	return s.mutate(ctx, articleID, op, true, func(a *types.Article, flow types.Flow) (mutation, error) {
		res, err := types.ApplyRepair(a.FloorLedger, flow, checkingFloor, quantity, targetFloor)
		if err != nil {
			return mutation{}, err
		}
		return mutation{
			ledger: res.Ledger,
			event: &types.FloorEvent{
				Kind:      types.EventRepair,
				Floor:     res.Checking,
				FromFloor: res.Checking,
				ToFloor:   res.Target,
				Quantity:  res.Quantity,
			},
			sseEvent: realtime.SSEEventArticleRepairDispatched,
		}, nil
	})
}

func (s *articleService) ConfirmFinalQuality(ctx context.Context, articleID uuid.UUID) (*types.Article, error) {
	const op = "article.confirm_final_quality"

	return s.mutate(ctx, articleID, op, true, func(a *types.Article, flow types.Flow) (mutation, error) {
		if types.DeriveStatus(a.FloorLedger, flow) != types.StatusCompleted {
			return mutation{}, types.NewError(types.CodeValidation, op, "article has not completed its flow", nil)
		}
		for _, f := range flow.Floors() {
			if !f.IsInspection() {
				continue
			}
			b := a.FloorLedger.Bucket(f)
			if b.Completed > 0 && b.GradeSum() < b.Completed {
				return mutation{}, types.Errorf(types.CodeValidation, op, "floor %s has ungraded completed quantity", f)
			}
			if b.RepairableM2() > 0 {
				return mutation{}, types.Errorf(types.CodeValidation, op, "floor %s still has M2 quantity awaiting repair", f)
			}
		}

		terminal := flow.Terminal()
		confirmed := types.StatusQualityConfirmed
		return mutation{
			ledger: a.FloorLedger.Clone(),
			event: &types.FloorEvent{
				Kind:     types.EventQuality,
				Floor:    terminal,
				Quantity: a.FloorLedger.Bucket(terminal).Received,
				Remarks:  "final quality confirmed",
			},
			sseEvent: realtime.SSEEventArticleQualityConfirmed,
			status:   &confirmed,
		}, nil
	})
}

func (s *articleService) FixDataCorruption(ctx context.Context, articleID uuid.UUID) (*types.HealResult, error) {
	const op = "article.fix_corruption"

	unlock := s.locks.Lock(articleID)
	defer unlock()

	var (
		result  types.HealResult
		orderID uuid.UUID
	)
	err := s.withCASRetry(ctx, op, func(dbc dbctx.Context) (bool, error) {
		article, flow, err := s.loadArticle(dbc.Ctx, dbc.Tx, articleID, op)
		if err != nil {
			return false, err
		}
		orderID = article.OrderID

		result = types.DetectAndFix(article.FloorLedger, flow)
		if !result.Fixed {
			return true, nil
		}

		ledger := result.Ledger
		currentFloor := currentFloorOf(ledger, flow)
		progress := types.ComputeProgress(ledger, flow)
		status := deriveStatusKeepingConfirmed(article, ledger, flow)

		ok, err := s.articleRepo.UpdateLedgerCAS(dbc.Ctx, dbc.Tx, article.ID, article.Version, ledger, currentFloor, progress, status)
		if err != nil {
			return false, txn.MapError(op, err)
		}
		if !ok {
			return false, nil
		}

		meta, _ := json.Marshal(result.Fixes)
		ev := &types.FloorEvent{
			ArticleID: article.ID,
			Kind:      types.EventHeal,
			Floor:     currentFloor,
			Quantity:  len(result.Fixes),
			Remarks:   "data corruption healed",
			Meta:      datatypes.JSON(meta),
		}
		if actor := ctxutil.GetActorData(dbc.Ctx); actor != nil {
			ev.ActorID = &actor.ActorID
		}
		if _, err := s.eventRepo.Append(dbc.Ctx, dbc.Tx, []*types.FloorEvent{ev}); err != nil {
			return false, txn.MapError(op, err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Fixed {
		s.publish(ctx, articleID, orderID, realtime.SSEEventArticleHealed, result)
	}
	return &result, nil
}

// mutate runs one ledger mutation under the per-article lock, inside a
// transaction, with version CAS retries. Mutations are refused while the
// ledger holds detectable corruption; only the healer bypasses that gate.
func (s *articleService) mutate(
	ctx context.Context,
	articleID uuid.UUID,
	op string,
	gateCorruption bool,
	apply func(a *types.Article, flow types.Flow) (mutation, error),
) (*types.Article, error) {
	unlock := s.locks.Lock(articleID)
	defer unlock()

	var (
		updated  *types.Article
		sseEvent realtime.SSEEvent
		sseData  *types.FloorEvent
	)
	err := s.withCASRetry(ctx, op, func(dbc dbctx.Context) (bool, error) {
		article, flow, err := s.loadArticle(dbc.Ctx, dbc.Tx, articleID, op)
		if err != nil {
			return false, err
		}

		if gateCorruption {
			if violations := types.DetectViolations(article.FloorLedger, flow); len(violations) > 0 {
				return false, types.NewError(types.CodeCorruptionDetected, op, "article ledger has invariant violations; run corruption fix first", nil)
			}
		}

		mut, err := apply(article, flow)
		if err != nil {
			return false, err
		}

		currentFloor := currentFloorOf(mut.ledger, flow)
		progress := types.ComputeProgress(mut.ledger, flow)
		status := deriveStatusKeepingConfirmed(article, mut.ledger, flow)
		if mut.status != nil {
			status = *mut.status
		}

		ok, err := s.articleRepo.UpdateLedgerCAS(dbc.Ctx, dbc.Tx, article.ID, article.Version, mut.ledger, currentFloor, progress, status)
		if err != nil {
			return false, txn.MapError(op, err)
		}
		if !ok {
			return false, nil
		}

		mut.event.ArticleID = article.ID
		if actor := ctxutil.GetActorData(dbc.Ctx); actor != nil {
			mut.event.ActorID = &actor.ActorID
		}
		if _, err := s.eventRepo.Append(dbc.Ctx, dbc.Tx, []*types.FloorEvent{mut.event}); err != nil {
			return false, txn.MapError(op, err)
		}

		article.FloorLedger = mut.ledger
		article.CurrentFloor = currentFloor
		article.Progress = progress
		article.Status = status
		article.Version++
		updated = article
		sseEvent = mut.sseEvent
		sseData = mut.event
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated.ID, updated.OrderID, sseEvent, sseData)
	return updated, nil
}

// withCASRetry runs fn in a fresh transaction until it reports done, a
// non-retryable error occurs, or the retry budget is exhausted. fn returning
// (false, nil) means the version check lost a race and the whole
// read-modify-write must re-run on fresh state.
func (s *articleService) withCASRetry(ctx context.Context, op string, fn func(dbc dbctx.Context) (bool, error)) error {
	for attempt := 0; attempt <= casRetries; attempt++ {
		var done bool
		err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
			var ferr error
			done, ferr = fn(dbc)
			return ferr
		})
		if err != nil {
			if types.IsCode(err, types.CodeRetryable) && attempt < casRetries {
				continue
			}
			return err
		}
		if done {
			return nil
		}
	}
	return types.NewError(types.CodeConflict, op, "article was modified concurrently; retries exhausted", nil)
}

func (s *articleService) loadArticle(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, op string) (*types.Article, types.Flow, error) {
	articles, err := s.articleRepo.GetByIDs(ctx, tx, []uuid.UUID{articleID})
	if err != nil {
		return nil, types.Flow{}, txn.MapError(op, err)
	}
	if len(articles) == 0 {
		return nil, types.Flow{}, types.NewError(types.CodeNotFound, op, "article not found", nil)
	}
	article := articles[0]

	flow, err := s.resolveFlow(ctx, tx, article, op)
	if err != nil {
		return nil, types.Flow{}, err
	}
	return article, flow, nil
}

func (s *articleService) resolveFlow(ctx context.Context, tx *gorm.DB, article *types.Article, op string) (types.Flow, error) {
	orders, err := s.orderRepo.GetByIDs(ctx, tx, []uuid.UUID{article.OrderID})
	if err != nil {
		return types.Flow{}, txn.MapError(op, err)
	}
	if len(orders) == 0 {
		return types.Flow{}, types.NewError(types.CodeConfiguration, op, "order not found for article", nil)
	}

	products, err := s.productRepo.GetByFactoryCodes(ctx, tx, []string{orders[0].FactoryCode})
	if err != nil {
		return types.Flow{}, txn.MapError(op, err)
	}
	if len(products) == 0 {
		return types.Flow{}, types.Errorf(types.CodeConfiguration, op, "no product for factory code %s", orders[0].FactoryCode)
	}

	return types.ResolveFlow(products[0])
}

// publish broadcasts best-effort after commit. A bus failure never fails the
// operation that already committed.
func (s *articleService) publish(ctx context.Context, articleID, orderID uuid.UUID, event realtime.SSEEvent, data any) {
	if s.sseBus == nil || event == "" {
		return
	}
	for _, channel := range []string{realtime.ArticleChannel(articleID), realtime.OrderChannel(orderID)} {
		msg := realtime.SSEMessage{Channel: channel, Event: event, Data: data}
		if err := s.sseBus.Publish(ctx, msg); err != nil {
			s.log.Warn("failed to publish SSE message", "event", event, "channel", channel, "error", err)
		}
	}
}

// currentFloorOf is the deepest flow floor that has received stock.
func currentFloorOf(ledger types.FloorLedger, flow types.Flow) types.Floor {
	current := flow.First()
	for _, f := range flow.Floors() {
		if ledger.Bucket(f).Received > 0 {
			current = f
		}
	}
	return current
}

// deriveStatusKeepingConfirmed never demotes a confirmed article back to
// completed through later mutations.
func deriveStatusKeepingConfirmed(article *types.Article, ledger types.FloorLedger, flow types.Flow) types.ArticleStatus {
	status := types.DeriveStatus(ledger, flow)
	if article.Status == types.StatusQualityConfirmed && status == types.StatusCompleted {
		return types.StatusQualityConfirmed
	}
	return status
}
