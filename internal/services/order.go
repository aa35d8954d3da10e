package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	prodrepos "github.com/knitworks/floortrack-backend/internal/data/repos/production"
	"github.com/knitworks/floortrack-backend/internal/data/txn"
	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/dbctx"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
	"github.com/knitworks/floortrack-backend/internal/realtime"
	"github.com/knitworks/floortrack-backend/internal/realtime/bus"
)

// scanConcurrency bounds parallel article work in order-wide sweeps.
const scanConcurrency = 8

type CreateOrderInput struct {
	OrderNumber    string   `json:"orderNumber"`
	FactoryCode    string   `json:"factoryCode"`
	TotalQuantity  int      `json:"totalQuantity"`
	ArticleNumbers []string `json:"articleNumbers"`
}

// ForwardReport summarizes one warehouse-forward sweep over an order.
type ForwardReport struct {
	OrderID   uuid.UUID            `json:"orderId"`
	Forwarded map[uuid.UUID]int    `json:"forwarded"`
	Skipped   map[uuid.UUID]string `json:"skipped,omitempty"`
	Articles  []*types.Article     `json:"-"`
}

// CorruptionReport lists every scanned article that holds invariant
// violations, keyed by article ID.
type CorruptionReport struct {
	Scanned   int                    `json:"scanned"`
	Corrupted map[uuid.UUID][]string `json:"corrupted,omitempty"`
}

// FixReport summarizes a heal sweep over an order's articles.
type FixReport struct {
	OrderID uuid.UUID              `json:"orderId"`
	Fixed   map[uuid.UUID][]string `json:"fixed,omitempty"`
	Failed  map[uuid.UUID]string   `json:"failed,omitempty"`
}

type OrderService interface {
	Create(ctx context.Context, input CreateOrderInput) (*types.Order, []*types.Article, error)
	Get(ctx context.Context, orderID uuid.UUID) (*types.Order, error)
	List(ctx context.Context) ([]*types.Order, error)

	ForwardToWarehouse(ctx context.Context, orderID uuid.UUID) (*ForwardReport, error)
	FixCompletionStatus(ctx context.Context, orderID uuid.UUID) (*FixReport, error)
	ScanForCorruption(ctx context.Context) (*CorruptionReport, error)
}

type orderService struct {
	log         *logger.Logger
	runner      txn.TxRunner
	orderRepo   prodrepos.OrderRepo
	productRepo prodrepos.ProductRepo
	articleRepo prodrepos.ArticleRepo
	articleSvc  ArticleService
	sseBus      bus.Bus
}

func NewOrderService(
	log *logger.Logger,
	runner txn.TxRunner,
	orderRepo prodrepos.OrderRepo,
	productRepo prodrepos.ProductRepo,
	articleRepo prodrepos.ArticleRepo,
	articleSvc ArticleService,
	sseBus bus.Bus,
) OrderService {
	return &orderService{
		log:         log.With("service", "OrderService"),
		runner:      runner,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		articleRepo: articleRepo,
		articleSvc:  articleSvc,
		sseBus:      sseBus,
	}
}

func (s *orderService) Create(ctx context.Context, input CreateOrderInput) (*types.Order, []*types.Article, error) {
	const op = "order.create"

	if input.OrderNumber == "" {
		return nil, nil, types.NewError(types.CodeValidation, op, "order number is required", nil)
	}
	if input.FactoryCode == "" {
		return nil, nil, types.NewError(types.CodeValidation, op, "factory code is required", nil)
	}
	if len(input.ArticleNumbers) == 0 {
		return nil, nil, types.NewError(types.CodeValidation, op, "at least one article number is required", nil)
	}

	var (
		order    *types.Order
		articles []*types.Article
	)
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		products, err := s.productRepo.GetByFactoryCodes(dbc.Ctx, dbc.Tx, []string{input.FactoryCode})
		if err != nil {
			return txn.MapError(op, err)
		}
		if len(products) == 0 {
			return types.Errorf(types.CodeConfiguration, op, "no product for factory code %s", input.FactoryCode)
		}
		flow, err := types.ResolveFlow(products[0])
		if err != nil {
			return err
		}

		created, err := s.orderRepo.Create(dbc.Ctx, dbc.Tx, []*types.Order{{
			ID:            uuid.New(),
			OrderNumber:   input.OrderNumber,
			FactoryCode:   input.FactoryCode,
			TotalQuantity: input.TotalQuantity,
			Status:        types.OrderStatusOpen,
		}})
		if err != nil {
			return txn.MapError(op, err)
		}
		order = created[0]

		rows := make([]*types.Article, 0, len(input.ArticleNumbers))
		for _, num := range input.ArticleNumbers {
			rows = append(rows, &types.Article{
				ID:            uuid.New(),
				OrderID:       order.ID,
				ArticleNumber: num,
				CurrentFloor:  flow.First(),
				FloorLedger:   types.FloorLedger{},
				Status:        types.StatusPending,
				Version:       1,
			})
		}
		articles, err = s.articleRepo.Create(dbc.Ctx, dbc.Tx, rows)
		if err != nil {
			return txn.MapError(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, articles, nil
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*types.Order, error) {
	const op = "order.get"

	orders, err := s.orderRepo.GetByIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	if len(orders) == 0 {
		return nil, types.NewError(types.CodeNotFound, op, "order not found", nil)
	}
	return orders[0], nil
}

func (s *orderService) List(ctx context.Context) ([]*types.Order, error) {
	orders, err := s.orderRepo.List(ctx, nil)
	if err != nil {
		return nil, txn.MapError("order.list", err)
	}
	return orders, nil
}

// ForwardToWarehouse pushes each article's forwardable quantity from the
// floor preceding the warehouse into the warehouse. Articles with nothing to
// forward are skipped, not failed.
func (s *orderService) ForwardToWarehouse(ctx context.Context, orderID uuid.UUID) (*ForwardReport, error) {
	const op = "order.forward_to_warehouse"

	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	articles, err := s.articleRepo.GetByOrderIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return nil, txn.MapError(op, err)
	}

	flow, err := s.flowForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !flow.Contains(types.FloorWarehouse) {
		return nil, types.NewError(types.CodeInvalidTargetFloor, op, "product flow has no warehouse floor", nil)
	}
	prev, err := flow.Prev(types.FloorWarehouse)
	if err != nil {
		return nil, types.NewError(types.CodeInvalidTargetFloor, op, "warehouse is the first floor of the flow", nil)
	}

	report := &ForwardReport{
		OrderID:   orderID,
		Forwarded: make(map[uuid.UUID]int),
		Skipped:   make(map[uuid.UUID]string),
	}
	for _, a := range articles {
		view, err := s.articleSvc.Get(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		qty := view.Article.FloorLedger.Bucket(prev).Forwardable(prev)
		if qty <= 0 {
			report.Skipped[a.ID] = "nothing forwardable"
			continue
		}
		updated, err := s.articleSvc.Transfer(ctx, a.ID, prev, qty)
		if err != nil {
			return nil, err
		}
		report.Forwarded[a.ID] = qty
		report.Articles = append(report.Articles, updated)
	}

	s.refreshOrderStatus(ctx, orderID)
	s.publishOrder(ctx, orderID, realtime.SSEEventOrderForwarded, report)
	return report, nil
}

// FixCompletionStatus heals every article of the order concurrently and
// recomputes the order status from the healed articles.
func (s *orderService) FixCompletionStatus(ctx context.Context, orderID uuid.UUID) (*FixReport, error) {
	const op = "order.fix_completion_status"

	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	articles, err := s.articleRepo.GetByOrderIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return nil, txn.MapError(op, err)
	}

	report := &FixReport{
		OrderID: orderID,
		Fixed:   make(map[uuid.UUID][]string),
		Failed:  make(map[uuid.UUID]string),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, a := range articles {
		articleID := a.ID
		g.Go(func() error {
			res, err := s.articleSvc.FixDataCorruption(gctx, articleID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[articleID] = err.Error()
				return nil
			}
			if res.Fixed {
				report.Fixed[articleID] = res.Fixes
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.refreshOrderStatus(ctx, orderID)
	return report, nil
}

// ScanForCorruption inspects every article's ledger without mutating
// anything.
func (s *orderService) ScanForCorruption(ctx context.Context) (*CorruptionReport, error) {
	const op = "order.scan_for_corruption"

	ids, err := s.articleRepo.ListIDs(ctx, nil)
	if err != nil {
		return nil, txn.MapError(op, err)
	}

	report := &CorruptionReport{Corrupted: make(map[uuid.UUID][]string)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, id := range ids {
		articleID := id
		g.Go(func() error {
			view, err := s.articleSvc.Get(gctx, articleID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			report.Scanned++
			if len(view.Violations) > 0 {
				report.Corrupted[articleID] = view.Violations
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// refreshOrderStatus derives the order status from its articles. Best-effort:
// a failure here is logged, not returned, because the triggering operation
// already committed.
func (s *orderService) refreshOrderStatus(ctx context.Context, orderID uuid.UUID) {
	articles, err := s.articleRepo.GetByOrderIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		s.log.Warn("failed to load articles for order status refresh", "orderID", orderID, "error", err)
		return
	}

	allDone := len(articles) > 0
	anyStarted := false
	for _, a := range articles {
		switch a.Status {
		case types.StatusCompleted, types.StatusQualityConfirmed:
			anyStarted = true
		case types.StatusInProgress:
			anyStarted = true
			allDone = false
		default:
			allDone = false
		}
	}

	status := types.OrderStatusOpen
	switch {
	case allDone:
		status = types.OrderStatusCompleted
	case anyStarted:
		status = types.OrderStatusInProgress
	}

	if err := s.orderRepo.UpdateStatus(ctx, nil, orderID, status); err != nil {
		s.log.Warn("failed to update order status", "orderID", orderID, "error", err)
	}
}

func (s *orderService) flowForOrder(ctx context.Context, orderID uuid.UUID) (types.Flow, error) {
	const op = "order.resolve_flow"

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return types.Flow{}, err
	}
	products, err := s.productRepo.GetByFactoryCodes(ctx, nil, []string{order.FactoryCode})
	if err != nil {
		return types.Flow{}, txn.MapError(op, err)
	}
	if len(products) == 0 {
		return types.Flow{}, types.Errorf(types.CodeConfiguration, op, "no product for factory code %s", order.FactoryCode)
	}
	return types.ResolveFlow(products[0])
}

func (s *orderService) publishOrder(ctx context.Context, orderID uuid.UUID, event realtime.SSEEvent, data any) {
	if s.sseBus == nil {
		return
	}
	msg := realtime.SSEMessage{Channel: realtime.OrderChannel(orderID), Event: event, Data: data}
	if err := s.sseBus.Publish(ctx, msg); err != nil {
		s.log.Warn("failed to publish SSE message", "event", event, "orderID", orderID, "error", err)
	}
}
