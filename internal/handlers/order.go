package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
	"github.com/knitworks/floortrack-backend/internal/services"
)

type OrderHandler struct {
	log        *logger.Logger
	orderSvc   services.OrderService
	articleSvc services.ArticleService
}

func NewOrderHandler(log *logger.Logger, orderSvc services.OrderService, articleSvc services.ArticleService) *OrderHandler {
	return &OrderHandler{
		log:        log.With("handler", "OrderHandler"),
		orderSvc:   orderSvc,
		articleSvc: articleSvc,
	}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(types.CodeValidation), err)
		return
	}
	order, articles, err := h.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "articles": articles})
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := pathUUID(c, "orderID")
	if !ok {
		return
	}
	order, err := h.orderSvc.Get(c.Request.Context(), orderID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderSvc.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"orders": orders})
}

func (h *OrderHandler) Articles(c *gin.Context) {
	orderID, ok := pathUUID(c, "orderID")
	if !ok {
		return
	}
	views, err := h.articleSvc.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"articles": views})
}

func (h *OrderHandler) ForwardToWarehouse(c *gin.Context) {
	orderID, ok := pathUUID(c, "orderID")
	if !ok {
		return
	}
	report, err := h.orderSvc.ForwardToWarehouse(c.Request.Context(), orderID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, report)
}

func (h *OrderHandler) FixCompletionStatus(c *gin.Context) {
	orderID, ok := pathUUID(c, "orderID")
	if !ok {
		return
	}
	report, err := h.orderSvc.FixCompletionStatus(c.Request.Context(), orderID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, report)
}

func (h *OrderHandler) ScanForCorruption(c *gin.Context) {
	report, err := h.orderSvc.ScanForCorruption(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, report)
}
