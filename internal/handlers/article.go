package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
	"github.com/knitworks/floortrack-backend/internal/services"
)

type ArticleHandler struct {
	log        *logger.Logger
	articleSvc services.ArticleService
}

func NewArticleHandler(log *logger.Logger, articleSvc services.ArticleService) *ArticleHandler {
	return &ArticleHandler{
		log:        log.With("handler", "ArticleHandler"),
		articleSvc: articleSvc,
	}
}

type quantityRequest struct {
	Floor    string `json:"floor" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type qualityRequest struct {
	Floor string `json:"floor" binding:"required"`
	M1    int    `json:"m1Quantity"`
	M2    int    `json:"m2Quantity"`
	M3    int    `json:"m3Quantity"`
	M4    int    `json:"m4Quantity"`
}

type repairRequest struct {
	Floor       string  `json:"floor" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required"`
	TargetFloor *string `json:"targetFloor"`
}

func (h *ArticleHandler) Get(c *gin.Context) {
	articleID, ok := pathUUID(c, "articleID")
	if !ok {
		return
	}
	view, err := h.articleSvc.Get(c.Request.Context(), articleID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *ArticleHandler) History(c *gin.Context) {
	articleID, ok := pathUUID(c, "articleID")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := h.articleSvc.History(c.Request.Context(), articleID, limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}

func (h *ArticleHandler) Receive(c *gin.Context) {
	h.quantityOp(c, h.articleSvc.ReceiveAtFloor)
}

func (h *ArticleHandler) Complete(c *gin.Context) {
	h.quantityOp(c, h.articleSvc.CompleteAtFloor)
}

func (h *ArticleHandler) Transfer(c *gin.Context) {
	h.quantityOp(c, h.articleSvc.Transfer)
}

// quantityOp handles the shared shape of receive, complete and transfer:
// an article ID in the path, a floor and quantity in the body.
func (h *ArticleHandler) quantityOp(c *gin.Context, op func(ctx context.Context, articleID uuid.UUID, floor types.Floor, quantity int) (*types.Article, error)) {
	articleID, ok := pathUUID(c, "articleID")
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(types.CodeValidation), err)
		return
	}
	floor, ok := parseFloorParam(c, req.Floor)
	if !ok {
		return
	}
	article, err := op(c.Request.Context(), articleID, floor, req.Quantity)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, article)
}

func (h *ArticleHandler) UpdateQuality(c *gin.Context) {
	articleID, ok := pathUUID(c, "articleID")
	if !ok {
		return
	}
	var req qualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(types.CodeValidation), err)
		return
	}
	floor, ok := parseFloorParam(c, req.Floor)
	if !ok {
		return
	}
	article, err := h.articleSvc.UpdateQualityCategories(c.Request.Context(), articleID, floor, types.Grades{
		M1: req.M1, M2: req.M2, M3: req.M3, M4: req.M4,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, article)
}

func (h *ArticleHandler) Repair(c *gin.Context) {
	articleID, ok := pathUUID(c, "articleID")
	if !ok {
		return
	}
	var req repairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(types.CodeValidation), err)
		return
	}
	floor, ok := parseFloorParam(c, req.Floor)
	if !ok {
		return
	}
	var target *types.Floor
	if req.TargetFloor != nil {
		t, ok := parseFloorParam(c, *req.TargetFloor)
		if !ok {
			return
		}
		target = &t
	}
	article, err := h.articleSvc.TransferForRepair(c.Request.Context(), articleID, floor, req.Quantity, target)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, article)
}

func (h *ArticleHandler) ConfirmFinalQuality(c *gin.Context) {
	articleID, ok := pathUUID(c, "articleID")
	if !ok {
		return
	}
	article, err := h.articleSvc.ConfirmFinalQuality(c.Request.Context(), articleID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, article)
}

func (h *ArticleHandler) FixCorruption(c *gin.Context) {
	articleID, ok := pathUUID(c, "articleID")
	if !ok {
		return
	}
	result, err := h.articleSvc.FixDataCorruption(c.Request.Context(), articleID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(types.CodeValidation), fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func parseFloorParam(c *gin.Context, raw string) (types.Floor, bool) {
	floor, ok := types.ParseFloor(raw)
	if !ok {
		RespondError(c, http.StatusBadRequest, string(types.CodeInvalidFloor), fmt.Errorf("unknown floor %q", raw))
		return "", false
	}
	return floor, true
}
