package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
	"github.com/knitworks/floortrack-backend/internal/services"
)

type StatsHandler struct {
	log      *logger.Logger
	statsSvc services.StatsService
}

func NewStatsHandler(log *logger.Logger, statsSvc services.StatsService) *StatsHandler {
	return &StatsHandler{
		log:      log.With("handler", "StatsHandler"),
		statsSvc: statsSvc,
	}
}

// FloorStatistics accepts optional floor, from and to query params. Dates are
// RFC3339 timestamps or plain YYYY-MM-DD days.
func (h *StatsHandler) FloorStatistics(c *gin.Context) {
	var floor *types.Floor
	if raw := c.Query("floor"); raw != "" {
		f, ok := parseFloorParam(c, raw)
		if !ok {
			return
		}
		floor = &f
	}
	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}

	stats, err := h.statsSvc.FloorStatistics(c.Request.Context(), floor, from, to)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, stats)
}

func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	RespondError(c, http.StatusBadRequest, string(types.CodeValidation), fmt.Errorf("invalid %s date", name))
	return nil, false
}
