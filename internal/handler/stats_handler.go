package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "focusflow/internal/errors"
	"focusflow/internal/middleware"
	"focusflow/internal/model"
	"focusflow/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) AddDaily(c *gin.Context) {
	var req model.StatsIncrement
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	stats, apiErr := h.statsService.AddDaily(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *StatsHandler) Summary(c *gin.Context) {
	summary, apiErr := h.statsService.Summary(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *StatsHandler) Ranks(c *gin.Context) {
	limit := service.DefaultRankLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(c, apperrors.BadRequest("invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	ranks, apiErr := h.statsService.Ranks(c.Request.Context(), c.Param("period"), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranks": ranks})
}
