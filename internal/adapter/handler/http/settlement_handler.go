package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/services"
)

type SettlementHandler struct {
	bikeService *services.BikeService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type ResolveSettlementRequest struct {
	Action domain.ResolveAction `json:"action" binding:"required" example:"link"`
}

type SettlementListResponse struct {
	Settlements []*domain.Settlement `json:"settlements"`
	Count       int                  `json:"count"`
}

func NewSettlementHandler(
	bikeService *services.BikeService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *SettlementHandler {
	return &SettlementHandler{
		bikeService: bikeService,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Список расчётов
// @Tags settlements
// @Security BearerAuth
// @Produce json
// @Param status query string false "Статус" Enums(pending, completed, failed, needs_reconciliation, resolved, discarded)
// @Success 200 {object} SettlementListResponse "Расчёты"
// @Failure 400 {object} errorResponse "Неверный статус"
// @Router /settlements [get]
func (h *SettlementHandler) ListSettlements(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "ListSettlements")
	if !ok {
		return
	}

	settlements, err := h.bikeService.ListSettlements(c.Request.Context(), payload, domain.SettlementStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SettlementListResponse{
		Settlements: settlements,
		Count:       len(settlements),
	})
}

// @Summary Закрыть расчёт, требующий сверки
// @Description link завершает продажу с уже созданным трейд-ином, discard удаляет трейд-ин
// @Tags settlements
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID расчёта"
// @Param request body ResolveSettlementRequest true "Действие"
// @Success 200 {object} domain.Settlement "Расчёт закрыт"
// @Failure 400 {object} errorResponse "Неверное действие"
// @Failure 404 {object} errorResponse "Расчёт не найден"
// @Failure 409 {object} errorResponse "Расчёт не требует сверки"
// @Router /settlements/{id}/resolve [post]
func (h *SettlementHandler) ResolveSettlement(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "ResolveSettlement")
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.logger.Error("Invalid settlement ID format", map[string]interface{}{
			"settlement_id": c.Param("id"),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid settlement ID")
		return
	}

	var req ResolveSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	settlement, err := h.bikeService.ResolveSettlement(c.Request.Context(), payload, id, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settlement)
}
