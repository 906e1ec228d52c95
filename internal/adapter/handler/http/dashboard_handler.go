package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	exportService    *services.ExportService
	logger           ports.LoggerPort
	metrics          ports.MetricsPort
}

func NewDashboardHandler(
	dashboardService *services.DashboardService,
	exportService *services.ExportService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		exportService:    exportService,
		logger:           logger,
		metrics:          metrics,
	}
}

// @Summary Дашборд
// @Description KPI, распределения, история продаж и счётчики байков на подмену
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Param year query int false "Год помесячной истории, по умолчанию последний год с продажами"
// @Success 200 {object} services.Dashboard "Дашборд"
// @Failure 400 {object} errorResponse "Неверный год"
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "GetDashboard")
	if !ok {
		return
	}

	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			newErrorResponse(c, http.StatusBadRequest, "Invalid year")
			return
		}
		year = parsed
	}

	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context(), payload, year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// @Summary Экспорт инвентаря в CSV
// @Tags export
// @Security BearerAuth
// @Produce text/csv
// @Success 200 {string} string "CSV"
// @Failure 403 {object} errorResponse "Нет права на экспорт"
// @Router /export/bikes.csv [get]
func (h *DashboardHandler) ExportBikes(c *gin.Context) {
	h.export(c, "bikes.csv", h.exportService.WriteBikesCSV)
}

// @Summary Экспорт байков на подмену в CSV
// @Tags export
// @Security BearerAuth
// @Produce text/csv
// @Success 200 {string} string "CSV"
// @Failure 403 {object} errorResponse "Нет права на экспорт"
// @Router /export/loaners.csv [get]
func (h *DashboardHandler) ExportLoaners(c *gin.Context) {
	h.export(c, "loaners.csv", h.exportService.WriteLoanersCSV)
}

// export buffers the CSV so a failure can still answer with a JSON error.
func (h *DashboardHandler) export(c *gin.Context, filename string, write exportFunc) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "Export")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(c.Request.Context(), payload, &buf); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

type exportFunc func(ctx context.Context, auth *domain.TokenPayload, w io.Writer) error
