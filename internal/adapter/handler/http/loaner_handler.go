package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/services"
)

type LoanerHandler struct {
	loanerService *services.LoanerService
	logger        ports.LoggerPort
	metrics       ports.MetricsPort
}

func NewLoanerHandler(
	loanerService *services.LoanerService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *LoanerHandler {
	return &LoanerHandler{
		loanerService: loanerService,
		logger:        logger,
		metrics:       metrics,
	}
}

// @Summary Создать байк на подмену
// @Tags loaners
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body domain.LoanerBikeInput true "Данные байка"
// @Success 201 {object} domain.LoanerBike "Байк создан"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 409 {object} errorResponse "Номер уже занят"
// @Router /loaners [post]
func (h *LoanerHandler) CreateLoanerBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "CreateLoanerBike")
	if !ok {
		return
	}

	var req domain.LoanerBikeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create loaner bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.loanerService.CreateLoanerBike(c.Request.Context(), payload, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bike)
}

// @Summary Список байков на подмену
// @Description Постраничный список, по номеру по убыванию
// @Tags loaners
// @Security BearerAuth
// @Produce json
// @Param status query string false "Статус" Enums(Available, Prestada, Alquilada)
// @Param search query string false "Поиск по номеру, марке/модели, серийному номеру"
// @Param page query int false "Страница, с 1"
// @Param pageSize query int false "Размер страницы"
// @Success 200 {object} domain.LoanerPage "Страница"
// @Failure 400 {object} errorResponse "Неверный фильтр"
// @Router /loaners [get]
func (h *LoanerHandler) ListLoanerBikes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "ListLoanerBikes")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	filter := domain.LoanerFilter{
		Status:   domain.LoanerStatus(c.Query("status")),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := h.loanerService.ListLoanerBikes(c.Request.Context(), payload, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Следующий номер байка на подмену
// @Tags loaners
// @Security BearerAuth
// @Produce json
// @Success 200 {object} NextRefResponse "Следующий номер"
// @Router /loaners/next-ref [get]
func (h *LoanerHandler) NextRefNumber(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "NextLoanerRefNumber")
	if !ok {
		return
	}

	ref, err := h.loanerService.NextRefNumber(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NextRefResponse{RefNumber: ref})
}

// @Summary Получить байк на подмену
// @Tags loaners
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID байка"
// @Success 200 {object} domain.LoanerBike "Байк найден"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /loaners/{id} [get]
func (h *LoanerHandler) GetLoanerBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "GetLoanerBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	bike, err := h.loanerService.GetLoanerBikeByID(c.Request.Context(), payload, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Обновить байк на подмену
// @Tags loaners
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "ID байка"
// @Param request body domain.LoanerBikePatch true "Данные для обновления"
// @Success 200 {object} domain.LoanerBike "Байк обновлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /loaners/{id} [put]
func (h *LoanerHandler) UpdateLoanerBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "UpdateLoanerBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req domain.LoanerBikePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.loanerService.UpdateLoanerBike(c.Request.Context(), payload, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Выдать байк
// @Description Loan переводит байк в Prestada, Rental в Alquilada. Только из Available
// @Tags loaners
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "ID байка"
// @Param request body domain.LoanDetails true "Данные выдачи"
// @Success 200 {object} domain.LoanerBike "Байк выдан"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 409 {object} errorResponse "Байк уже выдан"
// @Router /loaners/{id}/loan [post]
func (h *LoanerHandler) LoanOrRent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "LoanOrRent")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req domain.LoanDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in loan bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.loanerService.LoanOrRent(c.Request.Context(), payload, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Вернуть байк
// @Description Повторный возврат ничего не меняет
// @Tags loaners
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID байка"
// @Success 200 {object} domain.LoanerBike "Байк возвращён"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /loaners/{id}/return [post]
func (h *LoanerHandler) ReturnLoanerBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "ReturnLoanerBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	bike, err := h.loanerService.ReturnLoanerBike(c.Request.Context(), payload, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Удалить байк на подмену
// @Tags loaners
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID байка"
// @Success 200 {object} messageResponse "Байк удален"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /loaners/{id} [delete]
func (h *LoanerHandler) DeleteLoanerBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "DeleteLoanerBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.loanerService.DeleteLoanerBike(c.Request.Context(), payload, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "Loaner bike deleted successfully"})
}

// @Summary Загрузить фото байка на подмену
// @Tags loaners
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "ID байка"
// @Param image formData file true "Фото (до 10 МБ)"
// @Success 200 {object} domain.LoanerBike "Фото обновлено"
// @Failure 400 {object} errorResponse "Неверный файл"
// @Failure 503 {object} errorResponse "Хранилище фото недоступно"
// @Router /loaners/{id}/image [post]
func (h *LoanerHandler) UploadImage(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "UploadLoanerImage")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	data, err := readImage(c)
	if err != nil {
		h.logger.Error("Failed to read loaner image", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		respondError(c, err)
		return
	}

	bike, err := h.loanerService.SetLoanerImage(c.Request.Context(), payload, id, data, "image/jpeg")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}
