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

const idempotencyKeyHeader = "Idempotency-Key"

type BikeHandler struct {
	bikeService *services.BikeService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type NextRefResponse struct {
	RefNumber string `json:"refNumber" example:"0042"`
}

type BikeListResponse struct {
	Bikes []*domain.InventoryBike `json:"bikes"`
	Count int                     `json:"count"`
}

type ChangeStatusRequest struct {
	Status domain.BikeStatus `json:"status" binding:"required" example:"Reserved"`
}

func NewBikeHandler(
	bikeService *services.BikeService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *BikeHandler {
	return &BikeHandler{
		bikeService: bikeService,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Создать байк
// @Description Добавление байка в инвентарь. Номер присваивается автоматически, если не передан
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body domain.BikeInput true "Данные байка"
// @Success 201 {object} domain.InventoryBike "Байк создан"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 409 {object} errorResponse "Номер уже занят"
// @Router /bikes [post]
func (h *BikeHandler) CreateBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "CreateBike")
	if !ok {
		return
	}

	var req domain.BikeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.bikeService.CreateBike(c.Request.Context(), payload, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bike)
}

// @Summary Список байков
// @Description Инвентарь с фильтрами, по номеру по убыванию
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param status query string false "Статус" Enums(Available, Reserved, Sold, Unavailable)
// @Param type query string false "Тип" Enums(Mountain, Road, Ebike, Gravel, City, Kids)
// @Param search query string false "Поиск по номеру, марке/модели, серийному номеру"
// @Param includeDeleted query bool false "Включая удалённые"
// @Success 200 {object} BikeListResponse "Список байков"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /bikes [get]
func (h *BikeHandler) ListBikes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "ListBikes")
	if !ok {
		return
	}

	includeDeleted, _ := strconv.ParseBool(c.Query("includeDeleted"))
	filter := domain.BikeFilter{
		Status:         domain.BikeStatus(c.Query("status")),
		Type:           domain.BikeType(c.Query("type")),
		Search:         c.Query("search"),
		IncludeDeleted: includeDeleted,
	}

	bikes, err := h.bikeService.ListBikes(c.Request.Context(), payload, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BikeListResponse{
		Bikes: bikes,
		Count: len(bikes),
	})
}

// @Summary Следующий номер
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} NextRefResponse "Следующий свободный номер"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /bikes/next-ref [get]
func (h *BikeHandler) NextRefNumber(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "NextRefNumber")
	if !ok {
		return
	}

	ref, err := h.bikeService.NextRefNumber(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NextRefResponse{RefNumber: ref})
}

// @Summary Получить байк
// @Description Получение байка по ID, включая удалённые
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID байка"
// @Success 200 {object} domain.InventoryBike "Байк найден"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{id} [get]
func (h *BikeHandler) GetBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "GetBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	bike, err := h.bikeService.GetBikeByID(c.Request.Context(), payload, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Обновить байк
// @Description Частичное обновление. Статус Sold через этот метод не ставится
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "ID байка"
// @Param request body domain.BikePatch true "Данные для обновления"
// @Success 200 {object} domain.InventoryBike "Байк обновлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Failure 409 {object} errorResponse "Недопустимый переход статуса"
// @Router /bikes/{id} [put]
func (h *BikeHandler) UpdateBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "UpdateBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req domain.BikePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in update bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.bikeService.UpdateBike(c.Request.Context(), payload, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Сменить статус
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "ID байка"
// @Param request body ChangeStatusRequest true "Новый статус"
// @Success 200 {object} domain.InventoryBike "Статус изменён"
// @Failure 400 {object} errorResponse "Неверный статус"
// @Failure 409 {object} errorResponse "Недопустимый переход статуса"
// @Router /bikes/{id}/status [patch]
func (h *BikeHandler) ChangeStatus(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "ChangeStatus")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.bikeService.ChangeStatus(c.Request.Context(), payload, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Удалить байк
// @Description Байк помечается удалённым, номер не переиспользуется
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID байка"
// @Success 200 {object} messageResponse "Байк удален"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{id} [delete]
func (h *BikeHandler) DeleteBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "DeleteBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.bikeService.DeleteBike(c.Request.Context(), payload, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "Bike deleted successfully"})
}

// @Summary Продать байк
// @Description Продажа за наличные или с трейд-ином. Повтор с тем же Idempotency-Key возвращает сохранённый результат
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "ID байка"
// @Param Idempotency-Key header string false "Ключ идемпотентности"
// @Param request body domain.SaleRequest true "Данные продажи"
// @Success 201 {object} domain.SaleResult "Продажа проведена"
// @Success 200 {object} domain.SaleResult "Повтор уже проведённой продажи"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 409 {object} partialFailureResponse "Байк не в наличии или продажа требует сверки"
// @Failure 503 {object} errorResponse "Хранилище недоступно"
// @Router /bikes/{id}/sell [post]
func (h *BikeHandler) SellBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "SellBike")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req domain.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in sell bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	req.BikeID = id
	req.IdempotencyKey = c.GetHeader(idempotencyKeyHeader)

	result, err := h.bikeService.SellBike(c.Request.Context(), payload, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header(idempotencyKeyHeader, req.IdempotencyKey)
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// @Summary Финансы байка
// @Description Себестоимость, прибыль, маржа, дни на складе и связанные трейд-ины
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID байка"
// @Success 200 {object} services.BikeFinancials "Финансовая сводка"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{id}/financials [get]
func (h *BikeHandler) GetFinancials(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "GetFinancials")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	financials, err := h.bikeService.GetFinancials(c.Request.Context(), payload, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, financials)
}

// @Summary Загрузить фото байка
// @Description Фото сжимается до 1200px JPEG. Старое фото удаляется
// @Tags bikes
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "ID байка"
// @Param image formData file true "Фото (до 10 МБ)"
// @Success 200 {object} domain.InventoryBike "Фото обновлено"
// @Failure 400 {object} errorResponse "Неверный файл"
// @Failure 503 {object} errorResponse "Хранилище фото недоступно"
// @Router /bikes/{id}/image [post]
func (h *BikeHandler) UploadImage(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := authPayload(c, h.logger, "UploadImage")
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	data, err := readImage(c)
	if err != nil {
		h.logger.Error("Failed to read bike image", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		respondError(c, err)
		return
	}

	bike, err := h.bikeService.SetBikeImage(c.Request.Context(), payload, id, data, "image/jpeg")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bike)
}
