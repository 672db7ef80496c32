package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-market-stress/internal/scheduler/dto"
	"golang-market-stress/internal/scheduler/service"
	"golang-market-stress/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketStressHandler handles HTTP requests for market stress results.
type MarketStressHandler struct {
	marketStressService service.MarketStressService
	schedulerService    service.SchedulerService
	logger              *logger.Logger
}

// NewMarketStressHandler creates a new MarketStressHandler.
func NewMarketStressHandler(marketStressService service.MarketStressService, schedulerService service.SchedulerService, logger *logger.Logger) *MarketStressHandler {
	return &MarketStressHandler{
		marketStressService: marketStressService,
		schedulerService:    schedulerService,
		logger:              logger,
	}
}

// RegisterRoutes registers the market stress routes to the Echo group.
func (h *MarketStressHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetLatest)
	g.GET("/runs", h.GetRuns)
	g.POST("/runs", h.TriggerRun)
}

// RegisterNewsRoutes registers the news routes to the Echo group.
func (h *MarketStressHandler) RegisterNewsRoutes(g *echo.Group) {
	g.GET("", h.GetNews)
}

// GetLatest godoc
// @Summary Get the latest market stress result
// @Description Get the market state and sentiment ratios of the most recent run
// @Tags market-stress
// @Produce  json
// @Success 200 {object} dto.MarketStressResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /market-stress [get]
func (h *MarketStressHandler) GetLatest(c echo.Context) error {
	result, err := h.marketStressService.GetLatest(c.Request().Context())
	if errors.Is(err, service.ErrNoResult) {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get market stress result"})
	}
	return c.JSON(http.StatusOK, result)
}

// GetRuns godoc
// @Summary Get run history
// @Description Get the most recent pipeline runs, newest first
// @Tags market-stress
// @Produce  json
// @Param   limit  query    int false    "Maximum number of runs (default 20, max 200)"
// @Success 200 {array} dto.RunHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /market-stress/runs [get]
func (h *MarketStressHandler) GetRuns(c echo.Context) error {
	limit, err := parseLimit(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
	}

	runs, err := h.marketStressService.GetRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get runs"})
	}
	return c.JSON(http.StatusOK, runs)
}

// TriggerRun godoc
// @Summary Trigger a pipeline run
// @Description Enqueue an on-demand market stress run for the execution service
// @Tags market-stress
// @Accept  json
// @Produce  json
// @Param   request  body    dto.TriggerRunRequest   false    "Run reason"
// @Success 202 {object} dto.TriggerRunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /market-stress/runs [post]
func (h *MarketStressHandler) TriggerRun(c echo.Context) error {
	var req dto.TriggerRunRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
		}
	}

	resp, err := h.schedulerService.TriggerRun(c.Request().Context(), req.Reason)
	if err != nil {
		h.logger.Error("Failed to trigger run", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to trigger run"})
	}
	return c.JSON(http.StatusAccepted, resp)
}

// GetNews godoc
// @Summary Get classified news
// @Description Get the most recent persisted news with their sentiment
// @Tags news
// @Produce  json
// @Param   limit  query    int false    "Maximum number of news (default 20, max 200)"
// @Success 200 {array} dto.NewsSentimentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /news [get]
func (h *MarketStressHandler) GetNews(c echo.Context) error {
	limit, err := parseLimit(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
	}

	news, err := h.marketStressService.GetNews(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get news"})
	}
	return c.JSON(http.StatusOK, news)
}

func parseLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("invalid limit")
	}
	return limit, nil
}
