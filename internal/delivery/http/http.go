package http

import (
	"net/http"
	"signals-service/config"
	"signals-service/internal/dto"
	"signals-service/internal/service"
	"signals-service/pkg/logger"
	"signals-service/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HttpAPIHandler struct {
	cfg       *config.Config
	log       *logger.Logger
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
	gatherer  prometheus.Gatherer
}

func NewHttpAPIHandler(cfg *config.Config, log *logger.Logger, echo *echo.Echo, validator *goValidator.Validate, service *service.Service, gatherer prometheus.Gatherer) *HttpAPIHandler {
	return &HttpAPIHandler{
		cfg:       cfg,
		log:       log,
		echo:      echo,
		validator: validator,
		service:   service,
		gatherer:  gatherer,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.GET("/", h.root)
	h.echo.GET("/health", h.health)
	h.echo.GET("/watchlist", h.watchlist)
	h.echo.GET("/stats", h.stats)
	h.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	h.SetupSignals(h.echo.Group("/signals"))

	base := h.echo.Group("/api")
	h.SetupJobs(base)
}

func (h *HttpAPIHandler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.RootResponse{
		Name:    h.cfg.App.Name,
		Version: h.cfg.App.Version,
		Status:  "running",
		Endpoints: map[string]string{
			"health":   "GET /health",
			"ingest":   "POST /signals/ingest",
			"pending":  "GET /signals/pending",
			"approved": "GET /signals/approved",
			"stats":    "GET /stats",
		},
	})
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{
		Status:             "ok",
		Timestamp:          utils.ISOTimestamp(utils.TimeNowUTC()),
		Version:            h.cfg.App.Version,
		TelegramConfigured: h.service.SignalService.TelegramConfigured(),
	})
}

func (h *HttpAPIHandler) watchlist(c echo.Context) error {
	assets := h.service.SignalService.Watchlist()
	return c.JSON(http.StatusOK, dto.WatchlistResponse{
		ApprovedAssets: assets,
		Count:          len(assets),
	})
}

func (h *HttpAPIHandler) stats(c echo.Context) error {
	counts, err := h.service.SignalService.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Failed to count signals"))
	}
	return c.JSON(http.StatusOK, dto.StatsResponse{
		TotalSignals:       counts.Total,
		Approved:           counts.Approved,
		Pending:            counts.Pending,
		Rejected:           counts.Rejected,
		TelegramConfigured: h.service.SignalService.TelegramConfigured(),
	})
}
