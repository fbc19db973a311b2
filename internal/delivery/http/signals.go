package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"signals-service/internal/dto"
	"signals-service/internal/model"
	"signals-service/internal/service"
	"signals-service/pkg/logger"
	"signals-service/pkg/middleware"
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	defaultListLimit = 50
	maxIngestBody    = "1M"
	reviewerHeader   = "X-Reviewer"
)

func (h *HttpAPIHandler) SetupSignals(signals *echo.Group) {
	ingestLimiter := middleware.NewRateLimiterMiddleware(h.cfg.API.IngestRatePerSec, h.cfg.API.IngestRateBurst, h.cfg.API.IngestRateExpires)

	signals.POST("/ingest", h.ingestSignal, echoMiddleware.BodyLimit(maxIngestBody), ingestLimiter)
	signals.GET("/pending", h.pendingSignals)
	signals.GET("/approved", h.approvedSignals)
	signals.POST("/:id/approve", h.approveSignal)
	signals.POST("/:id/reject", h.rejectSignal)
	signals.GET("/:id", h.getSignal)
	signals.GET("", h.listSignals)
}

func (h *HttpAPIHandler) ingestSignal(c echo.Context) error {
	ctx := c.Request().Context()
	log := h.log.FromContext(ctx)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Invalid JSON payload"))
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		log.InfoContext(ctx, "Rejected undecodable ingest body", logger.IntField("size", len(body)))
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Invalid JSON payload"))
	}

	result, err := h.service.SignalService.Ingest(ctx, payload)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			return c.JSON(http.StatusBadRequest, dto.IngestRejectedResponse{
				Status: "rejected",
				Reason: "validation_failed",
				Errors: vErr.Errors,
			})
		case errors.Is(err, service.ErrInvalidPayload):
			return c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Failed to store signal"))
		}
	}

	status := result.Signal.Status
	code := http.StatusOK
	if status == model.SignalStatusRejected {
		code = http.StatusAccepted
	}
	return c.JSON(code, dto.IngestAcceptedResponse{
		Status:         "accepted",
		SignalID:       result.Signal.ID,
		ApprovalStatus: string(status),
		Message:        fmt.Sprintf("Signal %s %s", result.Signal.ID, strings.ToLower(string(status))),
		Warnings:       result.Warnings,
		Duplicate:      result.Duplicate,
	})
}

func (h *HttpAPIHandler) pendingSignals(c echo.Context) error {
	return h.signalsWithStatus(c, model.SignalStatusPending)
}

func (h *HttpAPIHandler) approvedSignals(c echo.Context) error {
	return h.signalsWithStatus(c, model.SignalStatusApproved)
}

func (h *HttpAPIHandler) signalsWithStatus(c echo.Context, status model.SignalStatus) error {
	count, signals, err := h.service.SignalService.List(c.Request().Context(), &status, -1)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Failed to list signals"))
	}
	return c.JSON(http.StatusOK, dto.SignalListResponse{Count: count, Signals: dto.NewSignalResponses(signals)})
}

func (h *HttpAPIHandler) listSignals(c echo.Context) error {
	req := new(dto.ListSignalsRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error()))
	}

	limit := defaultListLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	// An unknown status matches nothing.
	if req.Status != "" && !model.SignalStatus(req.Status).Valid() {
		return c.JSON(http.StatusOK, dto.SignalListResponse{Count: 0, Signals: []dto.SignalResponse{}})
	}

	var status *model.SignalStatus
	if req.Status != "" {
		s := model.SignalStatus(req.Status)
		status = &s
	}

	count, signals, err := h.service.SignalService.List(c.Request().Context(), status, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Failed to list signals"))
	}
	return c.JSON(http.StatusOK, dto.SignalListResponse{Count: count, Signals: dto.NewSignalResponses(signals)})
}

func (h *HttpAPIHandler) getSignal(c echo.Context) error {
	id := c.Param("id")
	signal, err := h.service.SignalService.Get(c.Request().Context(), id)
	if err != nil {
		return h.signalError(c, id, err)
	}
	return c.JSON(http.StatusOK, dto.NewSignalResponse(*signal))
}

func (h *HttpAPIHandler) approveSignal(c echo.Context) error {
	id := c.Param("id")
	_, err := h.service.SignalService.Approve(c.Request().Context(), id, h.reviewer(c))
	if err != nil {
		return h.signalError(c, id, err)
	}
	return c.JSON(http.StatusOK, dto.ReviewResponse{Status: "approved", SignalID: id})
}

func (h *HttpAPIHandler) rejectSignal(c echo.Context) error {
	req := new(dto.RejectSignalRequest)
	binder := &echo.DefaultBinder{}
	if err := binder.BindPathParams(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Invalid path parameters"))
	}
	if err := binder.BindQueryParams(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error()))
	}

	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}
	if _, err := h.service.SignalService.Reject(c.Request().Context(), req.ID, reason, h.reviewer(c)); err != nil {
		return h.signalError(c, req.ID, err)
	}
	return c.JSON(http.StatusOK, dto.RejectResponse{Status: "rejected", SignalID: req.ID, Reason: req.Reason})
}

func (h *HttpAPIHandler) reviewer(c echo.Context) service.Reviewer {
	return service.Reviewer{
		Name:   c.Request().Header.Get(reviewerHeader),
		Source: service.ReviewSourceHTTP,
	}
}

func (h *HttpAPIHandler) signalError(c echo.Context, id string, err error) error {
	switch {
	case errors.Is(err, service.ErrSignalNotFound):
		return c.JSON(http.StatusNotFound, dto.NewErrorResponse(fmt.Sprintf("Signal %s not found", id)))
	case errors.Is(err, service.ErrSignalNotPending):
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse(fmt.Sprintf("Signal %s is not pending", id)))
	default:
		h.log.FromContext(c.Request().Context()).ErrorContext(c.Request().Context(), "Signal request failed", logger.ErrorField(err), logger.StringField("signal_id", id))
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error"))
	}
}
