package http

import (
	"errors"
	"net/http"
	"signals-service/internal/dto"
	"signals-service/internal/service"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	v1 := base.Group("/v1/jobs")
	{
		v1.POST("/:type/run", h.RunJob)
	}
}

func (h *HttpAPIHandler) RunJob(c echo.Context) error {
	jobType := c.Param("type")
	result, err := h.service.SchedulerService.RunJob(c.Request().Context(), jobType)
	if errors.Is(err, service.ErrUnknownJob) {
		response := dto.NewBaseResponse(http.StatusNotFound, err.Error(), nil)
		return c.JSON(response.Code, response)
	}

	response := dto.NewSuccessResponse("Job executed", result)
	if err != nil {
		response.Code = http.StatusInternalServerError
		response.Message = err.Error()
	}
	return c.JSON(response.Code, response)
}
