package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/edusched/timegrid-api/pkg/errors"

	"github.com/edusched/timegrid-api/internal/dto"
	"github.com/edusched/timegrid-api/internal/service"
	"github.com/edusched/timegrid-api/pkg/response"
)

// GridHandler serves the rendered week grid for a class.
type GridHandler struct {
	service *service.LayoutService
}

// NewGridHandler constructs handler.
func NewGridHandler(svc *service.LayoutService) *GridHandler {
	return &GridHandler{service: svc}
}

// Week godoc
// @Summary Render the week grid for a class
// @Tags Grid
// @Produce json
// @Param id path string true "Class ID"
// @Param weekMonday query string true "Monday of the displayed week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{id}/grid [get]
func (h *GridHandler) Week(c *gin.Context) {
	weekMonday := c.Query("weekMonday")
	if weekMonday == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekMonday query parameter is required"))
		return
	}
	grid, err := h.service.WeekGrid(c.Request.Context(), c.Param("id"), weekMonday)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Cell godoc
// @Summary List sessions in one day/slot cell
// @Tags Grid
// @Produce json
// @Param id path string true "Class ID"
// @Param day query string true "Day of week name"
// @Param time query string true "Slot start (HH:MM)"
// @Param from query string true "Start of date range (YYYY-MM-DD)"
// @Param to query string true "End of date range (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{id}/grid/cell [get]
func (h *GridHandler) Cell(c *gin.Context) {
	var query dto.CellQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	sessions, err := h.service.Cell(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}
