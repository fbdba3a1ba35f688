package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/edusched/timegrid-api/pkg/errors"

	"github.com/edusched/timegrid-api/internal/dto"
	"github.com/edusched/timegrid-api/internal/service"
	"github.com/edusched/timegrid-api/pkg/middleware/requestid"
	"github.com/edusched/timegrid-api/pkg/response"
)

// PlacementHandler manages placement validation and session moves.
type PlacementHandler struct {
	service *service.PlacementService
}

// NewPlacementHandler constructs handler.
func NewPlacementHandler(svc *service.PlacementService) *PlacementHandler {
	return &PlacementHandler{service: svc}
}

// Validate godoc
// @Summary Validate a candidate placement
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body dto.ValidatePlacementRequest true "Placement to check"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /placements/validate [post]
func (h *PlacementHandler) Validate(c *gin.Context) {
	var req dto.ValidatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Move godoc
// @Summary Move a session to a new slot
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Param payload body dto.MoveSessionRequest true "Target slot"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/move [post]
func (h *PlacementHandler) Move(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MoveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.service.Move(c.Request.Context(), id, req, requestid.Value(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Duplicate godoc
// @Summary Duplicate a session
// @Tags Placements
// @Produce json
// @Param id path int true "Session ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id}/duplicate [post]
func (h *PlacementHandler) Duplicate(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.service.Duplicate(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// History godoc
// @Summary List committed moves for a session
// @Tags Placements
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id}/audits [get]
func (h *PlacementHandler) History(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	audits, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audits, nil)
}

// Delete godoc
// @Summary Delete a session
// @Tags Placements
// @Param id path int true "Session ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [delete]
func (h *PlacementHandler) Delete(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
