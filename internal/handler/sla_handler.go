package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certpath/certpath-api/internal/dto"
	"github.com/certpath/certpath-api/internal/service"
	appErrors "github.com/certpath/certpath-api/pkg/errors"
	"github.com/certpath/certpath-api/pkg/response"
)

// SLAHandler exposes the deadline table endpoints.
type SLAHandler struct {
	sla *service.SLAService
}

// NewSLAHandler constructs SLAHandler.
func NewSLAHandler(sla *service.SLAService) *SLAHandler {
	return &SLAHandler{sla: sla}
}

// List godoc
// @Summary List SLA deadlines per stage
// @Tags SLA
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sla [get]
func (h *SLAHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.sla.List(c.Request.Context()), nil)
}

// Update godoc
// @Summary Update SLA deadlines
// @Tags SLA
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSLARequest true "Deadline rows"
// @Success 200 {object} response.Envelope
// @Router /sla [put]
func (h *SLAHandler) Update(c *gin.Context) {
	var req dto.UpdateSLARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	items, err := h.sla.Update(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
