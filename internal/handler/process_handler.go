package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/certpath/certpath-api/internal/dto"
	"github.com/certpath/certpath-api/internal/models"
	"github.com/certpath/certpath-api/internal/service"
	appErrors "github.com/certpath/certpath-api/pkg/errors"
	"github.com/certpath/certpath-api/pkg/response"
)

// ProcessHandler exposes certification process endpoints.
type ProcessHandler struct {
	processes     *service.ProcessService
	notifications *service.NotificationService
	reports       *service.ReportService
}

// NewProcessHandler constructs ProcessHandler.
func NewProcessHandler(processes *service.ProcessService, notifications *service.NotificationService, reports *service.ReportService) *ProcessHandler {
	return &ProcessHandler{processes: processes, notifications: notifications, reports: reports}
}

// Start godoc
// @Summary Open a certification process
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StartProcessRequest true "Process options"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/process [post]
func (h *ProcessHandler) Start(c *gin.Context) {
	var req dto.StartProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	process, err := h.processes.Start(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, process)
}

// View godoc
// @Summary Process detail with timeline and SLA verdict
// @Tags Processes
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/process [get]
func (h *ProcessHandler) View(c *gin.Context) {
	view, err := h.processes.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// UpdateStatus godoc
// @Summary Move a process to another stage
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateStatusRequest true "Target stage"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/process/status [put]
func (h *ProcessHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	process, err := h.processes.UpdateStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, process, nil)
}

// UpdateDates godoc
// @Summary Retroactively correct stage timestamps
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateDatesRequest true "Stage dates"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/process/dates [put]
func (h *ProcessHandler) UpdateDates(c *gin.Context) {
	var req dto.UpdateDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	process, err := h.processes.UpdateDates(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, process, nil)
}

// Notify godoc
// @Summary Send the WhatsApp progress message
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.NotifyRequest true "Message template"
// @Success 202 {object} response.Envelope
// @Router /students/{id}/process/notify [post]
func (h *ProcessHandler) Notify(c *gin.Context) {
	var req dto.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	preview, err := h.notifications.Send(c.Request.Context(), c.Param("id"), req.Template, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": true, "preview": preview}, nil)
}

// Report godoc
// @Summary Download the timeline report as PDF
// @Tags Processes
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} binary
// @Router /students/{id}/process/report [get]
func (h *ProcessHandler) Report(c *gin.Context) {
	file, err := h.reports.TimelinePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.MimeType, file.Content)
}

// List godoc
// @Summary List processes with SLA badges
// @Tags Processes
// @Produce json
// @Param stage query string false "Filter by current stage"
// @Param search query string false "Search by student name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /processes [get]
func (h *ProcessHandler) List(c *gin.Context) {
	var filter models.ProcessFilter
	filter.Stage = models.StageID(c.Query("stage"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	items, pagination, err := h.processes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
