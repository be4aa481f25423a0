package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/service"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
	"github.com/openedu-vn/school-admin-api/pkg/response"
)

// ExportHandler serves asynchronous timetable exports.
type ExportHandler struct {
	service *service.ExportService
	metrics *service.MetricsService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService, metrics *service.MetricsService) *ExportHandler {
	return &ExportHandler{service: svc, metrics: metrics}
}

type exportRequestBody struct {
	SchoolID   string `json:"school_id"`
	SchoolYear string `json:"school_year" binding:"required"`
	ClassID    string `json:"class_id" binding:"required"`
	Format     string `json:"format" binding:"required"`
}

// Request godoc
// @Summary Request a timetable export
// @Description Schedules a background render of one class timetable as CSV or PDF. Poll the returned job until it completes, then follow its download URL.
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body exportRequestBody true "Export request"
// @Success 202 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Request(c *gin.Context) {
	var body exportRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	job, err := h.service.Request(c.Request.Context(), service.ExportRequest{
		SchoolID:   body.SchoolID,
		SchoolYear: body.SchoolYear,
		ClassID:    body.ClassID,
		Format:     models.ExportFormat(body.Format),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordExport(body.Format)
	response.Accepted(c, job)
}

// Get godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, job, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("timetable-%s.%s", job.ClassID, job.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", h.service.ContentType(job.Format))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
