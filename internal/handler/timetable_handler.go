package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openedu-vn/school-admin-api/internal/importer"
	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/service"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
	"github.com/openedu-vn/school-admin-api/pkg/response"
)

// TimetableHandler serves the timetable grid, its normalized display rows,
// cell edits and the Excel import endpoint.
type TimetableHandler struct {
	service     *service.TimetableService
	importSvc   *importer.Service
	metrics     *service.MetricsService
	maxFileSize int64
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc *service.TimetableService, importSvc *importer.Service, metrics *service.MetricsService, maxFileSize int64) *TimetableHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	return &TimetableHandler{service: svc, importSvc: importSvc, metrics: metrics, maxFileSize: maxFileSize}
}

// Grid godoc
// @Summary Get the stored timetable grid of a class
// @Tags Timetables
// @Produce json
// @Param school_year query string true "School year"
// @Param class_id query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/grid [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	schoolYear := c.Query("school_year")
	classID := c.Query("class_id")
	if schoolYear == "" || classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "school_year and class_id are required"))
		return
	}

	grid, err := h.service.Grid(c.Request.Context(), schoolYear, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Rows godoc
// @Summary Get the normalized display rows of a class timetable
// @Description Merges duplicate period declarations, sorts by start time and pairs each row with the grid. Falls back to grid keys, then a synthetic sequence, when no periods are declared.
// @Tags Timetables
// @Produce json
// @Param school_id query string true "School ID"
// @Param school_year query string true "School year"
// @Param class_id query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/rows [get]
func (h *TimetableHandler) Rows(c *gin.Context) {
	schoolID := c.Query("school_id")
	schoolYear := c.Query("school_year")
	classID := c.Query("class_id")
	if schoolID == "" || schoolYear == "" || classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "school_id, school_year and class_id are required"))
		return
	}

	result, err := h.service.Rows(c.Request.Context(), schoolID, schoolYear, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpsertEntry godoc
// @Summary Create or replace one timetable cell
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body models.TimetableEntry true "Entry payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/entries [post]
func (h *TimetableHandler) UpsertEntry(c *gin.Context) {
	var entry models.TimetableEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.UpsertEntry(c.Request.Context(), &entry); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Delete one timetable cell
// @Tags Timetables
// @Produce json
// @Param id path string true "Entry ID"
// @Param school_year query string true "School year"
// @Success 204
// @Router /timetables/entries/{id} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.DeleteEntry(c.Request.Context(), c.Param("id"), c.Query("school_year")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import a timetable workbook
// @Description Parses an .xlsx/.xls day-by-period matrix and bulk-inserts the cells whose subject names resolve against the catalog. Partial success returns the unmatched names.
// @Tags Timetables
// @Accept multipart/form-data
// @Produce json
// @Param school_id formData string true "School ID"
// @Param school_year formData string true "School year"
// @Param file formData file true "Workbook (max 5MB)"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/import [post]
func (h *TimetableHandler) Import(c *gin.Context) {
	schoolID := c.PostForm("school_id")
	schoolYear := c.PostForm("school_year")
	if schoolID == "" || schoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "school_id and school_year are required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxFileSize {
		h.metrics.RecordImport("rejected", 0)
		response.Error(c, appErrors.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	summary, err := h.importSvc.Import(c.Request.Context(), importer.Request{
		SchoolID:   schoolID,
		SchoolYear: schoolYear,
		Filename:   fileHeader.Filename,
		Data:       data,
	})
	if err != nil {
		h.metrics.RecordImport("failed", 0)
		response.Error(c, err)
		return
	}

	h.metrics.RecordImport("succeeded", summary.SubmittedCount)
	response.JSON(c, http.StatusOK, summary, nil)
}
