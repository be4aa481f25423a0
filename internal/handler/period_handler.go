package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/service"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
	"github.com/openedu-vn/school-admin-api/pkg/response"
)

// PeriodHandler handles period definition endpoints.
type PeriodHandler struct {
	service *service.PeriodService
}

// NewPeriodHandler constructs a period handler.
func NewPeriodHandler(svc *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// List godoc
// @Summary List periods declared for a school year
// @Tags Periods
// @Produce json
// @Param school_id query string true "School ID"
// @Param school_year query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	filter := models.PeriodFilter{
		SchoolID:   c.Query("school_id"),
		SchoolYear: c.Query("school_year"),
	}
	if filter.SchoolID == "" || filter.SchoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "school_id and school_year are required"))
		return
	}

	periods, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// ApplyDiff godoc
// @Summary Reconcile the period set of a school year
// @Description Accepts the full desired period list. Missing stored periods are deleted (best effort), changed ones updated and new ones created, in that order. Updates and creates stop at the first failure; nothing is rolled back.
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body service.ApplyDiffRequest true "Desired period set"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Router /periods/apply [post]
func (h *PeriodHandler) ApplyDiff(c *gin.Context) {
	var req service.ApplyDiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.ApplyDiff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Partial() {
		status = http.StatusMultiStatus
	}
	response.JSON(c, status, result, nil)
}
