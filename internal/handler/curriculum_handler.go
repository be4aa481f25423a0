package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/service"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
	"github.com/openedu-vn/school-admin-api/pkg/response"
)

// CurriculumHandler handles curriculum endpoints.
type CurriculumHandler struct {
	service *service.CurriculumService
}

// NewCurriculumHandler constructs a curriculum handler.
func NewCurriculumHandler(svc *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: svc}
}

// List godoc
// @Summary List curricula
// @Tags Curricula
// @Produce json
// @Param grade_level query string false "Filter by grade level"
// @Param school_year query string false "Filter by school year"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /curricula [get]
func (h *CurriculumHandler) List(c *gin.Context) {
	q := bindListQuery(c)
	filter := models.CurriculumFilter{
		GradeLevel: c.Query("grade_level"),
		SchoolYear: c.Query("school_year"),
		Search:     q.Search,
		Page:       q.Page,
		PageSize:   q.PageSize,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}

	curricula, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curricula, pagination)
}

// Get godoc
// @Summary Get curriculum by id
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id} [get]
func (h *CurriculumHandler) Get(c *gin.Context) {
	curriculum, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curriculum, nil)
}

// Create godoc
// @Summary Create curriculum
// @Tags Curricula
// @Accept json
// @Produce json
// @Param payload body service.CreateCurriculumRequest true "Curriculum payload"
// @Success 201 {object} response.Envelope
// @Router /curricula [post]
func (h *CurriculumHandler) Create(c *gin.Context) {
	var req service.CreateCurriculumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	curriculum, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, curriculum)
}

// Update godoc
// @Summary Update curriculum
// @Tags Curricula
// @Accept json
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param payload body service.UpdateCurriculumRequest true "Curriculum payload"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id} [put]
func (h *CurriculumHandler) Update(c *gin.Context) {
	var req service.UpdateCurriculumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	curriculum, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curriculum, nil)
}

// Delete godoc
// @Summary Delete curriculum
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Success 204
// @Router /curricula/{id} [delete]
func (h *CurriculumHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Subjects godoc
// @Summary List subjects linked to a curriculum
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id}/subjects [get]
func (h *CurriculumHandler) Subjects(c *gin.Context) {
	links, err := h.service.Subjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// AddSubject godoc
// @Summary Link a subject into a curriculum
// @Tags Curricula
// @Accept json
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param payload body service.AddCurriculumSubjectRequest true "Link payload"
// @Success 201 {object} response.Envelope
// @Router /curricula/{id}/subjects [post]
func (h *CurriculumHandler) AddSubject(c *gin.Context) {
	var req service.AddCurriculumSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	link, err := h.service.AddSubject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// RemoveSubject godoc
// @Summary Unlink a subject from a curriculum
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param subjectId path string true "Subject ID"
// @Success 204
// @Router /curricula/{id}/subjects/{subjectId} [delete]
func (h *CurriculumHandler) RemoveSubject(c *gin.Context) {
	if err := h.service.RemoveSubject(c.Request.Context(), c.Param("id"), c.Param("subjectId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
