package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/service"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
	"github.com/openedu-vn/school-admin-api/pkg/response"
)

// DeviceHandler handles device inventory endpoints.
type DeviceHandler struct {
	service *service.DeviceService
}

// NewDeviceHandler constructs a device handler.
func NewDeviceHandler(svc *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{service: svc}
}

// List godoc
// @Summary List devices
// @Tags Devices
// @Produce json
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by status"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /devices [get]
func (h *DeviceHandler) List(c *gin.Context) {
	q := bindListQuery(c)
	filter := models.DeviceFilter{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}

	devices, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, devices, pagination)
}

// Get godoc
// @Summary Get device by id
// @Tags Devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} response.Envelope
// @Router /devices/{id} [get]
func (h *DeviceHandler) Get(c *gin.Context) {
	device, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device, nil)
}

// Create godoc
// @Summary Register device
// @Tags Devices
// @Accept json
// @Produce json
// @Param payload body service.CreateDeviceRequest true "Device payload"
// @Success 201 {object} response.Envelope
// @Router /devices [post]
func (h *DeviceHandler) Create(c *gin.Context) {
	var req service.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	device, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, device)
}

// Update godoc
// @Summary Update device
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param payload body service.UpdateDeviceRequest true "Device payload"
// @Success 200 {object} response.Envelope
// @Router /devices/{id} [put]
func (h *DeviceHandler) Update(c *gin.Context) {
	var req service.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	device, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device, nil)
}

// Delete godoc
// @Summary Delete device
// @Tags Devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 204
// @Router /devices/{id} [delete]
func (h *DeviceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
