package booking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func bookingID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid booking id"})
		return 0, false
	}
	return id, true
}

func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
	}
	return p, ok
}

// Create godoc
// @Summary      Request a booking
// @Description  Creates a booking in status pending_provider.
// @Tags         bookings
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Booking"
// @Success      201      {object}  Booking
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), p.UserID, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// UpdateStatus godoc
// @Summary      Provider status change
// @Description  status=accepted with amount quotes a price, rejected declines, completed marks the work done.
// @Tags         bookings
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                  true  "Booking ID"
// @Param        request    body      UpdateStatusRequest  true  "Status change"
// @Success      200        {object}  Booking
// @Failure      400        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID} [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), p.UserID, id, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ConfirmPrice godoc
// @Summary      Customer accepts or declines the quoted price
// @Tags         bookings
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                  true  "Booking ID"
// @Param        request    body      ConfirmPriceRequest  true  "Decision"
// @Success      200        {object}  Booking
// @Failure      403        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/confirm-price [put]
func (h *Handler) ConfirmPrice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req ConfirmPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accepted == nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "accepted must be true or false"})
		return
	}

	b, err := h.service.Confirm(c.Request.Context(), p.UserID, id, *req.Accepted)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Get godoc
// @Summary      Booking details
// @Tags         bookings
// @Security     ApiKeyAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  Details
// @Failure      404        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID} [get]
func (h *Handler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// List godoc
// @Summary      List own bookings
// @Description  Customers see bookings they made, providers bookings assigned to them, admins everything.
// @Tags         bookings
// @Security     ApiKeyAuth
// @Produce      json
// @Param        status  query     string  false  "Status filter"
// @Success      200     {array}   Details
// @Router       /bookings [get]
func (h *Handler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.List(c.Request.Context(), p, c.Query("status"), limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Stats godoc
// @Summary      Bookings per day
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Param        days  query     int  false  "Window in days"  default(30)
// @Success      200   {array}   DayStats
// @Router       /admin/bookings/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 || days > 366 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "days must be between 1 and 366"})
		return
	}

	to := time.Now()
	stats, err := h.service.Stats(c.Request.Context(), to.AddDate(0, 0, -days), to)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
