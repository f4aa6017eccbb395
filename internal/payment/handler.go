package payment

import (
	"net/http"
	"strconv"

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

// Settle godoc
// @Summary      Pay for a completed booking
// @Description  Debits the customer wallet, credits the provider and closes the booking in one transaction.
// @Tags         payments
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        request  body      SettleRequest  true  "Booking to pay"
// @Success      201      {object}  Receipt
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /payments [post]
func (h *Handler) Settle(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.Fail(c, err)
		return
	}

	receipt, err := h.service.Settle(c.Request.Context(), userID, req.BookingID)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// List godoc
// @Summary      List own payments
// @Description  Customers see payments they made, providers payments they received.
// @Tags         payments
// @Security     ApiKeyAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"  default(50)
// @Param        offset  query     int  false  "Offset"     default(0)
// @Success      200     {array}   Payment
// @Router       /payments [get]
func (h *Handler) List(c *gin.Context) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	payments, err := h.service.List(c.Request.Context(), p, limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
