package chat

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

func ids(c *gin.Context) (userID, bookingID int, ok bool) {
	userID, ok = auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return 0, 0, false
	}
	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil || bookingID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid booking id"})
		return 0, 0, false
	}
	return userID, bookingID, true
}

// Send godoc
// @Summary      Send a chat message
// @Tags         chat
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int          true  "Booking ID"
// @Param        request    body      SendRequest  true  "Message"
// @Success      201        {object}  Message
// @Failure      400        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/messages [post]
func (h *Handler) Send(c *gin.Context) {
	userID, bookingID, ok := ids(c)
	if !ok {
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	m, err := h.service.Send(c.Request.Context(), userID, bookingID, req.Body)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// List godoc
// @Summary      Poll chat messages
// @Description  Returns messages newer than after and marks the other party's messages read.
// @Tags         chat
// @Security     ApiKeyAuth
// @Produce      json
// @Param        bookingID  path      int  true   "Booking ID"
// @Param        after      query     int  false  "Last seen message id"  default(0)
// @Param        limit      query     int  false  "Page size"             default(50)
// @Success      200        {array}   Message
// @Router       /bookings/{bookingID}/messages [get]
func (h *Handler) List(c *gin.Context) {
	userID, bookingID, ok := ids(c)
	if !ok {
		return
	}

	after, _ := strconv.Atoi(c.DefaultQuery("after", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.service.List(c.Request.Context(), userID, bookingID, after, limit)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Unread godoc
// @Summary      Unread message count
// @Tags         chat
// @Security     ApiKeyAuth
// @Produce      json
// @Success      200  {object}  UnreadResponse
// @Router       /chat/unread [get]
func (h *Handler) Unread(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	n, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, UnreadResponse{Unread: n})
}
